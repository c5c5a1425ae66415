package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nixforge/flakepin/pkg/errors"
	"github.com/nixforge/flakepin/pkg/flake"
	"github.com/nixforge/flakepin/pkg/github"
	"github.com/nixforge/flakepin/pkg/nixpkgs"
	"github.com/nixforge/flakepin/pkg/terraform"
	verpkg "github.com/nixforge/flakepin/pkg/version"
)

// newPinCmd creates the pin command.
//
// Without an argument the search uses the constraint declared in the .tf
// files. With an explicit VERSION the search pins exactly that version,
// warning (but not failing) when it falls outside the declared constraint.
func newPinCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "pin [VERSION]",
		Short: "Resolve the Terraform constraint and pin it into flake.nix",
		Long: `Resolve the required_version constraint from the .tf files in the
working directory against nixpkgs and pin the matching commit into flake.nix.

Examples:
  flakepin pin             # pin the newest release satisfying the constraint
  flakepin pin 1.5.7       # pin exactly Terraform 1.5.7
  flakepin pin --dir infra # operate on ./infra instead of the current directory`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := ""
			if len(args) == 1 {
				requested = args[0]
			}
			return runPin(cmd, opts, requested)
		},
	}
}

func runPin(cmd *cobra.Command, opts *rootOpts, requested string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	dir, err := workdir(opts)
	if err != nil {
		return err
	}

	constraintStr, err := terraform.ExtractRequiredVersion(dir)
	if err != nil {
		return err
	}
	printInfo("Constraint: %s", StyleHighlight.Render(constraintStr))

	declared, err := verpkg.ParseConstraint(constraintStr)
	if err != nil {
		return err
	}

	// An explicit version narrows the search to an exact match; a mismatch
	// against the declared constraint is worth flagging but not fatal.
	search := declared
	if requested != "" {
		v, err := verpkg.Parse(requested)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid version: %s", requested)
		}
		if !declared.Matches(v) {
			printWarning("%s does not satisfy constraint %q", v, constraintStr)
		}
		search, err = verpkg.ParseConstraint("= " + v.String())
		if err != nil {
			return err
		}
	}

	resolver := nixpkgs.NewClient(github.NewClient(opts.token()), logger)

	flakePath := filepath.Join(dir, "flake.nix")
	flakeExists := fileExists(flakePath)
	if flakeExists {
		result, err := flake.Check(ctx, dir, search, resolver)
		if err != nil {
			return err
		}
		switch result.Status {
		case flake.CheckSatisfied:
			printSuccess("Existing flake.nix already satisfies constraint (Terraform %s)", result.Version)
			return nil
		case flake.CheckWrongVersion:
			printInfo("Existing flake.nix has Terraform %s (not a match)", result.Version)
		case flake.CheckNotFound:
			printInfo("Existing flake.nix does not include Terraform")
		case flake.CheckUnknown:
			printInfo("Could not determine Terraform version in existing flake.nix")
		}
	}

	if requested != "" {
		printInfo("Searching nixpkgs for Terraform %s...", requested)
	} else {
		printInfo("Searching nixpkgs for Terraform satisfying %q...", constraintStr)
	}

	p := newProgress(logger)
	found, rev, err := resolver.FindTerraformCommit(ctx, search)
	if err != nil {
		if requested != "" {
			return errors.Wrap(errors.GetCode(err), err, "Terraform %s not found in nixpkgs", requested)
		}
		return errors.Wrap(errors.GetCode(err), err, "no Terraform version satisfying %q found in nixpkgs", constraintStr)
	}
	p.done("nixpkgs search finished")
	printSuccess("Found Terraform %s at nixpkgs %s", found, shortRev(rev))

	if flakeExists {
		if err := flake.Update(dir, rev); err != nil {
			return err
		}
		printSuccess("Updated flake.nix")
	} else {
		if err := flake.Generate(dir, rev); err != nil {
			return err
		}
		printSuccess("Generated flake.nix")
	}
	printFile(flakePath)

	return nil
}

// workdir resolves the --dir flag to an absolute path and verifies that it
// names an existing directory.
func workdir(opts *rootOpts) (string, error) {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid directory: %s", opts.dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid directory: %s", opts.dir)
	}
	if !info.IsDir() {
		return "", errors.New(errors.ErrCodeInvalidInput, "not a directory: %s", dir)
	}
	return dir, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// shortRev abbreviates a commit SHA for display.
func shortRev(rev string) string {
	if len(rev) >= 12 {
		return rev[:12]
	}
	return rev
}
