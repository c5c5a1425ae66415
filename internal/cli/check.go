package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nixforge/flakepin/pkg/errors"
	"github.com/nixforge/flakepin/pkg/flake"
	"github.com/nixforge/flakepin/pkg/github"
	"github.com/nixforge/flakepin/pkg/nixpkgs"
	"github.com/nixforge/flakepin/pkg/terraform"
	verpkg "github.com/nixforge/flakepin/pkg/version"
)

// newCheckCmd creates the check command. It exits non-zero whenever the
// existing flake does not demonstrably satisfy the constraint, which makes
// it usable as a CI gate.
func newCheckCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check whether flake.nix already satisfies the Terraform constraint",
		Long: `Read the required_version constraint from the .tf files and report
whether the Terraform version pinned in the existing flake.nix satisfies it.

Exits non-zero when flake.nix is missing, does not include Terraform, pins a
non-matching version, or the pinned version cannot be determined.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}
}

func runCheck(cmd *cobra.Command, opts *rootOpts) error {
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

	constraint, err := verpkg.ParseConstraint(constraintStr)
	if err != nil {
		return err
	}

	flakePath := filepath.Join(dir, "flake.nix")
	if !fileExists(flakePath) {
		printError("No flake.nix found")
		return errors.New(errors.ErrCodeNotFound, "no flake.nix in %s", dir)
	}

	resolver := nixpkgs.NewClient(github.NewClient(opts.token()), logger)
	result, err := flake.Check(ctx, dir, constraint, resolver)
	if err != nil {
		return err
	}

	switch result.Status {
	case flake.CheckSatisfied:
		printSuccess("flake.nix satisfies the constraint")
		printKeyValue("Terraform", result.Version.String())
		return nil
	case flake.CheckWrongVersion:
		printError("flake.nix pins Terraform %s, which does not match", result.Version)
		return errors.New(errors.ErrCodeNoCandidate, "Terraform %s does not satisfy %q", result.Version, constraintStr)
	case flake.CheckNotFound:
		printError("flake.nix does not include Terraform")
		return errors.New(errors.ErrCodeNotFound, "terraform not present in flake.nix")
	default:
		printError("Could not determine the pinned Terraform version")
		printDetail("run 'flakepin pin' to resolve and pin the constraint")
		return errors.New(errors.ErrCodeNotFound, "pinned terraform version unknown")
	}
}
