// Package flake inspects and edits flake.nix files.
//
// Inspection and editing both go through the lossless syntax tree in
// pkg/nix: presence checks scan identifier tokens, and edits splice
// replacement text around exact token spans so every unrelated byte of
// the document survives untouched. Detection of the pinned nixpkgs
// revision is deliberately heuristic (lock file path, then URL pattern
// matching) rather than semantic; see the package's design notes.
package flake

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/nixforge/flakepin/pkg/errors"
	"github.com/nixforge/flakepin/pkg/nix"
	"github.com/nixforge/flakepin/pkg/nixpkgs"
	"github.com/nixforge/flakepin/pkg/version"
)

// nixpkgsURLPrefix introduces the pinned revision inside flake.nix.
const nixpkgsURLPrefix = "github:NixOS/nixpkgs/"

// lockRevPath is the fixed flake.lock path holding the locked revision.
const lockRevPath = "nodes.nixpkgs.locked.rev"

var (
	commitRevPattern = regexp.MustCompile(`github:NixOS/nixpkgs/([a-f0-9]{40})`)
	branchRevPattern = regexp.MustCompile(`github:NixOS/nixpkgs/([a-zA-Z0-9._-]+)`)
)

// CheckStatus classifies the outcome of inspecting an existing flake.
type CheckStatus int

const (
	// CheckNotFound means terraform does not appear in the flake at all.
	CheckNotFound CheckStatus = iota
	// CheckUnknown means the terraform version could not be determined.
	CheckUnknown
	// CheckSatisfied means the pinned terraform satisfies the constraint.
	CheckSatisfied
	// CheckWrongVersion means terraform is pinned to a non-matching version.
	CheckWrongVersion
)

// CheckResult is the inspection outcome; Version is only meaningful for
// CheckSatisfied and CheckWrongVersion.
type CheckResult struct {
	Status  CheckStatus
	Version version.Version
}

// Check reports whether the existing flake.nix in dir provides a
// Terraform version satisfying the constraint. The caller must have
// verified that flake.nix exists; a missing file is an IO_ERROR here.
func Check(ctx context.Context, dir string, constraint *version.Constraint, resolver *nixpkgs.Client) (CheckResult, error) {
	path := filepath.Join(dir, "flake.nix")
	source, err := os.ReadFile(path)
	if err != nil {
		return CheckResult{}, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}

	tree := nix.Parse(string(source))
	if !hasTerraform(tree) {
		return CheckResult{Status: CheckNotFound}, nil
	}

	rev, ok, err := findNixpkgsRev(dir, string(source))
	if err != nil {
		return CheckResult{}, err
	}
	if !ok {
		return CheckResult{Status: CheckUnknown}, nil
	}

	versionStr, ok, err := resolver.TerraformVersionAt(ctx, rev)
	if err != nil {
		return CheckResult{}, err
	}
	if !ok {
		return CheckResult{Status: CheckUnknown}, nil
	}

	v, err := version.Parse(versionStr)
	if err != nil {
		return CheckResult{}, err
	}

	if constraint.Matches(v) {
		return CheckResult{Status: CheckSatisfied, Version: v}, nil
	}
	return CheckResult{Status: CheckWrongVersion, Version: v}, nil
}

// hasTerraform reports whether any identifier token in the tree is
// exactly "terraform". This is a deliberate document-wide heuristic: it
// does not scope the search to buildInputs, trading false positives for
// simplicity.
func hasTerraform(tree *nix.Tree) bool {
	for _, tok := range tree.Tokens() {
		if tok.Kind == nix.TokenIdent && tree.Text(tok) == "terraform" {
			return true
		}
	}
	return false
}

// findNixpkgsRev discovers the pinned nixpkgs revision, trying the lock
// file first and falling back to URL pattern matching on the flake source.
// A branch name is accepted as a revision of last resort.
func findNixpkgsRev(dir, flakeSource string) (string, bool, error) {
	lockPath := filepath.Join(dir, "flake.lock")
	if data, err := os.ReadFile(lockPath); err == nil {
		if !gjson.ValidBytes(data) {
			return "", false, errors.New(errors.ErrCodeParse, "failed to parse %s", lockPath)
		}
		if rev := gjson.GetBytes(data, lockRevPath); rev.Exists() && rev.String() != "" {
			return rev.String(), true, nil
		}
	} else if !os.IsNotExist(err) {
		return "", false, errors.Wrap(errors.ErrCodeIO, err, "read %s", lockPath)
	}

	if m := commitRevPattern.FindStringSubmatch(flakeSource); m != nil {
		return m[1], true, nil
	}
	if m := branchRevPattern.FindStringSubmatch(flakeSource); m != nil {
		return m[1], true, nil
	}
	return "", false, nil
}
