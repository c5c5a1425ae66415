// Package pkg provides the core libraries for flakepin.
//
// # Overview
//
// flakepin pins the Terraform version demanded by a project's .tf files
// into a Nix flake. The pkg directory is organized by concern:
//
//  1. [terraform] - Extract required_version constraints from .tf files
//  2. [version] - Version triples and Terraform constraint algebra
//  3. [nixpkgs] - Search nixpkgs history for a commit shipping a match
//  4. [nix] - Lossless Nix syntax tree for surgical flake.nix edits
//  5. [flake] - Inspect, update, and generate flake.nix documents
//  6. [github] - Thin GitHub REST and raw-content client
//  7. [errors] - Structured errors with stable codes
//
// # Architecture
//
// The typical data flow:
//
//	.tf files
//	     ↓
//	[terraform] package (extract required_version)
//	     ↓
//	[version] package (parse constraint)
//	     ↓
//	[nixpkgs] package (resolve to a concrete commit, via [github])
//	     ↓
//	[flake] package (pin the commit into flake.nix, via [nix])
//
// # Quick Start
//
// Resolve a constraint and pin it:
//
//	constraintStr, _ := terraform.ExtractRequiredVersion(dir)
//	constraint, _ := version.ParseConstraint(constraintStr)
//
//	resolver := nixpkgs.NewClient(github.NewClient(token), logger)
//	v, rev, _ := resolver.FindTerraformCommit(ctx, constraint)
//
//	_ = flake.Update(dir, rev) // or flake.Generate when no flake exists
//
// [terraform]: https://pkg.go.dev/github.com/nixforge/flakepin/pkg/terraform
// [version]: https://pkg.go.dev/github.com/nixforge/flakepin/pkg/version
// [nixpkgs]: https://pkg.go.dev/github.com/nixforge/flakepin/pkg/nixpkgs
// [nix]: https://pkg.go.dev/github.com/nixforge/flakepin/pkg/nix
// [flake]: https://pkg.go.dev/github.com/nixforge/flakepin/pkg/flake
// [github]: https://pkg.go.dev/github.com/nixforge/flakepin/pkg/github
// [errors]: https://pkg.go.dev/github.com/nixforge/flakepin/pkg/errors
package pkg
