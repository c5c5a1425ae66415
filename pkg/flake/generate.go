package flake

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nixforge/flakepin/pkg/errors"
)

// flakeTemplate is the document written when no flake.nix exists yet. It
// pins nixpkgs to a concrete revision and exposes a dev shell with
// terraform; creation bypasses tree editing entirely.
const flakeTemplate = `{
  description = "Development environment";

  inputs = {
    nixpkgs.url = "github:NixOS/nixpkgs/%s";
    flake-parts.url = "github:hercules-ci/flake-parts";
  };

  outputs = inputs:
    inputs.flake-parts.lib.mkFlake { inherit inputs; } {
      systems = [ "x86_64-linux" "aarch64-linux" "x86_64-darwin" "aarch64-darwin" ];
      perSystem = { pkgs, ... }: {
        devShells.default = pkgs.mkShell {
          buildInputs = [
            pkgs.terraform
          ];
        };
      };
    };
}
`

// Generate writes a fresh flake.nix into dir embedding the given nixpkgs
// revision.
func Generate(dir, rev string) error {
	path := filepath.Join(dir, "flake.nix")
	content := fmt.Sprintf(flakeTemplate, rev)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}
