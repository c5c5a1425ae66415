package flake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nixforge/flakepin/pkg/errors"
)

const pinnedFlake = `{
  description = "Development environment"; # keep this comment

  inputs = {
    nixpkgs.url = "github:NixOS/nixpkgs/0123456789abcdef0123456789abcdef01234567";
  };

  outputs = { self, nixpkgs }: {
    devShells.x86_64-linux.default = let
      pkgs = import nixpkgs { system = "x86_64-linux"; };
    in pkgs.mkShell {
      buildInputs = [
        pkgs.terraform
      ];
    };
  };
}
`

func TestReplaceNixpkgsURL(t *testing.T) {
	newRev := strings.Repeat("ab", 20)
	got, err := ReplaceNixpkgsURL(pinnedFlake, newRev)
	if err != nil {
		t.Fatalf("ReplaceNixpkgsURL: %v", err)
	}

	oldURL := "github:NixOS/nixpkgs/0123456789abcdef0123456789abcdef01234567"
	start := strings.Index(pinnedFlake, oldURL)
	want := pinnedFlake[:start] + "github:NixOS/nixpkgs/" + newRev + pinnedFlake[start+len(oldURL):]
	if got != want {
		t.Errorf("edited text differs from expected splice:\n got: %q\nwant: %q", got, want)
	}

	// Every byte outside the replaced token span must be untouched.
	if !strings.HasPrefix(got, pinnedFlake[:start]) {
		t.Error("bytes before the URL token changed")
	}
	if !strings.HasSuffix(got, pinnedFlake[start+len(oldURL):]) {
		t.Error("bytes after the URL token changed")
	}
}

func TestReplaceNixpkgsURLBranchForm(t *testing.T) {
	source := `{ inputs.nixpkgs.url = "github:NixOS/nixpkgs/nixos-24.05"; }`
	rev := strings.Repeat("cd", 20)

	got, err := ReplaceNixpkgsURL(source, rev)
	if err != nil {
		t.Fatalf("ReplaceNixpkgsURL: %v", err)
	}
	want := `{ inputs.nixpkgs.url = "github:NixOS/nixpkgs/` + rev + `"; }`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReplaceNixpkgsURLMissing(t *testing.T) {
	_, err := ReplaceNixpkgsURL(`{ description = "no nixpkgs here"; }`, "abc")
	if err == nil {
		t.Fatal("ReplaceNixpkgsURL succeeded, want STRUCTURE_NOT_FOUND")
	}
	if !errors.Is(err, errors.ErrCodeStructureNotFound) {
		t.Errorf("error code = %v, want STRUCTURE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestReplaceIgnoresCommentText(t *testing.T) {
	// The URL appears inside a comment and inside a string; only the
	// string-content token is a candidate for replacement.
	source := "{\n  # github:NixOS/nixpkgs/ffffffffffffffffffffffffffffffffffffffff\n  inputs.nixpkgs.url = \"github:NixOS/nixpkgs/old\";\n}\n"
	rev := strings.Repeat("12", 20)

	got, err := ReplaceNixpkgsURL(source, rev)
	if err != nil {
		t.Fatalf("ReplaceNixpkgsURL: %v", err)
	}
	if !strings.Contains(got, "# github:NixOS/nixpkgs/ffffffffffffffffffffffffffffffffffffffff") {
		t.Error("comment text was modified")
	}
	if !strings.Contains(got, `"github:NixOS/nixpkgs/`+rev+`"`) {
		t.Error("string content was not replaced")
	}
}

func TestAddTerraformToBuildInputs(t *testing.T) {
	source := "buildInputs = [ pkgs.git\n  pkgs.jq\n];\n"

	got, err := AddTerraformToBuildInputs(source)
	if err != nil {
		t.Fatalf("AddTerraformToBuildInputs: %v", err)
	}

	want := "buildInputs = [ pkgs.git\n  pkgs.jq\n  pkgs.terraform\n];\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAddTerraformIndentFromBracketLine(t *testing.T) {
	source := "{\n  buildInputs = [\n    pkgs.git\n  ];\n}\n"

	got, err := AddTerraformToBuildInputs(source)
	if err != nil {
		t.Fatalf("AddTerraformToBuildInputs: %v", err)
	}

	// The new entry's indentation is the bracket line's whitespace plus
	// two spaces, spliced immediately before the bracket token.
	want := "{\n  buildInputs = [\n    pkgs.git\n      pkgs.terraform\n  ];\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAddTerraformNoBuildInputs(t *testing.T) {
	_, err := AddTerraformToBuildInputs("{ packages = [ pkgs.git ]; }")
	if err == nil {
		t.Fatal("AddTerraformToBuildInputs succeeded, want STRUCTURE_NOT_FOUND")
	}
	if !errors.Is(err, errors.ErrCodeStructureNotFound) {
		t.Errorf("error code = %v, want STRUCTURE_NOT_FOUND", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "buildInputs") {
		t.Errorf("error should mention buildInputs: %v", err)
	}
}

func TestAddTerraformNoList(t *testing.T) {
	_, err := AddTerraformToBuildInputs("{ buildInputs = pkgs.someDerivation; }")
	if err == nil {
		t.Fatal("AddTerraformToBuildInputs succeeded, want STRUCTURE_NOT_FOUND")
	}
	if !errors.Is(err, errors.ErrCodeStructureNotFound) {
		t.Errorf("error code = %v, want STRUCTURE_NOT_FOUND", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "list") {
		t.Errorf("error should mention the missing list: %v", err)
	}
}

func TestUpdateReplacesAndInserts(t *testing.T) {
	dir := t.TempDir()
	source := `{
  inputs.nixpkgs.url = "github:NixOS/nixpkgs/nixos-unstable";
  outputs = { self, nixpkgs }: {
    devShell = mkShell {
      buildInputs = [
        git
      ];
    };
  };
}
`
	path := filepath.Join(dir, "flake.nix")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	rev := strings.Repeat("ef", 20)
	if err := Update(dir, rev); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(updated)

	if !strings.Contains(text, `"github:NixOS/nixpkgs/`+rev+`"`) {
		t.Error("revision was not pinned")
	}
	if !strings.Contains(text, "pkgs.terraform") {
		t.Error("terraform was not added to buildInputs")
	}
	if !strings.Contains(text, "git\n") {
		t.Error("existing list entry was disturbed")
	}
}

func TestUpdateSkipsInsertWhenPresent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flake.nix")
	if err := os.WriteFile(path, []byte(pinnedFlake), 0o644); err != nil {
		t.Fatal(err)
	}

	rev := strings.Repeat("09", 20)
	if err := Update(dir, rev); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Count(string(updated), "pkgs.terraform"); got != 1 {
		t.Errorf("pkgs.terraform appears %d times, want 1", got)
	}
}

func TestUpdateMissingFlake(t *testing.T) {
	err := Update(t.TempDir(), "abc")
	if !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("error code = %v, want IO_ERROR", errors.GetCode(err))
	}
}
