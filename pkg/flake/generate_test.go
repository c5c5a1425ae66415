package flake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	rev := strings.Repeat("cd", 20)

	if err := Generate(dir, rev); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "flake.nix"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, "github:NixOS/nixpkgs/"+rev) {
		t.Error("generated flake does not pin the revision")
	}
	if !strings.Contains(content, "pkgs.terraform") {
		t.Error("generated flake does not include terraform")
	}

	// The generated document must round-trip cleanly and be recognized
	// by the same inspection helpers used for existing flakes.
	if _, err := ReplaceNixpkgsURL(content, strings.Repeat("ef", 20)); err != nil {
		t.Errorf("generated flake not re-editable: %v", err)
	}
}
