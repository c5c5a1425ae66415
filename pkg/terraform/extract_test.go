package terraform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nixforge/flakepin/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const mainTF = `
terraform {
  required_version = "~> 1.5.0"

  required_providers {
    aws = {
      source  = "hashicorp/aws"
      version = "~> 5.0"
    }
  }
}

resource "aws_s3_bucket" "state" {
  bucket = "my-state-bucket"
}
`

func TestExtractRequiredVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", mainTF)

	got, err := ExtractRequiredVersion(dir)
	if err != nil {
		t.Fatalf("ExtractRequiredVersion: %v", err)
	}
	if got != "~> 1.5.0" {
		t.Errorf("constraint = %q, want %q", got, "~> 1.5.0")
	}
}

func TestExtractIdenticalAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "versions.tf", "terraform {\n  required_version = \"1.2.0\"\n}\n")
	writeFile(t, dir, "backend.tf", "terraform {\n  required_version = \"1.2.0\"\n}\n")

	got, err := ExtractRequiredVersion(dir)
	if err != nil {
		t.Fatalf("ExtractRequiredVersion: %v", err)
	}
	if got != "1.2.0" {
		t.Errorf("constraint = %q, want %q", got, "1.2.0")
	}
}

func TestExtractConflicting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tf", "terraform {\n  required_version = \"1.2.0\"\n}\n")
	writeFile(t, dir, "b.tf", "terraform {\n  required_version = \"1.3.0\"\n}\n")

	_, err := ExtractRequiredVersion(dir)
	if err == nil {
		t.Fatal("ExtractRequiredVersion succeeded, want conflict error")
	}
	if !errors.Is(err, errors.ErrCodeConflictingRequirements) {
		t.Fatalf("error code = %v, want CONFLICTING_REQUIREMENTS", errors.GetCode(err))
	}

	// The failure has to name every value and its source file.
	msg := err.Error()
	for _, want := range []string{"1.2.0", "1.3.0", "a.tf", "b.tf"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message missing %q: %s", want, msg)
		}
	}
}

func TestExtractNoneFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", "resource \"null_resource\" \"noop\" {}\n")

	_, err := ExtractRequiredVersion(dir)
	if err == nil {
		t.Fatal("ExtractRequiredVersion succeeded, want NOT_FOUND")
	}
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error code = %v, want NOT_FOUND", errors.GetCode(err))
	}
}

func TestExtractSkipsUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	// A file that would fail to parse as HCL, but never mentions
	// required_version, must be skipped without an error.
	writeFile(t, dir, "broken.tf", "this is { not [ valid hcl\n")
	writeFile(t, dir, "versions.tf", "terraform {\n  required_version = \">= 1.3.0, < 2.0.0\"\n}\n")
	writeFile(t, dir, "notes.txt", "required_version = \"9.9.9\"\n")

	got, err := ExtractRequiredVersion(dir)
	if err != nil {
		t.Fatalf("ExtractRequiredVersion: %v", err)
	}
	if got != ">= 1.3.0, < 2.0.0" {
		t.Errorf("constraint = %q, want %q", got, ">= 1.3.0, < 2.0.0")
	}
}

func TestExtractEmptyDir(t *testing.T) {
	_, err := ExtractRequiredVersion(t.TempDir())
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error code = %v, want NOT_FOUND", errors.GetCode(err))
	}
}
