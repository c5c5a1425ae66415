package flake

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nixforge/flakepin/pkg/errors"
	"github.com/nixforge/flakepin/pkg/nix"
)

// fallbackIndent is used when the list's closing bracket sits on the
// first line of the document and no indentation can be derived.
const fallbackIndent = "            "

// Update rewrites the existing flake.nix in dir to pin the given nixpkgs
// revision, adding pkgs.terraform to buildInputs when it is not already
// present. The two edits run in sequence: the terraform presence check
// operates on the already revision-updated text. The document is written
// back in a single whole-file replace.
func Update(dir, rev string) error {
	path := filepath.Join(dir, "flake.nix")
	source, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}

	result, err := ReplaceNixpkgsURL(string(source), rev)
	if err != nil {
		return err
	}

	if !hasTerraform(nix.Parse(result)) {
		result, err = AddTerraformToBuildInputs(result)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, []byte(result), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

// ReplaceNixpkgsURL replaces the pinned nixpkgs URL in source with one
// naming rev. It finds the first string-content token anywhere in the
// tree containing the nixpkgs URL prefix and replaces that token's entire
// span, so whatever followed the prefix (old commit, branch name) is
// dropped along with it. Every byte outside the token span is preserved.
func ReplaceNixpkgsURL(source, rev string) (string, error) {
	tree := nix.Parse(source)

	for _, tok := range tree.Tokens() {
		if tok.Kind != nix.TokenStringContent {
			continue
		}
		if !strings.Contains(tree.Text(tok), nixpkgsURLPrefix) {
			continue
		}

		var b strings.Builder
		b.Grow(len(source))
		b.WriteString(source[:tok.Start])
		b.WriteString(nixpkgsURLPrefix + rev)
		b.WriteString(source[tok.End:])
		return b.String(), nil
	}

	return "", errors.New(errors.ErrCodeStructureNotFound, "could not find nixpkgs URL in flake.nix")
}

// AddTerraformToBuildInputs splices pkgs.terraform into the buildInputs
// list: it locates the first binding whose flattened text mentions
// buildInputs, that binding's first list node, and the list's closing
// bracket, then inserts a new entry immediately before the bracket with
// indentation derived from the bracket's own line.
func AddTerraformToBuildInputs(source string) (string, error) {
	tree := nix.Parse(source)

	foundBinding := false
	for _, node := range tree.Nodes() {
		if node.Kind != nix.NodeBinding || !strings.Contains(tree.Text(node), "buildInputs") {
			continue
		}
		foundBinding = true

		for _, inner := range node.Nodes() {
			if inner.Kind != nix.NodeList {
				continue
			}
			for _, ch := range inner.Children {
				tok, ok := ch.(nix.Token)
				if !ok || tok.Kind != nix.TokenRBrack {
					continue
				}

				indent := listIndent(source, tok.Start)
				insertion := indent + "pkgs.terraform\n" + indent[:max(0, len(indent)-2)]

				var b strings.Builder
				b.Grow(len(source) + len(insertion))
				b.WriteString(source[:tok.Start])
				b.WriteString(insertion)
				b.WriteString(source[tok.Start:])
				return b.String(), nil
			}
		}
	}

	if !foundBinding {
		return "", errors.New(errors.ErrCodeStructureNotFound, "could not find buildInputs in flake.nix")
	}
	return "", errors.New(errors.ErrCodeStructureNotFound, "could not find list in buildInputs")
}

// listIndent derives the indentation for a new list entry: the whitespace
// prefix of the closing bracket's own line plus two additional spaces.
func listIndent(source string, bracketPos int) string {
	before := source[:bracketPos]
	nl := strings.LastIndexByte(before, '\n')
	if nl < 0 {
		return fallbackIndent
	}

	line := before[nl+1:]
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i] + "  "
}
