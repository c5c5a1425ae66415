// Package terraform extracts the required_version constraint from the
// Terraform configuration files in a working directory.
package terraform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/nixforge/flakepin/pkg/errors"
)

// requirement is one required_version declaration together with the file
// that declared it.
type requirement struct {
	constraint string
	file       string
}

var terraformBlockSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "terraform"}},
}

var requiredVersionSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "required_version"}},
}

// ExtractRequiredVersion scans every .tf file in dir and returns the single
// required_version constraint string they agree on.
//
// Files that never mention required_version are skipped without parsing.
// Zero contributing files fails with NOT_FOUND; divergent values fail with
// CONFLICTING_REQUIREMENTS listing every value and its source file.
func ExtractRequiredVersion(dir string) (string, error) {
	paths, err := doublestar.Glob(filepath.Join(dir, "*.tf"))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "glob %s", dir)
	}

	var reqs []requirement
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
		}

		// Cheap pre-filter: files without the attribute text cannot
		// contribute, so they are not worth parsing.
		if !strings.Contains(string(content), "required_version") {
			continue
		}

		found, err := requiredVersionsIn(content, path)
		if err != nil {
			return "", err
		}
		reqs = append(reqs, found...)
	}

	switch len(reqs) {
	case 0:
		return "", errors.New(errors.ErrCodeNotFound, "no required_version found in any .tf files in %s", dir)
	case 1:
		return reqs[0].constraint, nil
	}

	first := reqs[0].constraint
	for _, r := range reqs[1:] {
		if r.constraint != first {
			return "", conflictError(reqs)
		}
	}
	return first, nil
}

// requiredVersionsIn parses one .tf file and collects every
// terraform.required_version string it declares.
func requiredVersionsIn(content []byte, path string) ([]requirement, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeParse, diags, "failed to parse HCL in %s", path)
	}

	blocks, _, diags := file.Body.PartialContent(terraformBlockSchema)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeParse, diags, "failed to read terraform blocks in %s", path)
	}

	var reqs []requirement
	for _, block := range blocks.Blocks {
		attrs, _, diags := block.Body.PartialContent(requiredVersionSchema)
		if diags.HasErrors() {
			return nil, errors.Wrap(errors.ErrCodeParse, diags, "failed to read required_version in %s", path)
		}
		attr, ok := attrs.Attributes["required_version"]
		if !ok {
			continue
		}

		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() || val.Type() != cty.String || val.IsNull() {
			// Non-literal expressions (variables, functions) carry no
			// usable constraint text; skip them like a missing attribute.
			continue
		}
		reqs = append(reqs, requirement{constraint: val.AsString(), file: path})
	}
	return reqs, nil
}

func conflictError(reqs []requirement) error {
	details := make([]string, 0, len(reqs))
	for _, r := range reqs {
		details = append(details, fmt.Sprintf("  %s in %s", r.constraint, r.file))
	}
	return errors.New(errors.ErrCodeConflictingRequirements,
		"multiple conflicting required_version constraints found:\n%s",
		strings.Join(details, "\n"))
}
