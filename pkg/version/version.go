// Package version implements Terraform-style version values and constraint
// matching.
//
// A Version is an ordered (major, minor, patch) triple. A Constraint is a
// comma-separated AND-combination of comparators, including the pessimistic
// "~>" operator in both its patch ("~> 1.5.0") and minor ("~> 1.5") forms.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nixforge/flakepin/pkg/errors"
)

// Version is a (major, minor, patch) triple ordered lexicographically.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// Parse parses "X.Y" or "X.Y.Z" into a Version. Two-component input
// normalizes the patch to 0. Anything else fails with a PARSE_ERROR
// naming the malformed component.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")

	switch len(parts) {
	case 2, 3:
		// fall through to component parsing
	default:
		return Version{}, errors.New(errors.ErrCodeParse, "invalid version format: %s", s)
	}

	names := []string{"major", "minor", "patch"}
	var comps [3]uint64
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return Version{}, errors.New(errors.ErrCodeParse, "invalid %s version in %q", names[i], s)
		}
		comps[i] = n
	}

	return Version{Major: comps[0], Minor: comps[1], Patch: comps[2]}, nil
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other. The order is total and component-wise.
func (v Version) Compare(other Version) int {
	if c := compareUint(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareUint(v.Minor, other.Minor); c != 0 {
		return c
	}
	return compareUint(v.Patch, other.Patch)
}

// String renders the version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
