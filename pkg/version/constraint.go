package version

import (
	"strings"

	"github.com/nixforge/flakepin/pkg/errors"
)

// comparatorOp identifies how a single comparator matches a version.
type comparatorOp int

const (
	opEq comparatorOp = iota
	opNeq
	opGt
	opGte
	opLt
	opLte
	// opPessimisticPatch is "~> X.Y.Z": >= X.Y.Z and < X.(Y+1).0
	opPessimisticPatch
	// opPessimisticMinor is "~> X.Y": >= X.Y.0 and < (X+1).0.0
	opPessimisticMinor
)

// comparator is a single operator applied to a version. Pessimistic
// comparators keep their raw components so the interval bounds are
// computed directly rather than by re-parsing sub-versions.
type comparator struct {
	op                  comparatorOp
	version             Version // valid for the relational ops
	major, minor, patch uint64  // valid for the pessimistic ops
}

func (c comparator) matches(v Version) bool {
	switch c.op {
	case opEq:
		return v.Compare(c.version) == 0
	case opNeq:
		return v.Compare(c.version) != 0
	case opGt:
		return v.Compare(c.version) > 0
	case opGte:
		return v.Compare(c.version) >= 0
	case opLt:
		return v.Compare(c.version) < 0
	case opLte:
		return v.Compare(c.version) <= 0
	case opPessimisticPatch:
		lower := Version{Major: c.major, Minor: c.minor, Patch: c.patch}
		upper := Version{Major: c.major, Minor: c.minor + 1}
		return v.Compare(lower) >= 0 && v.Compare(upper) < 0
	case opPessimisticMinor:
		lower := Version{Major: c.major, Minor: c.minor}
		upper := Version{Major: c.major + 1}
		return v.Compare(lower) >= 0 && v.Compare(upper) < 0
	}
	return false
}

// Constraint is a non-empty AND-combination of comparators.
type Constraint struct {
	comparators []comparator
	source      string
}

// ParseConstraint parses a comma-separated comparator list such as
// ">= 1.3.0, < 2.0.0" or "~> 1.5". Empty segments are skipped; an input
// that yields no comparators at all fails with a PARSE_ERROR.
func ParseConstraint(s string) (*Constraint, error) {
	var comparators []comparator
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := parseComparator(part)
		if err != nil {
			return nil, err
		}
		comparators = append(comparators, c)
	}
	if len(comparators) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "empty version constraint")
	}
	return &Constraint{comparators: comparators, source: s}, nil
}

// Matches reports whether v satisfies every comparator in the constraint.
func (c *Constraint) Matches(v Version) bool {
	for _, cmp := range c.comparators {
		if !cmp.matches(v) {
			return false
		}
	}
	return true
}

// String returns the original constraint text.
func (c *Constraint) String() string {
	return c.source
}

// Candidate pairs a version with the nixpkgs revision that provides it.
type Candidate struct {
	Version Version
	Rev     string
}

// BestMatch returns the matching candidate with the highest version, or
// nil when no candidate satisfies the constraint. When several distinct
// revisions carry the same maximal version, the first one encountered in
// candidates wins; callers rely on this for reproducible output.
func (c *Constraint) BestMatch(candidates []Candidate) *Candidate {
	var best *Candidate
	for i := range candidates {
		cand := &candidates[i]
		if !c.Matches(cand.Version) {
			continue
		}
		if best == nil || cand.Version.Compare(best.Version) > 0 {
			best = cand
		}
	}
	return best
}

func parseComparator(s string) (comparator, error) {
	if rest, ok := strings.CutPrefix(s, "~>"); ok {
		return parsePessimistic(s, strings.TrimSpace(rest))
	}

	prefixes := []struct {
		text string
		op   comparatorOp
	}{
		{">=", opGte},
		{"<=", opLte},
		{"!=", opNeq},
		{">", opGt},
		{"<", opLt},
		{"=", opEq},
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(s, p.text); ok {
			v, err := Parse(rest)
			if err != nil {
				return comparator{}, err
			}
			return comparator{op: p.op, version: v}, nil
		}
	}

	// Bare version means exact match.
	v, err := Parse(s)
	if err != nil {
		return comparator{}, err
	}
	return comparator{op: opEq, version: v}, nil
}

func parsePessimistic(full, rest string) (comparator, error) {
	parts := strings.Split(rest, ".")
	switch len(parts) {
	case 2:
		v, err := Parse(rest)
		if err != nil {
			return comparator{}, err
		}
		return comparator{op: opPessimisticMinor, major: v.Major, minor: v.Minor}, nil
	case 3:
		v, err := Parse(rest)
		if err != nil {
			return comparator{}, err
		}
		return comparator{op: opPessimisticPatch, major: v.Major, minor: v.Minor, patch: v.Patch}, nil
	default:
		return comparator{}, errors.New(errors.ErrCodeParse, "invalid pessimistic constraint: %s", full)
	}
}
