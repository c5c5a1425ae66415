// Package nixpkgs searches the NixOS/nixpkgs repository for a revision
// whose Terraform package satisfies a version constraint.
//
// The search runs in two tiers. Tier 1 probes a small set of branch heads
// (nixpkgs-unstable plus the five most recent nixos-YY.MM release
// branches) and, among the heads that satisfy the constraint, picks the
// best version. Tier 2 is only entered when tier 1 finds nothing: it walks
// the commit history of the known Terraform package paths newest-first and
// accepts the first satisfying revision. The asymmetry is deliberate —
// branch heads are a small trustworthy set worth ranking, history walking
// is an expensive fallback that stops at the first hit.
package nixpkgs

import (
	"context"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nixforge/flakepin/pkg/errors"
	"github.com/nixforge/flakepin/pkg/github"
	"github.com/nixforge/flakepin/pkg/version"
)

// terraformPaths are the known locations of the Terraform package
// definition inside nixpkgs, probed in this order. The by-name layout
// came first in newer revisions; the cluster path covers older history.
var terraformPaths = []string{
	"pkgs/by-name/te/terraform/package.nix",
	"pkgs/applications/networking/cluster/terraform/default.nix",
}

const (
	repoOwner      = "NixOS"
	repoName       = "nixpkgs"
	unstableBranch = "nixpkgs-unstable"

	// commitPageSize bounds the tier-2 history walk per path.
	commitPageSize = 100

	// releaseBranchLimit is how many recent nixos-YY.MM branches tier 1 probes.
	releaseBranchLimit = 5
)

var (
	versionPattern       = regexp.MustCompile(`version\s*=\s*"(\d+\.\d+\.\d+)"`)
	releaseBranchPattern = regexp.MustCompile(`^refs/heads/(nixos-\d{2}\.\d{2})$`)
)

// Client resolves Terraform versions against the nixpkgs repository.
// The access token and logger are fixed at construction and passed through
// the whole call chain explicitly; there is no ambient configuration.
type Client struct {
	gh     *github.Client
	logger *log.Logger
}

// NewClient creates a resolver client. token may be empty; logger may be
// nil to silence progress output.
func NewClient(gh *github.Client, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{gh: gh, logger: logger}
}

// branch is a named ref together with its resolved head revision.
type branch struct {
	name string
	sha  string
}

type commitInfo struct {
	SHA string `json:"sha"`
}

type gitRef struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// TerraformVersionAt fetches the Terraform version declared at a specific
// nixpkgs ref (commit hash or branch name). The second return is false
// when no known package path exists at that ref or no version pattern
// matches its content.
func (c *Client) TerraformVersionAt(ctx context.Context, ref string) (string, bool, error) {
	source, ok, err := c.fetchTerraformNix(ctx, ref)
	if err != nil || !ok {
		return "", false, err
	}
	v, ok := extractVersion(source)
	return v, ok, nil
}

// FindTerraformCommit searches nixpkgs for a revision whose Terraform
// version satisfies the constraint, returning the version and commit SHA.
// Fails with NO_CANDIDATE when both tiers are exhausted.
func (c *Client) FindTerraformCommit(ctx context.Context, constraint *version.Constraint) (version.Version, string, error) {
	if cand, err := c.searchBranchHeads(ctx, constraint); err != nil {
		return version.Version{}, "", err
	} else if cand != nil {
		return cand.Version, cand.Rev, nil
	}

	c.logger.Debug("no match in branch heads, walking commit history")
	if cand, err := c.walkHistory(ctx, constraint); err != nil {
		return version.Version{}, "", err
	} else if cand != nil {
		return cand.Version, cand.Rev, nil
	}

	return version.Version{}, "", errors.New(errors.ErrCodeNoCandidate,
		"could not find a nixpkgs commit with a terraform version satisfying %q", constraint)
}

// searchBranchHeads is tier 1: probe every candidate branch head, collect
// the satisfying (version, revision) pairs, and rank them for the best.
func (c *Client) searchBranchHeads(ctx context.Context, constraint *version.Constraint) (*version.Candidate, error) {
	branches, err := c.recentBranches(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("checking nixpkgs branch heads")
	var candidates []version.Candidate
	for _, b := range branches {
		versionStr, ok, err := c.TerraformVersionAt(ctx, b.sha)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.logger.Debug("terraform package not found", "branch", b.name)
			continue
		}

		v, err := version.Parse(versionStr)
		if err != nil {
			c.logger.Debug("invalid version", "branch", b.name, "version", versionStr)
			continue
		}

		c.logger.Debug("probed branch head",
			"branch", b.name, "rev", shortSHA(b.sha), "terraform", v,
			"match", constraint.Matches(v))
		if constraint.Matches(v) {
			candidates = append(candidates, version.Candidate{Version: v, Rev: b.sha})
		}
	}

	return constraint.BestMatch(candidates), nil
}

// walkHistory is tier 2: for each known path, list the most recent commits
// touching it and accept the first revision that satisfies the constraint.
func (c *Client) walkHistory(ctx context.Context, constraint *version.Constraint) (*version.Candidate, error) {
	for _, path := range terraformPaths {
		commits, err := c.listCommits(ctx, path)
		if err != nil {
			if errors.Is(err, errors.ErrCodeNotFound) {
				continue
			}
			return nil, err
		}

		for _, commit := range commits {
			versionStr, ok, err := c.TerraformVersionAt(ctx, commit.SHA)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			v, err := version.Parse(versionStr)
			if err != nil {
				continue
			}

			matched := constraint.Matches(v)
			c.logger.Debug("probed commit", "rev", shortSHA(commit.SHA), "terraform", v, "match", matched)
			if matched {
				return &version.Candidate{Version: v, Rev: commit.SHA}, nil
			}
		}
	}
	return nil, nil
}

// recentBranches returns nixpkgs-unstable followed by the most recent
// release branches, newest first. Release branch names use a fixed-width
// YY.MM format, so descending string order is descending recency.
func (c *Client) recentBranches(ctx context.Context) ([]branch, error) {
	url := c.gh.APIURL("/repos/%s/%s/git/matching-refs/heads/nixos-", repoOwner, repoName)
	var refs []gitRef
	if err := c.gh.GetJSON(ctx, url, &refs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list nixpkgs release branches")
	}

	var releases []branch
	for _, r := range refs {
		if m := releaseBranchPattern.FindStringSubmatch(r.Ref); m != nil {
			releases = append(releases, branch{name: m[1], sha: r.Object.SHA})
		}
	}
	sort.Slice(releases, func(i, j int) bool { return releases[i].name > releases[j].name })
	if len(releases) > releaseBranchLimit {
		releases = releases[:releaseBranchLimit]
	}

	unstableSHA, err := c.resolveBranch(ctx, unstableBranch)
	if err != nil {
		return nil, err
	}
	branches := append([]branch{{name: unstableBranch, sha: unstableSHA}}, releases...)

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.name)
	}
	c.logger.Debug("discovered branches", "count", len(branches), "names", strings.Join(names, ", "))

	return branches, nil
}

// resolveBranch resolves a branch name to its head commit SHA.
func (c *Client) resolveBranch(ctx context.Context, name string) (string, error) {
	url := c.gh.APIURL("/repos/%s/%s/commits/%s", repoOwner, repoName, name)
	var info commitInfo
	if err := c.gh.GetJSON(ctx, url, &info); err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "resolve branch %s", name)
	}
	return info.SHA, nil
}

// listCommits lists the most recent commits touching path, newest first.
func (c *Client) listCommits(ctx context.Context, path string) ([]commitInfo, error) {
	url := c.gh.APIURL("/repos/%s/%s/commits?path=%s&per_page=%d", repoOwner, repoName, path, commitPageSize)
	var commits []commitInfo
	if err := c.gh.GetJSON(ctx, url, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// fetchTerraformNix fetches the Terraform package definition at ref,
// probing the known paths in order. A path that is absent at the ref is
// skipped; any other failure aborts the run.
func (c *Client) fetchTerraformNix(ctx context.Context, ref string) (string, bool, error) {
	for _, path := range terraformPaths {
		url := c.gh.RawURL("/%s/%s/%s/%s", repoOwner, repoName, ref, path)
		body, err := c.gh.GetText(ctx, url)
		if err != nil {
			if errors.Is(err, errors.ErrCodeNotFound) {
				continue
			}
			return "", false, err
		}
		return body, true, nil
	}
	return "", false, nil
}

// extractVersion pulls the Terraform version out of a Nix expression by
// matching the `version = "X.Y.Z"` pattern.
func extractVersion(source string) (string, bool) {
	m := versionPattern.FindStringSubmatch(source)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
