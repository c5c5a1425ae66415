package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// rootOpts holds the persistent flags shared by all commands.
type rootOpts struct {
	dir         string // working directory containing .tf files
	githubToken string // explicit token; falls back to GITHUB_TOKEN
}

// token returns the GitHub token to use for API requests, preferring the
// --github-token flag over the GITHUB_TOKEN environment variable. An empty
// result means unauthenticated requests.
func (o *rootOpts) token() string {
	if o.githubToken != "" {
		return o.githubToken
	}
	return os.Getenv("GITHUB_TOKEN")
}

// Execute runs the flakepin CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext. The given context cancels any in-flight work when the
// process receives a termination signal.
func Execute(ctx context.Context) error {
	var verbose bool
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:          "flakepin",
		Short:        "Pin Terraform versions from .tf constraints into Nix flakes",
		Long:         `flakepin reads the required_version constraint from the Terraform files in a directory, finds a nixpkgs commit shipping a matching Terraform release, and pins that commit into flake.nix without disturbing the rest of the file.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		// Bare invocation runs the pin flow, so `flakepin` and
		// `flakepin 1.5.0` work without naming the subcommand.
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := ""
			if len(args) == 1 {
				requested = args[0]
			}
			return runPin(cmd, opts, requested)
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("flakepin %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&opts.dir, "dir", ".", "working directory containing .tf files")
	root.PersistentFlags().StringVar(&opts.githubToken, "github-token", "", "GitHub token for API access (defaults to GITHUB_TOKEN)")

	root.AddCommand(newPinCmd(opts))
	root.AddCommand(newCheckCmd(opts))

	return root.ExecuteContext(ctx)
}
