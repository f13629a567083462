// Package cli implements the uitest command.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/entrhq/uitest/internal/console"
	"github.com/entrhq/uitest/pkg/config"
)

// Version is the uitest release.
const Version = "0.1.0"

// ErrFailed is returned when a command already reported its failure and the
// process should only exit non-zero.
var ErrFailed = errors.New("uitest: failed")

var (
	flagRoot    string
	flagEnv     string
	flagQuiet   bool
	flagVerbose bool
	flagNoColor bool
	flagInstall bool
)

var rootCmd = &cobra.Command{
	Use:   "uitest",
	Short: "Browser end-to-end checks for the Buggy Cars Rating site",
	Long: `uitest loads an environment from environments/<name>.env, drives real
browsers through Playwright and leaves evidence under reports/: traces,
videos, screenshots and a timestamped log.

Examples:
  uitest check --env qa
  uitest devices --filter "iPhone*"
  uitest run --matrix matrix.yaml --filter "webkit-*" --test "home*"`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "project root holding environments/, reports/ and tests/ (default: $UITEST_PROJECT_ROOT or the working directory)")
	rootCmd.PersistentFlags().StringVarP(&flagEnv, "env", "e", "", "environment name (default: $ENVIRONMENT or qa)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only print problems and the summary")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print artifact paths and teardown details")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagInstall, "install", false, "install the Playwright driver and browsers first")
}

// Execute runs the command line.
func Execute(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newPrinter(cmd *cobra.Command) *console.Printer {
	level := console.Normal
	switch {
	case flagQuiet:
		level = console.Quiet
	case flagVerbose:
		level = console.Verbose
	}
	var opts []console.Option
	if flagNoColor {
		opts = append(opts, console.NoColor())
	}
	return console.New(cmd.OutOrStdout(), level, opts...)
}

func loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ProjectRoot: flagRoot,
		Environment: flagEnv,
	}
}
