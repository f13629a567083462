package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/uitest/internal/console"
	"github.com/entrhq/uitest/pkg/config"
	"github.com/entrhq/uitest/pkg/harness"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the environment without launching browsers",
	Long: `Load the environment, provision the log, validate the critical variables
and create the evidence directories. Prints every missing variable, or the
resolved configuration when nothing is missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := newPrinter(cmd)

		suite, err := harness.Bootstrap(harness.Options{
			Load:         loadOptions(),
			Console:      cmd.ErrOrStderr(),
			SkipBrowsers: true,
		})
		if err != nil {
			var cfgErr *config.ConfigurationError
			if !errors.As(err, &cfgErr) {
				return err
			}
			out.Errorf("environment %q is not usable", cfgErr.Environment)
			for _, name := range cfgErr.Missing {
				out.Errorf("missing %s", name)
			}
			if len(cfgErr.Missing) == 0 {
				out.Errorf("%v", cfgErr)
			}
			return ErrFailed
		}
		defer suite.Close()

		printConfig(out, suite.Config)
		out.Successf("all critical variables are set")
		return nil
	},
}

func printConfig(out *console.Printer, cfg *config.Config) {
	out.Header("uitest configuration")

	out.Section("Environment")
	out.Field("Environment", cfg.Environment)
	envFile := cfg.EnvFile
	if !cfg.EnvFileLoaded {
		envFile += " (not found)"
	}
	out.Field("Env file", envFile)
	out.Field(config.EnvBaseURL, cfg.BaseURL)
	out.Field(config.EnvMakeURL, cfg.MakeURL)
	out.Field(config.EnvPopularURL, cfg.PopularURL)
	out.Field(config.EnvOverallURL, cfg.OverallURL)
	out.Field(config.EnvRegistrarURL, cfg.RegistrarURL)
	out.Field(config.EnvDashboardURL, cfg.DashboardURL)
	out.Field(config.EnvAPIURL, cfg.APIURL)

	out.Section("Browser")
	out.Field("Implicit timeout", cfg.ImplicitTimeout.String())
	out.Field("API timeout", cfg.APITimeout.String())
	out.Field("Headless", fmt.Sprint(cfg.Headless))
	out.Field("Slow motion", cfg.SlowMo.String())

	out.Section("Evidence")
	out.Field("Reports", cfg.Paths.Reports)
	out.Field("Video", cfg.Paths.Video)
	out.Field("Traces", cfg.Paths.Trace)
	out.Field("Screenshots", cfg.Paths.Screenshot)
	out.Field("Logs", cfg.Paths.Log)
	out.Field("Test data", cfg.Paths.TestFiles)

	for _, w := range cfg.Warnings {
		out.Warningf("%s", w)
	}
}
