package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/uitest/pkg/browser"
	"github.com/entrhq/uitest/pkg/config"
	"github.com/entrhq/uitest/pkg/harness"
)

var (
	flagRunMatrix   string
	flagRunFilter   []string
	flagRunTests    []string
	flagRunList     bool
	flagRunNoReport bool
)

// runLauncher replaces the Playwright driver in tests.
var runLauncher browser.Launcher

func init() {
	runCmd.Flags().StringVarP(&flagRunMatrix, "matrix", "m", "", "YAML run matrix (default: webkit at 1920x1080, Pixel 5 and iPhone 12)")
	runCmd.Flags().StringSliceVarP(&flagRunFilter, "filter", "f", nil, "only run matrix entries whose id matches these glob patterns, e.g. \"webkit-*\"")
	runCmd.Flags().StringSliceVarP(&flagRunTests, "test", "t", nil, "only run tests whose name matches these glob patterns")
	runCmd.Flags().BoolVar(&flagRunList, "list", false, "list the available tests and exit")
	runCmd.Flags().BoolVar(&flagRunNoReport, "no-report", false, "do not write the run report")

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the home page checks across the run matrix",
	Long: `Run each selected test once per matrix entry, each in a fresh browser
session with tracing and video. A styled summary is printed and a JSON and
Markdown report is written under reports/.

Exits 1 if any session failed.

Examples:
  uitest run
  uitest run --test home_elements
  uitest run --matrix matrix.yaml --filter "webkit-iPhone*"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := newPrinter(cmd)

		if flagRunList {
			for _, f := range flows {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", f.Name, f.Description)
			}
			return nil
		}

		selected, err := selectFlows(flagRunTests)
		if err != nil {
			return err
		}

		matrix := config.DefaultMatrix()
		if flagRunMatrix != "" {
			if matrix, err = config.LoadMatrix(flagRunMatrix); err != nil {
				return err
			}
		}
		if matrix, err = matrix.Filter(flagRunFilter...); err != nil {
			return err
		}
		if len(matrix.Sessions) == 0 {
			return fmt.Errorf("no matrix entry matches %q", flagRunFilter)
		}

		suite, err := harness.Bootstrap(harness.Options{
			Load:     loadOptions(),
			Console:  cmd.ErrOrStderr(),
			Install:  flagInstall,
			Engines:  engines(matrix),
			Launcher: runLauncher,
		})
		if err != nil {
			out.Errorf("%v", err)
			return ErrFailed
		}
		defer suite.Close()

		ctx := cmd.Context()
		out.Header(fmt.Sprintf("uitest run %s (%s)", suite.RunID(), suite.Config.Environment))

		for _, entry := range matrix.Sessions {
			out.Section(entry.ID())

			desc, err := browser.DescriptorFromEntry(entry)
			if err != nil {
				for _, f := range selected {
					rec := browser.SetupRecord(desc, f.Name, time.Now(), err)
					rec.Descriptor = entry.ID()
					suite.Record(rec)
					out.Session(rec)
				}
				continue
			}

			for _, f := range selected {
				if ctx.Err() != nil {
					out.Warningf("run interrupted")
					break
				}
				rec, _ := suite.Run(ctx, desc, f.Name, f.Run)
				out.Session(rec)
			}
		}

		summary := suite.Summary()
		var reports []string
		if !flagRunNoReport {
			jsonPath, mdPath, err := suite.WriteReport()
			if err != nil {
				out.Warningf("could not write the run report: %v", err)
			} else {
				reports = append(reports, jsonPath, mdPath)
			}
		}
		out.Summary(summary, reports...)

		if summary.Failed() > 0 || ctx.Err() != nil {
			return ErrFailed
		}
		return nil
	},
}

func engines(m config.Matrix) []browser.Engine {
	seen := make(map[browser.Engine]bool)
	var out []browser.Engine
	for _, e := range m.Sessions {
		engine, err := browser.ParseEngine(e.Engine)
		if err != nil || seen[engine] {
			continue
		}
		seen[engine] = true
		out = append(out, engine)
	}
	return out
}
