package cli

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/entrhq/uitest/pkg/browser"
)

var flagDevicesFilter []string

type deviceSource interface {
	DeviceNames() []string
	Stop() error
}

// startDevices is replaced in tests.
var startDevices = func(opts browser.StartOptions) (deviceSource, error) {
	pw, err := browser.Start(opts)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func init() {
	devicesCmd.Flags().StringSliceVar(&flagDevicesFilter, "filter", nil, "only list devices matching these glob patterns")
	rootCmd.AddCommand(devicesCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the device emulation profiles Playwright knows",
	Long: `List the device names accepted in a run matrix "device" field.

Examples:
  uitest devices
  uitest devices --filter "Pixel*" --filter "iPhone 1?"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := newPrinter(cmd)

		globs := make([]glob.Glob, 0, len(flagDevicesFilter))
		for _, pattern := range flagDevicesFilter {
			g, err := glob.Compile(pattern)
			if err != nil {
				return fmt.Errorf("invalid filter pattern '%s': %w", pattern, err)
			}
			globs = append(globs, g)
		}

		src, err := startDevices(browser.StartOptions{Install: flagInstall, Output: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer src.Stop()

		n := 0
		for _, name := range src.DeviceNames() {
			if !matchAny(globs, name) {
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			n++
		}
		out.Verbosef("%d devices", n)
		return nil
	},
}

func matchAny(globs []glob.Glob, s string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
