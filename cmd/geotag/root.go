// geotag suggests GPS coordinates for photos and writes them as EXIF tags.
//
// Usage:
//
//	geotag scan <dir> [--wet-run] [--suggester=onnx|remote] [flags]
//	geotag inspect <file>...
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"geotag/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "geotag",
	Short: "Suggest and write GPS tags for photo libraries",
	Long:  "Geotag scans a directory tree of images, predicts where each photo was\ntaken with a GeoCLIP model, and writes GPS EXIF tags for predictions\nthat clear the confidence gates. Dry run by default.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
