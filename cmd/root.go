package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "randimg",
	Short: "Daily random placeholder-photo poster for Bluesky",
	Long: `randimg — fetches a random placeholder photo at a random common
resolution, re-encodes it as a clean RGB JPEG under the Bluesky image
size limit, and posts it with caption and alt text.

The fitter is the interesting part: a greedy highest-quality-first JPEG
quality search, with a compounding scale-down fallback for high-entropy
images that refuse to fit the byte budget at full resolution.`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogger)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"randimg %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// initLogger configures the process-wide logger; --verbose enables Debug.
func initLogger() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
