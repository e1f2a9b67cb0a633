package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/magtools/magdl/version"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "magdl",
	Short: "Download pocketmags magazines as PDF",
	Long: `Magdl downloads a magazine from the pocketmags HTML5 reader and saves it
as a single PDF.

URLs for magazine pages can be found by opening the HTML5 reader,
right-clicking a page and selecting "inspect element". Look for URLs of
the form:

    https://<host>/mcmags/<uuid>/<uuid>/mid/0046.jpg

Two download paths exist:
  magdl pdf     requests a pre-rendered PDF and cleans up its per-page
                ownership watermarks in place
  magdl images  fetches per-page JPEGs at a quality tier and composites
                them into a new PDF`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.magdl/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(pdfCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the logger handed to every component.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// addRangeFlags declares the download options shared by both paths.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("quality", "mid", "image quality tier: extralow, low, mid, high, or original")
	cmd.Flags().Float64("dpi", 150, "image resolution in dots per inch")
	cmd.Flags().Int("range-from", 1, "first page to download (one-based)")
	cmd.Flags().Int("range-to", 0, "last page to download (one-based, 0 = through the last page)")
	cmd.Flags().Duration("delay", 0, "pause between successive page requests")
	cmd.Flags().String("user-id", "", "user/session UUID sent with render requests")
}

// bindFlags points viper at the running command's flags so flag values
// override config file and environment. Bound at run time, not init time:
// both subcommands declare the same keys and only the active command's
// flags may win.
func bindFlags(cmd *cobra.Command) {
	for flag, key := range map[string]string{
		"quality":    "quality",
		"dpi":        "dpi",
		"range-from": "range_from",
		"range-to":   "range_to",
		"delay":      "delay",
		"user-id":    "user_id",

		// pdf path only; Lookup returns nil for commands without them
		"hide-watermark":    "hide_watermark",
		"destroy-watermark": "destroy_watermark",
		"rewrite-timestamp": "rewrite_timestamp",
		"render-endpoint":   "render_endpoint",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}
