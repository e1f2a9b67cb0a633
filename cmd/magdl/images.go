package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magtools/magdl/internal/compose"
	"github.com/magtools/magdl/internal/config"
	"github.com/magtools/magdl/internal/magurl"
)

var imagesCmd = &cobra.Command{
	Use:   "images <output.pdf> <url>",
	Short: "Download per-page images and composite them into a PDF",
	Long: `Download the magazine page by page as JPEGs at the chosen quality tier
and composite them into a new PDF, one page per image, sized at the
configured DPI.

Without --range-to, pages are fetched until the first one that does not
exist, matching how the magazine reader enumerates them.

Examples:
  magdl images out.pdf https://host/mcmags/<uuid>/<uuid>/mid/0001.jpg
  magdl images --quality high --dpi 300 out.pdf <url>`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd)
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		tier := magurl.Tier(cfg.Quality)
		if tier == magurl.TierOriginal {
			return fmt.Errorf("quality %q is the pre-rendered PDF path, use `magdl pdf`", cfg.Quality)
		}

		pageURL, err := magurl.Parse(args[1])
		if err != nil {
			return err
		}

		composer := compose.New(compose.Config{
			Logger: newLogger(),
			DPI:    cfg.DPI,
			Delay:  cfg.Delay,
		})
		return composer.Build(cmd.Context(), pageURL, tier, cfg.RangeFrom, cfg.RangeTo, args[0])
	},
}

func init() {
	addRangeFlags(imagesCmd)
}
