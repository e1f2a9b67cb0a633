// Package compose builds a PDF from per-page magazine images.
//
// This is the image path: each page is fetched as a JPEG at the requested
// quality tier and imported as one PDF page sized to the image's pixel
// dimensions at the configured DPI.
package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/magtools/magdl/internal/artifact"
	"github.com/magtools/magdl/internal/magurl"
)

// errPageMissing marks a 404 for a page image; it is never retried.
var errPageMissing = errors.New("page image not found")

// Composer downloads page images and assembles the output PDF.
type Composer struct {
	client *http.Client
	logger *slog.Logger
	dpi    float64
	delay  time.Duration
}

// Config holds Composer construction options.
type Config struct {
	Client *http.Client
	Logger *slog.Logger
	DPI    float64
	Delay  time.Duration
}

// New creates a Composer, filling unset config fields with defaults.
func New(cfg Config) *Composer {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DPI == 0 {
		cfg.DPI = 150
	}
	return &Composer{client: cfg.Client, logger: cfg.Logger, dpi: cfg.DPI, delay: cfg.Delay}
}

// Build fetches pages from (one-based) through to inclusive and writes the
// assembled PDF to outPath. to == 0 means "until the first missing page".
// A missing page inside an explicit range is an error.
func (c *Composer) Build(ctx context.Context, pageURL *magurl.PageURL, tier magurl.Tier, from, to int, outPath string) error {
	tmpDir, err := os.MkdirTemp("", "magdl-pages-")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPDF := filepath.Join(tmpDir, "out.pdf")
	fetched := 0

	for page := from - 1; to == 0 || page <= to-1; page++ {
		url := pageURL.ForPage(page, tier)
		c.logger.Info("downloading page", "page", page+1, "url", url)

		img, err := c.fetchPage(ctx, url)
		if errors.Is(err, errPageMissing) {
			if to != 0 {
				return fmt.Errorf("page %d does not exist", page+1)
			}
			c.logger.Info("no more pages", "last", page)
			break
		}
		if err != nil {
			return err
		}

		imgPath := filepath.Join(tmpDir, fmt.Sprintf("%04d.jpg", page))
		if err := os.WriteFile(imgPath, img, 0o644); err != nil {
			return fmt.Errorf("saving page image: %w", err)
		}
		if err := c.importPage(imgPath, img, tmpPDF); err != nil {
			return err
		}
		fetched++

		if c.delay > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if fetched == 0 {
		return fmt.Errorf("no pages found starting at page %d", from)
	}

	data, err := os.ReadFile(tmpPDF)
	if err != nil {
		return fmt.Errorf("reading assembled document: %w", err)
	}
	c.logger.Info("assembled document", "pages", fetched, "bytes", len(data))
	return artifact.Write(outPath, data)
}

// fetchPage downloads one page image, retrying transient failures. A 404 is
// final and comes back as errPageMissing.
func (c *Composer) fetchPage(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
				body, err = io.ReadAll(resp.Body)
				return err
			case http.StatusNotFound:
				return retry.Unrecoverable(errPageMissing)
			default:
				return fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
			}
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(1*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// importPage appends one image to the output PDF, sizing the page to the
// image's dimensions at the configured DPI.
func (c *Composer) importPage(imgPath string, img []byte, outPDF string) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", imgPath, err)
	}

	w := float64(cfg.Width) * 72 / c.dpi
	h := float64(cfg.Height) * 72 / c.dpi
	c.logger.Debug("page dimensions", "widthPt", w, "heightPt", h, "dpi", c.dpi)

	imp, err := api.Import(fmt.Sprintf("dim:%.2f %.2f, pos:c, sc:1.0 rel", w, h), types.POINTS)
	if err != nil {
		return fmt.Errorf("building import config: %w", err)
	}
	if err := api.ImportImagesFile([]string{imgPath}, outPDF, imp, nil); err != nil {
		return fmt.Errorf("importing %s: %w", imgPath, err)
	}
	return nil
}
