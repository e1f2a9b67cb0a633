// Package render requests the pre-rendered PDF for a set of magazine pages.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Client issues bulk render requests. A non-200 response is fatal and never
// retried: it signals an authentication or availability problem this tool
// cannot resolve on its own.
type Client struct {
	endpoint string
	userID   string
	client   *http.Client
	logger   *slog.Logger
}

// ClientConfig holds render client construction options.
type ClientConfig struct {
	Endpoint string
	UserID   string
	Timeout  time.Duration
	Client   *http.Client
	Logger   *slog.Logger
}

// NewClient creates a render client, filling unset config fields with defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		userID:   cfg.UserID,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}
}

// Render asks the remote endpoint to render the given zero-based pages of one
// magazine and returns the raw document bytes.
func (c *Client) Render(ctx context.Context, magazine uuid.UUID, pages []int) ([]byte, error) {
	form := url.Values{}
	form.Set("magazineId", magazine.String())
	form.Set("userId", c.userID)
	for i, page := range pages {
		form.Set(fmt.Sprintf("pages[%d]", i), strconv.Itoa(page))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	setBrowserHeaders(req)

	c.logger.Info("requesting rendered document", "pages", len(pages))
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render request failed with status %d", resp.StatusCode)
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading render response: %w", err)
	}
	c.logger.Info("received rendered document", "bytes", len(buf))
	return buf, nil
}

// setBrowserHeaders applies the standard browser request profile the render
// endpoint expects.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0")
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.5")
	req.Header.Set("Origin", "https://pocketmags.com")
	req.Header.Set("Referer", "https://pocketmags.com/")
}

// CheckPageCount compares the rendered document's page count against the
// number of requested pages. The comparison is best-effort and advisory: a
// mismatch (or an unreadable document) is logged, never fatal.
func CheckPageCount(buf []byte, expected int, logger *slog.Logger) {
	count, err := api.PageCount(bytes.NewReader(buf), nil)
	if err != nil {
		logger.Warn("could not determine rendered page count", "error", err)
		return
	}
	if count != expected {
		logger.Warn("rendered page count differs from requested range",
			"rendered", count, "requested", expected)
	}
}
