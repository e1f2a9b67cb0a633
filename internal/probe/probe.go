// Package probe answers "does page N exist?" against the magazine CDN and
// searches out the last page that does.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/magtools/magdl/internal/magurl"
)

// Result classifies a page-existence check.
type Result int

const (
	Exists Result = iota
	Missing
)

// ErrUnexpectedStatus marks a probe response that was neither 200 nor 404.
// Callers treat it as fatal; it is never retried.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Pager is the page-existence primitive the discovery search runs on.
type Pager interface {
	Probe(ctx context.Context, page int) (Result, error)
}

// Prober checks page existence with a status-only GET against the cheapest
// image tier.
type Prober struct {
	pageURL *magurl.PageURL
	client  *http.Client
	logger  *slog.Logger
}

// ProberConfig holds Prober construction options.
type ProberConfig struct {
	PageURL *magurl.PageURL
	Client  *http.Client
	Logger  *slog.Logger
}

// NewProber creates a Prober, filling unset config fields with defaults.
func NewProber(cfg ProberConfig) *Prober {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Prober{pageURL: cfg.PageURL, client: cfg.Client, logger: cfg.Logger}
}

// Probe issues the existence check for one zero-based page index.
// Only the status code is consulted; the body is discarded.
func (p *Prober) Probe(ctx context.Context, page int) (Result, error) {
	url := p.pageURL.ForPage(page, magurl.TierExtraLow)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Missing, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Missing, fmt.Errorf("probing page %d: %w", page, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return Exists, nil
	case http.StatusNotFound:
		return Missing, nil
	default:
		return Missing, fmt.Errorf("probing page %d: %w %d", page, ErrUnexpectedStatus, resp.StatusCode)
	}
}
