package probe

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// initialJump is both the starting step size and the miss budget: once the
// search has missed that many times without ever seeing a page, there is
// nothing to find.
const initialJump = 20

// ErrNoPages is returned when the search exhausts its miss budget without
// ever finding an existing page.
var ErrNoPages = errors.New("no existing pages found")

// Discovery finds the last existing page by adaptive step search.
type Discovery struct {
	Pager  Pager
	Delay  time.Duration // optional pause between successive probes
	Logger *slog.Logger
}

// LastPage returns the highest zero-based page index that exists, searching
// forward from start. The step starts at initialJump and halves on every
// miss (floor 1); the search ends once the good/bad boundary is pinned to a
// single page. Probed indices never go below zero.
func (d *Discovery) LastPage(ctx context.Context, start int) (int, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if start < 0 {
		start = 0
	}

	jump := initialJump
	current := start
	lastGood := -1
	lastBad := -1
	misses := 0

	for {
		res, err := d.Pager.Probe(ctx, current)
		if err != nil {
			return 0, err
		}

		switch res {
		case Exists:
			logger.Debug("page exists", "page", current)
			lastGood = current
			misses = 0
			if lastBad >= 0 && lastGood+1 == lastBad {
				logger.Info("found last page", "page", lastGood)
				return lastGood, nil
			}
			current += jump

		case Missing:
			logger.Debug("page missing", "page", current)
			lastBad = current
			if lastGood < 0 {
				misses++
				if misses >= initialJump {
					return 0, ErrNoPages
				}
			}
			jump /= 2
			if jump < 1 {
				jump = 1
			}
			current -= jump
			if current < 0 {
				current = 0
			}
		}

		if d.Delay > 0 {
			select {
			case <-time.After(d.Delay):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
	}
}
