// Package magurl parses and builds per-page magazine image URLs.
//
// Page images live under a path of the form
//
//	/mcmags/<bucket-uuid>/<magazine-uuid>/<tier>/NNNN.jpg
//
// where both UUID segments are canonical lowercase 8-4-4-4-12 form, the tier
// is one of the known quality tiers, and NNNN is a four-digit zero-padded
// page number.
package magurl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Tier is a quality tier segment of the page URL.
type Tier string

const (
	TierExtraLow Tier = "extralow"
	TierLow      Tier = "low"
	TierMid      Tier = "mid"
	TierHigh     Tier = "high"

	// TierOriginal is not an image tier: it selects the pre-rendered PDF
	// download path instead of per-page images.
	TierOriginal Tier = "original"
)

// ImageTiers are the tiers that resolve to per-page JPEG resources.
var ImageTiers = []Tier{TierExtraLow, TierLow, TierMid, TierHigh}

// ParseTier validates a quality string against the closed tier set.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case TierExtraLow, TierLow, TierMid, TierHigh, TierOriginal:
		return t, nil
	}
	return "", fmt.Errorf("invalid quality %q (want one of extralow, low, mid, high, original)", s)
}

var pageFilePattern = regexp.MustCompile(`^[0-9]{4}\.jpg$`)

// PageURL identifies one magazine and the host serving its page images.
type PageURL struct {
	Scheme   string
	Host     string
	Bucket   uuid.UUID
	Magazine uuid.UUID
	Tier     Tier
	Page     int
}

// Parse validates a raw page-image URL and extracts its components.
// It rejects malformed input before any network activity happens.
func Parse(rawURL string) (*PageURL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL has no host")
	}

	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) != 5 || parts[0] != "mcmags" {
		return nil, fmt.Errorf("URL path %q does not match /mcmags/<uuid>/<uuid>/<tier>/NNNN.jpg", u.Path)
	}

	bucket, err := parseCanonicalUUID(parts[1])
	if err != nil {
		return nil, fmt.Errorf("bucket segment: %w", err)
	}
	mag, err := parseCanonicalUUID(parts[2])
	if err != nil {
		return nil, fmt.Errorf("magazine segment: %w", err)
	}
	tier, err := ParseTier(parts[3])
	if err != nil {
		return nil, err
	}
	if !pageFilePattern.MatchString(parts[4]) {
		return nil, fmt.Errorf("page segment %q is not a four-digit .jpg name", parts[4])
	}
	var page int
	fmt.Sscanf(parts[4], "%04d", &page)

	return &PageURL{
		Scheme:   u.Scheme,
		Host:     u.Host,
		Bucket:   bucket,
		Magazine: mag,
		Tier:     tier,
		Page:     page,
	}, nil
}

// parseCanonicalUUID accepts only lowercase dashed 8-4-4-4-12 form. uuid.Parse
// is more permissive (braces, urn prefix, uppercase), so round-trip the string.
func parseCanonicalUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	if id.String() != s {
		return uuid.UUID{}, fmt.Errorf("UUID %q is not canonical lowercase form", s)
	}
	return id, nil
}

// ForPage returns the absolute URL of one page image at the given tier.
func (p *PageURL) ForPage(page int, tier Tier) string {
	return fmt.Sprintf("%s://%s/mcmags/%s/%s/%s/%04d.jpg",
		p.Scheme, p.Host, p.Bucket, p.Magazine, tier, page)
}
