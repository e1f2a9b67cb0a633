package pdfmark

import (
	"bytes"
	"errors"
	"log/slog"
)

// Regions is the offset table for one document. Offsets are byte positions
// in the buffer they were discovered in; they stay valid across edits because
// every edit preserves total length.
type Regions struct {
	// ContentBoundary is where real content starts; the preamble is
	// everything before it.
	ContentBoundary int

	// CreationStamp and ModStamp are offsets of the 14-byte timestamp
	// values, or -1 when the producer object or the tag was not found.
	CreationStamp int
	ModStamp      int

	// Opacity holds the offset of every watermark opacity directive in the
	// preamble, in document order.
	Opacity []int

	// Placement and Text hold the offsets of the watermark stream
	// dictionaries, split by the generator's fixed interleaving: even
	// occurrences are placement, odd are text. Nothing verifies which is
	// which; both receive identical treatment.
	Placement []int
	Text      []int
}

// ErrNoContentBoundary means the buffer does not look like a rendered
// magazine document at all; without the boundary there is no preamble to
// edit safely.
var ErrNoContentBoundary = errors.New("content boundary marker not found")

// Locate scans the buffer for every region of interest. expectedPages is the
// size of the requested page range; a disagreeing region count is reported
// as a warning only, since the anchor search is heuristic.
func Locate(buf []byte, expectedPages int, logger *slog.Logger) (*Regions, error) {
	if logger == nil {
		logger = slog.Default()
	}

	boundary := bytes.Index(buf, contentBoundary)
	if boundary < 0 {
		return nil, ErrNoContentBoundary
	}
	preamble := buf[:boundary]

	r := &Regions{
		ContentBoundary: boundary,
		CreationStamp:   -1,
		ModStamp:        -1,
	}

	locateTimestamps(preamble, r, logger)
	r.Opacity = findAll(preamble, opacityDirective)

	for i, off := range findAll(preamble, lengthMarker) {
		if i%2 == 0 {
			r.Placement = append(r.Placement, off)
		} else {
			r.Text = append(r.Text, off)
		}
	}

	if len(r.Opacity) != expectedPages {
		logger.Warn("watermark directive count differs from requested page count",
			"found", len(r.Opacity), "expected", expectedPages)
	}
	if len(r.Placement) != expectedPages || len(r.Text) != expectedPages {
		logger.Warn("watermark stream count differs from requested page count",
			"placement", len(r.Placement), "text", len(r.Text), "expected", expectedPages)
	}

	return r, nil
}

// locateTimestamps finds the producer object within the preamble and the two
// timestamp values inside its span. Each missing anchor is a warning that
// skips only the edits depending on it.
func locateTimestamps(preamble []byte, r *Regions, logger *slog.Logger) {
	start := bytes.Index(preamble, producerMarker)
	if start < 0 {
		logger.Warn("producer object not found, timestamps will not be rewritten")
		return
	}
	end := len(preamble)
	if i := bytes.Index(preamble[start:], endObj); i >= 0 {
		end = start + i
	} else {
		logger.Warn("producer object has no end marker, scanning to content boundary")
	}
	span := preamble[start:end]

	r.CreationStamp = locateValue(span, start, creationAnchor, len(preamble), logger)
	r.ModStamp = locateValue(span, start, modAnchor, len(preamble), logger)
}

// locateValue resolves one timestamp anchor within the producer span and
// returns the absolute offset of its value, or -1.
func locateValue(span []byte, base int, a timestampAnchor, limit int, logger *slog.Logger) int {
	i := bytes.Index(span, a.tag)
	if i < 0 {
		logger.Warn("timestamp tag not found", "tag", string(a.tag))
		return -1
	}
	off := base + i + a.valueOffset
	if off+timestampWidth > limit {
		logger.Warn("timestamp value extends past preamble", "tag", string(a.tag))
		return -1
	}
	return off
}

// findAll returns the offset of every non-overlapping occurrence of the
// literal, scanning forward from the end of the previous match.
func findAll(buf, literal []byte) []int {
	var offs []int
	for from := 0; ; {
		i := bytes.Index(buf[from:], literal)
		if i < 0 {
			return offs
		}
		offs = append(offs, from+i)
		from += i + len(literal)
	}
}
