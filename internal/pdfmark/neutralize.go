package pdfmark

import (
	"bytes"
	"compress/zlib"
	"io"
	"log/slog"
	"sort"
	"time"
)

// Options selects the watermark treatments. Destroy takes precedence over
// Hide when both are set.
type Options struct {
	Hide             bool
	Destroy          bool
	RewriteTimestamp bool

	// Now supplies the timestamp source; defaults to time.Now.
	Now func() time.Time
}

// Neutralize rewrites the located regions in place. Every edit replaces
// exactly as many bytes as it covers, so the buffer's length and every
// offset outside the edited spans are untouched.
func Neutralize(buf []byte, r *Regions, opts Options, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	switch {
	case opts.Destroy:
		for _, off := range r.Opacity {
			copy(buf[off:off+len(opacityDestroyed)], opacityDestroyed)
		}
		logger.Info("destroyed watermark opacity directives", "count", len(r.Opacity))
		wipeStreams(buf, r, logger)

	case opts.Hide:
		for _, off := range r.Opacity {
			copy(buf[off:off+len(opacityHidden)], opacityHidden)
		}
		logger.Info("hid watermark opacity directives", "count", len(r.Opacity))
	}

	if opts.RewriteTimestamp {
		rewriteTimestamps(buf, r, opts, logger)
	}
}

// wipeStreams overwrites every placement and text stream payload with ASCII
// zeros. The compressed span is measured by decompressing it, so exactly the
// payload is wiped and the declared length stays numerically valid.
func wipeStreams(buf []byte, r *Regions, logger *slog.Logger) {
	markers := make([]int, 0, len(r.Placement)+len(r.Text))
	markers = append(markers, r.Placement...)
	markers = append(markers, r.Text...)
	sort.Ints(markers)

	wiped := 0
	for _, off := range markers {
		if wipeStream(buf, off, r.ContentBoundary, logger) {
			wiped++
		}
	}
	logger.Info("wiped watermark streams", "count", wiped)
}

// wipeStream zeroes one stream payload. The payload begins after the stream
// keyword and its end-of-line; its extent is however many bytes the deflate
// stream consumes.
func wipeStream(buf []byte, marker, boundary int, logger *slog.Logger) bool {
	i := bytes.Index(buf[marker:boundary], streamKeyword)
	if i < 0 {
		logger.Warn("stream keyword not found after length marker", "offset", marker)
		return false
	}
	data := marker + i + len(streamKeyword)
	if data < boundary && buf[data] == '\r' {
		data++
	}
	if data < boundary && buf[data] == '\n' {
		data++
	}

	br := bytes.NewReader(buf[data:boundary])
	zr, err := zlib.NewReader(br)
	if err != nil {
		logger.Warn("stream payload is not a deflate stream", "offset", marker, "error", err)
		return false
	}
	n, err := io.Copy(io.Discard, zr)
	zr.Close()
	if err != nil {
		logger.Warn("stream payload did not decompress cleanly", "offset", marker, "error", err)
		return false
	}

	// bytes.Reader is an io.ByteReader, so the decompressor consumes no more
	// input than the stream itself; what it left unread marks the span end.
	consumed := (boundary - data) - br.Len()
	for i := data; i < data+consumed; i++ {
		buf[i] = '0'
	}
	logger.Debug("wiped stream payload", "offset", marker, "compressed", consumed, "decompressed", n)
	return true
}

// rewriteTimestamps stamps the current time over the creation and
// modification values, preserving their 14-digit width.
func rewriteTimestamps(buf []byte, r *Regions, opts Options, logger *slog.Logger) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := []byte(now().Format("20060102150405"))

	for _, off := range []int{r.CreationStamp, r.ModStamp} {
		if off < 0 {
			continue
		}
		copy(buf[off:off+timestampWidth], stamp)
	}
	logger.Info("rewrote document timestamps", "stamp", string(stamp))
}
