// Package pdfmark locates the per-page ownership watermark constructs inside
// a rendered magazine document and rewrites them in place.
//
// The document is not parsed. The rendering service emits its objects in a
// fixed order with fixed formatting, so every region of interest can be found
// by forward substring search against verbatim anchor literals, and every
// edit is width-preserving so no length field or cross-reference elsewhere in
// the document ever needs recomputing.
package pdfmark

// Anchor literals emitted by the rendering service. These must match
// byte-for-byte; if the service ever changes its generator, the locator's
// counts drift and it says so, loudly but non-fatally.
var (
	// contentBoundary opens the first real page object. Everything before it
	// is preamble holding only watermark and metadata objects; nothing at or
	// past it is ever scanned or edited.
	contentBoundary = []byte("/Type/Page/MediaBox")

	// producerMarker opens the generator-metadata dictionary; endObj
	// terminates it.
	producerMarker = []byte("/Producer")
	endObj         = []byte("endobj")

	// opacityDirective renders the watermark faintly. opacityHidden is the
	// same width with both fill and stroke fully transparent;
	// opacityDestroyed is the same width of ASCII zeros.
	opacityDirective = []byte("<</CA 0.25/ca 0.25>>")
	opacityHidden    = []byte("<</CA 0.00/ca 0.00>>")
	opacityDestroyed = []byte("00000000000000000000")

	// lengthMarker opens each watermark stream dictionary. Within the
	// preamble these alternate: even occurrences carry placement data, odd
	// occurrences carry the watermark text.
	lengthMarker = []byte("<</Length ")

	streamKeyword = []byte("stream")
)

// timestampAnchor declares a named property tag whose value sits at a fixed
// distance past the tag with a fixed width.
type timestampAnchor struct {
	tag         []byte
	valueOffset int // from the start of the tag to the first value byte
}

const timestampWidth = 14 // YYYYMMDDHHMMSS

// The generator writes `/CreationDate(D:YYYYMMDDHHMMSS...` with no spacing,
// so the value starts len(tag)+3 bytes past each tag.
var (
	creationAnchor = timestampAnchor{tag: []byte("CreationDate"), valueOffset: 15}
	modAnchor      = timestampAnchor{tag: []byte("ModDate"), valueOffset: 10}
)
