package rserve

import (
	"github.com/rohanthewiz/rserve/core/bview"
)

// Header is one received header field. Name is stored as received;
// Value has leading spaces trimmed. Both are views into the connection
// buffer.
type Header struct {
	Name  bview.View
	Value bview.View
}

// Request is the parsed description of one HTTP/1.x request.
//
// Method, Target, Version, Headers, ContentType and Body are views into
// the connection buffer: they are invalidated by the next buffer grow or
// shift. DecodedTarget and NormalizedPath are owned byte sequences
// produced by the URL pipeline and survive buffer mutation.
type Request struct {
	Method  bview.View
	Target  bview.View
	Version bview.View

	Headers []Header

	ContentLength     int
	contentLengthSeen bool
	ContentType       bview.View
	Body              bview.View

	// KeepAlive starts true and is cleared by HTTP/1.0 or a Connection
	// value containing "close".
	KeepAlive bool

	// IsAPI is set when the raw target began with /api/ or was exactly
	// /api; the Target view is then already narrowed past the prefix.
	IsAPI bool

	DecodedTarget  []byte
	NormalizedPath []byte
}

// Header returns the value of the first header whose name matches under
// ASCII case folding, or "".
func (req *Request) Header(name string) string {
	for _, h := range req.Headers {
		if h.Name.EqualFold(name) {
			return h.Value.String()
		}
	}
	return ""
}

// resolveTarget runs the URL-safety pipeline: percent-decode the
// (possibly API-narrowed) target, then normalize the decoded path.
// Decoding must come first so that encoded dots and slashes cannot
// bypass normalization.
func (req *Request) resolveTarget() *ParseError {
	decoded, perr := decodePath(req.Target.Bytes())
	if perr != nil {
		return perr
	}
	req.DecodedTarget = decoded

	normalized, perr := normalizePath(decoded)
	if perr != nil {
		return perr
	}
	req.NormalizedPath = normalized
	return nil
}
