package rserve

import (
	"bytes"
	"math"

	"github.com/rohanthewiz/rserve/consts"
	"github.com/rohanthewiz/rserve/core/bview"
)

const (
	// maxHeaderCount bounds the headers slice handed to the parser.
	maxHeaderCount = 100

	// maxHeaderLineBytes is the limit on a single header line
	// (name, colon and value, excluding the CRLF).
	maxHeaderLineBytes = 8192
)

// parseRequest decodes the request line and header block of the request
// beginning at buf[0]. headerEnd is the offset of the first CR of the
// CRLFCRLF terminator, already located by the driver, so the header
// block is known to be complete. headers is a caller-owned array reused
// across requests on the connection.
//
// The returned request's views alias buf. The parser consumes nothing;
// the driver accounts for (headerEnd + 4) + ContentLength bytes once the
// body has arrived.
func parseRequest(buf []byte, headerEnd int, headers []Header) (Request, *ParseError) {
	req := Request{KeepAlive: true, Headers: headers[:0]}

	lineEnd := bytes.Index(buf[:headerEnd+2], []byte(consts.CRLF))
	if lineEnd < 0 {
		return req, ErrBadRequestLine
	}

	if perr := parseRequestLine(&req, buf[:lineEnd]); perr != nil {
		return req, perr
	}

	if perr := parseHeaderBlock(&req, buf, lineEnd+2, headerEnd); perr != nil {
		return req, perr
	}

	// GET requests may not carry a body.
	if req.Method.Len() > 0 && req.Method.Byte(0) == 'G' && req.ContentLength != 0 {
		return req, ErrBodyNotAllowed
	}

	classifyAPI(&req)

	return req, nil
}

// parseRequestLine splits "METHOD SP TARGET SP VERSION" out of line.
// A single run of spaces is tolerated between tokens.
func parseRequestLine(req *Request, line []byte) *ParseError {
	methodEnd := bytes.IndexByte(line, ' ')
	if methodEnd <= 0 {
		return ErrBadRequestLine
	}
	req.Method = bview.Of(line, 0, methodEnd)

	targetStart := methodEnd
	for targetStart < len(line) && line[targetStart] == ' ' {
		targetStart++
	}
	targetLen := bytes.IndexByte(line[targetStart:], ' ')
	if targetLen <= 0 {
		return ErrBadRequestLine
	}
	targetEnd := targetStart + targetLen
	req.Target = bview.Of(line, targetStart, targetEnd)

	versionStart := targetEnd
	for versionStart < len(line) && line[versionStart] == ' ' {
		versionStart++
	}
	if versionStart == len(line) {
		return ErrBadRequestLine
	}
	req.Version = bview.Of(line, versionStart, len(line))

	switch {
	case req.Version.Equal(consts.HTTP1):
	case req.Version.Equal(consts.HTTP10):
		req.KeepAlive = false
	default:
		return ErrInvalidVersion
	}

	return nil
}

// parseHeaderBlock walks the header lines in buf[start:headerEnd]. Each
// line is split at its first colon; recognized headers are folded into
// the request as they are seen.
func parseHeaderBlock(req *Request, buf []byte, start, headerEnd int) *ParseError {
	pos := start
	for pos < headerEnd {
		rest := buf[pos:headerEnd]
		lineLen := bytes.Index(rest, []byte(consts.CRLF))
		if lineLen < 0 {
			lineLen = len(rest) // last line runs to the terminator
		}
		if lineLen > maxHeaderLineBytes {
			return ErrHeaderTooLarge
		}
		line := rest[:lineLen]

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return ErrBadHeaderSyntax
		}

		valStart := colon + 1
		for valStart < len(line) && line[valStart] == ' ' {
			valStart++
		}
		if valStart == len(line) {
			return ErrBadHeaderSyntax
		}

		if len(req.Headers) >= maxHeaderCount {
			return ErrTooManyHeaders
		}

		name := bview.Of(line, 0, colon)
		value := bview.Of(line, valStart, len(line))
		req.Headers = append(req.Headers, Header{Name: name, Value: value})

		if perr := recognizeHeader(req, name, value); perr != nil {
			return perr
		}

		pos += lineLen + 2
	}
	return nil
}

// recognizeHeader folds the semantically recognized headers into the
// request. Name matching is ASCII case-insensitive.
func recognizeHeader(req *Request, name, value bview.View) *ParseError {
	switch {
	case name.EqualFold(consts.HeaderContentLength):
		if req.contentLengthSeen {
			return ErrInvalidContentLength
		}
		req.contentLengthSeen = true

		n, perr := parseContentLength(value)
		if perr != nil {
			return perr
		}
		req.ContentLength = n

	case name.EqualFold(consts.HeaderContentType):
		req.ContentType = value

	case name.EqualFold(consts.HeaderConnection):
		if value.IndexFold(consts.ConnectionClose) >= 0 {
			req.KeepAlive = false
		}

	case name.EqualFold(consts.HeaderTransferEncoding):
		return ErrUnsupportedTransferEnc
	}
	return nil
}

// parseContentLength reads ASCII decimal digits. Any other byte (a
// stray CR terminates instead, as the value view may retain one) or
// overflow of the platform int is invalid.
func parseContentLength(value bview.View) (int, *ParseError) {
	length := 0
	for i := 0; i < value.Len(); i++ {
		c := value.Byte(i)
		if c == '\r' {
			break
		}
		if c < '0' || c > '9' {
			return 0, ErrInvalidContentLength
		}
		d := int(c - '0')
		if length > (math.MaxInt-d)/10 {
			return 0, ErrInvalidContentLength
		}
		length = length*10 + d
	}
	return length, nil
}
