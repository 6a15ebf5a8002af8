package rserve

import (
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"syscall"

	"github.com/rohanthewiz/serr"
	"github.com/valyala/bytebufferpool"

	"github.com/rohanthewiz/rserve/consts"
)

// responseHeaderBufferSize is the scratch capacity for formatting the
// status line and headers.
const responseHeaderBufferSize = 16384

// sendResponse formats and transmits resp on conn: status line, the
// three fixed headers (Content-Type omitted when empty), blank line,
// then the payload by variant. Cleanup runs on every path.
func sendResponse(conn net.Conn, resp *Response) error {
	defer resp.release()

	if resp.Payload == nil {
		resp.Payload = MemPayload{}
	}

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	if cap(bb.B) < responseHeaderBufferSize {
		bb.B = make([]byte, 0, responseHeaderBufferSize)
	}

	b := bb.B[:0]
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(resp.StatusCode), 10)
	b = append(b, ' ')
	b = append(b, resp.StatusText...)
	b = append(b, consts.CRLF...)

	b = append(b, consts.HeaderContentLength...)
	b = append(b, ": "...)
	b = strconv.AppendInt(b, int64(resp.Payload.size()), 10)
	b = append(b, consts.CRLF...)

	if resp.ContentType != "" {
		b = append(b, consts.HeaderContentType...)
		b = append(b, ": "...)
		b = append(b, resp.ContentType...)
		b = append(b, consts.CRLF...)
	}

	b = append(b, consts.HeaderConnection...)
	b = append(b, ": "...)
	if resp.CloseAfterSend {
		b = append(b, consts.ConnectionClose...)
	} else {
		b = append(b, consts.ConnectionKeepAlive...)
	}
	b = append(b, consts.CRLFCRLF...)
	bb.B = b

	if err := writeFull(conn, b); err != nil {
		return serr.Wrap(err, "response header send failed")
	}

	switch p := resp.Payload.(type) {
	case MemPayload:
		if len(p.Body) > 0 {
			if err := writeFull(conn, p.Body); err != nil {
				return serr.Wrap(err, "response body send failed")
			}
		}
	case FilePayload:
		if p.Size > 0 {
			if err := sendFile(conn, p.File, p.Size); err != nil {
				return serr.Wrap(err, "file send failed")
			}
		}
	}

	return nil
}

// sendParseError puts a status-only error response on the wire. The
// connection is closed by the caller; the wire state after a framing
// error never carries another request.
func sendParseError(conn net.Conn, perr *ParseError) {
	resp := Response{
		StatusCode:     perr.StatusCode,
		StatusText:     perr.StatusText,
		CloseAfterSend: true,
	}
	_ = sendResponse(conn, &resp)
}

// writeFull drives conn.Write until every byte is out, retrying
// transient interruptions.
func writeFull(conn net.Conn, b []byte) error {
	for len(b) > 0 {
		n, err := conn.Write(b)
		b = b[n:]
		if err != nil {
			if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) {
				continue
			}
			return err
		}
	}
	return nil
}

// sendFileFallback streams count bytes of f from off through a
// user-space copy. Used off Linux and when sendfile reports the pairing
// unsupported before any byte moved.
func sendFileFallback(conn net.Conn, f *os.File, off int64, count int) error {
	n, err := io.Copy(conn, io.NewSectionReader(f, off, int64(count)))
	if err != nil {
		return err
	}
	if n < int64(count) {
		return io.ErrUnexpectedEOF
	}
	return nil
}
