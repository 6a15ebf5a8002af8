package rserve

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/rohanthewiz/assert"
)

// transmit runs sendResponse against one end of a pipe and returns
// everything that came out the other end.
func transmit(t *testing.T, resp *Response) string {
	t.Helper()
	client, server := net.Pipe()

	errChan := make(chan error, 1)
	go func() {
		err := sendResponse(server, resp)
		_ = server.Close()
		errChan <- err
	}()

	got, err := io.ReadAll(client)
	assert.Nil(t, err)
	assert.Nil(t, <-errChan)
	return string(got)
}

func TestSendInMemoryResponse(t *testing.T) {
	resp := memResponse(200, "OK", "text/plain", []byte("Hello"))

	got := transmit(t, &resp)
	assert.Equal(t, got,
		"HTTP/1.1 200 OK\r\nContent-Length: 5\r\nContent-Type: text/plain\r\nConnection: keep-alive\r\n\r\nHello")
}

func TestSendCloseConnectionToken(t *testing.T) {
	resp := memResponse(200, "OK", "text/plain", []byte("Hello"))
	resp.CloseAfterSend = true

	got := transmit(t, &resp)
	assert.Equal(t, got,
		"HTTP/1.1 200 OK\r\nContent-Length: 5\r\nContent-Type: text/plain\r\nConnection: close\r\n\r\nHello")
}

func TestSendOmitsEmptyContentType(t *testing.T) {
	resp := memResponse(500, "Internal Server Error", "", nil)
	resp.CloseAfterSend = true

	got := transmit(t, &resp)
	assert.Equal(t, got,
		"HTTP/1.1 500 Internal Server Error\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
}

func TestSendParseErrorWire(t *testing.T) {
	client, server := net.Pipe()
	go func() {
		sendParseError(server, ErrBadRequestPath)
		_ = server.Close()
	}()

	got, err := io.ReadAll(client)
	assert.Nil(t, err)
	assert.Equal(t, string(got),
		"HTTP/1.1 400 Bad Path For Request\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
}

func TestSendFileResponse(t *testing.T) {
	dir := t.TempDir()
	content := "file contents here"
	path := filepath.Join(dir, "f.txt")
	assert.Nil(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := os.Open(path)
	assert.Nil(t, err)

	resp := Response{
		StatusCode:  200,
		StatusText:  "OK",
		ContentType: "text/plain",
		Payload:     FilePayload{File: f, Size: len(content)},
	}

	got := transmit(t, &resp)
	assert.Equal(t, got,
		"HTTP/1.1 200 OK\r\nContent-Length: 18\r\nContent-Type: text/plain\r\nConnection: keep-alive\r\n\r\n"+content)

	// the send pipeline owns the handle and has closed it
	_, err = f.Read(make([]byte, 1))
	assert.True(t, err != nil)
}

func TestResponseReleaseIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	assert.Nil(t, os.WriteFile(path, []byte("x"), 0o644))

	f, err := os.Open(path)
	assert.Nil(t, err)

	resp := Response{Payload: FilePayload{File: f, Size: 1}}
	resp.release()
	resp.release()

	mem := memResponse(200, "OK", "", nil)
	mem.release()
}
