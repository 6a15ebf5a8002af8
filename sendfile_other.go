//go:build !linux

package rserve

import (
	"net"
	"os"
)

// sendFile on platforms without sendfile(2) support wired up: stream
// through a bounded section reader.
func sendFile(conn net.Conn, f *os.File, size int) error {
	return sendFileFallback(conn, f, 0, size)
}
