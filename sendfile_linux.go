//go:build linux

package rserve

import (
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// sendFile transmits size bytes of f to conn with sendfile(2): the
// kernel moves file-cache pages straight to the socket, no user-space
// buffer. EINTR retries in place; EAGAIN yields until the socket is
// writable again. Non-TCP conns and kernels that refuse the fd pairing
// fall back to a section-reader copy.
func sendFile(conn net.Conn, f *os.File, size int) error {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return sendFileFallback(conn, f, 0, size)
	}

	raw, err := tcp.SyscallConn()
	if err != nil {
		return sendFileFallback(conn, f, 0, size)
	}

	var (
		src       = int(f.Fd())
		offset    int64
		remaining = size
		opErr     error
	)

	ctrlErr := raw.Write(func(dst uintptr) bool {
		for remaining > 0 {
			n, errno := unix.Sendfile(int(dst), src, &offset, remaining)
			if n > 0 {
				remaining -= n
			}
			switch errno {
			case nil:
				if n == 0 {
					// file shorter than its stat size
					opErr = io.ErrUnexpectedEOF
					return true
				}
			case unix.EINTR:
				// retry
			case unix.EAGAIN:
				return false
			default:
				opErr = errno
				return true
			}
		}
		return true
	})

	if ctrlErr != nil {
		return ctrlErr
	}
	if opErr != nil {
		if (opErr == unix.EINVAL || opErr == unix.ENOSYS) && offset == 0 {
			return sendFileFallback(conn, f, 0, size)
		}
		return opErr
	}
	return nil
}
