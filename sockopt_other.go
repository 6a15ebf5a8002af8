//go:build !unix

package rserve

import (
	"syscall"
)

func controlReuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
