//go:build !linux

package rserve

import (
	"os"
	"path/filepath"
	"strings"
)

// openBeneath is the portable fallback: join against the anchor's name
// and refuse any path whose cleaned form would leave it. The paths
// handed in are already normalized, so this only rejects what the
// kernel-level guard on Linux would.
func openBeneath(dir *os.File, rel string) (*os.File, error) {
	joined := filepath.Join(dir.Name(), filepath.FromSlash(rel))

	base := filepath.Clean(dir.Name())
	if joined != base && !strings.HasPrefix(joined, base+string(filepath.Separator)) {
		return nil, &os.PathError{Op: "open", Path: rel, Err: os.ErrPermission}
	}

	return os.OpenFile(joined, os.O_RDONLY, 0)
}
