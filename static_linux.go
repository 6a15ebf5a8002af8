//go:build linux

package rserve

import (
	"os"

	"golang.org/x/sys/unix"
)

// openBeneath opens rel relative to dir with openat2(2), constraining
// resolution to stay beneath the anchor. Symlinks inside the tree are
// fine; anything that would resolve above the anchor fails with EXDEV.
// Kernels without openat2 fall back to openat with O_NOFOLLOW, which
// refuses a symlink only in the final component: a symlink in an
// intermediate directory component is followed, even when it resolves
// above the anchor.
func openBeneath(dir *os.File, rel string) (*os.File, error) {
	how := unix.OpenHow{
		Flags:   unix.O_RDONLY | unix.O_CLOEXEC,
		Resolve: unix.RESOLVE_BENEATH | unix.RESOLVE_NO_MAGICLINKS,
	}

	fd, err := unix.Openat2(int(dir.Fd()), rel, &how)
	if err == unix.ENOSYS {
		fd, err = unix.Openat(int(dir.Fd()), rel, unix.O_RDONLY|unix.O_CLOEXEC|unix.O_NOFOLLOW, 0)
	}
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: rel, Err: err}
	}

	return os.NewFile(uintptr(fd), rel), nil
}
