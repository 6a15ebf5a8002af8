package rserve

import (
	"os"
	"strings"

	"github.com/rohanthewiz/serr"

	"github.com/rohanthewiz/rserve/consts"
)

// DocRoot anchors all static-file opens on a directory handle opened
// once at startup. The handle is shared read-only by every connection
// and stays open until shutdown. On Linux with openat2, opens through it
// cannot address anything above the anchor, independent of path
// normalization; openBeneath describes the fallbacks.
type DocRoot struct {
	dir *os.File
}

// OpenDocRoot opens the document-root directory.
func OpenDocRoot(path string) (*DocRoot, error) {
	dir, err := os.Open(path)
	if err != nil {
		return nil, serr.Wrap(err, "unable to open document root")
	}

	info, err := dir.Stat()
	if err != nil {
		_ = dir.Close()
		return nil, serr.Wrap(err, "unable to stat document root")
	}
	if !info.IsDir() {
		_ = dir.Close()
		return nil, serr.New("document root is not a directory", "path", path)
	}

	return &DocRoot{dir: dir}, nil
}

// Close releases the anchor handle. Only for shutdown.
func (d *DocRoot) Close() error {
	return d.dir.Close()
}

// Open opens rel (a slash-separated path with no leading slash) for
// reading, relative to the anchor. The open refuses to resolve above
// the anchor; see openBeneath for the platform mechanism.
func (d *DocRoot) Open(rel string) (*os.File, error) {
	return openBeneath(d.dir, rel)
}

// contentTypeForName maps the extension after the last dot of the
// requested name's final path element. The match is case-sensitive.
func contentTypeForName(name string) string {
	base := name[strings.LastIndexByte(name, '/')+1:]
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return consts.MIMEOctetStream
	}
	switch base[dot+1:] {
	case "html":
		return consts.MIMEHTML
	case "css":
		return consts.MIMECSS
	case "js":
		return consts.MIMEJS
	case "png":
		return consts.MIMEPNG
	default:
		return consts.MIMETextPlain
	}
}
