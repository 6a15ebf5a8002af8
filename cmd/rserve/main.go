package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rohanthewiz/element"
	"github.com/rohanthewiz/serr"

	"github.com/rohanthewiz/rserve"
)

const docRoot = "public"

func main() {
	if err := ensureDocRoot(); err != nil {
		log.Fatal(err)
	}

	s := rserve.NewServer(rserve.ServerOptions{
		Address: ":8080",
		DocRoot: docRoot,
		Verbose: true,
	})

	if err := s.Run(); err != nil {
		log.Fatal(err)
	}
}

// ensureDocRoot creates public/ and a default index.html on first run,
// so a fresh checkout has something to serve at /.
func ensureDocRoot() error {
	if err := os.MkdirAll(docRoot, 0o755); err != nil {
		return serr.Wrap(err, "unable to create document root")
	}

	indexPath := filepath.Join(docRoot, "index.html")
	if _, err := os.Stat(indexPath); err == nil {
		return nil
	}

	if err := os.WriteFile(indexPath, []byte(defaultIndexPage()), 0o644); err != nil {
		return serr.Wrap(err, "unable to write default index page")
	}
	return nil
}

func defaultIndexPage() string {
	b := element.NewBuilder()

	b.Html().R(
		b.Head().R(
			b.Title().T("rserve"),
			b.Style().T(`
				body { font-family: Arial, sans-serif; max-width: 640px; margin: 0 auto; padding: 20px; }
			`),
		),
		b.Body().R(
			b.H1().T("It works"),
			b.P().R(
				b.T("This page is served from public/index.html. "),
				b.T("Try GET /api/ or POST /api/echo."),
			),
		),
	)

	return b.String()
}
