package rserve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohanthewiz/serr"
	"golang.org/x/sync/errgroup"

	"github.com/rohanthewiz/rserve/consts"
	"github.com/rohanthewiz/rserve/core/bview"
)

// defaultReadTimeout bounds every socket read; a connection that goes
// quiet mid-request is answered 408 and dropped.
const defaultReadTimeout = 10 * time.Second

type ServerOptions struct {
	// Address to listen on. Default ":8080".
	Address string

	// DocRoot is the static document root directory, opened once before
	// the first connection. Default "public".
	DocRoot string

	Verbose bool

	// ReadTimeout overrides the 10s receive timeout. Mainly for tests.
	ReadTimeout time.Duration

	// ReadyChan receives one send when the server is about to enter its
	// accept loop. Should be buffered (cap 1 is all that is needed).
	ReadyChan chan struct{}
}

// Server is the HTTP/1.x origin server.
type Server struct {
	opts         ServerOptions
	router       *Router
	docRoot      *DocRoot
	listener     net.Listener
	errorHandler func(error)
}

// NewServer creates a server with the given options.
func NewServer(options ...ServerOptions) *Server {
	opts := ServerOptions{}
	if len(options) > 0 {
		opts = options[0]
	}
	if opts.Address == "" {
		opts.Address = ":8080"
	}
	if opts.DocRoot == "" {
		opts.DocRoot = "public"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}

	return &Server{
		opts: opts,
		errorHandler: func(err error) {
			log.Println(err)
		},
	}
}

// GetListenPort returns the bound port once the server is running.
// Useful with an ephemeral port ("localhost:") in tests.
func (s *Server) GetListenPort() string {
	if s.listener == nil {
		return ""
	}
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	return port
}

// Run opens the document root, binds the listener with address reuse,
// and serves connections until SIGINT/SIGTERM.
func (s *Server) Run() error {
	docRoot, err := OpenDocRoot(s.opts.DocRoot)
	if err != nil {
		return err
	}
	defer func() { _ = docRoot.Close() }()
	s.docRoot = docRoot
	s.router = NewRouter(docRoot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lc := net.ListenConfig{Control: controlReuseAddr}
	ln, err := lc.Listen(ctx, consts.ProtocolTCP, s.opts.Address)
	if err != nil {
		return serr.Wrap(err, "unable to listen", "address", s.opts.Address)
	}
	s.listener = ln

	if s.opts.ReadyChan != nil {
		if cap(s.opts.ReadyChan) < 1 && s.opts.Verbose {
			fmt.Println("ReadyChan capacity should be at least 1, or we may hang")
		}
		s.opts.ReadyChan <- struct{}{}
	}

	if s.opts.Verbose {
		fmt.Printf("Server is running at %s\n", ln.Addr())
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		_ = ln.Close()
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
					return nil
				}
				continue
			}
			go s.handleConnection(conn)
		}
	})

	return g.Wait()
}

// handleConnection is the per-connection driver: read, frame on
// CRLFCRLF, parse, run the URL pipeline, route, send, then shift the
// unconsumed tail to the buffer front. Requests already buffered are
// answered before the next read so pipelined peers get their responses
// in order.
func (s *Server) handleConnection(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	buf := newConnBuffer()
	headers := make([]Header, 0, maxHeaderCount)

	for {
		if buf.full() {
			// A header block can outgrow the buffer without ever
			// presenting a terminator; give it room up to the cap.
			if !buf.grow(min(len(buf.buf)*2, maxBufferCapacity)) || buf.full() {
				sendParseError(conn, ErrPayloadTooLarge)
				return
			}
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		n, err := conn.Read(buf.free())
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				sendParseError(conn, ErrRequestTimeout)
			} else if err != io.EOF {
				s.errorHandler(serr.Wrap(err, "socket read failed"))
			}
			return
		}
		buf.readOffset += n

		for {
			win := buf.window()
			idx := bytes.Index(win, []byte(consts.CRLFCRLF))
			if idx < 0 {
				break
			}

			req, perr := parseRequest(win, idx, headers)
			if perr != nil {
				sendParseError(conn, perr)
				return
			}

			headerSize := idx + 4
			total := headerSize + req.ContentLength

			if total > len(buf.buf) {
				if !buf.grow(total + 1) {
					sendParseError(conn, ErrPayloadTooLarge)
					return
				}
				// grow relocated the bytes and invalidated every view;
				// re-frame and re-parse against the new buffer
				continue
			}

			if len(win) < total {
				break // body still in flight
			}

			if req.ContentLength > 0 {
				req.Body = bview.Of(win, headerSize, total)
			}

			if perr := req.resolveTarget(); perr != nil {
				sendParseError(conn, perr)
				return
			}

			resp := s.router.Route(&req)
			if err := sendResponse(conn, &resp); err != nil {
				s.errorHandler(err)
				return
			}

			if s.opts.Verbose {
				fmt.Printf("%s %s -> %d\n", req.Method.String(), string(req.NormalizedPath), resp.StatusCode)
			}

			if resp.CloseAfterSend {
				return
			}
			buf.parseOffset += total
		}

		buf.shift()
	}
}
