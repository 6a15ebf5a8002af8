package rserve

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/rohanthewiz/rserve/consts"
)

// Fixed response bodies.
const (
	bodyHello              = "Hello"
	bodyRouteNotFound      = "Route Not Found"
	bodyMethodNotSupported = "This request method is currently unsupported"
	bodyForbiddenFile      = "Forbidden file route"
)

// Router turns a parsed request into a response. API requests hit the
// fixed routing table; everything else is served from the document
// root.
type Router struct {
	docRoot *DocRoot
}

// NewRouter creates a router serving static files from docRoot.
func NewRouter(docRoot *DocRoot) *Router {
	return &Router{docRoot: docRoot}
}

// Route dispatches req and builds the response. A panic while building
// (the Go shape of an allocation failure mid-route) collapses to a 500
// with any opened file handle released.
func (rt *Router) Route(req *Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp.release()
			resp = memResponse(consts.StatusInternalServerError, consts.StatusTextInternalError, "", nil)
			resp.CloseAfterSend = !req.KeepAlive
		}
	}()

	if req.IsAPI {
		resp = rt.routeAPI(req)
	} else if req.Method.Equal(consts.MethodGet) {
		resp = rt.serveStatic(req)
	} else {
		resp = memResponse(consts.StatusMethodNotAllowed, consts.StatusTextMethodNotAllowed,
			consts.MIMETextPlain, s2b(bodyMethodNotSupported))
	}

	resp.CloseAfterSend = !req.KeepAlive
	return resp
}

func (rt *Router) routeAPI(req *Request) Response {
	path := b2s(req.NormalizedPath)

	switch {
	case req.Method.Equal(consts.MethodGet):
		if path == "/" {
			return memResponse(consts.StatusOK, consts.StatusTextOK, consts.MIMETextPlain, s2b(bodyHello))
		}
	case req.Method.Equal(consts.MethodPost):
		if path == "/echo" {
			// The body view dies on the next buffer shift; echo an owned copy.
			body := append([]byte(nil), req.Body.Bytes()...)
			return memResponse(consts.StatusOK, consts.StatusTextOK, consts.MIMETextPlain, body)
		}
	default:
		return memResponse(consts.StatusMethodNotAllowed, consts.StatusTextMethodNotAllowed,
			consts.MIMETextPlain, s2b(bodyMethodNotSupported))
	}

	return memResponse(consts.StatusNotFound, consts.StatusTextNotFound,
		consts.MIMETextPlain, s2b(bodyRouteNotFound))
}

// serveStatic resolves the normalized path beneath the document root.
func (rt *Router) serveStatic(req *Request) Response {
	rel := string(req.NormalizedPath[1:])
	if rel == "" {
		rel = "index.html"
	}

	f, err := rt.docRoot.Open(rel)
	if err != nil {
		return mapOpenError(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return memResponse(consts.StatusInternalServerError, consts.StatusTextInternalError, "", nil)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return memResponse(consts.StatusForbidden, consts.StatusTextForbidden,
			consts.MIMETextPlain, s2b(bodyForbiddenFile))
	}

	return Response{
		StatusCode:  consts.StatusOK,
		StatusText:  consts.StatusTextOK,
		ContentType: contentTypeForName(rel),
		Payload:     FilePayload{File: f, Size: int(info.Size())},
	}
}

// mapOpenError translates an open failure into the response family the
// route contract defines. A resolution blocked by the beneath-the-root
// guard (EXDEV/ELOOP) is a forbidden route, not an internal error.
func mapOpenError(err error) Response {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOTDIR):
		return memResponse(consts.StatusNotFound, consts.StatusTextNotFound,
			consts.MIMETextPlain, s2b(bodyRouteNotFound))
	case errors.Is(err, fs.ErrPermission),
		errors.Is(err, syscall.EXDEV),
		errors.Is(err, syscall.ELOOP):
		return memResponse(consts.StatusForbidden, consts.StatusTextForbidden,
			consts.MIMETextPlain, s2b(bodyForbiddenFile))
	default:
		return memResponse(consts.StatusInternalServerError, consts.StatusTextInternalError, "", nil)
	}
}
