package consts

const (
	MIMETextPlain   = "text/plain"
	MIMEOctetStream = "application/octet-stream"
	MIMEHTML        = "text/html"
	MIMECSS         = "text/css"
	MIMEJS          = "application/javascript"
	MIMEPNG         = "image/png"
)
