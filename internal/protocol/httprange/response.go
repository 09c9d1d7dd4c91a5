package httprange

import (
	"io"
	"strconv"
)

const (
	// DefaultContentType is sent with successful responses.
	DefaultContentType = "video/mp4"

	errorContentType = "text/plain"
)

func appendStatusLine(buf []byte, status Status) []byte {
	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendInt(buf, int64(status), 10)
	buf = append(buf, ' ')
	buf = append(buf, status.Reason()...)
	return append(buf, "\r\n"...)
}

func appendHeader(buf []byte, key, value string) []byte {
	buf = append(buf, key...)
	buf = append(buf, ": "...)
	buf = append(buf, value...)
	return append(buf, "\r\n"...)
}

func appendTrailingHeaders(buf []byte, contentType string) []byte {
	buf = appendHeader(buf, "Accept-Ranges", "bytes")
	buf = appendHeader(buf, "Connection", "keep-alive")
	buf = appendHeader(buf, "Content-Type", contentType)
	return append(buf, "\r\n"...)
}

// SuccessHead returns the status line and headers for a Full or Partial
// resolution, including the terminating blank line.
func SuccessHead(r Resolution, contentType string) []byte {
	if contentType == "" {
		contentType = DefaultContentType
	}
	status := r.Status()

	buf := make([]byte, 0, 256)
	buf = appendStatusLine(buf, status)
	buf = appendHeader(buf, "Content-Length", strconv.FormatInt(r.SendLength, 10))
	if status != StatusOK {
		buf = appendHeader(buf, "Content-Range", "bytes "+r.ContentRange())
	}
	return appendTrailingHeaders(buf, contentType)
}

// ErrorResponse returns a complete error response: head plus message body.
// Error responses carry no Content-Length; the body ends when the
// connection closes.
func ErrorResponse(status Status, message string) []byte {
	buf := make([]byte, 0, 128+len(message))
	buf = appendStatusLine(buf, status)
	buf = appendTrailingHeaders(buf, errorContentType)
	return append(buf, message...)
}

// WriteSuccessHead writes SuccessHead to w.
func WriteSuccessHead(w io.Writer, r Resolution, contentType string) error {
	_, err := w.Write(SuccessHead(r, contentType))
	return err
}

// WriteError writes ErrorResponse to w.
func WriteError(w io.Writer, status Status, message string) error {
	_, err := w.Write(ErrorResponse(status, message))
	return err
}
