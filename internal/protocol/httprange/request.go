// Package httprange implements the minimal HTTP/1.1 dialect spoken by media
// sessions: a single-GET request parser, byte-range resolution against a
// fixed content length, and response head framing.
//
// The dialect is intentionally narrow. Only the request line and the Range
// header are interpreted, a request is read once, and every response closes
// the connection.
package httprange

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

var (
	// ErrEmptyRequest means the buffer held no request line. The session
	// ends without a response.
	ErrEmptyRequest = errors.New("empty request")

	// ErrSyntax means the request line has no tokens.
	ErrSyntax = errors.New("request line has no tokens")

	// ErrMissingURI means the request line has a method but no target.
	ErrMissingURI = errors.New("request line has no target")

	// ErrMethodNotAllowed means the method is not GET. The session closes
	// the connection without a response.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// BadRequestMessage returns the 400 body for a parse error, or false if err
// does not warrant a 400.
func BadRequestMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrSyntax):
		return "Syntax Error", true
	case errors.Is(err, ErrMissingURI):
		return "Missing URI", true
	default:
		return "", false
	}
}

// Header maps lower-cased header names to lower-cased, trimmed values.
// A repeated header keeps its last value.
type Header map[string]string

// Get returns the value stored for the lower-case key.
func (h Header) Get(key string) (string, bool) {
	v, ok := h[key]
	return v, ok
}

// Request is a parsed request head.
type Request struct {
	Method string
	Target string
	Header Header
}

// Range returns the raw (lower-cased) Range header value, if present.
func (r *Request) Range() (string, bool) {
	return r.Header.Get("range")
}

// ParseRequest parses the request head contained in buf.
//
// buf is whatever a single read returned; a header block cut off by the end
// of buf is parsed up to that point. Parsing stops at the first blank line.
//
// On ErrMethodNotAllowed the returned request still carries the method so
// callers can log it.
func ParseRequest(buf []byte) (*Request, error) {
	scanner := bufio.NewScanner(bytes.NewReader(buf))
	scanner.Buffer(make([]byte, 0, len(buf)+1), len(buf)+1)

	if !scanner.Scan() {
		return nil, ErrEmptyRequest
	}

	tokens := strings.Fields(scanner.Text())
	if len(tokens) == 0 {
		return nil, ErrSyntax
	}

	req := &Request{Method: tokens[0]}
	if !strings.EqualFold(req.Method, "GET") {
		return req, ErrMethodNotAllowed
	}
	if len(tokens) < 2 {
		return req, ErrMissingURI
	}
	req.Target = tokens[1]

	req.Header = make(Header)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Header[strings.ToLower(strings.TrimSpace(key))] = strings.ToLower(strings.TrimSpace(value))
	}
	return req, nil
}
