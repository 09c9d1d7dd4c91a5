package httprange

import (
	"fmt"
	"strconv"
	"strings"
)

const bytesPrefix = "bytes="

// Kind classifies a range resolution.
type Kind int

const (
	// KindFull is a request without a Range header.
	KindFull Kind = iota
	// KindPartial is a satisfiable byte range.
	KindPartial
	// KindMalformed is a Range header without the "bytes=" prefix.
	KindMalformed
	// KindUnsatisfiable is a range starting at or past the end of content.
	KindUnsatisfiable
)

func (k Kind) String() string {
	switch k {
	case KindFull:
		return "full"
	case KindPartial:
		return "partial"
	case KindMalformed:
		return "malformed"
	case KindUnsatisfiable:
		return "unsatisfiable"
	default:
		return "unknown"
	}
}

// Resolution is the byte window selected for a request.
type Resolution struct {
	Kind Kind

	// Start and End are inclusive offsets after clamping.
	Start int64
	End   int64

	// Total is the content length the range was resolved against.
	Total int64

	// SendLength is the number of bytes to deliver. It is never negative
	// for Full and Partial resolutions.
	SendLength int64

	// Raw is the Range header value as received (lower-cased).
	Raw string

	// Spec is Raw with the "bytes=" prefix removed.
	Spec string
}

// Resolve selects the byte window for rangeValue against total bytes of
// content. present reports whether the request carried a Range header.
//
// Unparsable numbers are not an error: start is parsed first and end second,
// and whichever fails keeps its default (start 0, end -1) along with every
// value after it. The window is then clamped to the content.
func Resolve(rangeValue string, present bool, total int64) Resolution {
	r := Resolution{Total: total, Raw: rangeValue}

	if !present {
		r.Kind = KindFull
		r.End = total - 1
		r.SendLength = total
		return r
	}

	if !strings.HasPrefix(rangeValue, bytesPrefix) {
		r.Kind = KindMalformed
		return r
	}

	r.Spec = strings.TrimPrefix(rangeValue, bytesPrefix)
	r.End = -1
	if sep := strings.Index(r.Spec, "-"); sep > 0 {
		if start, err := strconv.ParseInt(r.Spec[:sep], 10, 64); err == nil {
			r.Start = start
			if end, err := strconv.ParseInt(r.Spec[sep+1:], 10, 64); err == nil {
				r.End = end
			}
		}
	}

	if r.Start < 0 {
		r.Start = 0
	}
	if r.End < 0 || r.End >= total {
		r.End = total - 1
	}

	if r.Start >= total {
		r.Kind = KindUnsatisfiable
		r.SendLength = r.End - r.Start + 1
		return r
	}

	r.Kind = KindPartial
	r.SendLength = max(0, r.End-r.Start+1)
	return r
}

// ResolveRequest resolves the Range header of req against total.
func ResolveRequest(req *Request, total int64) Resolution {
	value, present := req.Range()
	return Resolve(value, present, total)
}

// Status returns the response status for the resolution.
func (r Resolution) Status() Status {
	switch r.Kind {
	case KindFull:
		return StatusOK
	case KindPartial:
		return StatusPartialContent
	default:
		return StatusRangeNotSatisfiable
	}
}

// ContentRange returns "<start>-<end>/<total>".
func (r Resolution) ContentRange() string {
	return fmt.Sprintf("%d-%d/%d", r.Start, r.End, r.Total)
}

// ErrorMessage returns the plain-text body sent for a failed resolution, or
// "" for Full and Partial.
func (r Resolution) ErrorMessage() string {
	switch r.Kind {
	case KindMalformed:
		return fmt.Sprintf("Range Syntax is Error! [%s]", r.Raw)
	case KindUnsatisfiable:
		return fmt.Sprintf("Range Error[req = %s]! start = %d, end = %d, sendLength = %d, contentLength = %d.",
			r.Spec, r.Start, r.End, r.SendLength, r.Total)
	default:
		return ""
	}
}
