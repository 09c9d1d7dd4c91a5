package httprange

// Status is the closed set of response codes a session can send.
type Status int

const (
	StatusOK                  Status = 200
	StatusPartialContent      Status = 206
	StatusBadRequest          Status = 400
	StatusRangeNotSatisfiable Status = 416
	StatusInternalServerError Status = 500
)

// Reason returns the reason phrase written on the status line.
func (s Status) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusPartialContent:
		return "Partial Content"
	case StatusBadRequest:
		return "Bad Request"
	case StatusRangeNotSatisfiable:
		return "Range not satisfiable"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return ""
	}
}

// IsSuccess reports whether the status carries content.
func (s Status) IsSuccess() bool {
	return s == StatusOK || s == StatusPartialContent
}
