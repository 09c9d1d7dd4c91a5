package httprange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	const total = 1000

	tests := []struct {
		name       string
		value      string
		present    bool
		wantKind   Kind
		wantStatus Status
		start, end int64
		sendLength int64
	}{
		{"no range", "", false, KindFull, StatusOK, 0, 999, 1000},
		{"explicit window", "bytes=100-199", true, KindPartial, StatusPartialContent, 100, 199, 100},
		{"open end", "bytes=500-", true, KindPartial, StatusPartialContent, 500, 999, 500},
		{"end past content", "bytes=900-5000", true, KindPartial, StatusPartialContent, 900, 999, 100},
		{"last byte", "bytes=999-999", true, KindPartial, StatusPartialContent, 999, 999, 1},
		{"whole file as range", "bytes=0-", true, KindPartial, StatusPartialContent, 0, 999, 1000},
		{"suffix form falls back to full window", "bytes=-500", true, KindPartial, StatusPartialContent, 0, 999, 1000},
		{"garbage start falls back", "bytes=abc-100", true, KindPartial, StatusPartialContent, 0, 999, 1000},
		{"garbage end keeps start", "bytes=100-xyz", true, KindPartial, StatusPartialContent, 100, 999, 900},
		{"no dash", "bytes=100", true, KindPartial, StatusPartialContent, 0, 999, 1000},
		{"multi range keeps start", "bytes=0-10,20-30", true, KindPartial, StatusPartialContent, 0, 999, 1000},
		{"end before start", "bytes=200-100", true, KindPartial, StatusPartialContent, 200, 100, 0},
		{"start at length", "bytes=1000-1100", true, KindUnsatisfiable, StatusRangeNotSatisfiable, 1000, 999, 0},
		{"start past length", "bytes=5000-", true, KindUnsatisfiable, StatusRangeNotSatisfiable, 5000, 999, -4000},
		{"wrong unit", "items=0-10", true, KindMalformed, StatusRangeNotSatisfiable, 0, 0, 0},
		{"empty value", "", true, KindMalformed, StatusRangeNotSatisfiable, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolve(tt.value, tt.present, total)
			assert.Equal(t, tt.wantKind, r.Kind)
			assert.Equal(t, tt.wantStatus, r.Status())
			assert.Equal(t, tt.start, r.Start, "start")
			assert.Equal(t, tt.end, r.End, "end")
			assert.Equal(t, tt.sendLength, r.SendLength, "sendLength")
			assert.EqualValues(t, total, r.Total)
		})
	}
}

func TestResolveRequest(t *testing.T) {
	req := &Request{Method: "GET", Target: "/x", Header: Header{"range": "bytes=10-19"}}
	r := ResolveRequest(req, 100)
	assert.Equal(t, KindPartial, r.Kind)
	assert.EqualValues(t, 10, r.SendLength)

	req.Header = Header{}
	assert.Equal(t, KindFull, ResolveRequest(req, 100).Kind)
}

func TestErrorMessages(t *testing.T) {
	r := Resolve("items=0-10", true, 1000)
	assert.Equal(t, "Range Syntax is Error! [items=0-10]", r.ErrorMessage())

	r = Resolve("bytes=1000-1100", true, 1000)
	assert.Equal(t,
		"Range Error[req = 1000-1100]! start = 1000, end = 999, sendLength = 0, contentLength = 1000.",
		r.ErrorMessage())

	assert.Empty(t, Resolve("bytes=0-1", true, 1000).ErrorMessage())
	assert.Empty(t, Resolve("", false, 1000).ErrorMessage())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "full", KindFull.String())
	assert.Equal(t, "partial", KindPartial.String())
	assert.Equal(t, "malformed", KindMalformed.String())
	assert.Equal(t, "unsatisfiable", KindUnsatisfiable.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
