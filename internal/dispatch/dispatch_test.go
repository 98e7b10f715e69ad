package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfyeh/sehttpd/internal/httpparse"
	"github.com/hfyeh/sehttpd/internal/ring"
)

func parseHeaders(t *testing.T, raw string) (*ring.Buffer, *httpparse.Headers) {
	t.Helper()
	buf := &ring.Buffer{}
	h := &httpparse.Headers{}
	n := copy(buf.Writable(), raw)
	buf.Produced(n)
	require.NoError(t, h.Parse(buf))
	return buf, h
}

func TestHandleSetsKeepAliveOnCaseInsensitiveMatch(t *testing.T) {
	buf, h := parseHeaders(t, "Connection: Keep-Alive\r\n\r\n")
	out := &Out{}
	Handle(buf, h, out)
	assert.True(t, out.KeepAlive)
}

func TestHandleMatchesLowercaseHeaderName(t *testing.T) {
	buf, h := parseHeaders(t, "connection: keep-alive\r\n\r\n")
	out := &Out{}
	Handle(buf, h, out)
	assert.True(t, out.KeepAlive)
}

func TestHandleMatchesUppercaseHeaderName(t *testing.T) {
	buf, h := parseHeaders(t, "HOST: example.com\r\nCONNECTION: keep-alive\r\n\r\n")
	out := &Out{}
	Handle(buf, h, out)
	assert.True(t, out.KeepAlive)
}

func TestHandleDrainsHeaderQueue(t *testing.T) {
	buf, h := parseHeaders(t, "Host: example.com\r\nConnection: keep-alive\r\nX-Unknown: x\r\n\r\n")
	out := &Out{}
	Handle(buf, h, out)
	assert.True(t, h.Empty(), "header queue must be empty once Handle returns")
	assert.Equal(t, 0, h.Len())
}

func TestHandleIgnoresUnknownConnectionValue(t *testing.T) {
	buf, h := parseHeaders(t, "Connection: close\r\n\r\n")
	out := &Out{}
	Handle(buf, h, out)
	assert.False(t, out.KeepAlive)
}

func TestHandleHostIsIgnored(t *testing.T) {
	buf, h := parseHeaders(t, "Host: example.com\r\n\r\n")
	out := &Out{}
	Handle(buf, h, out)
	assert.False(t, out.KeepAlive)
	assert.False(t, out.NotModified)
}

func TestHandleIfModifiedSinceExactMatchSetsNotModified(t *testing.T) {
	mtime := time.Date(2024, time.March, 2, 15, 4, 5, 0, time.UTC)
	buf, h := parseHeaders(t, "If-Modified-Since: Sat, 02 Mar 2024 15:04:05 GMT\r\n\r\n")
	out := &Out{ModTime: mtime}
	Handle(buf, h, out)
	assert.True(t, out.NotModified)
}

func TestHandleIfModifiedSinceOneSecondEarlierStaysModified(t *testing.T) {
	mtime := time.Date(2024, time.March, 2, 15, 4, 5, 0, time.UTC)
	buf, h := parseHeaders(t, "If-Modified-Since: Sat, 02 Mar 2024 15:04:04 GMT\r\n\r\n")
	out := &Out{ModTime: mtime}
	Handle(buf, h, out)
	assert.False(t, out.NotModified)
}

func TestHandleIfModifiedSinceUnparsableIsIgnored(t *testing.T) {
	buf, h := parseHeaders(t, "If-Modified-Since: not-a-date\r\n\r\n")
	out := &Out{}
	Handle(buf, h, out)
	assert.False(t, out.NotModified)
}

func TestHandleMultipleHeadersAllApplied(t *testing.T) {
	mtime := time.Date(2024, time.March, 2, 15, 4, 5, 0, time.UTC)
	buf, h := parseHeaders(t, "Host: example.com\r\nConnection: keep-alive\r\nIf-Modified-Since: Sat, 02 Mar 2024 15:04:05 GMT\r\n\r\n")
	out := &Out{ModTime: mtime}
	Handle(buf, h, out)
	assert.True(t, out.KeepAlive)
	assert.True(t, out.NotModified)
}
