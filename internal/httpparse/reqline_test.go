package httpparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfyeh/sehttpd/internal/ring"
)

func feedRequestLine(t *testing.T, chunks ...string) (*ring.Buffer, *RequestLine) {
	t.Helper()
	buf := &ring.Buffer{}
	r := &RequestLine{}

	var err error
	for _, c := range chunks {
		n := copy(buf.Writable(), c)
		require.Equal(t, len(c), n, "test chunk must fit in one Writable span")
		buf.Produced(n)
		err = r.Parse(buf)
		if err == nil {
			break
		}
		require.ErrorIs(t, err, ErrAgain)
	}
	require.NoError(t, err)
	return buf, r
}

func TestRequestLineParseGET(t *testing.T) {
	buf, r := feedRequestLine(t, "GET /index.html HTTP/1.1\r\n")

	assert.Equal(t, MethodGET, r.Method)
	assert.Equal(t, 1, r.HTTPMajor)
	assert.Equal(t, 1, r.HTTPMinor)
	assert.Equal(t, "/index.html", string(buf.Slice(r.URIStart, r.URIEnd)))
}

func TestRequestLineParseHEADAndPOST(t *testing.T) {
	buf, r := feedRequestLine(t, "HEAD /a HTTP/1.0\r\n")
	assert.Equal(t, MethodHEAD, r.Method)
	assert.Equal(t, 1, r.HTTPMajor)
	assert.Equal(t, 0, r.HTTPMinor)
	assert.Equal(t, "/a", string(buf.Slice(r.URIStart, r.URIEnd)))

	_, r2 := feedRequestLine(t, "POST /submit HTTP/1.1\r\n")
	assert.Equal(t, MethodPOST, r2.Method)
}

func TestRequestLineUnknownMethodStillParses(t *testing.T) {
	_, r := feedRequestLine(t, "PUT /x HTTP/1.1\r\n")
	assert.Equal(t, MethodUnknown, r.Method)
}

func TestRequestLineBareLFLineEndingIsTolerated(t *testing.T) {
	buf, r := feedRequestLine(t, "GET /a HTTP/1.1\n")
	assert.Equal(t, MethodGET, r.Method)
	assert.Equal(t, "/a", string(buf.Slice(r.URIStart, r.URIEnd)))
}

func TestRequestLineTrailingSpaceBeforeCRLF(t *testing.T) {
	buf, r := feedRequestLine(t, "GET /a HTTP/1.1 \r\n")
	assert.Equal(t, MethodGET, r.Method)
	assert.Equal(t, "/a", string(buf.Slice(r.URIStart, r.URIEnd)))
}

func TestRequestLineLeadingBlankLinesAreSkipped(t *testing.T) {
	buf, r := feedRequestLine(t, "\r\n\r\nGET /a HTTP/1.1\r\n")
	assert.Equal(t, MethodGET, r.Method)
	assert.Equal(t, "/a", string(buf.Slice(r.URIStart, r.URIEnd)))
}

func TestRequestLineByteAtATime(t *testing.T) {
	whole := "GET /path/to/thing.html HTTP/1.1\r\n"
	chunks := make([]string, len(whole))
	for i, c := range []byte(whole) {
		chunks[i] = string(c)
	}
	buf, r := feedRequestLine(t, chunks...)
	assert.Equal(t, MethodGET, r.Method)
	assert.Equal(t, "/path/to/thing.html", string(buf.Slice(r.URIStart, r.URIEnd)))
}

func TestRequestLineInvalidMethodChar(t *testing.T) {
	buf := &ring.Buffer{}
	r := &RequestLine{}
	n := copy(buf.Writable(), "1ET /a HTTP/1.1\r\n")
	buf.Produced(n)
	err := r.Parse(buf)
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestRequestLineInvalidHTTPLiteral(t *testing.T) {
	buf := &ring.Buffer{}
	r := &RequestLine{}
	n := copy(buf.Writable(), "GET /a XTTP/1.1\r\n")
	buf.Produced(n)
	err := r.Parse(buf)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRequestLineResumabilityAcrossArbitraryFragmentation(t *testing.T) {
	whole := "GET /a/b/c?q=1 HTTP/1.1\r\n"

	wholeBuf, wholeR := feedRequestLine(t, whole)

	splits := []int{1, 4, 9, 15, 20}
	var chunks []string
	prev := 0
	for _, s := range splits {
		chunks = append(chunks, whole[prev:s])
		prev = s
	}
	chunks = append(chunks, whole[prev:])
	fragBuf, fragR := feedRequestLine(t, chunks...)

	assert.Equal(t, wholeR.Method, fragR.Method)
	assert.Equal(t, wholeR.HTTPMajor, fragR.HTTPMajor)
	assert.Equal(t, wholeR.HTTPMinor, fragR.HTTPMinor)
	assert.Equal(t, string(wholeBuf.Slice(wholeR.URIStart, wholeR.URIEnd)), string(fragBuf.Slice(fragR.URIStart, fragR.URIEnd)))
}

func TestRequestLineParsesSecondPipelinedRequestAfterFirst(t *testing.T) {
	buf := &ring.Buffer{}
	r := &RequestLine{}

	n := copy(buf.Writable(), "GET /first HTTP/1.1\r\n")
	buf.Produced(n)
	require.NoError(t, r.Parse(buf))
	assert.Equal(t, "/first", string(buf.Slice(r.URIStart, r.URIEnd)))

	n = copy(buf.Writable(), "GET /second HTTP/1.1\r\n")
	buf.Produced(n)
	require.NoError(t, r.Parse(buf))
	assert.Equal(t, "/second", string(buf.Slice(r.URIStart, r.URIEnd)))
}
