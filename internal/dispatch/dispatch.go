// Package dispatch implements the header dispatch table that
// original_source/src/http_request.c calls http_headers_in: each parsed
// header is looked up by name and handed to a small handler that folds it
// into the in-flight response state (keep-alive negotiation, conditional
// GET, or plain ignore for anything the server doesn't act on).
package dispatch

import (
	"bytes"
	"net/textproto"
	"time"

	"github.com/hfyeh/sehttpd/internal/httpparse"
	"github.com/hfyeh/sehttpd/internal/ring"
)

// imfTimeLayout is Go's reference-time spelling of the RFC 1123 date format
// strptime(3) parses in http_process_if_modified_since ("%a, %d %b %Y
// %H:%M:%S GMT").
const imfTimeLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// Out carries the response-shaping fields a header handler may update,
// mirroring the subset of original_source's http_out_t fields
// http_headers_in touches (keep_alive, modified/status, mtime — the rest of
// http_out_t belongs to internal/staticfile, which embeds an Out).
type Out struct {
	KeepAlive   bool
	NotModified bool
	ModTime     time.Time
}

// handler mirrors http_header_handle_t's function pointer: given the raw
// value bytes of a matched header, update out in place.
type handler func(out *Out, value []byte)

func ignore(*Out, []byte) {}

func processConnection(out *Out, value []byte) {
	if bytes.EqualFold(value, []byte("keep-alive")) {
		out.KeepAlive = true
	}
}

func processIfModifiedSince(out *Out, value []byte) {
	t, err := time.Parse(imfTimeLayout, string(value))
	if err != nil {
		return
	}
	if t.Equal(out.ModTime) {
		out.NotModified = true
	}
}

// table mirrors http_headers_in's ordered array, keyed by the canonical
// (textproto.CanonicalMIMEHeaderKey) spelling of each header name. HTTP
// header names are case-insensitive (spec.md §4.F/§9), so the lookup in
// Handle canonicalizes the parsed key first — unlike the original's
// strncmp, which only ever matched the exact casing a handwritten C client
// happened to send.
var table = map[string]handler{
	"Host":              ignore,
	"Connection":        processConnection,
	"If-Modified-Since": processIfModifiedSince,
}

// Handle walks every header parsed for the current request, applies the
// matching table entry, and removes it from the queue — equivalent to
// http_handle_header's list_for_each_safe loop, which both dispatches and
// list_dels each header node. Headers.Drain guarantees headers.Empty() once
// Handle returns (testable property: header queue is empty by the time a
// response is emitted). Headers with no table entry are left unapplied but
// still removed, matching the fallback {"", http_process_ignore} sentinel
// row.
func Handle(buf *ring.Buffer, headers *httpparse.Headers, out *Out) {
	headers.Drain(func(h httpparse.Header) {
		key := textproto.CanonicalMIMEHeaderKey(string(h.Key(buf)))
		if fn, ok := table[key]; ok {
			fn(out, h.Value(buf))
		}
	})
}
