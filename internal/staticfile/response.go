// Package staticfile builds HTTP responses for static files the way
// original_source/src/http.c's serve_static/do_error do: a hand-assembled
// header followed by the file's bytes, mapped read-only via mmap(2) instead
// of copied through a read/write cycle.
package staticfile

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hfyeh/sehttpd/internal/dispatch"
)

const serverHeader = "seHTTPd"

// Out is the full set of response-shaping fields serve_static reads out of
// http_out_t: the dispatch-level fields (keep-alive, conditional-GET
// outcome) plus the status code and content metadata only this package
// decides.
type Out struct {
	dispatch.Out
	Status      int
	ContentType string
	Size        int64
}

// statusText mirrors get_msg_from_status's closed set (only the statuses
// this server ever produces).
func statusText(status int) string {
	switch status {
	case 200:
		return "OK"
	case 304:
		return "Not Modified"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	default:
		return "Unknown"
	}
}

// BuildHeader assembles the response header, following serve_static's
// field order: status line, then Connection/Keep-Alive when keep-alive was
// negotiated, then Content-type/Content-length/Last-Modified when the body
// is actually being sent (out.NotModified suppresses all three, matching
// "if (out->modified) { ... }"), then the trailing Server line.
func BuildHeader(out *Out) []byte {
	var b []byte
	b = append(b, "HTTP/1.1 "...)
	b = append(b, strconv.Itoa(out.Status)...)
	b = append(b, ' ')
	b = append(b, statusText(out.Status)...)
	b = append(b, "\r\n"...)

	if out.KeepAlive {
		b = append(b, "Connection: keep-alive\r\n"...)
		// original_source prints TIMEOUT_DEFAULT (500, a millisecond count)
		// unconverted into a header conventionally read as seconds; kept
		// byte-for-byte rather than "fixed", since it isn't one of the
		// REDESIGN FLAGS and a client never acts on this particular value.
		b = append(b, fmt.Sprintf("Keep-Alive: timeout=%d\r\n", keepAliveTimeoutMs)...)
	}

	if !out.NotModified {
		b = append(b, "Content-type: "...)
		b = append(b, out.ContentType...)
		b = append(b, "\r\n"...)
		b = append(b, fmt.Sprintf("Content-length: %d\r\n", out.Size)...)
		b = append(b, "Last-Modified: "...)
		b = append(b, out.ModTime.UTC().Format(imfResponseLayout)...)
		b = append(b, "\r\n"...)
	}

	b = append(b, "Server: "+serverHeader+"\r\n\r\n"...)
	return b
}

// imfResponseLayout is the same RFC 1123 spelling dispatch parses
// If-Modified-Since with, used here to format Last-Modified.
const imfResponseLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// keepAliveTimeoutMs mirrors original_source/src/timer.h's TIMEOUT_DEFAULT
// (500ms), used both as the idle-timer duration and, unconverted, as the
// value advertised in the Keep-Alive header.
const keepAliveTimeoutMs = 500

// KeepAliveTimeout is keepAliveTimeoutMs as a time.Duration, for the
// reactor's idle timer.
const KeepAliveTimeout = keepAliveTimeoutMs * time.Millisecond

// MappedFile is a read-only mmap of a static file's contents, opened just
// long enough to map it (the fd is closed immediately after mmap succeeds,
// matching serve_static's close(srcfd) right after the mmap call).
type MappedFile struct {
	data []byte
}

// OpenMapped mmaps path read-only for size bytes. Callers must call Close
// once they are done writing the bytes out.
func OpenMapped(path string, size int64) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if size == 0 {
		return &MappedFile{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &MappedFile{data: data}, nil
}

// Bytes returns the mapped file contents.
func (m *MappedFile) Bytes() []byte { return m.data }

// Close unmaps the file, a no-op for an empty (zero-length) file that was
// never mapped in the first place.
func (m *MappedFile) Close() error {
	if m.data == nil {
		return nil
	}
	return unix.Munmap(m.data)
}

// WriteAll writes all of data to w, retrying on short writes the way
// writen(2) does. Any error from w aborts with the bytes written so far;
// retrying on EINTR is left to w (the reactor's fdWriter does it).
func WriteAll(w io.Writer, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := w.Write(data[written:])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
