// Package reactor implements the single-threaded epoll event loop and the
// per-connection request driver, the Go realization of
// original_source/src/mainloop.c's main() loop and http.c's do_request,
// generalized from the teacher's server/engine package (StartEpoll,
// listenSocket, Session) but with the teacher's goroutine worker pool
// removed: this server dispatches every ready connection inline, on the
// single goroutine that called epoll_wait, matching the original's
// single-threaded design.
package reactor

import (
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hfyeh/sehttpd/internal/dispatch"
	"github.com/hfyeh/sehttpd/internal/httpparse"
	"github.com/hfyeh/sehttpd/internal/ring"
	"github.com/hfyeh/sehttpd/internal/staticfile"
)

// Conn is one client connection's state: its fd, its ring buffer, and the
// two resumable parsers working off that buffer. It is the Go analogue of
// original_source's http_request_t / the teacher's engine.Session, minus
// the pooled-allocation machinery the single-threaded model no longer
// needs.
type Conn struct {
	fd      int
	webRoot string

	buf         ring.Buffer
	reqLine     httpparse.RequestLine
	reqLineDone bool // request line of the current request already parsed
	headers     httpparse.Headers

	log *slog.Logger
}

func newConn(fd int, webRoot string, log *slog.Logger) *Conn {
	return &Conn{fd: fd, webRoot: webRoot, log: log.With(slog.Int("fd", fd))}
}

// fdWriter adapts a raw fd to io.Writer so staticfile.WriteAll can retry
// short writes the way writen(2) does.
type fdWriter struct{ fd int }

func (w fdWriter) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(w.fd, p)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// connResult tells the reactor what to do with a connection after
// handleReadable returns.
type connResult int

const (
	connWantMoreData connResult = iota // EAGAIN on read: rearm and wait
	connKeepAlive                      // request served, keep-alive: rearm and wait
	connClose                          // EOF, protocol error, or !keep_alive: close fd
)

// handleReadable is do_request's for(;;) loop: drain the socket, feed every
// byte produced into the request-line/header parsers, and serve as many
// complete pipelined requests as the buffered data contains before running
// out (EAGAIN) or hitting a reason to close.
func (c *Conn) handleReadable() connResult {
	for {
		w := c.buf.Writable()
		if w == nil {
			c.log.Error("ring buffer overflow", slog.Int("fd", c.fd))
			return connClose
		}

		n, err := unix.Read(c.fd, w)
		switch {
		case n == 0 && err == nil:
			return connClose // EOF
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return connWantMoreData
		case err == unix.EINTR:
			continue
		case err != nil:
			c.log.Debug("read error", slog.Any("err", err))
			return connClose
		}

		if overflowed := c.produce(n); overflowed {
			return connClose
		}

		for {
			result, done := c.serveOneRequest()
			if done {
				return result
			}
			if result == connWantMoreData {
				break
			}
		}
	}
}

// produce calls buf.Produced(n), converting the ring's overflow panic (a
// connection-scoped fatal condition, see DESIGN.md OQ-1) into a bool so the
// caller can close just this connection instead of the whole process.
func (c *Conn) produce(n int) (overflowed bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("connection buffer overflow, closing", slog.Any("err", r))
			overflowed = true
		}
	}()
	c.buf.Produced(n)
	return false
}

// serveOneRequest attempts to parse and serve a single pipelined request
// off the connection's buffer. done is true when the caller should stop
// and hand result to the reactor (the connection must close). done is false
// after a kept-alive request was served (more may be buffered) and when more
// bytes are needed (result connWantMoreData), in which case the caller reads
// again; a request line already parsed is not parsed a second time.
func (c *Conn) serveOneRequest() (result connResult, done bool) {
	if !c.reqLineDone {
		if err := c.reqLine.Parse(&c.buf); err != nil {
			if err == httpparse.ErrAgain {
				return connWantMoreData, false
			}
			c.log.Debug("invalid request line", slog.Any("err", err))
			return connClose, true
		}
		c.reqLineDone = true
	}

	if err := c.headers.Parse(&c.buf); err != nil {
		if err == httpparse.ErrAgain {
			return connWantMoreData, false
		}
		c.log.Debug("invalid headers", slog.Any("err", err))
		return connClose, true
	}

	keepAlive := c.respond()
	c.reqLine.Reset()
	c.reqLineDone = false
	c.headers.Reset()

	if !keepAlive {
		return connClose, true
	}
	// Keep looping: more pipelined requests may already be buffered.
	return connKeepAlive, false
}

// respond resolves the URI, stats the file, dispatches headers, builds and
// writes the response, and returns whether the connection stays open —
// the Go shape of do_request's body from parse_uri through the keep_alive
// check.
func (c *Conn) respond() (keepAlive bool) {
	uri := c.buf.Slice(c.reqLine.URIStart, c.reqLine.URIEnd)

	filename, err := staticfile.ResolveFilename(c.webRoot, uri)
	if err != nil {
		c.writeError(414, string(uri), "URI Too Long", "The requested URI is too long")
		return false
	}

	info, statErr := os.Stat(filename)
	if statErr != nil {
		c.writeError(404, filename, "Not Found", "Can't find the file")
		return false
	}
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o400 == 0 {
		c.writeError(403, filename, "Forbidden", "Can't read the file")
		return false
	}

	out := &staticfile.Out{
		// original_source compares time_t (whole-second) mtimes; truncate
		// away the filesystem's sub-second precision so the exact-equality
		// check in internal/dispatch matches at second resolution, same as
		// http_process_if_modified_since.
		Out:         dispatch.Out{ModTime: info.ModTime().UTC().Truncate(time.Second)},
		ContentType: staticfile.ContentTypeForPath(filename),
		Size:        info.Size(),
	}
	dispatch.Handle(&c.buf, &c.headers, &out.Out)

	out.Status = 200
	if out.NotModified {
		out.Status = 304
	}

	header := staticfile.BuildHeader(out)
	if _, err := staticfile.WriteAll(fdWriter{c.fd}, header); err != nil {
		c.log.Debug("write header failed", slog.Any("err", err))
		return false
	}

	if !out.NotModified && out.Size > 0 {
		mf, err := staticfile.OpenMapped(filename, out.Size)
		if err != nil {
			c.log.Debug("mmap failed", slog.Any("err", err))
			return false
		}
		_, werr := staticfile.WriteAll(fdWriter{c.fd}, mf.Bytes())
		mf.Close()
		if werr != nil {
			c.log.Debug("write body failed", slog.Any("err", werr))
			return false
		}
	}

	return out.KeepAlive
}

func (c *Conn) writeError(status int, cause, shortMsg, longMsg string) {
	resp := staticfile.BuildErrorResponse(status, cause, shortMsg, longMsg)
	if _, err := staticfile.WriteAll(fdWriter{c.fd}, resp); err != nil {
		c.log.Debug("write error response failed", slog.Any("err", err))
	}
}

func (c *Conn) close() {
	unix.Close(c.fd)
}

// idleTimeout is how long a connection may sit without sending a complete
// request before the reactor closes it, matching
// original_source/src/timer.h's TIMEOUT_DEFAULT.
const idleTimeout = staticfile.KeepAliveTimeout
