package httpparse

import (
	"github.com/hfyeh/sehttpd/internal/dlist"
	"github.com/hfyeh/sehttpd/internal/ring"
)

// Header is one parsed header as an offset pair into the owning connection's
// ring.Buffer, valid only until the buffer is reset for the next pipelined
// request (spec.md §3's Header lifetime note).
type Header struct {
	KeyStart, KeyEnd     uint64
	ValueStart, ValueEnd uint64
}

// Key returns the header name bytes, materialized out of buf.
func (h Header) Key(buf *ring.Buffer) []byte { return buf.Slice(h.KeyStart, h.KeyEnd) }

// Value returns the header value bytes, materialized out of buf.
func (h Header) Value(buf *ring.Buffer) []byte { return buf.Slice(h.ValueStart, h.ValueEnd) }

type headerState int

const (
	hdStart headerState = iota
	hdKey
	hdSpacesBeforeColon
	hdSpacesAfterColon
	hdValue
	hdCR
	hdCRLF
	hdCRLFCR
)

// MaxHeaders bounds how many headers a single request may carry — a fixed
// array of dlist.Node[Header] backing the queue, not a dynamic slice,
// matching the teacher's Session.Hbuf [N]Header pre-allocation idiom
// (server/engine/session.go). Headers parsed beyond this bound are silently
// dropped from the queue but still consumed from the wire, mirroring
// original_source's lack of any such bound (an unbounded list.h list) made
// safe by a fixed ceiling instead.
const MaxHeaders = 64

// Headers holds the resumable state of the header-block FSM
// (original_source's http_parse_request_body) plus the parsed headers
// themselves, queued in parse order in a dlist.List — the Go realization of
// original_source's http_request_t.list (a list.h list of http_header_t),
// consumed node-by-node by internal/dispatch the same way http_handle_header
// walks it with list_for_each_safe and list_del.
type Headers struct {
	state headerState

	curKeyStart, curKeyEnd uint64
	curValStart, curValEnd uint64

	nodes [MaxHeaders]dlist.Node[Header]
	n     int
	queue dlist.List[Header]
}

// Reset clears parsed headers and FSM state for the next request.
func (h *Headers) Reset() { *h = Headers{} }

// Empty reports whether every queued header has been consumed (list_empty).
func (h *Headers) Empty() bool { return h.queue.Empty() }

// Len returns the number of headers still queued (bounded by MaxHeaders).
func (h *Headers) Len() int {
	n := 0
	h.queue.Each(func(*dlist.Node[Header]) bool { n++; return true })
	return n
}

// At returns the i'th still-queued header, in queue order. It does not
// consume it; use Drain to both read and remove.
func (h *Headers) At(i int) Header {
	var result Header
	idx := 0
	h.queue.Each(func(n *dlist.Node[Header]) bool {
		if idx == i {
			result = n.Value
			return false
		}
		idx++
		return true
	})
	return result
}

// Drain walks the header queue front-to-back, calling fn with each header
// and then unlinking it — the Go shape of http_handle_header's
// list_for_each_safe loop (match header, invoke handler, list_del, free).
// Once Drain returns, Empty reports true.
func (h *Headers) Drain(fn func(Header)) {
	h.queue.Each(func(n *dlist.Node[Header]) bool {
		fn(n.Value)
		h.queue.Remove(n)
		return true
	})
}

// Parse resumes the header-block FSM from buf's current read cursor. On
// success it returns nil, advances buf past the terminating blank line, and
// leaves state at hdStart (ready for the next pipelined request's own
// Headers value, which callers should Reset() before reuse). On ErrAgain,
// all state needed to resume is preserved exactly as RequestLine.Parse does.
func (h *Headers) Parse(buf *ring.Buffer) error {
	pos := buf.Pos()
	last := buf.Last()

	var p uint64
	for p = pos; p < last; p++ {
		ch := buf.At(p)

		switch h.state {
		case hdStart:
			// A blank line right at the start ends a block with no headers.
			switch ch {
			case '\r':
				h.state = hdCRLFCR
				continue
			case '\n':
				buf.Consume(int(p + 1 - pos))
				return nil
			}
			h.curKeyStart = p
			h.state = hdKey

		case hdKey:
			switch ch {
			case ' ':
				h.curKeyEnd = p
				h.state = hdSpacesBeforeColon
			case ':':
				h.curKeyEnd = p
				h.state = hdSpacesAfterColon
			}

		case hdSpacesBeforeColon:
			switch ch {
			case ' ':
			case ':':
				h.state = hdSpacesAfterColon
			default:
				return ErrInvalidHeader
			}

		case hdSpacesAfterColon:
			if ch == ' ' {
				continue
			}
			h.state = hdValue
			h.curValStart = p

		case hdValue:
			switch ch {
			case '\r':
				h.curValEnd = p
				h.state = hdCR
			case '\n':
				// Bare LF terminates the value outright (spec.md §9: no
				// separate cr-then-crlf double transition for a lone LF).
				h.curValEnd = p
				h.appendHeader()
				h.state = hdCRLF
			}

		case hdCR:
			if ch != '\n' {
				return ErrInvalidHeader
			}
			h.appendHeader()
			h.state = hdCRLF

		case hdCRLF:
			switch ch {
			case '\r':
				h.state = hdCRLFCR
			case '\n':
				// Bare-LF blank line ends the header block.
				buf.Consume(int(p + 1 - pos))
				h.state = hdStart
				return nil
			default:
				h.curKeyStart = p
				h.state = hdKey
			}

		case hdCRLFCR:
			if ch != '\n' {
				return ErrInvalidHeader
			}
			buf.Consume(int(p + 1 - pos))
			h.state = hdStart
			return nil
		}
	}

	buf.Consume(int(last - pos))
	return ErrAgain
}

func (h *Headers) appendHeader() {
	if h.n < MaxHeaders {
		h.nodes[h.n].Value = Header{
			KeyStart: h.curKeyStart, KeyEnd: h.curKeyEnd,
			ValueStart: h.curValStart, ValueEnd: h.curValEnd,
		}
		h.queue.PushBack(&h.nodes[h.n])
		h.n++
	}
}
