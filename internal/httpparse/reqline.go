package httpparse

import "github.com/hfyeh/sehttpd/internal/ring"

// Method is one of the four values original_source/src/http.h's
// http_method enum can classify a request line into.
type Method int

const (
	MethodUnknown Method = iota
	MethodGET
	MethodHEAD
	MethodPOST
)

func (m Method) String() string {
	switch m {
	case MethodGET:
		return "GET"
	case MethodHEAD:
		return "HEAD"
	case MethodPOST:
		return "POST"
	default:
		return "UNKNOWN"
	}
}

type reqLineState int

const (
	rlStart reqLineState = iota
	rlMethod
	rlSpacesBeforeURI
	rlAfterSlashInURI
	rlHTTP
	rlHTTPH
	rlHTTPHT
	rlHTTPHTT
	rlHTTPHTTP
	rlFirstMajorDigit
	rlMajorDigit
	rlFirstMinorDigit
	rlMinorDigit
	rlSpacesAfterDigit
	rlAlmostDone
)

// RequestLine holds the resumable state and the parsed result of the
// request-line FSM (original_source's http_parse_request_line). All slice
// fields are absolute offsets into the connection's ring.Buffer, never raw
// pointers — see spec.md §9's "offset pairs, not pointers" design note.
type RequestLine struct {
	state reqLineState

	RequestStart, RequestEnd uint64
	URIStart, URIEnd         uint64
	Method                   Method
	HTTPMajor, HTTPMinor     int
}

// Reset clears parsed results and FSM state for the next request on a
// pipelined connection.
func (r *RequestLine) Reset() { *r = RequestLine{} }

// cstStrEqual4 compares the 4 bytes at [start,start+4) of buf against c0..c3,
// the offset-pair analogue of http_parser.c's cst_strcmp macro (there done
// via a single uint32 load; here done byte-wise since Go has no unaligned-
// pointer trick worth the unsafe import for 4 bytes).
func cstStrEqual4(buf *ring.Buffer, start uint64, c0, c1, c2, c3 byte) bool {
	return buf.At(start) == c0 && buf.At(start+1) == c1 &&
		buf.At(start+2) == c2 && buf.At(start+3) == c3
}

// Parse resumes parsing the request line from buf's current read cursor
// (buf.Pos()) up to buf.Last(). On success it returns nil, advances buf past
// the line terminator, and resets internal state to rlStart so the same
// RequestLine can parse the next pipelined request without a Reset (Reset
// additionally clears the parsed fields) — this mirrors
// http_parse_request_line leaving r->state at s_start on the done: path.
// On ErrAgain, buf's cursor and r's internal state are both saved; calling
// Parse again after more bytes have been produced into buf resumes exactly
// where it left off, with identical results to a single call over the
// concatenated stream.
func (r *RequestLine) Parse(buf *ring.Buffer) error {
	pos := buf.Pos()
	last := buf.Last()

	var p uint64
	for p = pos; p < last; p++ {
		ch := buf.At(p)

		switch r.state {
		case rlStart:
			r.RequestStart = p
			if ch == '\r' || ch == '\n' {
				continue
			}
			if (ch < 'A' || ch > 'Z') && ch != '_' {
				return ErrInvalidMethod
			}
			r.state = rlMethod

		case rlMethod:
			if ch == ' ' {
				m := r.RequestStart
				switch p - m {
				case 3:
					if cstStrEqual4(buf, m, 'G', 'E', 'T', ' ') {
						r.Method = MethodGET
					} else {
						r.Method = MethodUnknown
					}
				case 4:
					if buf.At(m) == 'P' && buf.At(m+1) == 'O' && buf.At(m+2) == 'S' && buf.At(m+3) == 'T' {
						r.Method = MethodPOST
					} else if buf.At(m) == 'H' && buf.At(m+1) == 'E' && buf.At(m+2) == 'A' && buf.At(m+3) == 'D' {
						r.Method = MethodHEAD
					} else {
						r.Method = MethodUnknown
					}
				default:
					r.Method = MethodUnknown
				}
				r.state = rlSpacesBeforeURI
				continue
			}
			if (ch < 'A' || ch > 'Z') && ch != '_' {
				return ErrInvalidMethod
			}

		case rlSpacesBeforeURI:
			switch {
			case ch == '/':
				r.URIStart = p
				r.state = rlAfterSlashInURI
			case ch == ' ':
				// tolerate repeated spaces
			default:
				return ErrInvalidRequest
			}

		case rlAfterSlashInURI:
			if ch == ' ' {
				r.URIEnd = p
				r.state = rlHTTP
			}

		case rlHTTP:
			switch ch {
			case ' ':
			case 'H':
				r.state = rlHTTPH
			default:
				return ErrInvalidRequest
			}

		case rlHTTPH:
			if ch != 'T' {
				return ErrInvalidRequest
			}
			r.state = rlHTTPHT

		case rlHTTPHT:
			if ch != 'T' {
				return ErrInvalidRequest
			}
			r.state = rlHTTPHTT

		case rlHTTPHTT:
			if ch != 'P' {
				return ErrInvalidRequest
			}
			r.state = rlHTTPHTTP

		case rlHTTPHTTP:
			if ch != '/' {
				return ErrInvalidRequest
			}
			r.state = rlFirstMajorDigit

		case rlFirstMajorDigit:
			if ch < '1' || ch > '9' {
				return ErrInvalidRequest
			}
			r.HTTPMajor = int(ch - '0')
			r.state = rlMajorDigit

		case rlMajorDigit:
			if ch == '.' {
				r.state = rlFirstMinorDigit
				continue
			}
			if ch < '0' || ch > '9' {
				return ErrInvalidRequest
			}
			r.HTTPMajor = r.HTTPMajor*10 + int(ch-'0')

		case rlFirstMinorDigit:
			if ch < '0' || ch > '9' {
				return ErrInvalidRequest
			}
			r.HTTPMinor = int(ch - '0')
			r.state = rlMinorDigit

		case rlMinorDigit:
			switch {
			case ch == '\r':
				r.state = rlAlmostDone
			case ch == '\n':
				r.RequestEnd = p
				buf.Consume(int(p + 1 - pos))
				r.state = rlStart
				return nil
			case ch == ' ':
				r.state = rlSpacesAfterDigit
			case ch < '0' || ch > '9':
				return ErrInvalidRequest
			default:
				r.HTTPMinor = r.HTTPMinor*10 + int(ch-'0')
			}

		case rlSpacesAfterDigit:
			switch ch {
			case ' ':
			case '\r':
				r.state = rlAlmostDone
			case '\n':
				r.RequestEnd = p
				buf.Consume(int(p + 1 - pos))
				r.state = rlStart
				return nil
			default:
				return ErrInvalidRequest
			}

		case rlAlmostDone:
			r.RequestEnd = p - 1
			if ch != '\n' {
				return ErrInvalidRequest
			}
			buf.Consume(int(p + 1 - pos))
			r.state = rlStart
			return nil
		}
	}

	// Every byte up to `last` has already been folded into the FSM state
	// (URIStart/RequestStart etc. are saved offsets, not pending bytes), so
	// the read cursor advances all the way to `last` even on ErrAgain —
	// matching original_source's "r->pos = pi" on the EAGAIN path, where pi
	// has reached r->last. There is nothing left to rescan; the state field
	// alone carries us to the next call.
	buf.Consume(int(last - pos))
	return ErrAgain
}
