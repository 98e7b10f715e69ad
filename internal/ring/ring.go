// Package ring implements the fixed-capacity byte ring shared by a
// connection's socket reads (producer) and its request parsers (consumer),
// matching original_source/src/http.h's buf/pos/last fields and http.c's
// remain_size computation in do_request.
package ring

import "fmt"

// MaxBuf is the ring's fixed capacity in bytes. Request line + headers
// combined must fit; one slot is sacrificed so full/empty are distinguishable
// by last-pos.
const MaxBuf = 8124

// ErrOverflow is the value Produced panics with when the live region would grow
// past MaxBuf-1 bytes. Per spec, this is a fatal condition for the owning
// connection: request lines and headers must fit in MaxBuf.
var ErrOverflow = fmt.Errorf("ring: request exceeds %d byte buffer", MaxBuf)

// Buffer is a fixed-capacity byte ring. Its zero value is ready to use.
type Buffer struct {
	buf        [MaxBuf]byte
	pos, last  uint64 // monotonically increasing; live bytes are buf[pos%MaxBuf .. last%MaxBuf)
}

// Len returns the number of live, unconsumed bytes.
func (b *Buffer) Len() int { return int(b.last - b.pos) }

// Pos returns the current read (consumer) cursor.
func (b *Buffer) Pos() uint64 { return b.pos }

// Last returns the current write (producer) cursor.
func (b *Buffer) Last() uint64 { return b.last }

// At returns the live byte at absolute offset i (pos <= i < last).
func (b *Buffer) At(i uint64) byte { return b.buf[i%MaxBuf] }

// Slice returns a newly allocated copy of the live bytes in [start, end)
// (absolute offsets), wrapping through the ring as needed, or nil if end is
// before start. It is used to materialize a parsed request-line/header slice that
// must outlive the ring's next rewrap (e.g. for logging).
func (b *Buffer) Slice(start, end uint64) []byte {
	if end < start {
		return nil
	}
	out := make([]byte, end-start)
	for i := range out {
		out[i] = b.buf[(start+uint64(i))%MaxBuf]
	}
	return out
}

// Writable returns the maximum contiguous span the producer may write into
// right now: min(MaxBuf - live - 1, MaxBuf - last%MaxBuf). The "-1" keeps one
// slot free so last-pos < MaxBuf discriminates full from empty.
func (b *Buffer) Writable() []byte {
	live := b.last - b.pos
	remainingCapacity := MaxBuf - live - 1
	toWrap := MaxBuf - b.last%MaxBuf
	span := remainingCapacity
	if toWrap < span {
		span = toWrap
	}
	if int64(span) <= 0 {
		return nil
	}
	start := b.last % MaxBuf
	return b.buf[start : start+span]
}

// Produced advances the write cursor after the caller has filled n bytes
// returned by Writable. It panics with ErrOverflow if the ring invariant
// (0 <= last-pos < MaxBuf) would be violated — a connection-scoped fatal
// condition the reactor recovers from by closing that one connection.
func (b *Buffer) Produced(n int) {
	b.last += uint64(n)
	if b.last-b.pos >= MaxBuf {
		panic(ErrOverflow)
	}
}

// Consume advances the read cursor past n parsed bytes.
func (b *Buffer) Consume(n int) {
	b.pos += uint64(n)
}

// Reset rewinds both cursors to zero. It is safe only when Len() == 0;
// Reset itself does not check, matching the cheap teacher reset idiom of
// just zeroing offsets once drained. The connection driver does not call
// it: its cursors keep increasing across pipelined requests.
func (b *Buffer) Reset() {
	b.pos, b.last = 0, 0
}
