package ircmsg

import "errors"

// MaxLineSize is the soft cap on a single framed line, chosen to leave
// headroom for IRCv3 message-tags ahead of the 512-byte command budget.
const MaxLineSize = 8192

// ErrLineTooLong is returned by Framer.Next when it extracts a terminated
// line longer than MaxLineSize; that line is discarded and the next call
// continues with the bytes after its terminator. When the buffer instead
// grows past MaxLineSize with no terminator at all, Next drops the buffered
// bytes and discards the rest of that line through the next terminator
// without returning ErrLineTooLong. Callers keep draining Next() until it
// returns no line.
var ErrLineTooLong = errors.New("ircmsg: line exceeds soft cap")

// Framer accumulates bytes from a stream and yields complete lines
// terminated by CR, LF, or CRLF. It retains any bytes following the last
// terminator across calls. "No data yet" is reported by Next returning
// ok=false, err=nil. The Framer does not track end-of-stream itself; the
// transport reports it as a read error.
type Framer struct {
	buf        []byte
	discarding bool // true while resyncing after ErrLineTooLong
}

// Feed appends freshly read bytes to the framer's internal buffer.
func (f *Framer) Feed(b []byte) {
	f.buf = append(f.buf, b...)
}

// Next extracts the next complete line from the buffer, if any. ok is false
// with a nil error when no complete line is currently available (more bytes
// are needed). A returned line never contains its terminator. Empty lines
// between terminators are silently discarded by looping internally.
func (f *Framer) Next() (line string, ok bool, err error) {
	for {
		idx, termLen := f.findTerminator()
		if idx < 0 {
			if len(f.buf) > MaxLineSize {
				// No terminator in sight and already over budget: drop what
				// we have and remember that whatever terminator arrives
				// next still belongs to this oversized, already-mangled
				// line.
				f.buf = f.buf[:0]
				f.discarding = true
			}
			return "", false, nil
		}

		raw := f.buf[:idx]
		f.buf = f.buf[idx+termLen:]

		if f.discarding {
			f.discarding = false
			continue
		}

		if len(raw) > MaxLineSize {
			return "", false, ErrLineTooLong
		}

		if len(raw) == 0 {
			continue
		}

		return string(raw), true, nil
	}
}

// findTerminator locates the first CR, LF, or CRLF in the buffer, returning
// its start index and the number of bytes the terminator occupies.
func (f *Framer) findTerminator() (idx int, termLen int) {
	for i := 0; i < len(f.buf); i++ {
		switch f.buf[i] {
		case '\n':
			return i, 1
		case '\r':
			if i+1 < len(f.buf) && f.buf[i+1] == '\n' {
				return i, 2
			}
			// Lone CR: only a terminator once we know more isn't coming
			// right behind it, or we're at the end of the buffer.
			if i+1 == len(f.buf) {
				return -1, 0
			}
			return i, 1
		}
	}
	return -1, 0
}

// Pending returns the number of bytes currently buffered without a
// terminator yet observed.
func (f *Framer) Pending() int {
	return len(f.buf)
}
