package core

// text_reader.go cleans up text exports before CSV parsing.
//
// Spreadsheet tools on Windows prefix UTF-8 files with a byte order mark,
// and files round-tripped through Latin-1 carry bytes that are not valid
// UTF-8. The BOM would end up glued to the first header label; invalid bytes
// would break label matching further down. TextReader strips the one and
// replaces the others with '?', one rune at a time.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextReader is an io.Reader that drops a leading UTF-8 BOM and replaces
// invalid UTF-8 bytes with '?'.
type TextReader struct {
	r          *bufio.Reader
	bomChecked bool
	pending    []byte // tail of a rune that did not fit the caller's buffer
}

// NewTextReader wraps r.
func NewTextReader(r io.Reader) *TextReader {
	return &TextReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (t *TextReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !t.bomChecked {
		t.bomChecked = true
		if head, err := t.r.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = t.r.Discard(len(utf8BOM))
		}
	}

	n := 0
	for n < len(p) {
		if len(t.pending) > 0 {
			c := copy(p[n:], t.pending)
			t.pending = t.pending[c:]
			n += c
			continue
		}

		r, size, err := t.r.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if r == utf8.RuneError && size == 1 {
			r = '?'
		}

		var enc [utf8.UTFMax]byte
		w := utf8.EncodeRune(enc[:], r)
		c := copy(p[n:], enc[:w])
		n += c
		if c < w {
			t.pending = append(t.pending[:0], enc[c:w]...)
		}

		// Do not block on the source once something is ready to return.
		if t.r.Buffered() == 0 {
			break
		}
	}
	return n, nil
}
