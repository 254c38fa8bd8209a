package midi

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// The default word length limit. Longer words are split, with the rest read as
// the next word.
const MaxWordLength = 64

// Returns true for the ASCII whitespace characters recognized by C's isspace.
func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// Reads whitespace-delimited words from an input stream.
type WordReader struct {
	r         *bufio.Reader
	maxLen    int
	truncated bool
}

// Wraps r to read words of up to maxLen bytes. If maxLen is less than 1,
// MaxWordLength is used instead.
func NewWordReader(r io.Reader, maxLen int) *WordReader {
	if maxLen < 1 {
		maxLen = MaxWordLength
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &WordReader{
		r:      br,
		maxLen: maxLen,
	}
}

// Returns true if the word returned by the last call to NextWord hit the
// length limit. The rest of that word, if any, is returned by the next call.
func (w *WordReader) Truncated() bool {
	return w.truncated
}

// Returns the next word in the input. Skips any leading whitespace, and
// consumes the single whitespace byte ending the word. Returns io.EOF if the
// input ends before a word starts.
func (w *WordReader) NextWord() (string, error) {
	w.truncated = false
	var b byte
	var e error
	for {
		b, e = w.r.ReadByte()
		if e == io.EOF {
			return "", io.EOF
		}
		if e != nil {
			return "", errors.Wrap(e, "Failed reading input")
		}
		if !isSpace(b) {
			break
		}
	}
	word := make([]byte, 1, w.maxLen)
	word[0] = b
	for len(word) < w.maxLen {
		b, e = w.r.ReadByte()
		if e == io.EOF {
			return string(word), nil
		}
		if e != nil {
			return "", errors.Wrap(e, "Failed reading input")
		}
		if isSpace(b) {
			return string(word), nil
		}
		word = append(word, b)
	}
	// The byte after a full buffer is left unread. It only counts as a
	// truncation if that byte would have continued the word.
	next, e := w.r.Peek(1)
	w.truncated = (e == nil) && !isSpace(next[0])
	return string(word), nil
}
