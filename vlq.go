// This package converts a small whitespace-delimited note language into
// single-track standard MIDI files. The txt2mid directory contains the
// command-line converter, and smf_tool can dump the files it produces.
package midi

import (
	"io"

	"github.com/pkg/errors"
)

// The largest value that fits in a 4-byte MIDI variable-length integer.
const MaxVariableInt = 0x0fffffff

// Returned when attempting to encode a value over MaxVariableInt.
var ErrVariableIntTooLarge = errors.New("Integer is too large for a MIDI " +
	"variable-length int")

// Decodes a MIDI variable-length int from r, one byte at a time. Returns
// io.EOF, unwrapped, only if r is empty before the first byte. Running out of
// input partway through an int is a different error.
func ReadVariableInt(r io.ByteReader) (uint32, error) {
	var n uint32
	for count := 1; ; count++ {
		b, e := r.ReadByte()
		if e == io.EOF && count == 1 {
			return 0, io.EOF
		}
		if e == io.EOF {
			return 0, errors.Errorf("Variable-length int ends after %d "+
				"byte(s)", count-1)
		}
		if e != nil {
			return 0, errors.Wrap(e, "Failed reading variable-length int")
		}
		n = (n << 7) | uint32(b&0x7f)
		if b < 0x80 {
			return n, nil
		}
		if count == 4 {
			return 0, errors.Wrap(ErrVariableIntTooLarge, "Continuation bit "+
				"set on the fourth byte")
		}
	}
}

// Returns the bytes of n as a MIDI variable-length int: 7 bits per byte, most
// significant group first, with the top bit set on every byte but the last.
func EncodeVariableInt(n uint32) ([]byte, error) {
	if n > MaxVariableInt {
		return nil, errors.Wrapf(ErrVariableIntTooLarge, "0x%08x", n)
	}
	// Fill from the back; the last byte is the only one without the
	// continuation bit.
	var tmp [4]byte
	i := len(tmp) - 1
	tmp[i] = byte(n & 0x7f)
	n >>= 7
	for n != 0 {
		i--
		tmp[i] = byte(n&0x7f) | 0x80
		n >>= 7
	}
	return tmp[i:], nil
}

// Writes a MIDI-format variable int (up to 0x0fffffff) to the given output
// stream. Returns the number of bytes written, and an error if one occurs,
// including if the integer is invalid.
func WriteVariableInt(w io.Writer, n uint32) (int, error) {
	data, e := EncodeVariableInt(n)
	if e != nil {
		return 0, e
	}
	return w.Write(data)
}

// The fixed-width integers in SMF files are all big-endian.

func putUint16(dst []byte, n uint16) []byte {
	return append(dst, byte(n>>8), byte(n))
}

// Only the low 24 bits of n are kept.
func putUint24(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>16), byte(n>>8), byte(n))
}

func putUint32(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}
