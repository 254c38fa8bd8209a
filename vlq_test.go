package midi

import (
	"bytes"
	"io"
	"testing"
)

// Values paired with their encodings in vlqEncodings.
var vlqValues = []uint32{
	0x00000000,
	0x00000040,
	0x0000007F,
	0x00000080,
	0x00002000,
	0x00003FFF,
	0x00004000,
	0x00100000,
	0x001FFFFF,
	0x00200000,
	0x08000000,
	0x0FFFFFFF,
}

var vlqEncodings = [][]byte{
	{0x00},
	{0x40},
	{0x7F},
	{0x81, 0x00},
	{0xC0, 0x00},
	{0xFF, 0x7F},
	{0x81, 0x80, 0x00},
	{0xC0, 0x80, 0x00},
	{0xFF, 0xFF, 0x7F},
	{0x81, 0x80, 0x80, 0x00},
	{0xC0, 0x80, 0x80, 0x00},
	{0xFF, 0xFF, 0xFF, 0x7F},
}

func TestVariableIntRead(t *testing.T) {
	// The encodings, followed by an invalid integer that's too long, and an
	// invalid integer that hits EOF too soon.
	var data []byte
	for _, b := range vlqEncodings {
		data = append(data, b...)
	}
	data = append(data, 0xff, 0xff, 0xff, 0x80, 0xff)
	r := bytes.NewReader(data)
	for _, v := range vlqValues {
		valueRead, e := ReadVariableInt(r)
		if e != nil {
			t.Logf("Failed reading variable-length int 0x%08x: %s\n", v, e)
			t.FailNow()
		}
		if valueRead != v {
			t.Logf("Read wrong value for variable-length int. Expected "+
				"0x%08x, got 0x%08x.\n", v, valueRead)
			t.FailNow()
		}
	}
	_, e := ReadVariableInt(r)
	if e == nil {
		t.Logf("Didn't get expected error for reading an invalid int.\n")
		t.FailNow()
	}
	t.Logf("Got expected error for invalid variable-length int: %s\n", e)
	_, e = ReadVariableInt(r)
	if e == nil {
		t.Logf("Didn't get expected error for reading an incomplete int.\n")
		t.FailNow()
	}
	if e == io.EOF {
		t.Logf("Got io.EOF from reading an incomplete int.\n")
		t.FailNow()
	}
	_, e = ReadVariableInt(r)
	if e != io.EOF {
		t.Logf("Didn't get io.EOF when trying to read an int at EOF: %v\n", e)
		t.FailNow()
	}
}

func TestVariableIntWrite(t *testing.T) {
	var output bytes.Buffer
	var expected []byte
	for i, v := range vlqValues {
		n, e := WriteVariableInt(&output, v)
		if e != nil {
			t.Logf("Failed writing variable int 0x%08x: %s\n", v, e)
			t.FailNow()
		}
		if n != len(vlqEncodings[i]) {
			t.Logf("Wrote %d bytes for 0x%08x, expected %d\n", n, v,
				len(vlqEncodings[i]))
			t.FailNow()
		}
		expected = append(expected, vlqEncodings[i]...)
	}
	if !bytes.Equal(output.Bytes(), expected) {
		t.Logf("Got % x, expected % x\n", output.Bytes(), expected)
		t.FailNow()
	}
	_, e := WriteVariableInt(&output, 0x10000000)
	if e == nil {
		t.Logf("Didn't get expected error for writing int that's too big.\n")
		t.FailNow()
	}
	t.Logf("Got expected error when writing int that's too big: %s\n", e)
}

// Checks every value at the boundaries between encoded lengths, plus a spread
// of values in between.
func TestVariableIntRoundTrip(t *testing.T) {
	var values []uint32
	for _, limit := range []uint32{0x7f, 0x3fff, 0x1fffff, 0x0fffffff} {
		values = append(values, limit-1, limit, limit+1)
	}
	for v := uint32(0); v < MaxVariableInt; v += 0x12345 {
		values = append(values, v)
	}
	for _, v := range values {
		if v > MaxVariableInt {
			continue
		}
		data, e := EncodeVariableInt(v)
		if e != nil {
			t.Logf("Failed encoding 0x%08x: %s\n", v, e)
			t.FailNow()
		}
		expectedLength := 1
		for n := v >> 7; n != 0; n >>= 7 {
			expectedLength++
		}
		if len(data) != expectedLength {
			t.Logf("Encoded 0x%08x in %d bytes, expected %d\n", v, len(data),
				expectedLength)
			t.FailNow()
		}
		decoded, e := ReadVariableInt(bytes.NewReader(data))
		if e != nil {
			t.Logf("Failed decoding 0x%08x (% x): %s\n", v, data, e)
			t.FailNow()
		}
		if decoded != v {
			t.Logf("Decoded 0x%08x, expected 0x%08x\n", decoded, v)
			t.FailNow()
		}
	}
}

func TestFixedWidthInts(t *testing.T) {
	tests := []struct {
		got      []byte
		expected []byte
	}{
		{putUint16(nil, 0x00f0), []byte{0x00, 0xf0}},
		{putUint16(nil, 0xabcd), []byte{0xab, 0xcd}},
		{putUint24(nil, 500000), []byte{0x07, 0xa1, 0x20}},
		{putUint24(nil, 0x01234567), []byte{0x23, 0x45, 0x67}},
		{putUint32(nil, 6), []byte{0, 0, 0, 6}},
		{putUint32([]byte{1}, 0xdeadbeef), []byte{1, 0xde, 0xad, 0xbe, 0xef}},
	}
	for i, test := range tests {
		if !bytes.Equal(test.got, test.expected) {
			t.Logf("Case %d: got % x, expected % x\n", i, test.got,
				test.expected)
			t.Fail()
		}
	}
}
