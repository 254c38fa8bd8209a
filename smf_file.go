package midi

// This file contains code used for writing .mid SMF-format files.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// This corresponds to the division field of the MThd chunk.
type TimeDivision uint16

// Returns the number of ticks per quarter note, or 0 if the time division
// specifies SMPTE frames instead.
func (d TimeDivision) TicksPerQuarterNote() uint16 {
	if (d & 0x8000) != 0 {
		return 0
	}
	return uint16(d)
}

func (d TimeDivision) String() string {
	qnTicks := d.TicksPerQuarterNote()
	if qnTicks == 0 {
		return fmt.Sprintf("SMPTE time division 0x%04x", uint16(d))
	}
	return fmt.Sprintf("%d ticks per quarter note", qnTicks)
}

// Specifies the format used by the SMF file header.
type SMFHeader struct {
	// This must be 'MThd'
	ChunkType [4]byte
	// This must be 6
	ChunkSize uint32
	// Always 1 in the files we write, even though there's only one track.
	// Players expect this.
	Format uint16
	// The number of tracks in the file.
	TrackCount uint16
	// Specifies what the delta-times mean in this file.
	Division TimeDivision
}

func (h *SMFHeader) String() string {
	return fmt.Sprintf("Format %d, with %d track(s), %s", h.Format,
		h.TrackCount, h.Division.String())
}

// Returns the header written at the start of every converted file.
func DefaultHeader() SMFHeader {
	return SMFHeader{
		ChunkType:  [4]byte{'M', 'T', 'h', 'd'},
		ChunkSize:  6,
		Format:     1,
		TrackCount: 1,
		Division:   TicksPerQuarterNote,
	}
}

// Writes the 14-byte MThd chunk for a single track of TicksPerQuarterNote
// resolution.
func WriteHeader(w io.Writer) error {
	header := DefaultHeader()
	e := binary.Write(w, binary.BigEndian, &header)
	if e != nil {
		return errors.Wrap(e, "Failed writing SMF header")
	}
	return nil
}

// Reads an MThd chunk, returning an error if the chunk type or size is wrong.
func ReadHeader(r io.Reader) (*SMFHeader, error) {
	var header SMFHeader
	e := binary.Read(r, binary.BigEndian, &header)
	if e != nil {
		return nil, errors.Wrap(e, "Failed parsing SMF header")
	}
	if string(header.ChunkType[:]) != "MThd" {
		return nil, errors.Errorf("Bad chunk type for header: %q",
			string(header.ChunkType[:]))
	}
	if header.ChunkSize != 6 {
		return nil, errors.Errorf("Bad header size: %d", header.ChunkSize)
	}
	return &header, nil
}

// The meta-event ending every track, including its delta time.
var endOfTrack = []byte{0x00, 0xff, 0x2f, 0x00}

// Writes an MTrk chunk containing the given events, which must already be
// sorted by offset. The chunk length isn't known until every event has been
// written, so a placeholder is written first and w is seeked back to fill it
// in. Leaves w positioned at the end of the chunk, and returns the chunk's
// length, not counting the 8 bytes of chunk type and length.
func WriteTrack(w io.WriteSeeker, events []Event) (uint32, error) {
	_, e := w.Write([]byte{'M', 'T', 'r', 'k'})
	if e != nil {
		return 0, errors.Wrap(e, "Failed writing chunk type")
	}
	lengthOffset, e := w.Seek(0, io.SeekCurrent)
	if e != nil {
		return 0, errors.Wrap(e, "Couldn't get chunk length offset")
	}
	_, e = w.Write([]byte{0, 0, 0, 0})
	if e != nil {
		return 0, errors.Wrap(e, "Failed writing chunk length placeholder")
	}
	length := uint32(0)
	previous := uint32(0)
	var messageBytes []byte
	var n int
	for i, ev := range events {
		if ev.Offset() < previous {
			return 0, errors.Errorf("Event %d (%s) is before the previous "+
				"event at tick %d", i, ev, previous)
		}
		n, e = WriteVariableInt(w, ev.Offset()-previous)
		if e != nil {
			return 0, errors.Wrapf(e, "Couldn't write time delta for event %d",
				i)
		}
		length += uint32(n)
		previous = ev.Offset()
		messageBytes, e = ev.SMFData()
		if e != nil {
			return 0, errors.Wrapf(e, "Couldn't get bytes for event %d", i)
		}
		n, e = w.Write(messageBytes)
		if e != nil {
			return 0, errors.Wrapf(e, "Couldn't write message for event %d", i)
		}
		length += uint32(n)
	}
	n, e = w.Write(endOfTrack)
	if e != nil {
		return 0, errors.Wrap(e, "Failed writing end of track")
	}
	length += uint32(n)
	_, e = w.Seek(lengthOffset, io.SeekStart)
	if e != nil {
		return 0, errors.Wrap(e, "Couldn't seek to chunk length")
	}
	_, e = w.Write(putUint32(nil, length))
	if e != nil {
		return 0, errors.Wrap(e, "Failed writing chunk length")
	}
	_, e = w.Seek(lengthOffset+4+int64(length), io.SeekStart)
	if e != nil {
		return 0, errors.Wrap(e, "Couldn't seek to end of track")
	}
	return length, nil
}

// Summarizes an MTrk chunk walked by ScanTrack.
type TrackSummary struct {
	// The chunk's length field.
	Length uint32
	// The number of events, including the end of track.
	Events int
	// The sum of every delta time in the track.
	Ticks uint64
}

// The number of data bytes after each channel message status, indexed by the
// status's upper nibble minus 8.
var channelDataSizes = [7]int{2, 2, 2, 2, 1, 1, 2}

// Walks the events of the MTrk chunk at the start of data, decoding only the
// delta times and the sizes of the messages. Returns an error if the chunk
// runs past the end of data, contains a running status, or doesn't finish
// with an end of track meta-event.
func ScanTrack(data []byte) (*TrackSummary, error) {
	if len(data) < 8 {
		return nil, errors.Errorf("Got %d bytes, too short for a track "+
			"chunk", len(data))
	}
	if string(data[:4]) != "MTrk" {
		return nil, errors.Errorf("Bad chunk type for track: %q",
			string(data[:4]))
	}
	summary := &TrackSummary{
		Length: binary.BigEndian.Uint32(data[4:8]),
	}
	if uint64(summary.Length) > uint64(len(data)-8) {
		return nil, errors.Errorf("Track length %d is more than the %d bytes "+
			"available", summary.Length, len(data)-8)
	}
	r := bytes.NewReader(data[8 : 8+summary.Length])
	ended := false
	for r.Len() > 0 {
		if ended {
			return nil, errors.Errorf("%d bytes after the end of track",
				r.Len())
		}
		delta, e := ReadVariableInt(r)
		if e != nil {
			return nil, errors.Wrapf(e, "Bad delta time for event %d",
				summary.Events)
		}
		summary.Ticks += uint64(delta)
		status, e := r.ReadByte()
		if e != nil {
			return nil, errors.Errorf("Missing status for event %d",
				summary.Events)
		}
		var size uint32
		switch {
		case (status >= 0x80) && (status < 0xf0):
			size = uint32(channelDataSizes[(status>>4)-8])
		case status == 0xff:
			metaType, e := r.ReadByte()
			if e != nil {
				return nil, errors.Errorf("Missing meta-event type for "+
					"event %d", summary.Events)
			}
			ended = metaType == 0x2f
			size, e = ReadVariableInt(r)
			if e != nil {
				return nil, errors.Wrapf(e, "Bad meta-event length for "+
					"event %d", summary.Events)
			}
		case (status == 0xf0) || (status == 0xf7):
			size, e = ReadVariableInt(r)
			if e != nil {
				return nil, errors.Wrapf(e, "Bad sysex length for event %d",
					summary.Events)
			}
		default:
			return nil, errors.Errorf("Bad status byte 0x%02x for event %d",
				status, summary.Events)
		}
		if uint64(size) > uint64(r.Len()) {
			return nil, errors.Errorf("Event %d needs %d data bytes, %d left",
				summary.Events, size, r.Len())
		}
		r.Seek(int64(size), io.SeekCurrent)
		summary.Events++
	}
	if !ended {
		return nil, errors.New("Track doesn't end with an end of track event")
	}
	return summary, nil
}
