package midi

// This file contains the events produced by the parser and written by the
// track serializer.

import (
	"fmt"

	"github.com/pkg/errors"
)

// The number of ticks in a quarter note. Written to the MThd division field.
const TicksPerQuarterNote = 240

// Returned when a tempo event can't be converted to microseconds per quarter
// note.
var ErrInvalidTempo = errors.New("Tempo must be at least 1 BPM")

// Something that happens at an absolute offset within the track. The concrete
// types are *NoteEvent, *TempoEvent and *PatchEvent.
type Event interface {
	// The absolute time of the event, in ticks.
	Offset() uint32
	// A string representation of the event.
	String() string
	// Returns the bytes for this event's message, as they appear in the track
	// chunk after the delta time.
	SMFData() ([]byte, error)
}

// Holds a MIDI note value. The values corresponding to keys on a standard
// keyboard are 21 (A0) through 108 (C8).
type MIDINote uint8

func (n MIDINote) String() string {
	if (n < 21) || (n > 108) {
		return fmt.Sprintf("MIDI note %d", uint8(n))
	}
	notes := [...]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F",
		"F#", "G", "G#"}
	index := (int(n) - 21) % 12
	octave := (int(n) - 12) / 12
	return fmt.Sprintf("%s%d", notes[index], octave)
}

// A note-on message on channel 0. A velocity of 0 turns the note off; every
// played note is one event with velocity 127 and one with velocity 0.
type NoteEvent struct {
	Time     uint32
	Note     MIDINote
	Velocity uint8
}

// The velocity used when a note starts.
const NoteOnVelocity = 127

func (v *NoteEvent) Offset() uint32 {
	return v.Time
}

func (v *NoteEvent) String() string {
	if v.Velocity == 0 {
		return fmt.Sprintf("Tick %d: %s off", v.Time, v.Note)
	}
	return fmt.Sprintf("Tick %d: %s on, velocity = %d", v.Time, v.Note,
		v.Velocity)
}

// Always includes the status byte, since the converter never uses running
// status.
func (v *NoteEvent) SMFData() ([]byte, error) {
	return []byte{0x90, byte(v.Note), v.Velocity}, nil
}

// Changes the tempo, in beats (quarter notes) per minute.
type TempoEvent struct {
	Time uint32
	BPM  uint32
}

func (t *TempoEvent) Offset() uint32 {
	return t.Time
}

// Returns the number of microseconds per quarter note for the event's BPM.
func (t *TempoEvent) MicrosecondsPerQuarterNote() (uint32, error) {
	if t.BPM == 0 {
		return 0, ErrInvalidTempo
	}
	return 60000000 / t.BPM, nil
}

func (t *TempoEvent) String() string {
	return fmt.Sprintf("Tick %d: Set tempo to %d BPM", t.Time, t.BPM)
}

// Formats a "set tempo" meta-event. Tempos under 4 BPM don't fit in 24 bits;
// only the low 24 bits are written for them.
func (t *TempoEvent) SMFData() ([]byte, error) {
	us, e := t.MicrosecondsPerQuarterNote()
	if e != nil {
		return nil, errors.Wrapf(e, "Bad tempo at tick %d", t.Time)
	}
	return putUint24([]byte{0xff, 0x51, 0x03}, us), nil
}

// A program change on channel 0.
type PatchEvent struct {
	Time    uint32
	Program uint8
}

func (p *PatchEvent) Offset() uint32 {
	return p.Time
}

func (p *PatchEvent) String() string {
	return fmt.Sprintf("Tick %d: Change program to %d", p.Time, p.Program)
}

func (p *PatchEvent) SMFData() ([]byte, error) {
	return []byte{0xc0, p.Program}, nil
}
