package midi

import (
	"io"

	"github.com/orcaman/writerseeker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Summarizes a finished conversion.
type ConvertStats struct {
	// The number of words read from the input.
	Words int
	// The number of words that were split for being too long.
	TruncatedWords int
	// The number of events written to the track.
	Events int
	// The track chunk's length field.
	TrackLength uint32
	// The offset after the last word, in ticks.
	EndOffset uint32
}

// Reads every word from r into a sorted event queue.
func ParseAll(r io.Reader, opts *Options) (*EventQueue, *ConvertStats, error) {
	o := opts.withDefaults()
	words := NewWordReader(r, o.MaxWordLength)
	parser := NewParser(&o)
	q := NewEventQueue(0)
	stats := &ConvertStats{}
	for {
		word, e := words.NextWord()
		if e == io.EOF {
			break
		}
		if e != nil {
			return nil, nil, e
		}
		if words.Truncated() {
			stats.TruncatedWords++
			if o.Strict {
				return nil, nil, &ParseError{
					Index: parser.WordCount(),
					Word:  word,
					Err: errors.Errorf("Word is longer than %d bytes",
						o.MaxWordLength),
				}
			}
			o.Logger.WithField("word", word).Debug("Splitting long word")
		}
		e = parser.ParseWord(word, q)
		if e != nil {
			return nil, nil, e
		}
	}
	q.Sort()
	stats.Words = parser.WordCount()
	stats.Events = q.Len()
	stats.EndOffset = parser.State.Offset
	return q, stats, nil
}

// Converts the note language read from r into a complete MIDI file written to
// w. The output needs to be seekable so that the track length can be filled
// in. Use ConvertToBytes for outputs that can't seek.
func Convert(r io.Reader, w io.WriteSeeker, opts *Options) (*ConvertStats,
	error) {
	o := opts.withDefaults()
	q, stats, e := ParseAll(r, &o)
	if e != nil {
		return nil, errors.Wrap(e, "Failed parsing input")
	}
	e = WriteHeader(w)
	if e != nil {
		return nil, e
	}
	stats.TrackLength, e = WriteTrack(w, q.Events())
	if e != nil {
		return nil, errors.Wrap(e, "Failed writing track")
	}
	o.Logger.WithFields(logrus.Fields{
		"words":  stats.Words,
		"events": stats.Events,
		"length": stats.TrackLength,
	}).Debug("Converted input")
	return stats, nil
}

// Converts the note language read from r into a complete MIDI file, built in
// memory. Used for pipes and other outputs that can't seek back to fill in the
// track length.
func ConvertToBytes(r io.Reader, opts *Options) ([]byte, *ConvertStats,
	error) {
	output := &writerseeker.WriterSeeker{}
	stats, e := Convert(r, output, opts)
	if e != nil {
		return nil, nil, e
	}
	data, e := io.ReadAll(output.BytesReader())
	if e != nil {
		return nil, nil, errors.Wrap(e, "Failed reading converted file")
	}
	return data, stats, nil
}
