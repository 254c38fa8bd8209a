package midi

import (
	"bytes"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Summarizes a file decoded by an independent SMF reader.
type VerifyReport struct {
	Format     uint16
	Tracks     int
	Resolution uint16
	// The number of events the decoder found in the track.
	Events      int
	NoteStarts  int
	NoteEnds    int
	Tempos      []float64
	Programs    []uint8
	LengthTicks uint64
	// The track chunk's length field.
	TrackLength uint32
}

// Decodes data with gitlab.com/gomidi/midi/v2/smf and checks that it has the
// shape of a converted file: a single track at TicksPerQuarterNote
// resolution, ending with an end of track meta-event, with every started note
// ended. The track is also walked by ScanTrack, which must agree with the
// decoder on the track's length in ticks.
func Verify(data []byte) (*VerifyReport, error) {
	file, e := smf.ReadFrom(bytes.NewReader(data))
	if e != nil {
		return nil, errors.Wrap(e, "Failed decoding SMF data")
	}
	report := &VerifyReport{
		Format: file.Format(),
		Tracks: len(file.Tracks),
	}
	ticks, ok := file.TimeFormat.(smf.MetricTicks)
	if !ok {
		return report, errors.Errorf("Unexpected time format %s",
			file.TimeFormat)
	}
	report.Resolution = ticks.Resolution()
	if report.Resolution != TicksPerQuarterNote {
		return report, errors.Errorf("Got %d ticks per quarter note, "+
			"expected %d", report.Resolution, TicksPerQuarterNote)
	}
	if report.Tracks != 1 {
		return report, errors.Errorf("Got %d tracks, expected 1",
			report.Tracks)
	}
	if !bytes.HasSuffix(data, endOfTrack) {
		return report, errors.New("Track doesn't end with an end of track " +
			"event")
	}
	summary, e := ScanTrack(data[14:])
	if e != nil {
		return report, errors.Wrap(e, "Failed scanning track")
	}
	report.TrackLength = summary.Length
	if 14+8+int(summary.Length) != len(data) {
		return report, errors.Errorf("%d bytes after the track chunk",
			len(data)-14-8-int(summary.Length))
	}
	track := file.Tracks[0]
	report.Events = len(track)
	var channel, key, velocity, program uint8
	var bpm float64
	for _, ev := range track {
		report.LengthTicks += uint64(ev.Delta)
		msg := gomidi.Message(ev.Message)
		switch {
		case msg.GetNoteStart(&channel, &key, &velocity):
			report.NoteStarts++
		case msg.GetNoteEnd(&channel, &key):
			report.NoteEnds++
		case msg.GetProgramChange(&channel, &program):
			report.Programs = append(report.Programs, program)
		case ev.Message.GetMetaTempo(&bpm):
			report.Tempos = append(report.Tempos, bpm)
		}
	}
	if report.LengthTicks != summary.Ticks {
		return report, errors.Errorf("Decoded track lasts %d ticks, but its "+
			"delta times add up to %d", report.LengthTicks, summary.Ticks)
	}
	if report.NoteStarts != report.NoteEnds {
		return report, errors.Errorf("Got %d note starts but %d note ends",
			report.NoteStarts, report.NoteEnds)
	}
	return report, nil
}
