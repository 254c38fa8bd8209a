package midi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orcaman/writerseeker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Converts input into an in-memory file.
func convertString(t *testing.T, input string, opts *Options) ([]byte,
	*ConvertStats) {
	data, stats, e := ConvertToBytes(strings.NewReader(input), opts)
	require.NoError(t, e)
	return data, stats
}

func TestConvertExample(t *testing.T) {
	data, stats := convertString(t, "60 62,64:8 - tempo:120", nil)
	expected := append(append([]byte{}, expectedHeader...),
		0x4d, 0x54, 0x72, 0x6b,
		0, 0, 0, 0x24,
		// Note 60 on at 0, off at 228
		0, 0x90, 0x3c, 0x7f,
		0x81, 0x64, 0x90, 0x3c, 0,
		// Notes 62 and 64 on at 240
		0x0c, 0x90, 0x3e, 0x7f,
		0, 0x90, 0x40, 0x7f,
		// And off at 354
		0x72, 0x90, 0x3e, 0,
		0, 0x90, 0x40, 0,
		// Tempo at 480, after the rest
		0x7e, 0xff, 0x51, 3, 0x07, 0xa1, 0x20,
		0, 0xff, 0x2f, 0,
	)
	assert.Equal(t, expected, data)
	assert.Equal(t, &ConvertStats{
		Words:       4,
		Events:      7,
		TrackLength: 0x24,
		EndOffset:   480,
	}, stats)
	report, e := Verify(data)
	require.NoError(t, e)
	assert.Equal(t, uint16(1), report.Format)
	assert.Equal(t, 3, report.NoteStarts)
	assert.Equal(t, 3, report.NoteEnds)
	require.Len(t, report.Tempos, 1)
	assert.InDelta(t, 120.0, report.Tempos[0], 0.001)
	assert.Equal(t, uint64(480), report.LengthTicks)
	assert.Equal(t, uint32(0x24), report.TrackLength)
}

func TestConvertEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t"} {
		data, stats := convertString(t, input, nil)
		assert.Equal(t, expectedHeader, data[:14])
		assert.Equal(t, []byte{
			0x4d, 0x54, 0x72, 0x6b,
			0, 0, 0, 4,
			0, 0xff, 0x2f, 0,
		}, data[14:])
		assert.Equal(t, 0, stats.Events)
		report, e := Verify(data)
		require.NoError(t, e)
		assert.Equal(t, 0, report.NoteStarts)
	}
}

// Returns the chunk length field of a converted file, and checks it against
// the number of bytes actually following it.
func checkTrackLength(t *testing.T, data []byte) uint32 {
	require.True(t, len(data) >= 22)
	assert.Equal(t, "MTrk", string(data[14:18]))
	length := uint32(data[18])<<24 | uint32(data[19])<<16 |
		uint32(data[20])<<8 | uint32(data[21])
	assert.Equal(t, len(data)-22, int(length))
	assert.Equal(t, endOfTrack, data[len(data)-4:])
	return length
}

func TestConvertTrackLength(t *testing.T) {
	inputs := []string{
		"",
		"patch:3",
		"60",
		"tempo:100 patch:1 60,64,67:8%80 - 62:16 62 62 -:1 71",
	}
	var many strings.Builder
	for i := 0; i < 3000; i++ {
		many.WriteString("40,45,50:16 - ")
	}
	inputs = append(inputs, many.String())
	for _, input := range inputs {
		data, stats := convertString(t, input, nil)
		assert.Equal(t, stats.TrackLength, checkTrackLength(t, data))
		report, e := Verify(data)
		require.NoError(t, e)
		assert.Equal(t, report.NoteStarts+report.NoteEnds+
			len(report.Tempos)+len(report.Programs), stats.Events)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	input := "patch:19 tempo:90 48,52,55:2 -:4 60:8%50 62 64/2 tempo:140 " +
		"patch:0 67:4/3 67 67 -:1"
	data, stats := convertString(t, input, nil)
	report, e := Verify(data)
	require.NoError(t, e)
	assert.Equal(t, []uint8{19, 0}, report.Programs)
	require.Len(t, report.Tempos, 2)
	assert.InDelta(t, 90.0, report.Tempos[0], 0.01)
	assert.InDelta(t, 140.0, report.Tempos[1], 0.01)
	// Three in the chord, plus 60, 62, 64 and three 67s.
	assert.Equal(t, 9, report.NoteStarts)
	// The last event is the final note off, before the closing rest.
	assert.True(t, report.LengthTicks < uint64(stats.EndOffset))
}

func TestConvertToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mid")
	f, e := os.Create(path)
	require.NoError(t, e)
	_, e = Convert(strings.NewReader("60 62 64"), f, nil)
	require.NoError(t, e)
	require.NoError(t, f.Close())
	data, e := os.ReadFile(path)
	require.NoError(t, e)
	expected, _ := convertString(t, "60 62 64", nil)
	assert.Equal(t, expected, data)
}

func TestConvertSplitsLongWords(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxWordLength = 3
	data, stats := convertString(t, "60,61,62", opts)
	assert.Equal(t, 2, stats.TruncatedWords)
	assert.Equal(t, 3, stats.Words)
	assert.Equal(t, uint32(720), stats.EndOffset)
	checkTrackLength(t, data)

	opts.Strict = true
	_, _, e := ConvertToBytes(strings.NewReader("60,61,62"), opts)
	var parseError *ParseError
	require.True(t, errors.As(e, &parseError))
	assert.Equal(t, 0, parseError.Index)
	assert.Equal(t, "60,", parseError.Word)
}

func TestConvertFullLengthWord(t *testing.T) {
	// Leading zeros pad the note number out to exactly MaxWordLength bytes.
	word := strings.Repeat("0", MaxWordLength-2) + "60"
	require.Len(t, word, MaxWordLength)
	opts := DefaultOptions()
	opts.Strict = true
	data, stats := convertString(t, word, opts)
	assert.Equal(t, 1, stats.Words)
	assert.Equal(t, 0, stats.TruncatedWords)
	assert.Equal(t, 2, stats.Events)
	assert.Equal(t, uint32(240), stats.EndOffset)
	plain, _ := convertString(t, "60", nil)
	assert.Equal(t, plain, data)

	// One more byte is split off into a word of its own.
	data, stats = convertString(t, word+"0", nil)
	assert.Equal(t, 2, stats.Words)
	assert.Equal(t, 1, stats.TruncatedWords)
	assert.Equal(t, uint32(480), stats.EndOffset)
	checkTrackLength(t, data)
}

func TestConvertStrict(t *testing.T) {
	opts := DefaultOptions()
	opts.Strict = true
	output := &writerseeker.WriterSeeker{}
	_, e := Convert(strings.NewReader("60 62 6x 64"), output, opts)
	var parseError *ParseError
	require.True(t, errors.As(e, &parseError))
	assert.Equal(t, 2, parseError.Index)
	assert.Equal(t, "6x", parseError.Word)
	// Nothing is written for input that fails to parse.
	assert.Equal(t, 0, output.BytesReader().Len())
}

func TestConvertSimpleProfile(t *testing.T) {
	opts := DefaultOptions()
	opts.Profile = ProfileSimple
	simple, _ := convertString(t, "tempo:120 patch:3 60 62", opts)
	plain, _ := convertString(t, "60 62", nil)
	assert.Equal(t, plain, simple)
}

func TestConvertLogsWarnings(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts := DefaultOptions()
	opts.Logger = logger
	convertString(t, "60:0 tempo:0 6x", opts)
	var warnings, debug int
	for _, entry := range hook.AllEntries() {
		switch entry.Level {
		case logrus.WarnLevel:
			warnings++
		case logrus.DebugLevel:
			debug++
		}
	}
	assert.Equal(t, 2, warnings)
	// The zero duration, zero tempo and malformed note, plus the summary.
	assert.Equal(t, 4, debug)
	assert.Equal(t, "Converted input", hook.LastEntry().Message)
}
