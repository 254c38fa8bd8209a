// This defines a command-line utility for gathering information about the
// instruments used by a directory of note-language files.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	midi "github.com/yalue/txt2mid"
)

// Keeps track of our accumulated event count for each instrument.
type instrumentStats struct {
	// One value per MIDI program: the number of notes played while that
	// program was selected.
	eventCounts [128]uint64
	// One value per MIDI note: the number of times it was played, on any
	// program.
	noteCounts [128]uint64
	// The total length of all files, in ticks.
	totalTicks uint64
}

// Dumps the nonzero counts to stdout.
func (s *instrumentStats) printInfo() {
	for i := 0; i < 128; i++ {
		if s.eventCounts[i] == 0 {
			continue
		}
		fmt.Printf("Instrument %d: %d notes.\n", i, s.eventCounts[i])
	}
	for i := 0; i < 128; i++ {
		if s.noteCounts[i] == 0 {
			continue
		}
		fmt.Printf("Note %s: %d times.\n", midi.MIDINote(i), s.noteCounts[i])
	}
	fmt.Printf("Total length: %d ticks (%d quarter notes).\n", s.totalTicks,
		s.totalTicks/midi.TicksPerQuarterNote)
}

// Adds the instrument-events for the named file to the running totals.
// Returns an error if one occurs.
func (s *instrumentStats) addFile(name string, opts *midi.Options) error {
	f, e := os.Open(name)
	if e != nil {
		return errors.Wrapf(e, "Failed opening %s", name)
	}
	defer f.Close()
	q, stats, e := midi.ParseAll(f, opts)
	if e != nil {
		return errors.Wrapf(e, "Failed parsing %s", name)
	}
	s.totalTicks += uint64(stats.EndOffset)
	// Every file starts out on program 0.
	program := uint8(0)
	for _, ev := range q.Events() {
		switch v := ev.(type) {
		case *midi.NoteEvent:
			// Velocity 0 turns the note off; don't count it.
			if v.Velocity == 0 {
				continue
			}
			s.eventCounts[program&0x7f]++
			s.noteCounts[v.Note&0x7f]++
		case *midi.PatchEvent:
			program = v.Program
		}
	}
	return nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	baseDir := cmd.String("dir")
	if baseDir == "" {
		return errors.New("A base directory must be specified. " +
			"Run with -help for usage.")
	}
	pattern := filepath.Join(baseDir, "*"+cmd.String("ext"))
	filenames, e := filepath.Glob(pattern)
	if e != nil {
		return errors.Wrapf(e, "Failed looking up files in dir %s", baseDir)
	}
	if len(filenames) <= 0 {
		return errors.Errorf("Didn't find any files matching %s", pattern)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	opts := midi.DefaultOptions()
	opts.Logger = logger
	stats := &instrumentStats{}
	for i, name := range filenames {
		logger.Infof("Scanning file %d/%d: %s", i+1, len(filenames), name)
		e = stats.addFile(name, opts)
		if e != nil {
			logger.Warnf("Failed analyzing file %s: %s", name, e)
		}
	}
	stats.printInfo()
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "instrument_stats",
		Usage: "Count the notes played by each instrument in note files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "The directory to scan for note files",
			},
			&cli.StringFlag{
				Name:  "ext",
				Value: ".txt",
				Usage: "The extension of the note files",
			},
		},
		Action: run,
	}
	e := cmd.Run(context.Background(), os.Args)
	if e != nil {
		fmt.Println(e)
		os.Exit(1)
	}
}
