// This defines a command-line utility for viewing standard MIDI files (SMF,
// usually with a ".mid" extension), such as the ones written by txt2mid.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	midi "github.com/yalue/txt2mid"
	"gitlab.com/gomidi/midi/v2/smf"
)

func run(ctx context.Context, cmd *cli.Command) error {
	filename := cmd.String("input_file")
	if filename == "" {
		filename = cmd.Args().First()
	}
	if filename == "" {
		return errors.New("Invalid arguments. Run with -help for more " +
			"information.")
	}
	data, e := os.ReadFile(filename)
	if e != nil {
		return errors.Wrapf(e, "Couldn't open %s", filename)
	}
	header, e := midi.ReadHeader(bytes.NewReader(data))
	if e != nil {
		return errors.Wrapf(e, "Couldn't parse %s", filename)
	}
	file, e := smf.ReadFrom(bytes.NewReader(data))
	if e != nil {
		return errors.Wrapf(e, "Couldn't parse %s", filename)
	}
	fmt.Printf("Parsed %s OK. %s.\n", filename, header)
	if cmd.Bool("check") {
		report, e := midi.Verify(data)
		if e != nil {
			return errors.Wrapf(e, "%s isn't a txt2mid file", filename)
		}
		fmt.Printf("Looks like a txt2mid file: %d notes, %d tempo changes, "+
			"%d program changes, %d ticks long, %d-byte track.\n",
			report.NoteStarts, len(report.Tempos), len(report.Programs),
			report.LengthTicks, report.TrackLength)
	}
	if !cmd.Bool("dump_events") {
		return nil
	}
	for i, t := range file.Tracks {
		fmt.Printf("Track %d (%d events):\n", i, len(t))
		tick := uint64(0)
		for j, ev := range t {
			tick += uint64(ev.Delta)
			fmt.Printf("  %d. Time %d (+%d): %s\n", j, tick, ev.Delta,
				ev.Message)
		}
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "smf_tool",
		Usage:     "Print information about a .mid file",
		ArgsUsage: "[.mid file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input_file",
				Usage: "The .mid file to open.",
			},
			&cli.BoolFlag{
				Name: "dump_events",
				Usage: "If set, print a list of all events in the file to " +
					"stdout.",
			},
			&cli.BoolFlag{
				Name: "check",
				Usage: "If set, check that the file has the layout txt2mid " +
					"writes.",
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
