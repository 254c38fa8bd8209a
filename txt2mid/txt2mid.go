// This defines a command-line utility for converting the note language into
// standard MIDI files (SMF, usually with a ".mid" extension).
package main

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	midi "github.com/yalue/txt2mid"
)

// Opens the named input file, or stdin if the name is empty or "-".
func openInput(name string) (io.ReadCloser, error) {
	if (name == "") || (name == "-") {
		return io.NopCloser(os.Stdin), nil
	}
	f, e := os.Open(name)
	if e != nil {
		return nil, errors.Wrapf(e, "Couldn't open %s", name)
	}
	return f, nil
}

// Converts the input, writing the result to the named file, or stdout if the
// name is empty or "-". Returns the bytes that were written.
func convert(input io.Reader, outputName string, opts *midi.Options) ([]byte,
	error) {
	// The output is always built in memory: stdout may be a pipe, which can't
	// seek back to fill in the track length.
	data, stats, e := midi.ConvertToBytes(input, opts)
	if e != nil {
		return nil, e
	}
	opts.Logger.WithFields(logrus.Fields{
		"words":     stats.Words,
		"events":    stats.Events,
		"truncated": stats.TruncatedWords,
		"ticks":     stats.EndOffset,
	}).Info("Converted input")
	if (outputName == "") || (outputName == "-") {
		_, e = os.Stdout.Write(data)
		if e != nil {
			return nil, errors.Wrap(e, "Failed writing to stdout")
		}
		return data, nil
	}
	e = os.WriteFile(outputName, data, 0644)
	if e != nil {
		return nil, errors.Wrapf(e, "Failed writing %s", outputName)
	}
	return data, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if cmd.Bool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	profile, e := midi.ParseProfile(cmd.String("profile"))
	if e != nil {
		return e
	}
	opts := midi.DefaultOptions()
	opts.Profile = profile
	opts.Strict = cmd.Bool("strict")
	opts.Logger = logger
	if cmd.Args().Len() > 1 {
		return errors.New("Expected at most one input file")
	}
	input, e := openInput(cmd.Args().First())
	if e != nil {
		return e
	}
	defer input.Close()
	data, e := convert(input, cmd.String("output"), opts)
	if e != nil {
		return e
	}
	if !cmd.Bool("verify") {
		return nil
	}
	report, e := midi.Verify(data)
	if e != nil {
		return errors.Wrap(e, "Output failed verification")
	}
	logger.WithFields(logrus.Fields{
		"format":  report.Format,
		"events":  report.Events,
		"notes":   report.NoteStarts,
		"tempos":  len(report.Tempos),
		"patches": len(report.Programs),
		"ticks":   report.LengthTicks,
	}).Info("Output verified")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "txt2mid",
		Usage:     "Convert a note list into a standard MIDI file",
		ArgsUsage: "[input file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "the .mid file to write, or - for stdout",
			},
			&cli.StringFlag{
				Name:  "profile",
				Value: midi.ProfileFull.String(),
				Usage: "full, or simple to ignore tempo and patch directives",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail on malformed words instead of using defaults",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "decode the output again and check it",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log every substituted value",
			},
		},
		Action: run,
	}
	e := cmd.Run(context.Background(), os.Args)
	if e != nil {
		logrus.Errorf("%s", e)
		os.Exit(1)
	}
}
