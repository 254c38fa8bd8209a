package midi

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Selects which kinds of events the parser produces.
type Profile int

const (
	// Notes, rests, tempo changes and program changes.
	ProfileFull Profile = iota
	// Only notes and rests. Tempo and patch directives are skipped.
	ProfileSimple
)

func (p Profile) String() string {
	switch p {
	case ProfileFull:
		return "full"
	case ProfileSimple:
		return "simple"
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// Returns the profile with the given name, as returned by Profile.String.
func ParseProfile(name string) (Profile, error) {
	switch strings.ToLower(name) {
	case "full", "":
		return ProfileFull, nil
	case "simple":
		return ProfileSimple, nil
	}
	return ProfileFull, fmt.Errorf("Unknown profile %q", name)
}

// Controls how input is converted. The zero value isn't usable directly; pass
// it through NewParser or Convert, which fill in the defaults.
type Options struct {
	Profile Profile
	// If set, malformed numbers, out-of-range notes and programs, zero
	// durations and tempos, and over-long words are errors rather than being
	// silently replaced.
	Strict bool
	// Words longer than this many bytes are split. Defaults to
	// MaxWordLength.
	MaxWordLength int
	// Defaults to a logger that discards everything.
	Logger logrus.FieldLogger
}

// Returns the options matching the behavior of the original converter.
func DefaultOptions() *Options {
	return &Options{
		Profile:       ProfileFull,
		MaxWordLength: MaxWordLength,
		Logger:        discardLogger(),
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Returns a copy of o with unset fields filled in. Accepts a nil o.
func (o *Options) withDefaults() Options {
	if o == nil {
		return *DefaultOptions()
	}
	toReturn := *o
	if toReturn.MaxWordLength < 1 {
		toReturn.MaxWordLength = MaxWordLength
	}
	if toReturn.Logger == nil {
		toReturn.Logger = discardLogger()
	}
	return toReturn
}
