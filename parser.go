package midi

// This file contains the parser for the note language. Each word is either a
// tempo directive ("tempo:120"), a patch directive ("patch:5"), a rest ("-"),
// or a comma-separated list of notes ("60,64,67"). Rests and notes may carry a
// duration (":8") and a gate percentage ("%50"); both persist for the words
// that follow.

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Returned when a duration spec would divide by zero.
var ErrZeroDuration = errors.New("Duration spec has a zero divisor")

// Holds details about a word rejected in strict mode.
type ParseError struct {
	// The index of the word in the input, starting at 0.
	Index int
	// The word that couldn't be parsed.
	Word string
	// The underlying problem.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Bad word %d (%q): %s", e.Index, e.Word, e.Err)
}

func (e *ParseError) Cause() error {
	return e.Err
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parses a decimal integer the way C's atoi does: leading whitespace and a
// sign are allowed, and parsing stops at the first non-digit. The second
// return value is false if s wasn't entirely a number. The result wraps around
// like a 32-bit unsigned integer.
func parseNumber(s string) (uint32, bool) {
	i := 0
	for (i < len(s)) && isSpace(s[i]) {
		i++
	}
	negative := false
	if (i < len(s)) && ((s[i] == '+') || (s[i] == '-')) {
		negative = s[i] == '-'
		i++
	}
	start := i
	n := uint32(0)
	for (i < len(s)) && (s[i] >= '0') && (s[i] <= '9') {
		n = n*10 + uint32(s[i]-'0')
		i++
	}
	if negative {
		n = -n
	}
	return n, (i > start) && (i == len(s))
}

// Converts a duration spec such as "8", "4/3" or "8*3" into ticks. The spec
// is D[/N][*M] and gives 4*TicksPerQuarterNote / (N*D/M), rounding down at
// each division. The '/' is located first, so anything after it, including a
// '*', belongs to N. The bool is false if any of the numbers were malformed.
func ParseDuration(spec string) (uint32, bool, error) {
	mul := uint32(1)
	div := uint32(1)
	ok := true
	var fieldOK bool
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		div, fieldOK = parseNumber(spec[i+1:])
		ok = ok && fieldOK
		spec = spec[:i]
	}
	if i := strings.IndexByte(spec, '*'); i >= 0 {
		mul, fieldOK = parseNumber(spec[i+1:])
		ok = ok && fieldOK
		spec = spec[:i]
	}
	val, fieldOK := parseNumber(spec)
	ok = ok && fieldOK
	if mul == 0 {
		return 0, ok, ErrZeroDuration
	}
	denominator := div * val / mul
	if denominator == 0 {
		return 0, ok, ErrZeroDuration
	}
	return 4 * TicksPerQuarterNote / denominator, ok, nil
}

// The state carried from one word to the next.
type ParserState struct {
	// The current position, in ticks.
	Offset uint32
	// The length of each step, in ticks.
	Duration uint32
	// How much of each step a note sounds for, as a percentage.
	Percent uint32
}

// Returns the state at the start of the input: a quarter note duration with a
// 95% gate, at offset 0.
func InitialParserState() ParserState {
	return ParserState{
		Offset:   0,
		Duration: TicksPerQuarterNote,
		Percent:  95,
	}
}

// Turns words into events.
type Parser struct {
	State   ParserState
	options Options
	log     logrus.FieldLogger
	words   int
}

// Returns a new parser in its initial state. A nil opts uses DefaultOptions.
func NewParser(opts *Options) *Parser {
	o := opts.withDefaults()
	return &Parser{
		State:   InitialParserState(),
		options: o,
		log:     o.Logger,
	}
}

// Returns the number of words passed to ParseWord so far.
func (p *Parser) WordCount() int {
	return p.words
}

// Returns a *ParseError for the current word in strict mode, or logs the
// problem and returns nil otherwise.
func (p *Parser) problem(word string, e error) error {
	if p.options.Strict {
		return &ParseError{
			Index: p.words - 1,
			Word:  word,
			Err:   e,
		}
	}
	p.log.WithFields(logrus.Fields{
		"word":   word,
		"offset": p.State.Offset,
	}).Debug(e.Error())
	return nil
}

// Parses a number, reporting it as a problem if it's malformed.
func (p *Parser) number(word, s, what string) (uint32, error) {
	n, ok := parseNumber(s)
	if ok {
		return n, nil
	}
	return n, p.problem(word, errors.Errorf("Malformed %s %q", what, s))
}

// Parses a number that's written as a single byte, such as a note or program.
func (p *Parser) byteNumber(word, s, what string) (uint8, error) {
	n, e := p.number(word, s, what)
	if e != nil {
		return 0, e
	}
	if n > 0x7f {
		e = p.problem(word, errors.Errorf("Invalid %s %d", what, int32(n)))
	}
	return uint8(n), e
}

// Parses a single word, appending any events it produces to q. Only returns
// an error in strict mode.
func (p *Parser) ParseWord(word string, q *EventQueue) error {
	p.words++
	if strings.HasPrefix(word, "tempo:") {
		return p.parseTempo(word, q)
	}
	if strings.HasPrefix(word, "patch:") {
		return p.parsePatch(word, q)
	}
	return p.parseStep(word, q)
}

func (p *Parser) parseTempo(word string, q *EventQueue) error {
	if p.options.Profile == ProfileSimple {
		p.log.WithField("word", word).Debug("Ignoring tempo directive")
		return nil
	}
	bpm, e := p.number(word, word[len("tempo:"):], "tempo")
	if e != nil {
		return e
	}
	if bpm == 0 {
		e = p.problem(word, ErrInvalidTempo)
		if e == nil {
			p.log.WithField("word", word).Warn("Dropping tempo of 0 BPM")
		}
		return e
	}
	q.Append(&TempoEvent{
		Time: p.State.Offset,
		BPM:  bpm,
	})
	return nil
}

func (p *Parser) parsePatch(word string, q *EventQueue) error {
	if p.options.Profile == ProfileSimple {
		p.log.WithField("word", word).Debug("Ignoring patch directive")
		return nil
	}
	program, e := p.byteNumber(word, word[len("patch:"):], "program")
	if e != nil {
		return e
	}
	q.Append(&PatchEvent{
		Time:    p.State.Offset,
		Program: program,
	})
	return nil
}

// Parses a rest or a group of notes, and advances the offset by the duration.
func (p *Parser) parseStep(word string, q *EventQueue) error {
	rest := word
	if i := strings.IndexByte(rest, '%'); i >= 0 {
		percent, e := p.number(word, rest[i+1:], "percentage")
		if e != nil {
			return e
		}
		p.State.Percent = percent
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		e := p.setDuration(word, rest[i+1:])
		if e != nil {
			return e
		}
		rest = rest[:i]
	}
	start := p.State.Offset
	end := start + p.State.Duration*p.State.Percent/100
	if rest != "-" {
		notes := strings.FieldsFunc(rest, func(r rune) bool {
			return r == ','
		})
		for _, s := range notes {
			n, e := p.byteNumber(word, s, "note")
			if e != nil {
				return e
			}
			q.Append(&NoteEvent{
				Time:     start,
				Note:     MIDINote(n),
				Velocity: NoteOnVelocity,
			})
			q.Append(&NoteEvent{
				Time:     end,
				Note:     MIDINote(n),
				Velocity: 0,
			})
		}
	}
	p.State.Offset += p.State.Duration
	return nil
}

// Updates the duration from a spec. A spec that divides by zero leaves the
// duration unchanged.
func (p *Parser) setDuration(word, spec string) error {
	duration, ok, e := ParseDuration(spec)
	if !ok {
		e2 := p.problem(word, errors.Errorf("Malformed duration %q", spec))
		if e2 != nil {
			return e2
		}
	}
	if e != nil {
		e = p.problem(word, e)
		if e == nil {
			p.log.WithFields(logrus.Fields{
				"word":     word,
				"duration": p.State.Duration,
			}).Warn("Keeping previous duration")
		}
		return e
	}
	p.State.Duration = duration
	return nil
}
