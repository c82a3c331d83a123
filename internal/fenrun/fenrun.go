// Package fenrun splits a one-line board string into alternating piece and
// dot runs and compresses dot runs the way FEN compresses empty squares.
package fenrun

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EmptySquare is the character used for an empty square in board dumps.
const EmptySquare = '.'

var ErrInvalidSegment = errors.New("invalid fen board segment")

// Kind classifies a run.
type Kind int

const (
	PieceRun Kind = iota
	DotRun
)

func (k Kind) String() string {
	switch k {
	case PieceRun:
		return "piece"
	case DotRun:
		return "dot"
	default:
		return "unknown"
	}
}

// MarshalText lets runs serialise with readable kinds.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "piece":
		*k = PieceRun
	case "dot":
		*k = DotRun
	default:
		return fmt.Errorf("unknown run kind %q", b)
	}
	return nil
}

// Run is a maximal substring of a single class.
type Run struct {
	Offset int    `json:"offset" yaml:"offset"`
	Text   string `json:"text" yaml:"text"`
	Kind   Kind   `json:"kind" yaml:"kind"`
}

func (r Run) IsDot() bool { return r.Kind == DotRun }

// Tokenize partitions s into maximal runs. Concatenating the Text of the
// result yields s; empty input yields nil.
func Tokenize(s string) []Run {
	if s == "" {
		return nil
	}
	var runs []Run
	start := 0
	cur := kindOf(s[0])
	for i := 1; i < len(s); i++ {
		k := kindOf(s[i])
		if k == cur {
			continue
		}
		runs = append(runs, Run{Offset: start, Text: s[start:i], Kind: cur})
		start = i
		cur = k
	}
	// the last run has no following character to close it
	runs = append(runs, Run{Offset: start, Text: s[start:], Kind: cur})
	return runs
}

func kindOf(c byte) Kind {
	if c == EmptySquare {
		return DotRun
	}
	return PieceRun
}

// Compress replaces each dot run with its length in decimal.
func Compress(runs []Run) []string {
	out := make([]string, 0, len(runs))
	for _, r := range runs {
		if r.Kind == DotRun {
			out = append(out, strconv.Itoa(len(r.Text)))
			continue
		}
		out = append(out, r.Text)
	}
	return out
}

// CompressString turns an expanded one-line board into a FEN board segment.
func CompressString(s string) string {
	return strings.Join(Compress(Tokenize(s)), "")
}

// Join concatenates the run texts.
func Join(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Expand is the inverse of CompressString for FEN board segments: digits
// 1 to 8 become that many dots.
func Expand(segment string) (string, error) {
	var b strings.Builder
	b.Grow(len(segment) + 48)
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		switch {
		case c >= '1' && c <= '8':
			b.WriteString(strings.Repeat(string(EmptySquare), int(c-'0')))
		case c == '0' || c == '9':
			return "", fmt.Errorf("%w: digit %q at %d", ErrInvalidSegment, c, i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
