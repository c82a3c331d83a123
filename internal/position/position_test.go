package position

import (
	"errors"
	"strings"
	"testing"
)

const defaultASCII = "r n b . k . . r\n" +
	". p q . b p p p\n" +
	"p . . p p n . .\n" +
	". . . . . . B .\n" +
	". . . N P P . .\n" +
	". . N . . Q . .\n" +
	"P P P . . . P P\n" +
	". . K R . B . R"

func TestASCIIMatchesBoardDump(t *testing.T) {
	p := MustParse(DefaultFEN)
	if got := p.ASCII(); got != defaultASCII {
		t.Fatalf("ASCII mismatch:\n%s\nwant:\n%s", got, defaultASCII)
	}
	if n := len(strings.Split(p.ASCII(), "\n")); n != 8 {
		t.Fatalf("expected 8 lines, got %d", n)
	}
}

func TestEPDAndBoardFEN(t *testing.T) {
	p := MustParse(DefaultFEN)
	if got := p.BoardFEN(); got != "rnb1k2r/1pq1bppp/p2ppn2/6B1/3NPP2/2N2Q2/PPP3PP/2KR1B1R" {
		t.Fatalf("BoardFEN = %q", got)
	}
	if got := p.EPD(); got != "rnb1k2r/1pq1bppp/p2ppn2/6B1/3NPP2/2N2Q2/PPP3PP/2KR1B1R b kq -" {
		t.Fatalf("EPD = %q", got)
	}
}

func TestUnicodeInvert(t *testing.T) {
	p := MustParse("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	plain := p.Unicode(".", false)
	inverted := p.Unicode(".", true)
	if !strings.Contains(plain, "♔") || !strings.Contains(plain, "♚") {
		t.Fatalf("plain dump missing kings: %q", plain)
	}
	lines := strings.Split(inverted, "\n")
	if !strings.Contains(lines[0], "♔") {
		t.Fatalf("inverted dump should show the black king as a white glyph: %q", lines[0])
	}
	if !strings.Contains(lines[7], "♚") {
		t.Fatalf("inverted dump should show the white king as a black glyph: %q", lines[7])
	}
}

func TestEmptyBoard(t *testing.T) {
	p := Empty()
	if got := p.BoardFEN(); got != "8/8/8/8/8/8/8/8" {
		t.Fatalf("BoardFEN = %q", got)
	}
	for _, line := range strings.Split(p.ASCII(), "\n") {
		if line != ". . . . . . . ." {
			t.Fatalf("unexpected line %q", line)
		}
	}
	if got := p.EPD(); got != "8/8/8/8/8/8/8/8 w - -" {
		t.Fatalf("EPD = %q", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, fen := range []string{"", "   ", "not a fen"} {
		if _, err := Parse(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidFEN", fen, err)
		}
	}
}
