package scene

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kraktus/fen-manim/internal/boardtext"
	"github.com/kraktus/fen-manim/internal/position"
)

func TestNames(t *testing.T) {
	want := []string{"dots", "fen", "ranks"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
}

func TestBuildUnknownScene(t *testing.T) {
	if _, err := Build("nope", Input{}); !errors.Is(err, ErrUnknownScene) {
		t.Fatalf("expected ErrUnknownScene, got %v", err)
	}
}

func TestFENScene(t *testing.T) {
	sb, err := Build("fen", Input{SVGPath: "out/board.svg"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sb.Name != "fen" || sb.FEN != position.DefaultFEN {
		t.Fatalf("unexpected header %q %q", sb.Name, sb.FEN)
	}
	svg, ok := sb.Node("board_svg")
	if !ok || svg.Source != "out/board.svg" || svg.Kind != KindSVG {
		t.Fatalf("board_svg node = %+v", svg)
	}
	epd, _ := sb.Node("epd")
	if epd.Text != "rnb1k2r/1pq1bppp/p2ppn2/6B1/3NPP2/2N2Q2/PPP3PP/2KR1B1R" {
		t.Fatalf("epd text = %q", epd.Text)
	}
	for _, s := range epd.Spans {
		if s.Color == Blue && strings.Trim(s.Text, "12345678") != "" {
			t.Fatalf("non digit span coloured blue: %q", s.Text)
		}
	}
	oneline, _ := sb.Node("oneline")
	if boardtext.Plain(oneline.Spans) != oneline.Text {
		t.Fatalf("spans do not cover text")
	}
	if oneline.Font != DefaultFont {
		t.Fatalf("font = %q", oneline.Font)
	}

	parts, _ := sb.Node("parts")
	comp, _ := sb.Node("compressed")
	if len(parts.Children) != len(sb.Runs) || parts.Layout.Cols != len(sb.Runs) || parts.Layout.RowAlign != "d" {
		t.Fatalf("parts = %+v", parts)
	}
	if comp.Layout.Buff != 0.1 {
		t.Fatalf("compressed layout = %+v", comp.Layout)
	}
	var joined strings.Builder
	for i, id := range comp.Children {
		n, _ := sb.Node(id)
		joined.WriteString(n.Text)
		if sb.Runs[i].IsDot() && (n.Color != Blue || n.Scale != 0.4) {
			t.Fatalf("compressed dot run %s = %+v", id, n)
		}
	}
	if joined.String() != epd.Text {
		t.Fatalf("compressed parts = %q, want %q", joined.String(), epd.Text)
	}

	var split, shrink, removed bool
	for _, st := range sb.Steps {
		for _, a := range st.Animations {
			switch {
			case a.From == "bluedots" && a.To == "parts" && a.Transition == TransformMatchingShapes:
				split = true
			case a.From == "parts" && a.To == "compressed" && a.Transition == ReplacementTransform:
				shrink = split
			}
		}
		if st.Action == ActionRemove && len(st.Targets) == 1 && st.Targets[0] == "compressed" {
			removed = shrink
		}
	}
	if !split || !shrink || !removed {
		t.Fatalf("run steps missing: split=%v shrink=%v removed=%v", split, shrink, removed)
	}

	last := sb.Steps[len(sb.Steps)-1]
	if last.RunTime != 5 || last.Animations[0].From != "bluedots" || last.Animations[0].To != "epd" {
		t.Fatalf("last step = %+v", last)
	}
	if got := sb.Duration(); got < 20*time.Second || got > 20200*time.Millisecond {
		t.Fatalf("Duration = %v", got)
	}
}

func TestDotsScene(t *testing.T) {
	sb, err := Build("dots", Input{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	parts, _ := sb.Node("parts")
	comp, _ := sb.Node("compressed")
	if len(parts.Children) != 4 || parts.Layout.Cols != 4 {
		t.Fatalf("parts = %+v", parts)
	}
	var got []string
	for _, id := range comp.Children {
		n, _ := sb.Node(id)
		got = append(got, n.Text)
	}
	if want := []string{"4", "B", "1", "/"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("compressed = %v, want %v", got, want)
	}
	first, _ := sb.Node(parts.Children[0])
	if first.Text != "...." || first.Color != Blue {
		t.Fatalf("first part = %+v", first)
	}
	if sb.Steps[2].RunTime != 0.1 {
		t.Fatalf("split step run time = %v", sb.Steps[2].RunTime)
	}
}

func TestRanksScene(t *testing.T) {
	sb, err := Build("ranks", Input{Position: position.Empty()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	delimited, _ := sb.Node("delimited")
	if len(delimited.Children) != 8 {
		t.Fatalf("delimited rows = %d", len(delimited.Children))
	}
	if delimited.Children[7] != "row_7" {
		t.Fatalf("last rank should keep its empty tail, got %s", delimited.Children[7])
	}
	rank, _ := sb.Node("rank_0")
	if rank.Caption != "Rank 8" {
		t.Fatalf("caption = %q", rank.Caption)
	}
}

func TestValidateCatchesDanglingReference(t *testing.T) {
	sb := &Storyboard{
		Nodes: []Node{{ID: "a", Kind: KindText}},
		Steps: []Step{play(0, transform(ReplacementTransform, "a", "b"))},
	}
	if err := sb.Validate(); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	sb.Nodes = append(sb.Nodes, Node{ID: "a"})
	if err := sb.Validate(); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, name := range Names() {
		sb, err := Build(name, Input{})
		if err != nil {
			t.Fatalf("Build %s: %v", name, err)
		}
		for _, format := range []string{"yaml", "json"} {
			raw, err := sb.Encode(format)
			if err != nil {
				t.Fatalf("Encode %s %s: %v", name, format, err)
			}
			back, err := Decode(format, raw)
			if err != nil {
				t.Fatalf("Decode %s %s: %v", name, format, err)
			}
			if !reflect.DeepEqual(back, sb) {
				t.Fatalf("%s %s round trip changed the storyboard", name, format)
			}
		}
	}
	sb, err := Build("dots", Input{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := sb.Encode("toml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestFrames(t *testing.T) {
	sb, err := Build("dots", Input{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	frames := sb.Frames()
	if len(frames) != len(sb.Steps) {
		t.Fatalf("frames = %d", len(frames))
	}
	last := frames[len(frames)-1]
	// both groups plus four children each
	if len(last.Nodes) != 10 || last.Total != len(sb.Steps) || last.Index != len(sb.Steps)-1 {
		t.Fatalf("last frame = %+v", last)
	}
}
