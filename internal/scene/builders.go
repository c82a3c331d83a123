package scene

import (
	"fmt"
	"strconv"

	"github.com/kraktus/fen-manim/internal/boardtext"
	"github.com/kraktus/fen-manim/internal/fenrun"
)

const (
	DefaultFont = "Andale Mono"
	// DotsText is the sample rank used by the dots scene.
	DotsText = "....B./"

	textWidth       = 6
	delimitedWidth  = 6.52
	lineSpacing     = 0.6
	svgWidth        = 7
	oneLineScale    = 0.4
	digitScale      = 0.4
	compressedBuff  = 0.1
	// short enough to be imperceptible
	splitRunTime    = 0.1
	oneLineFontSize = 16
)

func textNode(id, text string, in Input) Node {
	return Node{ID: id, Kind: KindText, Text: text, Font: in.Font}
}

func caption(in Input, key string, data any) string {
	return in.Catalog.RenderOr("caption."+key, data, "")
}

func play(run float64, anims ...Animation) Step {
	return Step{Action: ActionPlay, Animations: anims, RunTime: run}
}

func transform(kind Transition, from, to string) Animation {
	return Animation{Transition: kind, From: from, To: to}
}

// buildFEN walks the position from the board image down to the EPD board
// segment.
func buildFEN(in Input) (*Storyboard, error) {
	p := in.Position
	ascii := p.ASCII()
	one := boardtext.OneLine(ascii)
	epd := boardtext.EPDBoard(p.EPD())
	orange := map[string]string{boardtext.RankSeparator: Orange}

	svgNode := Node{ID: "board_svg", Kind: KindSVG, Source: in.SVGPath, Width: svgWidth, Caption: caption(in, "svg", nil)}
	if svgNode.Source == "" {
		svgNode.Source = "board.svg"
	}

	unicode := textNode("unicode", p.Unicode(string(fenrun.EmptySquare), true), in)
	unicode.Width, unicode.LineSpacing = textWidth, lineSpacing
	unicode.Caption = caption(in, "unicode", nil)

	plain := textNode("ascii", ascii, in)
	plain.Width, plain.LineSpacing = textWidth, lineSpacing
	plain.Caption = caption(in, "ascii", nil)

	delimited := textNode("delimited", boardtext.WithDelimiter(ascii), in)
	delimited.Spans = boardtext.Colorize(delimited.Text, orange)
	delimited.Width, delimited.LineSpacing = delimitedWidth, lineSpacing
	delimited.Caption = caption(in, "delimited", nil)

	oneline := textNode("oneline", one, in)
	oneline.Spans = boardtext.Colorize(one, orange)
	oneline.Scale = oneLineScale
	oneline.Caption = caption(in, "oneline", nil)

	bluedots := textNode("bluedots", one, in)
	bluedots.Spans = boardtext.Colorize(one, map[string]string{string(fenrun.EmptySquare): Blue})
	bluedots.Scale = oneLineScale
	bluedots.Caption = caption(in, "bluedots", nil)

	colored := textNode("epd", epd, in)
	colored.Spans = boardtext.Colorize(epd, boardtext.DigitColors(Blue))
	colored.Scale = oneLineScale
	colored.Caption = caption(in, "epd", map[string]any{"EPD": epd})

	runs := fenrun.Tokenize(one)
	if got := fenrun.CompressString(one); got != epd {
		return nil, fmt.Errorf("compressed board %q does not match %q", got, epd)
	}
	parts := runNodes(in, runs)
	for i := range parts {
		if parts[i].Kind == KindText {
			parts[i].Scale = oneLineScale
		}
	}

	nodes := []Node{svgNode, unicode, plain, delimited, oneline, bluedots}
	nodes = append(nodes, parts...)
	nodes = append(nodes, colored)
	sb := &Storyboard{
		FEN:   p.FEN(),
		Runs:  runs,
		Nodes: nodes,
		Steps: []Step{
			{Action: ActionAdd, Targets: []string{"board_svg"}},
			{Action: ActionWait},
			play(0, Animation{Transition: FadeOut, Target: "board_svg"}, Animation{Transition: FadeIn, Target: "unicode"}),
			{Action: ActionWait},
			play(0, transform(ReplacementTransform, "unicode", "ascii")),
			{Action: ActionWait},
			play(0, transform(TransformMatchingShapes, "ascii", "delimited")),
			{Action: ActionWait},
			play(0, transform(ReplacementTransform, "delimited", "oneline")),
			{Action: ActionWait},
			play(0, transform(TransformMatchingShapes, "oneline", "bluedots")),
			{Action: ActionWait},
			play(splitRunTime, transform(TransformMatchingShapes, "bluedots", "parts")),
			{Action: ActionWait},
			play(0, transform(ReplacementTransform, "parts", "compressed")),
			{Action: ActionWait},
			{Action: ActionRemove, Targets: []string{"compressed"}},
			{Action: ActionAdd, Targets: []string{"bluedots"}},
			{Action: ActionWait},
			play(5, transform(ReplacementTransform, "bluedots", "epd")),
		},
	}
	return sb, nil
}

// buildDots splits a one-line string into runs and shrinks dot runs to
// their length.
func buildDots(in Input) (*Storyboard, error) {
	text := in.Text
	if text == "" {
		text = DotsText
	}
	runs := fenrun.Tokenize(text)

	line := textNode("line", text, in)
	line.Caption = caption(in, "dots", map[string]any{"Text": text})
	nodes := append([]Node{line}, runNodes(in, runs)...)

	return &Storyboard{
		Runs:  runs,
		Nodes: nodes,
		Steps: []Step{
			{Action: ActionAdd, Targets: []string{"line"}},
			{Action: ActionWait},
			play(splitRunTime, transform(TransformMatchingShapes, "line", "parts")),
			{Action: ActionWait},
			play(0, transform(ReplacementTransform, "parts", "compressed")),
		},
	}, nil
}

// runNodes wraps every run in its own text node, dot runs in blue, and
// groups them twice: as written ("parts") and with dot runs replaced by
// their length ("compressed").
func runNodes(in Input, runs []fenrun.Run) []Node {
	compressed := fenrun.Compress(runs)
	partsGroup := Node{ID: "parts", Kind: KindGroup, Caption: caption(in, "parts", nil),
		Layout: &Layout{Kind: LayoutGrid, Cols: len(runs), RowAlign: "d"}}
	compGroup := Node{ID: "compressed", Kind: KindGroup, Caption: caption(in, "compressed", nil),
		Layout: &Layout{Kind: LayoutGrid, Cols: len(runs), RowAlign: "d", Buff: compressedBuff}}

	nodes := make([]Node, 0, 2*len(runs)+2)
	for i, r := range runs {
		part := textNode("part_"+strconv.Itoa(i), r.Text, in)
		comp := textNode("compressed_"+strconv.Itoa(i), compressed[i], in)
		if r.IsDot() {
			part.Color = Blue
			comp.Color = Blue
			comp.Scale = digitScale
		}
		nodes = append(nodes, part, comp)
		partsGroup.Children = append(partsGroup.Children, part.ID)
		compGroup.Children = append(compGroup.Children, comp.ID)
	}
	return append(nodes, partsGroup, compGroup)
}

// buildRanks lays rank lines out with an empty tail and swaps the tails for
// separators, then lays the delimited ranks out on one line.
func buildRanks(in Input) (*Storyboard, error) {
	lines := boardtext.Lines(in.Position.ASCII())
	if len(lines) == 0 {
		return nil, fmt.Errorf("position has no ranks")
	}
	var nodes []Node
	plainRows := make([]string, 0, len(lines))
	slashRows := make([]string, 0, len(lines))
	for i, l := range lines {
		n := strconv.Itoa(i)
		line := textNode("rank_"+n, l, in)
		line.Caption = caption(in, "ranks", map[string]any{"Rank": 8 - i})
		tail := textNode("tail_"+n, "", in)
		nodes = append(nodes, line, tail,
			Node{ID: "row_" + n, Kind: KindGroup, Children: []string{line.ID, tail.ID}, Layout: &Layout{Kind: LayoutRight}})
		plainRows = append(plainRows, "row_"+n)

		if i == len(lines)-1 {
			slashRows = append(slashRows, "row_"+n)
			continue
		}
		slash := textNode("slash_"+n, boardtext.RankSeparator, in)
		slash.Color = Orange
		nodes = append(nodes, slash,
			Node{ID: "row_slash_" + n, Kind: KindGroup, Children: []string{line.ID, slash.ID}, Layout: &Layout{Kind: LayoutRight}})
		slashRows = append(slashRows, "row_slash_"+n)
	}
	nodes = append(nodes,
		Node{ID: "board", Kind: KindGroup, Children: plainRows, Layout: &Layout{Kind: LayoutDown}},
		Node{ID: "delimited", Kind: KindGroup, Children: slashRows, Layout: &Layout{Kind: LayoutDown},
			Caption: caption(in, "delimited", nil)},
		Node{ID: "oneline", Kind: KindGroup, Children: slashRows, Layout: &Layout{Kind: LayoutRight},
			FontSize: oneLineFontSize, Caption: caption(in, "oneline", nil)},
	)
	return &Storyboard{
		FEN:   in.Position.FEN(),
		Nodes: nodes,
		Steps: []Step{
			{Action: ActionAdd, Targets: []string{"board"}},
			{Action: ActionWait},
			play(0, transform(ReplacementTransform, "board", "delimited")),
			{Action: ActionWait},
			play(0, transform(ReplacementTransform, "delimited", "oneline")),
		},
	}, nil
}
