package boardsvg

import (
	"bytes"
	"context"
	"encoding/xml"
	"image/png"
	"strings"
	"testing"

	"github.com/kraktus/fen-manim/internal/position"
)

type svgCounts struct {
	squares, dark, pieces int
}

func countElements(t *testing.T, doc []byte) svgCounts {
	t.Helper()
	var c svgCounts
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local != "class" {
				continue
			}
			switch {
			case strings.HasPrefix(a.Value, "square"):
				c.squares++
				if strings.Contains(a.Value, " dark ") {
					c.dark++
				}
			case strings.HasPrefix(a.Value, "piece"):
				c.pieces++
			}
		}
	}
	return c
}

func TestRenderDefaultPosition(t *testing.T) {
	p := position.MustParse(position.DefaultFEN)
	doc, err := Bytes(p.Board(), DefaultOptions())
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	c := countElements(t, doc)
	if c.squares != 64 || c.dark != 32 {
		t.Fatalf("squares=%d dark=%d", c.squares, c.dark)
	}
	if c.pieces != 30 {
		t.Fatalf("expected 30 pieces, got %d", c.pieces)
	}
	if !bytes.Contains(doc, []byte(`viewBox="0 0 390 390"`)) {
		t.Fatalf("missing viewBox in %s", doc[:200])
	}
}

func TestRenderEmptyBoardHasNoPieces(t *testing.T) {
	doc, err := Bytes(position.Empty().Board(), Options{Coordinates: false})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	c := countElements(t, doc)
	if c.squares != 64 || c.pieces != 0 {
		t.Fatalf("squares=%d pieces=%d", c.squares, c.pieces)
	}
}

func TestRenderNilBoard(t *testing.T) {
	if _, err := Bytes(nil, DefaultOptions()); err != ErrNilBoard {
		t.Fatalf("expected ErrNilBoard, got %v", err)
	}
}

func TestRenderPNGPaintsSquares(t *testing.T) {
	opts := DefaultOptions()
	data, err := NewRasterizer().RenderPNG(context.Background(), position.MustParse(position.DefaultFEN).Board(), opts)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	size := opts.Size()
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		t.Fatalf("bounds = %v, want %d", b, size)
	}
	// a1 is empty and dark in the default position
	margin := opts.margin()
	x := margin + opts.SquareSize/2
	y := margin + 7*opts.SquareSize + opts.SquareSize/2
	r, g, b, a := img.At(x, y).RGBA()
	if a>>8 != 255 || absDiff(r>>8, 0xb5) > 4 || absDiff(g>>8, 0x88) > 4 || absDiff(b>>8, 0x63) > 4 {
		t.Fatalf("a1 pixel = %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestRenderPNGCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRasterizer().RenderPNG(ctx, position.Empty().Board(), DefaultOptions()); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestNormalizeColor(t *testing.T) {
	cases := map[string]string{
		"b58863":  "#b58863",
		"# abc":   "#abc",
		"#f0d9b5": "#f0d9b5",
		"red":     "red",
		"":        "",
	}
	for in, want := range cases {
		if got := normalizeColor(in); got != want {
			t.Fatalf("normalizeColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestRasterizePNGScalesDocument(t *testing.T) {
	doc, err := Bytes(position.Empty().Board(), DefaultOptions())
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	data, err := RasterizePNG(doc, 100)
	if err != nil {
		t.Fatalf("RasterizePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("bounds = %v", b)
	}
	if _, err := RasterizePNG(doc, 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}
