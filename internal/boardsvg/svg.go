// Package boardsvg draws chess boards as SVG documents and rasterises them
// to PNG previews.
package boardsvg

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
	nchess "github.com/corentings/chess/v2"
	"github.com/kraktus/fen-manim/internal/position"
)

var ErrNilBoard = errors.New("board is nil")

type Options struct {
	SquareSize  int
	Coordinates bool
	Light       string
	Dark        string
	Title       string
}

func DefaultOptions() Options {
	return Options{
		SquareSize:  45,
		Coordinates: true,
		Light:       "#f0d9b5",
		Dark:        "#b58863",
	}
}

var (
	ranks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.SquareSize <= 0 {
		o.SquareSize = def.SquareSize
	}
	if o.Light = normalizeColor(o.Light); o.Light == "" {
		o.Light = def.Light
	}
	if o.Dark = normalizeColor(o.Dark); o.Dark == "" {
		o.Dark = def.Dark
	}
	return o
}

func (o Options) margin() int {
	if !o.Coordinates {
		return 0
	}
	return o.SquareSize / 3
}

// Size is the width and height of the document.
func (o Options) Size() int {
	o = o.normalized()
	return 8*o.SquareSize + 2*o.margin()
}

// Render writes the board as a standalone SVG document.
func Render(w io.Writer, board *nchess.Board, opts Options) error {
	if board == nil {
		return ErrNilBoard
	}
	opts = opts.normalized()
	size := opts.Size()
	margin := opts.margin()
	sq := opts.SquareSize

	canvas := svg.New(w)
	canvas.Startview(size, size, 0, 0, size, size)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	if margin > 0 {
		canvas.Rect(0, 0, size, size, `class="margin"`, "fill:#212121")
	}

	canvas.Gid("squares")
	for row, rank := range ranks {
		for col, file := range files {
			s := nchess.NewSquare(file, rank)
			x := margin + col*sq
			y := margin + row*sq
			canvas.Rect(x, y, sq, sq, fmt.Sprintf(`class="square %s %s"`, squareShade(s), s.String()), "fill:"+squareFill(s, opts))
		}
	}
	canvas.Gend()

	boardMap := board.SquareMap()
	canvas.Gid("pieces")
	for row, rank := range ranks {
		for col, file := range files {
			piece, ok := boardMap[nchess.NewSquare(file, rank)]
			if !ok || piece == nchess.NoPiece {
				continue
			}
			cx := margin + col*sq + sq/2
			cy := margin + row*sq + sq/2
			canvas.Text(cx, cy, position.Glyph(piece, false),
				fmt.Sprintf(`class="piece %c"`, position.Letter(piece)),
				fmt.Sprintf("font-size:%dpx;text-anchor:middle;dominant-baseline:central", sq*4/5))
		}
	}
	canvas.Gend()

	if margin > 0 {
		drawCoordinates(canvas, opts)
	}
	canvas.End()
	return nil
}

func drawCoordinates(canvas *svg.SVG, opts Options) {
	margin := opts.margin()
	sq := opts.SquareSize
	size := opts.Size()
	style := fmt.Sprintf("fill:#e5e5e5;font-size:%dpx;text-anchor:middle;dominant-baseline:central", margin*3/4)
	canvas.Gid("coordinates")
	for col, file := range files {
		x := margin + col*sq + sq/2
		canvas.Text(x, margin/2, file.String(), style)
		canvas.Text(x, size-margin/2, file.String(), style)
	}
	for row, rank := range ranks {
		y := margin + row*sq + sq/2
		canvas.Text(margin/2, y, rank.String(), style)
		canvas.Text(size-margin/2, y, rank.String(), style)
	}
	canvas.Gend()
}

// Bytes renders the board into memory.
func Bytes(board *nchess.Board, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, board, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func squareShade(sq nchess.Square) string {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return "dark"
	}
	return "light"
}

func squareFill(sq nchess.Square, opts Options) string {
	if squareShade(sq) == "dark" {
		return opts.Dark
	}
	return opts.Light
}
