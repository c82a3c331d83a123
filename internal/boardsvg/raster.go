package boardsvg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/kraktus/fen-manim/internal/position"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Rasterizer turns boards into PNG previews.
type Rasterizer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error)
}

type pngRasterizer struct{}

func NewRasterizer() Rasterizer {
	return &pngRasterizer{}
}

var (
	whitePieceInk = color.RGBA{250, 250, 250, 255}
	blackPieceInk = color.RGBA{20, 20, 20, 255}
)

// RenderPNG draws the SVG squares with oksvg and overlays the piece
// letters. oksvg ignores <text>, so glyphs are painted separately.
func (r *pngRasterizer) RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, ErrNilBoard
	}
	opts = opts.normalized()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	doc, err := Bytes(board, opts)
	if err != nil {
		return nil, err
	}
	size := opts.Size()
	img, err := rasterize(doc, size)
	if err != nil {
		return nil, err
	}

	margin := opts.margin()
	sq := opts.SquareSize
	boardMap := board.SquareMap()
	for row, rank := range ranks {
		for col, file := range files {
			piece, ok := boardMap[nchess.NewSquare(file, rank)]
			if !ok || piece == nchess.NoPiece {
				continue
			}
			glyph := renderPieceImage(piece, sq)
			x := margin + col*sq
			y := margin + row*sq
			draw.Draw(img, image.Rect(x, y, x+sq, y+sq), glyph, image.Point{}, draw.Over)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RasterizePNG renders any SVG document to a size x size PNG.
func RasterizePNG(doc []byte, size int) ([]byte, error) {
	img, err := rasterize(doc, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func rasterize(doc []byte, size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid raster size %d", size)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(doc)), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

type pieceCacheKey struct {
	piece nchess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

// renderPieceImage draws the piece letter with the 7x13 bitmap face and
// scales it up to the square.
func renderPieceImage(piece nchess.Piece, size int) image.Image {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img
	}
	pieceCacheMu.RUnlock()

	face := basicfont.Face7x13
	small := image.NewRGBA(image.Rect(0, 0, face.Advance, face.Height))
	ink := blackPieceInk
	if piece.Color() == nchess.White {
		ink = whitePieceInk
	}
	drawer := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	drawer.DrawString(string(position.Letter(piece)))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	inset := size / 5
	target := image.Rect(inset, inset/2, size-inset, size-inset/2)
	xdraw.NearestNeighbor.Scale(img, target, small, small.Bounds(), xdraw.Over, nil)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img
}
