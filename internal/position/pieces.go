package position

import (
	nchess "github.com/corentings/chess/v2"
)

// Letter is the FEN letter of a piece: uppercase for white.
func Letter(piece nchess.Piece) byte {
	var c byte
	switch piece.Type() {
	case nchess.King:
		c = 'k'
	case nchess.Queen:
		c = 'q'
	case nchess.Rook:
		c = 'r'
	case nchess.Bishop:
		c = 'b'
	case nchess.Knight:
		c = 'n'
	case nchess.Pawn:
		c = 'p'
	default:
		return '?'
	}
	if piece.Color() == nchess.White {
		c -= 'a' - 'A'
	}
	return c
}

var (
	whiteGlyphs = map[nchess.PieceType]string{
		nchess.King: "♔", nchess.Queen: "♕", nchess.Rook: "♖",
		nchess.Bishop: "♗", nchess.Knight: "♘", nchess.Pawn: "♙",
	}
	blackGlyphs = map[nchess.PieceType]string{
		nchess.King: "♚", nchess.Queen: "♛", nchess.Rook: "♜",
		nchess.Bishop: "♝", nchess.Knight: "♞", nchess.Pawn: "♟",
	}
)

// Glyph returns the Unicode chess symbol of a piece.
func Glyph(piece nchess.Piece, invert bool) string {
	white := piece.Color() == nchess.White
	if invert {
		white = !white
	}
	if white {
		return whiteGlyphs[piece.Type()]
	}
	return blackGlyphs[piece.Type()]
}
