// Package position reads chess positions through corentings/chess and dumps
// their boards as text.
package position

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var ErrInvalidFEN = errors.New("invalid fen")

// DefaultFEN is the position animated when no FEN is given.
const DefaultFEN = "rnb1k2r/1pq1bppp/p2ppn2/6B1/3NPP2/2N2Q2/PPP3PP/2KR1B1R b kq - 4 9"

const emptyEPDTail = "w - -"

var (
	ranksTopDown   = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	filesLeftRight = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

// Position is a read-only view over a parsed FEN.
type Position struct {
	fen   string
	board *nchess.Board
	// side, castling and en passant fields, space separated
	epdTail string
}

// Parse reads a full FEN string.
func Parse(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidFEN)
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	game := nchess.NewGame(opt)
	pos := game.Position()
	if pos == nil || pos.Board() == nil {
		return nil, fmt.Errorf("%w: no position", ErrInvalidFEN)
	}
	fields := strings.Fields(pos.String())
	tail := emptyEPDTail
	if len(fields) >= 4 {
		tail = strings.Join(fields[1:4], " ")
	}
	return &Position{fen: pos.String(), board: pos.Board(), epdTail: tail}, nil
}

// MustParse is Parse for constants known to be valid.
func MustParse(fen string) *Position {
	p, err := Parse(fen)
	if err != nil {
		panic(err)
	}
	return p
}

// Empty returns a board without pieces, white to move.
func Empty() *Position {
	board := nchess.NewBoard(map[nchess.Square]nchess.Piece{})
	return &Position{
		fen:     board.String() + " " + emptyEPDTail + " 0 1",
		board:   board,
		epdTail: emptyEPDTail,
	}
}

func (p *Position) Board() *nchess.Board { return p.board }

// FEN returns the full FEN as re-encoded by the chess library.
func (p *Position) FEN() string { return p.fen }

// BoardFEN is the piece placement field produced by the chess library.
func (p *Position) BoardFEN() string { return p.board.String() }

// EPD returns piece placement, side to move, castling and en passant.
func (p *Position) EPD() string { return p.BoardFEN() + " " + p.epdTail }

// ASCII dumps the board rank 8 first, one rank per line, squares separated
// by a single space, '.' for empty squares.
func (p *Position) ASCII() string {
	return p.dump(".", func(pc nchess.Piece) string { return string(Letter(pc)) })
}

// Unicode dumps the board with chess glyphs. With invert set white pieces
// get the black glyphs and the other way round, which reads better on dark
// backgrounds.
func (p *Position) Unicode(empty string, invert bool) string {
	return p.dump(empty, func(pc nchess.Piece) string { return Glyph(pc, invert) })
}

func (p *Position) dump(empty string, cell func(nchess.Piece) string) string {
	squares := p.board.SquareMap()
	rows := make([]string, 0, len(ranksTopDown))
	for _, rank := range ranksTopDown {
		cells := make([]string, 0, len(filesLeftRight))
		for _, file := range filesLeftRight {
			pc, ok := squares[nchess.NewSquare(file, rank)]
			if !ok || pc == nchess.NoPiece {
				cells = append(cells, empty)
				continue
			}
			cells = append(cells, cell(pc))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return strings.Join(rows, "\n")
}
