package models

// BlockSize is the size of one transferable block inside a piece.
const BlockSize = 16 * 1024

// PieceState holds, for every piece id, how many blocks of it are complete.
type PieceState []int

func NewPieceState(numPieces int) PieceState {
	return make(PieceState, numPieces)
}

func (p PieceState) IsNeeded(piece, blocksPerPiece int) bool {
	return piece >= 0 && piece < len(p) && p[piece] < blocksPerPiece
}

// Needed returns the ids of every piece that still misses blocks, ascending.
func (p PieceState) Needed(blocksPerPiece int) []int {
	needed := make([]int, 0, len(p))
	for piece, blocks := range p {
		if blocks < blocksPerPiece {
			needed = append(needed, piece)
		}
	}
	return needed
}

func (p PieceState) Complete(blocksPerPiece int) bool {
	for _, blocks := range p {
		if blocks < blocksPerPiece {
			return false
		}
	}
	return true
}

func (p PieceState) CompletedPieces(blocksPerPiece int) int {
	completed := 0
	for _, blocks := range p {
		if blocks >= blocksPerPiece {
			completed++
		}
	}
	return completed
}

func (p PieceState) Clone() PieceState {
	clone := make(PieceState, len(p))
	copy(clone, p)
	return clone
}
