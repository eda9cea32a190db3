package models

import "fmt"

// Request asks ProviderID for the blocks of PieceID starting at StartBlock.
type Request struct {
	RequesterID string
	ProviderID  string
	PieceID     int
	StartBlock  int
}

func (r Request) String() string {
	return fmt.Sprintf("request(%s->%s piece=%d start=%d)", r.RequesterID, r.ProviderID, r.PieceID, r.StartBlock)
}

// Upload grants BW units of bandwidth from FromID to ToID for one round.
type Upload struct {
	FromID string
	ToID   string
	BW     int
}

func (u Upload) String() string {
	return fmt.Sprintf("upload(%s->%s bw=%d)", u.FromID, u.ToID, u.BW)
}

// Download records blocks of a piece that were delivered during a round.
type Download struct {
	FromID  string
	ToID    string
	PieceID int
	Blocks  int
}

func (d Download) String() string {
	return fmt.Sprintf("download(%s->%s piece=%d blocks=%d)", d.FromID, d.ToID, d.PieceID, d.Blocks)
}

func TotalBandwidth(uploads []Upload) int {
	total := 0
	for _, u := range uploads {
		total += u.BW
	}
	return total
}
