package models

import mapset "github.com/deckarep/golang-set/v2"

// PeerSnapshot is what a peer can see of a neighbour in the current round.
type PeerSnapshot struct {
	ID              string
	AvailablePieces mapset.Set[int]
}

func NewPeerSnapshot(id string, pieces ...int) PeerSnapshot {
	return PeerSnapshot{ID: id, AvailablePieces: NewPieceSet(pieces...)}
}

// NewPieceSet builds the piece-id set type shared by snapshots and the
// selector. Sets of different implementations cannot be intersected.
func NewPieceSet(pieces ...int) mapset.Set[int] {
	return mapset.NewThreadUnsafeSet(pieces...)
}

// Offers reports whether the neighbour holds the piece in full.
func (p PeerSnapshot) Offers(piece int) bool {
	return p.AvailablePieces != nil && p.AvailablePieces.ContainsOne(piece)
}

// WithoutPeer drops every snapshot carrying the given id.
func WithoutPeer(peers []PeerSnapshot, id string) []PeerSnapshot {
	filtered := make([]PeerSnapshot, 0, len(peers))
	for _, peer := range peers {
		if peer.ID == id {
			continue
		}
		filtered = append(filtered, peer)
	}
	return filtered
}
