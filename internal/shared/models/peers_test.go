package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeerSnapshot(t *testing.T) {
	p := NewPeerSnapshot("a", 1, 3)
	assert.True(t, p.Offers(1))
	assert.False(t, p.Offers(2))
	assert.False(t, PeerSnapshot{ID: "b"}.Offers(1))

	needed := NewPieceSet(0, 1, 2, 3)
	assert.ElementsMatch(t, []int{1, 3}, needed.Intersect(p.AvailablePieces).ToSlice())
}

func TestWithoutPeer(t *testing.T) {
	peers := []PeerSnapshot{NewPeerSnapshot("a"), NewPeerSnapshot("self"), NewPeerSnapshot("b")}

	filtered := WithoutPeer(peers, "self")

	assert.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].ID)
	assert.Equal(t, "b", filtered[1].ID)
	assert.Len(t, peers, 3)
}
