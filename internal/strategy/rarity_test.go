package strategy

import (
	"testing"

	"github.com/WendelHime/tftsim/internal/shared/models"
	"github.com/stretchr/testify/assert"
)

func TestEstimateRarity(t *testing.T) {
	var tests = []struct {
		name   string
		given  []models.PeerSnapshot
		assert func(t *testing.T, actual Rarity)
	}{
		{
			name: "empty snapshot list yields empty map",
			assert: func(t *testing.T, actual Rarity) {
				assert.Empty(t, actual)
				assert.Equal(t, 0, actual.Count(3))
			},
		},
		{
			name: "counts every provider of a piece",
			given: []models.PeerSnapshot{
				models.NewPeerSnapshot("a", 0, 1, 2),
				models.NewPeerSnapshot("b", 1, 2),
				models.NewPeerSnapshot("c", 2),
				{ID: "d"},
			},
			assert: func(t *testing.T, actual Rarity) {
				assert.Len(t, actual, 3)
				assert.Equal(t, 1, actual.Count(0))
				assert.Equal(t, 2, actual.Count(1))
				assert.Equal(t, 3, actual.Count(2))
				assert.Equal(t, []string{"a", "b", "c"}, actual[2].Providers)
				assert.Equal(t, 0, actual.Count(7))
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.assert(t, EstimateRarity(tt.given))
		})
	}
}

func TestEstimateRarityIsIdempotent(t *testing.T) {
	peers := []models.PeerSnapshot{
		models.NewPeerSnapshot("a", 0, 3, 5),
		models.NewPeerSnapshot("b", 3, 4),
	}
	assert.Equal(t, EstimateRarity(peers), EstimateRarity(peers))
}
