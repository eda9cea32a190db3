package strategy

import (
	"math/rand"
	"slices"
	"sort"

	"github.com/WendelHime/tftsim/internal/shared/models"
	"github.com/anacrolix/multiless"
	mapset "github.com/deckarep/golang-set/v2"
)

// SelectPieces builds at most maxRequests requests per neighbour, each for a
// piece selfID still needs and the neighbour offers in full. When a neighbour
// offers more than the cap, the rarest pieces win; equally rare pieces are
// picked at random and the final order is shuffled so it says nothing about
// rarity.
func SelectPieces(
	selfID string,
	self models.PieceState,
	needed mapset.Set[int],
	peers []models.PeerSnapshot,
	rarity Rarity,
	maxRequests int,
	rng *rand.Rand,
) []models.Request {
	if maxRequests <= 0 || needed.IsEmpty() {
		return nil
	}

	requests := make([]models.Request, 0)
	for _, peer := range peers {
		if peer.ID == selfID || peer.AvailablePieces == nil {
			continue
		}

		offered := offeredNeeded(peer.AvailablePieces, needed)
		if len(offered) == 0 {
			continue
		}

		if len(offered) > maxRequests {
			// equally rare pieces are ordered by a random draw
			draw := make(map[int]int64, len(offered))
			for _, piece := range offered {
				draw[piece] = rng.Int63()
			}
			sort.Slice(offered, func(i, j int) bool {
				var ml multiless.Computation
				ml = ml.Int(rarity.Count(offered[i]), rarity.Count(offered[j]))
				ml = ml.Int64(draw[offered[i]], draw[offered[j]])
				return ml.Less()
			})
			offered = offered[:maxRequests]
		}
		shuffle(rng, offered)

		for _, piece := range offered {
			requests = append(requests, models.Request{
				RequesterID: selfID,
				ProviderID:  peer.ID,
				PieceID:     piece,
				StartBlock:  self[piece],
			})
		}
	}
	return requests
}

// offeredNeeded returns, ascending, the pieces both in offered and needed.
// The two sets may come from different mapset implementations.
func offeredNeeded(offered, needed mapset.Set[int]) []int {
	pieces := make([]int, 0)
	offered.Each(func(piece int) bool {
		if needed.ContainsOne(piece) {
			pieces = append(pieces, piece)
		}
		return false
	})
	// set iteration order is random; sort so a seeded rng replays
	slices.Sort(pieces)
	return pieces
}

func shuffle[T any](rng *rand.Rand, items []T) {
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
