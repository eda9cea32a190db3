package strategy

import "github.com/WendelHime/tftsim/internal/shared/models"

// Availability is how many neighbours offer a piece, and which ones.
type Availability struct {
	Count     int
	Providers []string
}

type Rarity map[int]*Availability

// EstimateRarity counts, for every piece, the neighbours that offer it.
func EstimateRarity(peers []models.PeerSnapshot) Rarity {
	rarity := make(Rarity)
	for _, peer := range peers {
		if peer.AvailablePieces == nil {
			continue
		}
		peer.AvailablePieces.Each(func(piece int) bool {
			availability, ok := rarity[piece]
			if !ok {
				availability = &Availability{}
				rarity[piece] = availability
			}
			availability.Count++
			availability.Providers = append(availability.Providers, peer.ID)
			return false
		})
	}
	return rarity
}

func (r Rarity) Count(piece int) int {
	if availability, ok := r[piece]; ok {
		return availability.Count
	}
	return 0
}
