package strategy

import (
	"github.com/WendelHime/tftsim/internal/shared/models"
)

// WindowedContribution sums the blocks received from every neighbour over the
// last window rounds. Neighbours absent from all of them are not in the map
// and therefore score 0.
func WindowedContribution(history models.History, window int) map[string]int {
	contribution := make(map[string]int)
	for _, downloads := range history.LastRounds(window) {
		for _, d := range downloads {
			contribution[d.FromID] += d.Blocks
		}
	}
	return contribution
}

// Rate is the reciprocity state kept for one neighbour. D is what the
// neighbour delivered last round, U the bandwidth it takes to keep it
// reciprocating. A lower U is a cheaper neighbour.
type Rate struct {
	D float64
	U float64
}

func (r Rate) Ratio() float64 {
	if r.U <= 0 {
		return 0
	}
	return r.D / r.U
}

// RateTracker maintains the per-neighbour d/u state of the rate-ratio
// policy. It must see every round once; observing a round twice is a no-op.
type RateTracker struct {
	alpha    float64
	gamma    float64
	r        int
	rates    map[string]*Rate
	observed int
}

func NewRateTracker(alpha, gamma float64, r int) *RateTracker {
	return &RateTracker{
		alpha: alpha,
		gamma: gamma,
		r:     r,
		rates: make(map[string]*Rate),
	}
}

func (t *RateTracker) rate(id string) *Rate {
	rate, ok := t.rates[id]
	if !ok {
		rate = &Rate{D: 1.0, U: 1.0}
		t.rates[id] = rate
	}
	return rate
}

// Observe folds the last completed round of history into the tracker, then
// starts tracking any neighbour seen for the first time at neutral values.
func (t *RateTracker) Observe(peers []models.PeerSnapshot, history models.History) {
	round := history.CurrentRound()
	if round > 0 && round != t.observed {
		t.observed = round
		t.update(history)
	}
	for _, peer := range peers {
		t.rate(peer.ID)
	}
}

func (t *RateTracker) update(history models.History) {
	received := make(map[string]int)
	for _, d := range history.Round(history.CurrentRound() - 1) {
		received[d.FromID] += d.Blocks
		t.rate(d.FromID)
	}

	lookback := history.LastRounds(t.r)
	for id, rate := range t.rates {
		blocks := received[id]
		if blocks <= 0 {
			rate.D = 0
			rate.U *= 1 + t.alpha
			continue
		}
		rate.D = float64(blocks)
		if reciprocatedEveryRound(id, lookback) {
			rate.U *= 1 - t.gamma
		}
	}
}

func reciprocatedEveryRound(id string, rounds [][]models.Download) bool {
	for _, downloads := range rounds {
		found := false
		for _, d := range downloads {
			if d.FromID == id && d.Blocks > 0 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (t *RateTracker) Rate(id string) (Rate, bool) {
	rate, ok := t.rates[id]
	if !ok {
		return Rate{}, false
	}
	return *rate, true
}

// Ratio is D/U for a known neighbour and 0 otherwise.
func (t *RateTracker) Ratio(id string) float64 {
	rate, ok := t.rates[id]
	if !ok {
		return 0
	}
	return rate.Ratio()
}
