package strategy

import "github.com/WendelHime/tftsim/internal/shared/models"

// RateRatioTyrant ranks reciprocating requesters by d/u and pays each its
// current price u until the budget runs out. Requesters that did not
// reciprocate last round can only get the optimistic slot, one even slot of
// the budget, and only in optimistic rounds. The first round is all
// optimistic.
type RateRatioTyrant struct {
	tracker *RateTracker
	slots   int
}

func NewRateRatioTyrant(tracker *RateTracker, slots int) *RateRatioTyrant {
	return &RateRatioTyrant{tracker: tracker, slots: slots}
}

func (p *RateRatioTyrant) Name() PolicyKind {
	return PolicyTyrant
}

func (p *RateRatioTyrant) Tracker() *RateTracker {
	return p.tracker
}

func (p *RateRatioTyrant) Observe(peers []models.PeerSnapshot, history models.History) {
	p.tracker.Observe(peers, history)
}

func (p *RateRatioTyrant) reciprocates(id string) bool {
	rate, ok := p.tracker.Rate(id)
	return ok && rate.D > 0
}

func (p *RateRatioTyrant) Allocate(in AllocationInput) []models.Upload {
	if len(in.Requesters) == 0 || in.Budget <= 0 {
		return nil
	}

	a := newAllocator(in.SelfID, in.Budget)
	slot := max(1, in.Budget/p.slots)

	reciprocators := make([]string, 0, len(in.Requesters))
	for _, id := range in.Requesters {
		if p.reciprocates(id) {
			reciprocators = append(reciprocators, id)
		}
	}

	if in.Round() == 0 {
		// no rates to rank on yet
		if id, ok := pickOptimistic(in.Requesters, a.funded, in.Rand); ok {
			a.grant(id, slot)
		}
		return a.result()
	}

	if in.Optimistic {
		if id, ok := pickOptimistic(in.Requesters, p.reciprocates, in.Rand); ok {
			a.grant(id, slot)
		}
	}

	for _, id := range rankByScore(reciprocators, p.tracker.Ratio, in.Rand) {
		if a.budget.exhausted() {
			break
		}
		rate, _ := p.tracker.Rate(id)
		a.grant(id, max(1, int(rate.U)))
	}

	return a.result()
}
