package strategy

import "github.com/WendelHime/tftsim/internal/shared/models"

// PriorityWithUnchoke serves requesters in order of their contribution over
// the window, each up to the number of requests it sent, until the budget
// runs out. Optimistic rounds keep one unit back for a random requester the
// ranking did not reach.
type PriorityWithUnchoke struct {
	window int
}

func NewPriorityWithUnchoke(window int) *PriorityWithUnchoke {
	return &PriorityWithUnchoke{window: window}
}

func (p *PriorityWithUnchoke) Name() PolicyKind {
	return PolicyPriority
}

func (p *PriorityWithUnchoke) Allocate(in AllocationInput) []models.Upload {
	if len(in.Requesters) == 0 || in.Budget <= 0 {
		return nil
	}

	contribution := WindowedContribution(in.History, p.window)
	a := newAllocator(in.SelfID, in.Budget)

	reserve := 0
	if in.Optimistic {
		reserve = a.budget.take(1)
	}

	ranked := rankByScore(in.Requesters, func(id string) float64 {
		return float64(contribution[id])
	}, in.Rand)
	for _, id := range ranked {
		if a.budget.exhausted() {
			break
		}
		a.grant(id, in.Need[id])
	}

	if reserve > 0 {
		a.budget.left += reserve
		if id, ok := pickOptimistic(in.Requesters, a.funded, in.Rand); ok {
			a.grant(id, reserve)
		}
	}

	return a.result()
}
