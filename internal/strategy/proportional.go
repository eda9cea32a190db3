package strategy

import "github.com/WendelHime/tftsim/internal/shared/models"

// RatioProportional shares the budget among requesters in proportion to
// what each of them uploaded over the window. In optimistic rounds a share
// of the budget is held back for one random requester that did not
// contribute; with no contributors at all the whole budget goes to it.
type RatioProportional struct {
	window          int
	optimisticShare float64
}

func NewRatioProportional(window int, optimisticShare float64) *RatioProportional {
	return &RatioProportional{window: window, optimisticShare: optimisticShare}
}

func (p *RatioProportional) Name() PolicyKind {
	return PolicyProportional
}

func (p *RatioProportional) Allocate(in AllocationInput) []models.Upload {
	if len(in.Requesters) == 0 || in.Budget <= 0 {
		return nil
	}

	contribution := WindowedContribution(in.History, p.window)
	contributed := func(id string) bool {
		return contribution[id] > 0
	}

	contributors := make([]string, 0, len(in.Requesters))
	total := 0
	for _, id := range in.Requesters {
		if contributed(id) {
			contributors = append(contributors, id)
			total += contribution[id]
		}
	}

	a := newAllocator(in.SelfID, in.Budget)
	if len(contributors) == 0 {
		if id, ok := pickOptimistic(in.Requesters, contributed, in.Rand); ok {
			a.grant(id, in.Budget)
		}
		return a.result()
	}

	share := 1.0
	if in.Optimistic {
		share -= p.optimisticShare
	}
	ranked := rankByScore(contributors, func(id string) float64 {
		return float64(contribution[id])
	}, in.Rand)
	for _, id := range ranked {
		a.grant(id, int(float64(in.Budget)*share*float64(contribution[id])/float64(total)))
	}

	if in.Optimistic {
		if id, ok := pickOptimistic(in.Requesters, contributed, in.Rand); ok {
			a.grant(id, a.budget.left)
		}
	}

	return a.result()
}
