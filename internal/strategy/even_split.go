package strategy

import "github.com/WendelHime/tftsim/internal/shared/models"

// EvenSplit splits the budget into a fixed number of equal slots and gives
// them to the requesters that contributed most over the window. In
// optimistic rounds one slot goes to a random requester instead, unless
// there is only one slot.
type EvenSplit struct {
	window int
	slots  int
}

func NewEvenSplit(window, slots int) *EvenSplit {
	return &EvenSplit{window: window, slots: slots}
}

func (p *EvenSplit) Name() PolicyKind {
	return PolicyEvenSplit
}

func (p *EvenSplit) Allocate(in AllocationInput) []models.Upload {
	if len(in.Requesters) == 0 || in.Budget <= 0 {
		return nil
	}

	contribution := WindowedContribution(in.History, p.window)
	shares := evenSplit(in.Budget, p.slots)
	a := newAllocator(in.SelfID, in.Budget)

	rankedSlots := p.slots
	if in.Optimistic && p.slots > 1 {
		rankedSlots--
	}
	optimisticSlots := 0
	if in.Optimistic {
		optimisticSlots = 1
	}
	if in.Round() == 0 {
		// nothing to rank on yet, every slot is picked at random
		rankedSlots = 0
		optimisticSlots = p.slots
	}

	slot := 0
	ranked := rankByScore(in.Requesters, func(id string) float64 {
		return float64(contribution[id])
	}, in.Rand)
	for _, id := range ranked {
		if slot >= rankedSlots {
			break
		}
		a.grant(id, shares[slot])
		slot++
	}

	for ; optimisticSlots > 0 && slot < p.slots; optimisticSlots-- {
		id, ok := pickOptimistic(in.Requesters, a.funded, in.Rand)
		if !ok {
			break
		}
		a.grant(id, shares[slot])
		slot++
	}

	return a.result()
}
