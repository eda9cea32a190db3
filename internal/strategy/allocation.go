package strategy

import (
	"math/rand"
	"slices"
	"sort"

	"github.com/WendelHime/tftsim/internal/shared/models"
	"github.com/anacrolix/multiless"
)

// UploadPolicy turns the requesters of a round into upload allocations.
// Implementations must never hand out more than in.Budget in total.
type UploadPolicy interface {
	Name() PolicyKind
	Allocate(in AllocationInput) []models.Upload
}

// Observer is implemented by policies that keep state across rounds. The
// engine calls Observe every round, before Allocate and even when nobody
// requested anything.
type Observer interface {
	Observe(peers []models.PeerSnapshot, history models.History)
}

type AllocationInput struct {
	SelfID string
	// Requesters is every distinct neighbour with a pending request, in
	// order of first request.
	Requesters []string
	// Need is how many requests each requester sent this round.
	Need       map[string]int
	Peers      []models.PeerSnapshot
	History    models.History
	Budget     int
	Optimistic bool
	Rand       *rand.Rand
}

func (in AllocationInput) Round() int {
	return in.History.CurrentRound()
}

// NewPolicy builds the built-in policy named by cfg.Policy.
func NewPolicy(cfg Config) (UploadPolicy, error) {
	switch cfg.Policy {
	case PolicyEvenSplit:
		return NewEvenSplit(cfg.Window, cfg.Slots), nil
	case PolicyProportional:
		return NewRatioProportional(cfg.Window, cfg.OptimisticShare), nil
	case PolicyPriority:
		return NewPriorityWithUnchoke(cfg.Window), nil
	case PolicyTyrant:
		return NewRateRatioTyrant(NewRateTracker(cfg.Alpha, cfg.Gamma, cfg.ReciprocationRounds), cfg.Slots), nil
	default:
		return nil, ErrUnknownPolicy
	}
}

// budget hands out bandwidth without ever going below zero.
type budget struct {
	left int
}

// take grants min(want, left) and reports the amount granted.
func (b *budget) take(want int) int {
	if want <= 0 || b.left <= 0 {
		return 0
	}
	granted := min(want, b.left)
	b.left -= granted
	return granted
}

func (b *budget) exhausted() bool {
	return b.left <= 0
}

// allocator accumulates uploads for one round, one entry per recipient.
type allocator struct {
	selfID  string
	budget  budget
	uploads []models.Upload
	index   map[string]int
}

func newAllocator(selfID string, total int) *allocator {
	return &allocator{selfID: selfID, budget: budget{left: total}, index: make(map[string]int)}
}

// grant gives up to want units to id and reports the amount granted.
func (a *allocator) grant(id string, want int) int {
	granted := a.budget.take(want)
	if granted == 0 {
		return 0
	}
	if i, ok := a.index[id]; ok {
		a.uploads[i].BW += granted
		return granted
	}
	a.index[id] = len(a.uploads)
	a.uploads = append(a.uploads, models.Upload{FromID: a.selfID, ToID: id, BW: granted})
	return granted
}

func (a *allocator) funded(id string) bool {
	_, ok := a.index[id]
	return ok
}

func (a *allocator) result() []models.Upload {
	return a.uploads
}

// rankByScore orders ids by descending score. Ties are broken by a random
// draw per id.
func rankByScore(ids []string, score func(id string) float64, rng *rand.Rand) []string {
	ranked := slices.Clone(ids)
	draw := make(map[string]int64, len(ranked))
	for _, id := range ranked {
		draw[id] = rng.Int63()
	}
	sort.Slice(ranked, func(i, j int) bool {
		var ml multiless.Computation
		ml = ml.Float64(score(ranked[j]), score(ranked[i]))
		ml = ml.Int64(draw[ranked[i]], draw[ranked[j]])
		return ml.Less()
	})
	return ranked
}

// pickOptimistic chooses uniformly among the candidates not yet selected.
func pickOptimistic(candidates []string, selected func(id string) bool, rng *rand.Rand) (string, bool) {
	pool := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if !selected(id) {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		return "", false
	}
	return pool[rng.Intn(len(pool))], true
}

// evenSplit splits total into parts shares that differ by at most one.
func evenSplit(total, parts int) []int {
	if parts <= 0 {
		return nil
	}
	shares := make([]int, parts)
	for i := range shares {
		shares[i] = total / parts
		if i < total%parts {
			shares[i]++
		}
	}
	return shares
}
