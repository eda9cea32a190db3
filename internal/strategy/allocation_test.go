package strategy

import (
	"math/rand"
	"testing"

	"github.com/WendelHime/tftsim/internal/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocationInput(history models.History, budget int, optimistic bool, requesters ...string) AllocationInput {
	need := make(map[string]int, len(requesters))
	for _, id := range requesters {
		need[id] = 1
	}
	return AllocationInput{
		SelfID:     "self",
		Requesters: requesters,
		Need:       need,
		History:    history,
		Budget:     budget,
		Optimistic: optimistic,
		Rand:       rand.New(rand.NewSource(1)),
	}
}

func byRecipient(uploads []models.Upload) map[string]int {
	bw := make(map[string]int, len(uploads))
	for _, u := range uploads {
		bw[u.ToID] += u.BW
	}
	return bw
}

func TestEvenSplitHelper(t *testing.T) {
	assert.Equal(t, []int{3}, evenSplit(3, 1))
	assert.Equal(t, []int{3, 3, 2, 2}, evenSplit(10, 4))
	assert.Equal(t, []int{1, 1, 0, 0}, evenSplit(2, 4))
	assert.Nil(t, evenSplit(5, 0))
}

func TestBudgetNeverGoesNegative(t *testing.T) {
	b := budget{left: 3}
	assert.Equal(t, 2, b.take(2))
	assert.Equal(t, 1, b.take(5))
	assert.Equal(t, 0, b.take(1))
	assert.Equal(t, 0, b.take(-1))
	assert.True(t, b.exhausted())
	assert.Zero(t, b.left)
}

func TestEvenSplit(t *testing.T) {
	lastRound := historyOf([]models.Download{
		{FromID: "a", ToID: "self", Blocks: 5},
		{FromID: "b", ToID: "self", Blocks: 4},
		{FromID: "c", ToID: "self", Blocks: 3},
	})

	var tests = []struct {
		name   string
		policy *EvenSplit
		input  AllocationInput
		assert func(t *testing.T, actual map[string]int)
	}{
		{
			name:   "single slot goes to the highest contributor",
			policy: NewEvenSplit(1, 1),
			input: allocationInput(historyOf([]models.Download{
				{FromID: "p10", ToID: "self", Blocks: 10},
				{FromID: "p5", ToID: "self", Blocks: 5},
			}), 3, true, "p5", "p10"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"p10": 3}, actual)
			},
		},
		{
			name:   "optimistic round gives the last slot to an unranked requester",
			policy: NewEvenSplit(1, 4),
			input:  allocationInput(lastRound, 8, true, "d", "c", "b", "a", "e"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, 2, actual["a"])
				assert.Equal(t, 2, actual["b"])
				assert.Equal(t, 2, actual["c"])
				assert.Equal(t, 2, actual["d"]+actual["e"])
				assert.Len(t, actual, 4)
			},
		},
		{
			name:   "empty history picks at random, one share each",
			policy: NewEvenSplit(2, 4),
			input:  allocationInput(models.History{}, 4, false, "a", "b"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"a": 1, "b": 1}, actual)
			},
		},
		{
			name:   "no requesters",
			policy: NewEvenSplit(2, 4),
			input:  allocationInput(lastRound, 4, true),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Empty(t, actual)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			uploads := tt.policy.Allocate(tt.input)
			assert.LessOrEqual(t, models.TotalBandwidth(uploads), tt.input.Budget)
			tt.assert(t, byRecipient(uploads))
		})
	}
}

func TestRatioProportional(t *testing.T) {
	lastRound := historyOf([]models.Download{
		{FromID: "a", ToID: "self", Blocks: 6},
		{FromID: "b", ToID: "self", Blocks: 2},
		{FromID: "z", ToID: "self", Blocks: 10},
	})

	var tests = []struct {
		name   string
		input  AllocationInput
		assert func(t *testing.T, actual map[string]int)
	}{
		{
			name:  "optimistic share goes to a non contributor",
			input: allocationInput(lastRound, 10, true, "a", "b", "c"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"a": 6, "b": 2, "c": 2}, actual)
			},
		},
		{
			name:  "without optimistic round contributors share the whole budget",
			input: allocationInput(lastRound, 10, false, "a", "b", "c"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"a": 7, "b": 2}, actual)
			},
		},
		{
			name:  "no contributors falls back to one random requester",
			input: allocationInput(lastRound, 10, false, "c", "d"),
			assert: func(t *testing.T, actual map[string]int) {
				require.Len(t, actual, 1)
				assert.Equal(t, 10, actual["c"]+actual["d"])
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			uploads := NewRatioProportional(1, 0.1).Allocate(tt.input)
			assert.LessOrEqual(t, models.TotalBandwidth(uploads), tt.input.Budget)
			tt.assert(t, byRecipient(uploads))
		})
	}
}

func TestPriorityWithUnchoke(t *testing.T) {
	h := historyOf(
		[]models.Download{{FromID: "c", ToID: "self", Blocks: 1}},
		[]models.Download{{FromID: "a", ToID: "self", Blocks: 5}},
	)
	withNeed := func(in AllocationInput) AllocationInput {
		in.Need = map[string]int{"a": 2, "b": 3, "c": 1}
		return in
	}

	var tests = []struct {
		name   string
		input  AllocationInput
		assert func(t *testing.T, actual map[string]int)
	}{
		{
			name:  "reserved unit reaches the requester the ranking missed",
			input: withNeed(allocationInput(h, 4, true, "b", "c", "a")),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"a": 2, "c": 1, "b": 1}, actual)
			},
		},
		{
			name:  "fully funded requesters leave the rest of the budget unused",
			input: withNeed(allocationInput(h, 10, false, "b", "c", "a")),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"a": 2, "c": 1, "b": 3}, actual)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			uploads := NewPriorityWithUnchoke(2).Allocate(tt.input)
			assert.LessOrEqual(t, models.TotalBandwidth(uploads), tt.input.Budget)
			tt.assert(t, byRecipient(uploads))
		})
	}
}

func TestRateRatioTyrant(t *testing.T) {
	peers := []models.PeerSnapshot{models.NewPeerSnapshot("a"), models.NewPeerSnapshot("b"), models.NewPeerSnapshot("c")}
	h := historyOf([]models.Download{
		{FromID: "a", ToID: "self", Blocks: 4},
		{FromID: "b", ToID: "self", Blocks: 1},
	})
	newPolicy := func() *RateRatioTyrant {
		p := NewRateRatioTyrant(NewRateTracker(0.2, 0.1, 3), 4)
		p.Observe(peers, models.History{})
		p.Observe(peers, h)
		return p
	}

	var tests = []struct {
		name   string
		input  AllocationInput
		assert func(t *testing.T, actual map[string]int)
	}{
		{
			name:  "free rider only gets the optimistic slot",
			input: allocationInput(h, 8, true, "a", "b", "c"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 2}, actual)
			},
		},
		{
			name:  "free rider gets nothing outside optimistic rounds",
			input: allocationInput(h, 8, false, "a", "b", "c"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"a": 1, "b": 1}, actual)
			},
		},
		{
			name:  "lone free rider gets nothing outside optimistic rounds",
			input: allocationInput(h, 8, false, "c"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Empty(t, actual)
			},
		},
		{
			name:  "lone free rider gets the optimistic slot",
			input: allocationInput(h, 8, true, "c"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"c": 2}, actual)
			},
		},
		{
			name:  "tiny budget is never overshot",
			input: allocationInput(h, 1, true, "a", "b", "c"),
			assert: func(t *testing.T, actual map[string]int) {
				assert.Equal(t, map[string]int{"c": 1}, actual)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p := newPolicy()
			ratioA, ratioB := p.Tracker().Ratio("a"), p.Tracker().Ratio("b")
			require.Greater(t, ratioA, ratioB)

			uploads := p.Allocate(tt.input)
			assert.LessOrEqual(t, models.TotalBandwidth(uploads), tt.input.Budget)
			tt.assert(t, byRecipient(uploads))
		})
	}
}

func TestNewPolicy(t *testing.T) {
	for _, kind := range PolicyKinds() {
		cfg := DefaultConfig()
		cfg.Policy = kind
		policy, err := NewPolicy(cfg)
		require.NoError(t, err)
		assert.Equal(t, kind, policy.Name())
	}

	cfg := DefaultConfig()
	cfg.Policy = "bogus"
	_, err := NewPolicy(cfg)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
