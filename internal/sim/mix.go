package sim

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/WendelHime/tftsim/internal/strategy"
)

var ErrInvalidMix = errors.New("invalid peer mix")

// MixEntry is one "policy=count" term of a peer mix.
type MixEntry struct {
	Policy strategy.PolicyKind
	Count  int
}

// ParseMix parses a comma separated list such as "tyrant=3,even-split=2".
// Entries keep their order; repeating a policy adds to its count.
func ParseMix(mix string) ([]MixEntry, error) {
	entries := make([]MixEntry, 0)
	for _, term := range strings.Split(mix, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		kind, count, ok := strings.Cut(term, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not policy=count", ErrInvalidMix, term)
		}
		policy := strategy.PolicyKind(strings.TrimSpace(kind))
		if !slices.Contains(strategy.PolicyKinds(), policy) {
			return nil, fmt.Errorf("%w: %w: %s", ErrInvalidMix, strategy.ErrUnknownPolicy, policy)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad count in %q", ErrInvalidMix, term)
		}

		i := slices.IndexFunc(entries, func(e MixEntry) bool { return e.Policy == policy })
		if i >= 0 {
			entries[i].Count += n
			continue
		}
		entries = append(entries, MixEntry{Policy: policy, Count: n})
	}

	total := 0
	for _, e := range entries {
		total += e.Count
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no leechers", ErrInvalidMix)
	}
	return entries, nil
}

// BuildSwarm expands a mix into peer specs: seeds first, named seed0..,
// then leechers named after their policy, e.g. tyrant0.
func BuildSwarm(base strategy.Config, seeds int, mix []MixEntry) []PeerSpec {
	specs := make([]PeerSpec, 0, seeds)
	for i := 0; i < seeds; i++ {
		specs = append(specs, PeerSpec{ID: fmt.Sprintf("seed%d", i), Seed: true, Config: base})
	}
	for _, e := range mix {
		cfg := base
		cfg.Policy = e.Policy
		for i := 0; i < e.Count; i++ {
			specs = append(specs, PeerSpec{ID: fmt.Sprintf("%s%d", e.Policy, i), Config: cfg})
		}
	}
	return specs
}
