package strategy

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid strategy config")
var ErrUnknownPolicy = errors.New("unknown upload policy")

// PolicyKind names one of the built-in upload policies.
type PolicyKind string

const (
	PolicyEvenSplit    PolicyKind = "even-split"
	PolicyProportional PolicyKind = "proportional"
	PolicyPriority     PolicyKind = "priority"
	PolicyTyrant       PolicyKind = "tyrant"
)

func PolicyKinds() []PolicyKind {
	return []PolicyKind{PolicyEvenSplit, PolicyProportional, PolicyPriority, PolicyTyrant}
}

type Config struct {
	BlocksPerPiece int
	// MaxRequests caps the requests sent to any single neighbour per round.
	MaxRequests int
	// UpBW is the upload budget per round, in blocks.
	UpBW   int
	Policy PolicyKind

	// Window is how many past rounds the windowed contribution sums over.
	Window int
	// Slots is the number of upload slots the budget is split into.
	Slots int
	// UnchokePeriod grants an optimistic slot every UnchokePeriod rounds.
	// Zero disables optimistic unchoking outside the empty-history fallback.
	UnchokePeriod int
	// OptimisticShare is the budget fraction kept back for the optimistic
	// peer by the proportional policy.
	OptimisticShare float64

	Alpha               float64
	Gamma               float64
	ReciprocationRounds int

	// StopWhenComplete stops all uploads once every own piece is complete.
	StopWhenComplete bool
}

func DefaultConfig() Config {
	return Config{
		BlocksPerPiece:      4,
		MaxRequests:         5,
		UpBW:                4,
		Policy:              PolicyEvenSplit,
		Window:              2,
		Slots:               4,
		UnchokePeriod:       1,
		OptimisticShare:     0.1,
		Alpha:               0.2,
		Gamma:               0.1,
		ReciprocationRounds: 3,
	}
}

func (c Config) Validate() error {
	switch {
	case c.BlocksPerPiece <= 0:
		return fmt.Errorf("%w: blocks per piece must be positive, got %d", ErrInvalidConfig, c.BlocksPerPiece)
	case c.MaxRequests < 0:
		return fmt.Errorf("%w: max requests must not be negative, got %d", ErrInvalidConfig, c.MaxRequests)
	case c.UpBW < 0:
		return fmt.Errorf("%w: upload bandwidth must not be negative, got %d", ErrInvalidConfig, c.UpBW)
	case c.Window < 1 || c.Window > 3:
		return fmt.Errorf("%w: window must be between 1 and 3 rounds, got %d", ErrInvalidConfig, c.Window)
	case c.Slots < 1:
		return fmt.Errorf("%w: slots must be positive, got %d", ErrInvalidConfig, c.Slots)
	case c.UnchokePeriod < 0:
		return fmt.Errorf("%w: unchoke period must not be negative, got %d", ErrInvalidConfig, c.UnchokePeriod)
	case c.OptimisticShare < 0 || c.OptimisticShare >= 1:
		return fmt.Errorf("%w: optimistic share must be in [0, 1), got %v", ErrInvalidConfig, c.OptimisticShare)
	case c.Alpha < 0:
		return fmt.Errorf("%w: alpha must not be negative, got %v", ErrInvalidConfig, c.Alpha)
	case c.Gamma < 0 || c.Gamma >= 1:
		return fmt.Errorf("%w: gamma must be in [0, 1), got %v", ErrInvalidConfig, c.Gamma)
	case c.ReciprocationRounds < 1:
		return fmt.Errorf("%w: reciprocation rounds must be positive, got %d", ErrInvalidConfig, c.ReciprocationRounds)
	}
	return nil
}

// optimisticRound reports whether round carries an optimistic slot.
func (c Config) optimisticRound(round int) bool {
	return c.UnchokePeriod > 0 && round%c.UnchokePeriod == 0
}
