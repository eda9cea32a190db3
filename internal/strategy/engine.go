package strategy

import (
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/WendelHime/tftsim/internal/shared/models"
)

// Strategy is what the round driver needs from a peer: requests first, then
// uploads, once per round.
type Strategy interface {
	SelectRequests(self models.PieceState, peers []models.PeerSnapshot, history models.History) []models.Request
	SelectUploads(requests []models.Request, peers []models.PeerSnapshot, history models.History) []models.Upload
}

// Engine is the decision logic of one peer. It is not safe for concurrent
// use; distinct engines are independent.
type Engine struct {
	id     string
	cfg    Config
	rng    *rand.Rand
	policy UploadPolicy
	log    *slog.Logger

	complete bool
}

type Option func(*Engine)

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.log = logger
	}
}

// WithPolicy replaces the policy named in the config.
func WithPolicy(policy UploadPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

func NewEngine(id string, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{id: id, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}

	if e.policy == nil {
		policy, err := NewPolicy(cfg)
		if err != nil {
			return nil, err
		}
		e.policy = policy
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.log = e.log.With(slog.String("peer", id), slog.String("policy", string(e.policy.Name())))

	return e, nil
}

func (e *Engine) ID() string {
	return e.id
}

func (e *Engine) Policy() UploadPolicy {
	return e.policy
}

func (e *Engine) SelectRequests(self models.PieceState, peers []models.PeerSnapshot, history models.History) []models.Request {
	needed := models.NewPieceSet(self.Needed(e.cfg.BlocksPerPiece)...)
	e.complete = needed.IsEmpty()
	if e.complete {
		return nil
	}

	peers = models.WithoutPeer(peers, e.id)
	rarity := EstimateRarity(peers)
	requests := SelectPieces(e.id, self, needed, peers, rarity, e.cfg.MaxRequests, e.rng)

	e.log.Debug("selected requests",
		slog.Int("round", history.CurrentRound()),
		slog.Int("needed", needed.Cardinality()),
		slog.Int("requests", len(requests)))
	return requests
}

func (e *Engine) SelectUploads(requests []models.Request, peers []models.PeerSnapshot, history models.History) []models.Upload {
	peers = models.WithoutPeer(peers, e.id)
	if observer, ok := e.policy.(Observer); ok {
		observer.Observe(peers, history)
	}

	if e.cfg.StopWhenComplete && e.complete {
		return nil
	}

	requesters, need := e.requesters(requests)
	if len(requesters) == 0 {
		return nil
	}

	round := history.CurrentRound()
	uploads := e.policy.Allocate(AllocationInput{
		SelfID:     e.id,
		Requesters: requesters,
		Need:       need,
		Peers:      peers,
		History:    history,
		Budget:     e.cfg.UpBW,
		Optimistic: e.cfg.optimisticRound(round),
		Rand:       e.rng,
	})
	uploads = e.enforce(uploads, need)

	e.log.Debug("selected uploads",
		slog.Int("round", round),
		slog.Int("requesters", len(requesters)),
		slog.Int("bandwidth", models.TotalBandwidth(uploads)),
		slog.Any("uploads", uploads))
	return uploads
}

// requesters returns the distinct neighbours asking this peer for data, in
// order of first request, with how many requests each sent.
func (e *Engine) requesters(requests []models.Request) ([]string, map[string]int) {
	need := make(map[string]int)
	requesters := make([]string, 0)
	for _, r := range requests {
		if r.RequesterID == e.id || r.RequesterID == "" {
			continue
		}
		if r.ProviderID != "" && r.ProviderID != e.id {
			continue
		}
		if _, ok := need[r.RequesterID]; !ok {
			requesters = append(requesters, r.RequesterID)
		}
		need[r.RequesterID]++
	}
	return requesters, need
}

// enforce drops uploads no requester asked for and trims the round to the
// budget. Policies already guarantee both; anything caught here is a bug.
func (e *Engine) enforce(uploads []models.Upload, need map[string]int) []models.Upload {
	left := e.cfg.UpBW
	valid := make([]models.Upload, 0, len(uploads))
	for _, u := range uploads {
		if _, ok := need[u.ToID]; !ok || u.ToID == e.id || u.BW <= 0 {
			e.log.Error("dropping invalid upload", slog.Any("upload", u))
			continue
		}
		if u.BW > left {
			e.log.Error("upload exceeds remaining budget", slog.Any("upload", u), slog.Int("left", left))
			u.BW = left
		}
		if u.BW == 0 {
			continue
		}
		u.FromID = e.id
		left -= u.BW
		valid = append(valid, u)
	}
	return valid
}
