package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/WendelHime/tftsim/internal/shared/models"
	"github.com/WendelHime/tftsim/internal/strategy"
	bitmap "github.com/boljen/go-bitmap"
	"github.com/schollz/progressbar/v3"
)

var ErrNoPeers = errors.New("no peers in swarm")
var ErrDuplicatePeer = errors.New("duplicate peer id")

// PeerSpec describes one swarm member before the run starts.
type PeerSpec struct {
	ID     string
	Seed   bool
	Config strategy.Config
}

type Simulator interface {
	Run(ctx context.Context) (Report, error)
}

type peer struct {
	spec    PeerSpec
	engine  strategy.Strategy
	pieces  models.PieceState
	have    bitmap.Bitmap
	history models.History

	// completedRound stays -1 for seeds
	completedRound int
	uploaded       int
	downloaded     int
	overshoots     int
}

func (p *peer) complete(blocksPerPiece int) bool {
	return p.pieces.Complete(blocksPerPiece)
}

func (p *peer) snapshot(numPieces int) models.PeerSnapshot {
	pieces := make([]int, 0, numPieces)
	for i := 0; i < numPieces; i++ {
		if p.have.Get(i) {
			pieces = append(pieces, i)
		}
	}
	return models.NewPeerSnapshot(p.spec.ID, pieces...)
}

type simulator struct {
	layout    models.Layout
	peers     []*peer
	byID      map[string]*peer
	log       *slog.Logger
	maxRounds int
	seed      int64
	progress  io.Writer
}

type Option func(*simulator)

func WithMaxRounds(rounds int) Option {
	return func(s *simulator) {
		s.maxRounds = rounds
	}
}

// WithSeed makes every engine draw from a source derived from seed.
func WithSeed(seed int64) Option {
	return func(s *simulator) {
		s.seed = seed
	}
}

func WithProgress(w io.Writer) Option {
	return func(s *simulator) {
		s.progress = w
	}
}

func NewSimulator(layout models.Layout, specs []PeerSpec, logger *slog.Logger, opts ...Option) (Simulator, error) {
	if len(specs) == 0 {
		return nil, ErrNoPeers
	}

	s := &simulator{
		layout:    layout,
		byID:      make(map[string]*peer, len(specs)),
		log:       logger,
		maxRounds: 1000,
		progress:  io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, spec := range specs {
		if _, ok := s.byID[spec.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePeer, spec.ID)
		}
		spec.Config.BlocksPerPiece = layout.BlocksPerPiece
		engine, err := strategy.NewEngine(spec.ID, spec.Config,
			strategy.WithRand(rand.New(rand.NewSource(s.seed+int64(i)))),
			strategy.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("peer %s: %w", spec.ID, err)
		}

		p := &peer{
			spec:           spec,
			engine:         engine,
			pieces:         models.NewPieceState(layout.NumPieces),
			have:           bitmap.New(layout.NumPieces),
			completedRound: -1,
		}
		if spec.Seed {
			for piece := range p.pieces {
				p.pieces[piece] = layout.BlocksPerPiece
				p.have.Set(piece, true)
			}
		}
		s.peers = append(s.peers, p)
		s.byID[spec.ID] = p
	}

	return s, nil
}

func (s *simulator) Run(ctx context.Context) (Report, error) {
	s.log.Info("starting simulation",
		slog.Int("peers", len(s.peers)),
		slog.Int("pieces", s.layout.NumPieces),
		slog.Int("blocks_per_piece", s.layout.BlocksPerPiece),
		slog.Int("max_rounds", s.maxRounds))

	bar := progressbar.NewOptions(s.maxRounds,
		progressbar.OptionSetWriter(s.progress),
		progressbar.OptionSetDescription("simulating rounds"),
		progressbar.OptionShowCount())

	rounds := 0
	for round := 0; round < s.maxRounds && !s.done(); round++ {
		if err := ctx.Err(); err != nil {
			return s.report(rounds), err
		}
		s.round(round)
		rounds++
		bar.Add(1)
	}
	bar.Finish()

	report := s.report(rounds)
	s.log.Info("simulation finished",
		slog.Int("rounds", rounds),
		slog.Bool("all_complete", report.AllComplete()),
		slog.Int("budget_overshoots", report.Overshoots()))
	return report, nil
}

func (s *simulator) done() bool {
	for _, p := range s.peers {
		if !p.complete(s.layout.BlocksPerPiece) {
			return false
		}
	}
	return true
}

func (s *simulator) snapshots() []models.PeerSnapshot {
	snapshots := make([]models.PeerSnapshot, len(s.peers))
	for i, p := range s.peers {
		snapshots[i] = p.snapshot(s.layout.NumPieces)
	}
	return snapshots
}

// round runs one request/upload/transfer cycle. Engines decide in parallel,
// each one on its own goroutine; transfers are applied sequentially.
func (s *simulator) round(round int) {
	snapshots := s.snapshots()

	requests := make([][]models.Request, len(s.peers))
	var wg sync.WaitGroup
	wg.Add(len(s.peers))
	for i, p := range s.peers {
		i, p := i, p
		go func() {
			defer wg.Done()
			requests[i] = p.engine.SelectRequests(p.pieces.Clone(), snapshots, p.history)
		}()
	}
	wg.Wait()

	incoming := make(map[string][]models.Request)
	for _, rs := range requests {
		for _, r := range rs {
			incoming[r.ProviderID] = append(incoming[r.ProviderID], r)
		}
	}

	uploads := make([][]models.Upload, len(s.peers))
	wg.Add(len(s.peers))
	for i, p := range s.peers {
		i, p := i, p
		go func() {
			defer wg.Done()
			uploads[i] = p.engine.SelectUploads(incoming[p.spec.ID], snapshots, p.history)
		}()
	}
	wg.Wait()

	downloads := s.transfer(round, requests, uploads)

	for i, p := range s.peers {
		p.history.Append(downloads[p.spec.ID], uploads[i])
		for piece, blocks := range p.pieces {
			if blocks >= s.layout.BlocksPerPiece {
				p.have.Set(piece, true)
			}
		}
		if !p.spec.Seed && p.completedRound < 0 && p.complete(s.layout.BlocksPerPiece) {
			p.completedRound = round
			s.log.Info("peer completed", slog.String("peer", p.spec.ID), slog.Int("round", round))
		}
	}
}

// transfer serves every upload against the requests its recipient sent to
// the uploader, in request order, one block per bandwidth unit.
func (s *simulator) transfer(round int, requests [][]models.Request, uploads [][]models.Upload) map[string][]models.Download {
	index := make(map[string]int, len(s.peers))
	for i, p := range s.peers {
		index[p.spec.ID] = i
	}

	downloads := make(map[string][]models.Download)
	for i, from := range s.peers {
		if total := models.TotalBandwidth(uploads[i]); total > from.spec.Config.UpBW {
			from.overshoots++
			s.log.Error("upload budget exceeded",
				slog.String("peer", from.spec.ID),
				slog.Int("round", round),
				slog.Int("allocated", total),
				slog.Int("budget", from.spec.Config.UpBW))
		}

		for _, u := range uploads[i] {
			to, ok := s.byID[u.ToID]
			if !ok || to == from {
				s.log.Warn("upload to unknown peer or to self", slog.String("peer", from.spec.ID), slog.Any("upload", u))
				continue
			}

			left := u.BW
			for _, r := range requests[index[to.spec.ID]] {
				if left <= 0 {
					break
				}
				if r.ProviderID != from.spec.ID || !from.have.Get(r.PieceID) {
					continue
				}
				blocks := min(left, s.layout.BlocksPerPiece-to.pieces[r.PieceID])
				if blocks <= 0 {
					continue
				}
				to.pieces[r.PieceID] += blocks
				left -= blocks
				from.uploaded += blocks
				to.downloaded += blocks
				downloads[to.spec.ID] = append(downloads[to.spec.ID], models.Download{
					FromID:  from.spec.ID,
					ToID:    to.spec.ID,
					PieceID: r.PieceID,
					Blocks:  blocks,
				})
			}
		}
	}
	return downloads
}

func (s *simulator) report(rounds int) Report {
	report := Report{Rounds: rounds, Peers: make([]PeerReport, 0, len(s.peers))}
	for _, p := range s.peers {
		report.Peers = append(report.Peers, PeerReport{
			ID:               p.spec.ID,
			Policy:           p.spec.Config.Policy,
			Seed:             p.spec.Seed,
			CompletedRound:   p.completedRound,
			CompletedPieces:  p.pieces.CompletedPieces(s.layout.BlocksPerPiece),
			Downloaded:       p.downloaded,
			Uploaded:         p.uploaded,
			BudgetOvershoots: p.overshoots,
		})
	}
	return report
}
