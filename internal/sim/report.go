package sim

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/WendelHime/tftsim/internal/strategy"
	"github.com/spf13/afero"
)

type PeerReport struct {
	ID     string
	Policy strategy.PolicyKind
	Seed   bool
	// CompletedRound is -1 for peers that never finished.
	CompletedRound   int
	CompletedPieces  int
	Downloaded       int
	Uploaded         int
	BudgetOvershoots int
}

type Report struct {
	Rounds int
	Peers  []PeerReport
}

func (r Report) AllComplete() bool {
	for _, p := range r.Peers {
		if p.CompletedRound < 0 && !p.Seed {
			return false
		}
	}
	return true
}

func (r Report) Overshoots() int {
	total := 0
	for _, p := range r.Peers {
		total += p.BudgetOvershoots
	}
	return total
}

// ByPolicy averages the completion round of leechers per policy. Peers that
// never finished count as finishing at r.Rounds.
func (r Report) ByPolicy() map[strategy.PolicyKind]float64 {
	sums := make(map[strategy.PolicyKind]int)
	counts := make(map[strategy.PolicyKind]int)
	for _, p := range r.Peers {
		if p.Seed {
			continue
		}
		round := p.CompletedRound
		if round < 0 {
			round = r.Rounds
		}
		sums[p.Policy] += round
		counts[p.Policy]++
	}

	averages := make(map[strategy.PolicyKind]float64, len(sums))
	for kind, sum := range sums {
		averages[kind] = float64(sum) / float64(counts[kind])
	}
	return averages
}

var reportHeader = []string{"peer", "policy", "seed", "completed_round", "completed_pieces", "downloaded", "uploaded", "budget_overshoots"}

// WriteReport writes one CSV row per peer to path on fs.
func WriteReport(fs afero.Fs, path string, r Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report dir: %w", err)
		}
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return err
	}
	for _, p := range r.Peers {
		err := w.Write([]string{
			p.ID,
			string(p.Policy),
			strconv.FormatBool(p.Seed),
			strconv.Itoa(p.CompletedRound),
			strconv.Itoa(p.CompletedPieces),
			strconv.Itoa(p.Downloaded),
			strconv.Itoa(p.Uploaded),
			strconv.Itoa(p.BudgetOvershoots),
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
