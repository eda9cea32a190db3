package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/WendelHime/tftsim/internal/decoder"
	"github.com/WendelHime/tftsim/internal/shared/models"
	"github.com/WendelHime/tftsim/internal/sim"
	"github.com/WendelHime/tftsim/internal/strategy"
	"github.com/spf13/afero"
)

func main() {
	defaults := strategy.DefaultConfig()
	cfg := defaults

	var torrentPath string
	var reportPath string
	var mix string
	var policy string
	var seeds int
	var rounds int
	var seed int64
	layout := models.Layout{}
	flag.StringVar(&torrentPath, "torrent", "", "Optional torrent file the swarm layout is derived from")
	flag.IntVar(&layout.NumPieces, "pieces", 16, "Number of pieces, ignored with -torrent")
	flag.IntVar(&layout.BlocksPerPiece, "blocks", defaults.BlocksPerPiece, "Blocks per piece, ignored with -torrent")
	flag.StringVar(&mix, "peers", "tyrant=4,even-split=4", "Leecher mix as policy=count,...")
	flag.StringVar(&policy, "seed-policy", string(defaults.Policy), "Upload policy of the seeds")
	flag.IntVar(&seeds, "seeds", 1, "Number of seeds holding every piece")
	flag.IntVar(&rounds, "rounds", 1000, "Maximum number of rounds")
	flag.Int64Var(&seed, "seed", 1, "Random seed")
	flag.IntVar(&cfg.UpBW, "upbw", defaults.UpBW, "Upload budget per peer per round, in blocks")
	flag.IntVar(&cfg.MaxRequests, "max-requests", defaults.MaxRequests, "Maximum requests per neighbour per round")
	flag.IntVar(&cfg.Slots, "slots", defaults.Slots, "Upload slots per round")
	flag.IntVar(&cfg.Window, "window", defaults.Window, "Rounds of history the contribution window covers")
	flag.IntVar(&cfg.UnchokePeriod, "unchoke-period", defaults.UnchokePeriod, "Rounds between optimistic unchokes, 0 disables them")
	flag.BoolVar(&cfg.StopWhenComplete, "stop-when-complete", false, "Stop uploading once a peer holds every piece")
	flag.StringVar(&reportPath, "report", "report.csv", "Path of the CSV report")
	flag.Parse()

	// Create a new logger and generate log file
	logOut, err := os.Create("log.txt")
	if err != nil {
		panic(err)
	}
	defer logOut.Close()
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))

	fs := afero.NewOsFs()
	if torrentPath != "" {
		layout, err = layoutFromTorrent(fs, torrentPath, logger)
		if err != nil {
			logger.Error("failed to read torrent", slog.Any("error", err))
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	cfg.Policy = strategy.PolicyKind(policy)
	if !slices.Contains(strategy.PolicyKinds(), cfg.Policy) {
		fmt.Fprintf(os.Stderr, "%v: %s\n", strategy.ErrUnknownPolicy, policy)
		os.Exit(2)
	}
	entries, err := sim.ParseMix(mix)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	simulator, err := sim.NewSimulator(layout, sim.BuildSwarm(cfg, seeds, entries), logger,
		sim.WithSeed(seed),
		sim.WithMaxRounds(rounds),
		sim.WithProgress(os.Stderr))
	if err != nil {
		logger.Error("failed to create simulator", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := simulator.Run(ctx)
	if err != nil {
		logger.Error("simulation interrupted", slog.Any("error", err))
	}

	if err := sim.WriteReport(fs, reportPath, report); err != nil {
		logger.Error("failed to write report", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printSummary(report)
}

func layoutFromTorrent(fs afero.Fs, path string, logger *slog.Logger) (models.Layout, error) {
	f, err := fs.Open(path)
	if err != nil {
		return models.Layout{}, err
	}
	defer f.Close()

	meta, err := decoder.NewDecoder(logger).Decode(f)
	if err != nil {
		return models.Layout{}, err
	}
	return meta.Layout(), nil
}

func printSummary(report sim.Report) {
	fmt.Printf("\nrounds: %d, all complete: %t, budget overshoots: %d\n", report.Rounds, report.AllComplete(), report.Overshoots())

	averages := report.ByPolicy()
	kinds := make([]string, 0, len(averages))
	for kind := range averages {
		kinds = append(kinds, string(kind))
	}
	slices.Sort(kinds)
	fmt.Println(strings.Repeat("-", 32))
	for _, kind := range kinds {
		fmt.Printf("%-14s %8.1f rounds\n", kind, averages[strategy.PolicyKind(kind)])
	}
}
