package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/meerkat/internal/simulate"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL    = flag.String("url", simulate.DefaultBaseURL, "Base URL of the service")
		players    = flag.Int("players", simulate.DefaultPlayers, "Number of predicting wallets")
		games      = flag.Int("games", simulate.DefaultGames, "Number of games to schedule")
		workers    = flag.Int("workers", simulate.DefaultWorkers, "Number of concurrent submitters")
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for forecasts and results")
		deleteGame = flag.Bool("delete", false, "Delete the second game before scoring")
		timeout    = flag.Duration("timeout", simulate.DefaultTimeout, "HTTP request timeout")
		logFile    = flag.String("log", "", "Log file for run output (default: league_sim_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closer, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)

	_, err = simulate.Run(ctx, &simulate.Config{
		BaseURL:    *baseURL,
		Players:    *players,
		Games:      *games,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		DeleteGame: *deleteGame,
		LogFile:    *logFile,
		Verbose:    *verbose,
	})
	cancel()
	_ = closer.Close()

	if err != nil {
		_, _ = os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
