package simulate

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/meerkat/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends logs to stdout and to logFile. If logFile is empty,
// a timestamped filename is generated. The returned closer flushes the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "league_sim_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Meerkat League Simulator
========================

Plays a full competition against a running league server and checks the
standings it reports against a local recomputation.

Usage:
  go run ./cmd/league-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -players int
        Number of predicting wallets (default 10)
  -games int
        Number of games to schedule (default 5)
  -workers int
        Number of concurrent submitters (default 4)
  -seed uint
        Seed for forecasts and results (default: current time)
  -delete
        Delete the second game before scoring
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Log file for run output (default: league_sim_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/league-sim -players 50 -games 10
  go run ./cmd/league-sim -delete -seed 42 -url http://localhost:8080
`)
}
