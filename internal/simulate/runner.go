package simulate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/internal/domain/scoring"
	"github.com/okian/meerkat/pkg/logger"
)

// Run executes a complete league simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	applyDefaults(cfg)
	if cfg.Players <= 0 || cfg.Games <= 0 {
		return nil, fmt.Errorf("%w: players and games must be positive", ErrInvalidConfig)
	}

	log := logger.Get().Named("simulate")
	report := &Report{Games: cfg.Games, Players: cfg.Players, StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	owner := OwnerWallet()

	log.Info(ctx, "starting league simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("games", cfg.Games),
		logger.Int("workers", cfg.Workers),
		logger.Uint64("seed", cfg.Seed),
		logger.Bool("deleteGame", cfg.DeleteGame),
	)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Learn the server's point values
	engine, err := serverEngine(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("stats retrieval failed: %w", err)
	}

	// Step 3: Create the competition and schedule games
	cid, err := client.CreateCompetition(ctx, owner, fmt.Sprintf("simulation-%d", cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("competition creation failed: %w", err)
	}
	report.CompetitionID = cid

	fixtures, forecasts := plan(cfg, time.Now().Add(kickoffLead))
	for i := range fixtures {
		f := &fixtures[i]
		if f.ID, err = client.AddGame(ctx, owner, cid, f.Home, f.Away, f.Start); err != nil {
			return nil, fmt.Errorf("game creation failed: %w", err)
		}
	}
	log.Info(ctx, "games scheduled", logger.Uint64("competition_id", cid), logger.Int("games", len(fixtures)))

	// Step 4: Submit forecasts concurrently
	book := submitForecasts(ctx, cfg, client, cid, fixtures, forecasts, report)

	// Step 5: Record results
	for _, f := range fixtures {
		if err := client.FinalizeGame(ctx, owner, cid, f); err != nil {
			return nil, fmt.Errorf("game finalization failed: %w", err)
		}
	}

	// Step 6: Optionally delete a game
	if cfg.DeleteGame && len(fixtures) > 1 {
		report.DeletedGameID = fixtures[1].ID
		if err := client.DeleteGame(ctx, owner, cid, report.DeletedGameID); err != nil {
			return nil, fmt.Errorf("game deletion failed: %w", err)
		}
	}

	// Step 7: Fetch and verify standings
	standings, err := client.Points(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("points retrieval failed: %w", err)
	}
	report.Standings = standings

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	want := expectedStandings(engine, fixtures, report.DeletedGameID, book)
	if err := verifyStandings(ctx, standings, want); err != nil {
		return report, err
	}

	displayReport(ctx, report)
	return report, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}

// serverEngine builds a scoring engine with the point values the server reports.
func serverEngine(ctx context.Context, client *Client) (*scoring.Engine, error) {
	stats, err := client.Stats(ctx)
	if err != nil {
		return nil, err
	}
	exact, _ := stats["exactScorePoints"].(float64)
	outcome, _ := stats["correctOutcomePoints"].(float64)
	return scoring.NewEngine(
		scoring.WithExactScorePoints(int(exact)),
		scoring.WithCorrectOutcomePoints(int(outcome)),
	), nil
}

// submitForecasts sends forecasts with a worker pool and returns the
// accepted ones.
func submitForecasts(ctx context.Context, cfg *Config, client *Client, cid uint64, fixtures []Fixture, forecasts []Forecast, report *Report) *localBook {
	log := logger.Get().Named("simulate")
	book := newLocalBook()

	var (
		mu        sync.Mutex
		submitted int64
		failed    int64
		wg        sync.WaitGroup
	)

	work := make(chan Forecast, cfg.Workers*2)
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fc := range work {
				gid := fixtures[fc.Fixture].ID
				if err := client.Predict(ctx, fc.Player, cid, gid, fc.HomeScore, fc.AwayScore); err != nil {
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "prediction failed", logger.String("player", fc.Player), logger.Error(err))
					continue
				}
				atomic.AddInt64(&submitted, 1)

				mu.Lock()
				book.add(model.NormalizeAddress(fc.Player), model.Prediction{
					GameID:    gid,
					HomeScore: fc.HomeScore,
					AwayScore: fc.AwayScore,
				})
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(work)
		for _, fc := range forecasts {
			select {
			case <-ctx.Done():
				return
			case work <- fc:
			}
		}
	}()

	wg.Wait()

	report.PredictionsSubmitted = int(atomic.LoadInt64(&submitted))
	report.PredictionsFailed = int(atomic.LoadInt64(&failed))
	log.Info(ctx, "forecasts submitted",
		logger.Int("accepted", report.PredictionsSubmitted),
		logger.Int("failed", report.PredictionsFailed),
	)
	return book
}

// displayReport logs the final run summary.
func displayReport(ctx context.Context, r *Report) {
	log := logger.Get().Named("simulate")
	log.Info(ctx, "final statistics",
		logger.Uint64("competition_id", r.CompetitionID),
		logger.Int("games", r.Games),
		logger.Int("players", r.Players),
		logger.Int("predictionsSubmitted", r.PredictionsSubmitted),
		logger.Int("predictionsFailed", r.PredictionsFailed),
		logger.Uint64("deletedGame", r.DeletedGameID),
		logger.Duration("duration", r.Duration),
	)
	for _, s := range r.Standings {
		log.Info(ctx, "standing",
			logger.String("user", s.User),
			logger.Int("score", s.Score),
			logger.Int("correctPredictions", s.CorrectPredictions),
			logger.Int("correctOutcomes", s.CorrectOutcomes),
			logger.Int("totalPredictions", s.TotalNumberOfPredictions),
		)
	}
}
