// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	changequeue "github.com/okian/meerkat/internal/adapters/mq/queue"
	workerpool "github.com/okian/meerkat/internal/adapters/mq/worker"
	"github.com/okian/meerkat/internal/adapters/publisher"
	"github.com/okian/meerkat/internal/adapters/repository"
	"github.com/okian/meerkat/internal/domain/dedupe"
	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/internal/domain/scoring"
	"github.com/okian/meerkat/pkg/logger"
	"github.com/okian/meerkat/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// competition pairs directory metadata with its ledger.
type competition struct {
	info   model.Competition
	ledger repository.Ledger
}

// Service implements the API dependencies for the prediction league.
type Service struct {
	mu sync.RWMutex // lifecycle and feed components

	// Competition directory; ids start at 1, entry i holds id i+1.
	dirMu        sync.RWMutex
	competitions []*competition

	// Core components
	engine    *scoring.Engine
	standings *repository.StandingsCache
	deduper   dedupe.Deduper
	changes   *changequeue.InMemoryQueue
	pool      *workerpool.Pool
	publisher workerpool.Publisher

	// Configuration
	exactPoints     int
	outcomePoints   int
	pointsCacheSize int
	idempotencySize int
	idempotencyTTL  time.Duration
	feedQueueSize   int
	feedWorkers     int
	now             func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service. The directory is usable immediately; the
// change feed runs between Start and Stop.
func New(opts ...Option) *Service {
	s := &Service{
		exactPoints:     scoring.DefaultExactScorePoints,
		outcomePoints:   scoring.DefaultCorrectOutcomePoints,
		pointsCacheSize: repository.DefaultStandingsCacheSize,
		idempotencySize: dedupe.DefaultMaxSize,
		idempotencyTTL:  dedupe.DefaultTTL,
		feedQueueSize:   10_000,
		feedWorkers:     1,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.publisher == nil {
		s.publisher = publisher.NewLogPublisher(s.logger.Named("changes"))
	}

	s.engine = scoring.NewEngine(
		scoring.WithExactScorePoints(s.exactPoints),
		scoring.WithCorrectOutcomePoints(s.outcomePoints),
	)
	// pointsCacheSize is always positive here, so creation cannot fail.
	s.standings, _ = repository.NewStandingsCache(s.pointsCacheSize)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.idempotencySize),
		dedupe.WithTTL(s.idempotencyTTL),
	)

	return s
}

// Start starts the change feed.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting league service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.changes = changequeue.NewInMemoryQueue(changequeue.WithCapacity(s.feedQueueSize))
	s.pool = workerpool.NewPool(s.feedWorkers, s.changes, s.publisher)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "league service started",
		logger.Int("feedWorkers", s.feedWorkers),
		logger.Int("feedQueueSize", s.feedQueueSize),
		logger.Int("exactScorePoints", s.exactPoints),
		logger.Int("correctOutcomePoints", s.outcomePoints),
	)

	return nil
}

// Stop drains the change feed and stops its workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping league service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "change feed did not drain", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "league service stopped")
}

// CreateCompetition registers a competition owned by caller.
func (s *Service) CreateCompetition(ctx context.Context, caller model.Address, name string) (model.Competition, error) {
	const op = "create_competition"

	name = strings.TrimSpace(name)
	if caller == "" {
		return model.Competition{}, s.reject(ctx, op, ErrMissingCaller)
	}
	if name == "" {
		return model.Competition{}, s.reject(ctx, op, fmt.Errorf("%w: name must not be empty", ErrInvalidCompetition))
	}

	s.dirMu.Lock()
	info := model.Competition{
		ID:        uint64(len(s.competitions)) + 1,
		Name:      name,
		Owner:     caller,
		CreatedAt: s.now().UTC(),
	}
	s.competitions = append(s.competitions, &competition{
		info: info,
		ledger: repository.NewMemoryLedger(caller,
			repository.WithClock(s.now),
			repository.WithEngine(s.engine),
		),
	})
	total := len(s.competitions)
	s.dirMu.Unlock()

	metrics.RecordCompetitionCreated()
	metrics.UpdateCompetitionsTotal(total)
	s.logger.Debug(ctx, "competition created",
		logger.Uint64("competition_id", info.ID),
		logger.String("name", info.Name),
		logger.String("owner", caller.String()),
	)
	s.emit(ctx, model.ChangeCompetitionCreated, info.ID, 0, caller)

	return info, nil
}

// Competitions returns every competition in creation order.
func (s *Service) Competitions(_ context.Context) []model.Competition {
	s.dirMu.RLock()
	defer s.dirMu.RUnlock()

	out := make([]model.Competition, len(s.competitions))
	for i, c := range s.competitions {
		out[i] = c.info
	}
	return out
}

// Competition returns one competition.
func (s *Service) Competition(_ context.Context, id uint64) (model.Competition, error) {
	c, err := s.lookup(id)
	if err != nil {
		return model.Competition{}, err
	}
	return c.info, nil
}

// AddGame adds a game to a competition the caller owns.
func (s *Service) AddGame(ctx context.Context, caller model.Address, cid uint64, home, away string, startTime int64) (uint64, error) {
	const op = "add_game"

	c, err := s.owned(caller, cid)
	if err != nil {
		return 0, s.reject(ctx, op, err, logger.Uint64("competition_id", cid))
	}
	id, err := c.ledger.AddGame(ctx, caller, home, away, startTime)
	if err != nil {
		return 0, s.reject(ctx, op, err, logger.Uint64("competition_id", cid))
	}

	metrics.RecordGameAdded()
	s.logger.Debug(ctx, "game added",
		logger.Uint64("competition_id", cid),
		logger.Uint64("game_id", id),
	)
	s.emit(ctx, model.ChangeGameAdded, cid, id, caller)

	return id, nil
}

// UpdateGame overwrites a game in a competition the caller owns.
func (s *Service) UpdateGame(ctx context.Context, caller model.Address, cid, gid uint64, in repository.GameInput) error {
	const op = "update_game"

	c, err := s.owned(caller, cid)
	if err != nil {
		return s.reject(ctx, op, err, logger.Uint64("competition_id", cid))
	}
	if err := c.ledger.UpdateGame(ctx, caller, gid, in); err != nil {
		return s.reject(ctx, op, err, logger.Uint64("competition_id", cid), logger.Uint64("game_id", gid))
	}

	metrics.RecordGameUpdated(in.IsFinalized)
	s.logger.Debug(ctx, "game updated",
		logger.Uint64("competition_id", cid),
		logger.Uint64("game_id", gid),
		logger.Bool("finalized", in.IsFinalized),
	)
	s.emit(ctx, model.ChangeGameUpdated, cid, gid, caller)

	return nil
}

// DeleteGame deletes a game from a competition the caller owns.
func (s *Service) DeleteGame(ctx context.Context, caller model.Address, cid, gid uint64) error {
	const op = "delete_game"

	c, err := s.owned(caller, cid)
	if err != nil {
		return s.reject(ctx, op, err, logger.Uint64("competition_id", cid))
	}
	if err := c.ledger.DeleteGame(ctx, caller, gid); err != nil {
		return s.reject(ctx, op, err, logger.Uint64("competition_id", cid), logger.Uint64("game_id", gid))
	}

	metrics.RecordGameDeleted()
	s.logger.Debug(ctx, "game deleted",
		logger.Uint64("competition_id", cid),
		logger.Uint64("game_id", gid),
	)
	s.emit(ctx, model.ChangeGameDeleted, cid, gid, caller)

	return nil
}

// Game returns a slot of a competition.
func (s *Service) Game(ctx context.Context, cid, gid uint64) (model.GameSlot, error) {
	c, err := s.lookup(cid)
	if err != nil {
		return model.GameSlot{}, err
	}
	return c.ledger.Game(ctx, gid), nil
}

// Games returns every slot of a competition.
func (s *Service) Games(ctx context.Context, cid uint64) ([]model.GameSlot, error) {
	c, err := s.lookup(cid)
	if err != nil {
		return nil, err
	}
	return c.ledger.Games(ctx), nil
}

// SubmitPrediction creates or overwrites the caller's forecast.
func (s *Service) SubmitPrediction(ctx context.Context, caller model.Address, cid, gid uint64, home, away int) error {
	const op = "submit_prediction"

	if caller == "" {
		return s.reject(ctx, op, ErrMissingCaller)
	}
	c, err := s.lookup(cid)
	if err != nil {
		return s.reject(ctx, op, err, logger.Uint64("competition_id", cid))
	}
	if err := c.ledger.AddOrUpdatePrediction(ctx, caller, gid, home, away); err != nil {
		return s.reject(ctx, op, err, logger.Uint64("competition_id", cid), logger.Uint64("game_id", gid))
	}

	metrics.RecordPredictionSaved()
	s.logger.Debug(ctx, "prediction saved",
		logger.Uint64("competition_id", cid),
		logger.Uint64("game_id", gid),
		logger.String("user", caller.String()),
	)
	s.emit(ctx, model.ChangePredictionSaved, cid, gid, caller)

	return nil
}

// Prediction returns the user's forecast for one game.
func (s *Service) Prediction(ctx context.Context, user model.Address, cid, gid uint64) (model.Prediction, error) {
	c, err := s.lookup(cid)
	if err != nil {
		return model.Prediction{}, err
	}
	return c.ledger.Prediction(ctx, user, gid), nil
}

// Predictions returns the user's forecasts in first-submitted order.
func (s *Service) Predictions(ctx context.Context, cid uint64, user model.Address) ([]model.Prediction, error) {
	c, err := s.lookup(cid)
	if err != nil {
		return nil, err
	}
	return c.ledger.Predictions(ctx, user), nil
}

// Points returns the competition standings, served from cache when the
// ledger has not changed since the last computation.
func (s *Service) Points(ctx context.Context, cid uint64) ([]model.UserPoints, error) {
	c, err := s.lookup(cid)
	if err != nil {
		return nil, err
	}

	if rows, ok := s.standings.Get(cid, c.ledger.Version()); ok {
		metrics.RecordStandingsCacheHit()
		return rows, nil
	}
	metrics.RecordStandingsCacheMiss()

	start := time.Now()
	rows, version := c.ledger.Points(ctx)
	metrics.RecordPointsComputation(float64(time.Since(start).Microseconds()) / 1000)
	s.standings.Put(cid, version, rows)

	return rows, nil
}

// Once runs create at most once per (caller, scope, key). An empty key
// always runs create. replayed reports that a remembered id was returned.
func (s *Service) Once(ctx context.Context, caller model.Address, scope, key string, create func() (uint64, error)) (id uint64, replayed bool, err error) {
	if key == "" {
		id, err = create()
		return id, false, err
	}

	id, replayed, err = s.deduper.Do(ctx, caller.String()+":"+scope+":"+key, create)
	if replayed {
		metrics.RecordIdempotentReplay()
		s.logger.Debug(ctx, "idempotent replay",
			logger.String("scope", scope),
			logger.Uint64("id", id),
		)
	}
	return id, replayed, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()

	s.dirMu.RLock()
	entries := make([]*competition, len(s.competitions))
	copy(entries, s.competitions)
	s.dirMu.RUnlock()

	var games, finalized, predictions int
	for _, c := range entries {
		st := c.ledger.Stats(ctx)
		games += st.LiveGames
		finalized += st.Finalized
		predictions += st.Predictions
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":              s.started,
		"competitions":         len(entries),
		"liveGames":            games,
		"finalizedGames":       finalized,
		"predictions":          predictions,
		"standingsCached":      s.standings.Len(),
		"idempotencyKeys":      s.deduper.Size(),
		"feedWorkers":          s.feedWorkers,
		"exactScorePoints":     s.engine.ExactScorePoints(),
		"correctOutcomePoints": s.engine.CorrectOutcomePoints(),
	}
	if s.started {
		stats["feedQueueLength"] = s.changes.Len(ctx)
	}

	metrics.UpdateCompetitionsTotal(len(entries))
	return stats
}

// lookup returns the competition for id.
func (s *Service) lookup(id uint64) (*competition, error) {
	s.dirMu.RLock()
	defer s.dirMu.RUnlock()

	if id == 0 || id > uint64(len(s.competitions)) {
		return nil, fmt.Errorf("%w: %d", ErrCompetitionNotFound, id)
	}
	return s.competitions[id-1], nil
}

// owned returns the competition when caller administers it. A missing
// competition is reported as not owned.
func (s *Service) owned(caller model.Address, id uint64) (*competition, error) {
	if caller == "" {
		return nil, ErrMissingCaller
	}
	c, err := s.lookup(id)
	if err != nil || c.info.Owner != caller {
		return nil, fmt.Errorf("%w: %d", ErrCompetitionNotOwned, id)
	}
	return c, nil
}

// reject records a refused operation and returns err unchanged.
func (s *Service) reject(ctx context.Context, op string, err error, fields ...logger.Field) error {
	kind := ErrorKind(err)
	metrics.RecordOperationError(op, kind)
	fields = append(fields, logger.String("operation", op), logger.String("kind", kind), logger.Error(err))
	s.logger.Warn(ctx, "operation rejected", fields...)
	return err
}

// emit queues a change for publishing. A full or stopped feed drops the
// change without failing the mutation.
func (s *Service) emit(ctx context.Context, kind model.ChangeKind, cid, gid uint64, actor model.Address) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		metrics.RecordFeedDropped("not_started")
		return
	}

	c := model.Change{
		ID:            uuid.NewString(),
		Kind:          kind,
		CompetitionID: cid,
		GameID:        gid,
		Actor:         actor,
		At:            s.now().UTC(),
	}
	if !s.changes.Enqueue(context.WithoutCancel(ctx), c) {
		s.logger.Warn(ctx, "change dropped",
			logger.String("change_id", c.ID),
			logger.String("kind", string(kind)),
		)
	}
}
