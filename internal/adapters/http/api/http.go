// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/meerkat/internal/adapters/repository"
	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/pkg/metrics"
)

// IdempotencyHeader carries a client-chosen key that makes creation requests safe to retry.
const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
)

// Idempotent runs a creation at most once per key.
type Idempotent interface {
	Once(ctx context.Context, caller model.Address, scope, key string, create func() (uint64, error)) (uint64, bool, error)
}

// CompetitionDependencies defines the competition directory operations.
type CompetitionDependencies interface {
	Idempotent
	CreateCompetition(ctx context.Context, caller model.Address, name string) (model.Competition, error)
	Competitions(ctx context.Context) []model.Competition
	Competition(ctx context.Context, id uint64) (model.Competition, error)
}

// GameDependencies defines the game registry operations.
type GameDependencies interface {
	Idempotent
	AddGame(ctx context.Context, caller model.Address, cid uint64, home, away string, startTime int64) (uint64, error)
	UpdateGame(ctx context.Context, caller model.Address, cid, gid uint64, in repository.GameInput) error
	DeleteGame(ctx context.Context, caller model.Address, cid, gid uint64) error
	Game(ctx context.Context, cid, gid uint64) (model.GameSlot, error)
	Games(ctx context.Context, cid uint64) ([]model.GameSlot, error)
}

// PredictionDependencies defines the prediction registry operations.
type PredictionDependencies interface {
	SubmitPrediction(ctx context.Context, caller model.Address, cid, gid uint64, home, away int) error
	Prediction(ctx context.Context, user model.Address, cid, gid uint64) (model.Prediction, error)
	Predictions(ctx context.Context, cid uint64, user model.Address) ([]model.Prediction, error)
}

// PointsDependencies defines the standings query.
type PointsDependencies interface {
	Points(ctx context.Context, cid uint64) ([]model.UserPoints, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CompetitionDependencies
	GameDependencies
	PredictionDependencies
	PointsDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	competitionHandler *CompetitionHandler
	gameHandler        *GameHandler
	predictionHandler  *PredictionHandler
	pointsHandler      *PointsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		competitionHandler: NewCompetitionHandler(deps),
		gameHandler:        NewGameHandler(deps),
		predictionHandler:  NewPredictionHandler(deps),
		pointsHandler:      NewPointsHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/competitions", func(r chi.Router) {
		r.Post("/", MetricsMiddleware(s.competitionHandler.HandleCreate, "competitions"))
		r.Get("/", MetricsMiddleware(s.competitionHandler.HandleList, "competitions"))

		r.Route("/{cid}", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(s.competitionHandler.HandleGet, "competition"))
			r.Get("/points", MetricsMiddleware(s.pointsHandler.HandleGetPoints, "points"))
			r.Get("/predictions/{user}", MetricsMiddleware(s.predictionHandler.HandleListForUser, "predictions"))

			r.Route("/games", func(r chi.Router) {
				r.Post("/", MetricsMiddleware(s.gameHandler.HandleAdd, "games"))
				r.Get("/", MetricsMiddleware(s.gameHandler.HandleList, "games"))
				r.Get("/{gid}", MetricsMiddleware(s.gameHandler.HandleGet, "game"))
				r.Put("/{gid}", MetricsMiddleware(s.gameHandler.HandleUpdate, "game"))
				r.Delete("/{gid}", MetricsMiddleware(s.gameHandler.HandleDelete, "game"))
				r.Put("/{gid}/prediction", MetricsMiddleware(s.predictionHandler.HandleSubmit, "prediction"))
				r.Get("/{gid}/prediction", MetricsMiddleware(s.predictionHandler.HandleGetOwn, "prediction"))
			})
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err)
	}
	return validateStruct(dst)
}

// uintParam parses a positive integer path parameter.
func uintParam(r *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadRequest, name)
	}
	return v, nil
}
