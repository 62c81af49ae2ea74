// Package repository holds the in-memory game and prediction ledgers.
package repository

import (
	"context"

	"github.com/okian/meerkat/internal/domain/model"
)

// GameInput carries the mutable fields of a game.
type GameInput struct {
	HomeCompetitor string
	AwayCompetitor string
	StartTime      int64
	HomeScore      int
	AwayScore      int
	IsFinalized    bool
}

// Stats summarizes a ledger.
type Stats struct {
	Slots       int
	LiveGames   int
	Finalized   int
	Users       int
	Predictions int
	Version     uint64
}

// Ledger is a single competition: a game registry administered by its owner
// plus the predictions submitted against it.
type Ledger interface {
	// Owner returns the registry administrator.
	Owner() model.Address

	// AddGame appends a game with zero scores and returns its id.
	// Returns ErrUnauthorized unless caller is the owner.
	AddGame(ctx context.Context, caller model.Address, home, away string, startTime int64) (uint64, error)
	// UpdateGame overwrites every field of a live game.
	UpdateGame(ctx context.Context, caller model.Address, id uint64, in GameInput) error
	// DeleteGame replaces a live game with an absent slot.
	DeleteGame(ctx context.Context, caller model.Address, id uint64) error
	// Game returns the slot for id, or an absent slot when id was never assigned.
	Game(ctx context.Context, id uint64) model.GameSlot
	// Games returns every slot in insertion order, deleted ones included.
	Games(ctx context.Context) []model.GameSlot

	// AddOrUpdatePrediction stores the caller's forecast for a game that has not started.
	AddOrUpdatePrediction(ctx context.Context, caller model.Address, gameID uint64, home, away int) error
	// Prediction returns the user's forecast for a game or the zero sentinel.
	Prediction(ctx context.Context, user model.Address, gameID uint64) model.Prediction
	// Predictions returns the user's forecasts in first-submitted order.
	Predictions(ctx context.Context, user model.Address) []model.Prediction

	// Points recomputes the standings and returns them with the version they reflect.
	Points(ctx context.Context) ([]model.UserPoints, uint64)
	// Version increases on every successful mutation.
	Version() uint64
	// Stats returns counts describing the ledger.
	Stats(ctx context.Context) Stats
}
