package service

import (
	"errors"

	"github.com/okian/meerkat/internal/adapters/repository"
)

// Sentinel kinds for competition directory errors.
var (
	ErrCompetitionNotOwned = errors.New("competition not owned")
	ErrCompetitionNotFound = errors.New("competition does not exist")
	ErrInvalidCompetition  = errors.New("invalid competition")
	ErrMissingCaller       = errors.New("caller address required")
)

// ErrorKind returns a stable label for err, used in metrics and API error codes.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, repository.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrCompetitionNotOwned):
		return "competition_not_owned"
	case errors.Is(err, ErrCompetitionNotFound):
		return "competition_not_found"
	case errors.Is(err, repository.ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, repository.ErrGameAlreadyStarted):
		return "game_already_started"
	case errors.Is(err, repository.ErrInvalidGame):
		return "invalid_game"
	case errors.Is(err, repository.ErrInvalidPrediction):
		return "invalid_prediction"
	case errors.Is(err, ErrInvalidCompetition):
		return "invalid_competition"
	case errors.Is(err, ErrMissingCaller):
		return "missing_caller"
	default:
		return "internal"
	}
}
