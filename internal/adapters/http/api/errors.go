package api

import (
	"errors"
	"net/http"

	service "github.com/okian/meerkat/internal/app"
	"github.com/okian/meerkat/internal/adapters/repository"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrInvalidCaller = errors.New("invalid caller address")
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingCaller):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrUnauthorized),
		errors.Is(err, service.ErrCompetitionNotOwned):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrGameNotFound),
		errors.Is(err, service.ErrCompetitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrGameAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, repository.ErrInvalidGame),
		errors.Is(err, repository.ErrInvalidPrediction),
		errors.Is(err, service.ErrInvalidCompetition),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidCaller):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with its mapped status and a stable code.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := service.ErrorKind(err)
	switch {
	case errors.Is(err, ErrInvalidCaller):
		code = "invalid_caller"
	case status == http.StatusBadRequest && code == "internal":
		code = "bad_request"
	}
	writeError(w, status, code, err)
}
