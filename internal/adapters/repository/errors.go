package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrUnauthorized       = errors.New("unauthorized request")
	ErrGameNotFound       = errors.New("game does not exist")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrInvalidGame        = errors.New("invalid game")
	ErrInvalidPrediction  = errors.New("invalid prediction")
)
