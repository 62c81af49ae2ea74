package model

// Prediction is a user's forecast for one game. A user holds at most one
// prediction per game.
type Prediction struct {
	GameID    uint64
	HomeScore int
	AwayScore int
}

// IsZero reports whether p is the empty sentinel returned when no prediction exists.
func (p Prediction) IsZero() bool { return p.GameID == 0 }

// UserPoints is a user's row in the computed standings. It is derived on
// every request and never stored.
type UserPoints struct {
	User                     Address
	Score                    int
	CorrectPredictions       int // exact score matches
	CorrectOutcomes          int // home win / away win / draw matches, exact matches included
	TotalNumberOfPredictions int // predictions on live games, finalized or not
}
