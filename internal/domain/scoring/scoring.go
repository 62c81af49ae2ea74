// Package scoring computes league standings from games and predictions.
package scoring

import (
	"github.com/okian/meerkat/internal/domain/model"
)

// Default point values.
const (
	DefaultExactScorePoints     = 3
	DefaultCorrectOutcomePoints = 1
)

// Book is the read side of a prediction registry as seen by the engine.
type Book interface {
	// Users returns every user with at least one prediction, in order of first submission.
	Users() []model.Address
	// Lookup returns the user's prediction for a game.
	Lookup(user model.Address, gameID uint64) (model.Prediction, bool)
}

// Engine awards points for predictions. It holds no state besides the point
// values and is safe for concurrent use.
type Engine struct {
	exactPoints   int
	outcomePoints int
}

// NewEngine creates an engine with the default point values unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		exactPoints:   DefaultExactScorePoints,
		outcomePoints: DefaultCorrectOutcomePoints,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExactScorePoints returns the points awarded for an exact score match.
func (e *Engine) ExactScorePoints() int { return e.exactPoints }

// CorrectOutcomePoints returns the points awarded for a matching outcome.
func (e *Engine) CorrectOutcomePoints() int { return e.outcomePoints }

// Award grades one prediction against one game. Non-finalized games award nothing.
func (e *Engine) Award(g model.Game, p model.Prediction) (points int, exact, outcome bool) {
	if !g.IsFinalized {
		return 0, false, false
	}
	if p.HomeScore == g.HomeScore && p.AwayScore == g.AwayScore {
		return e.exactPoints, true, true
	}
	if OutcomeOf(p.HomeScore, p.AwayScore) == OutcomeOf(g.HomeScore, g.AwayScore) {
		return e.outcomePoints, false, true
	}
	return 0, false, false
}

// Points recomputes the standings for every user in the book. Absent slots
// are skipped; the result follows the book's user order and is not sorted.
func (e *Engine) Points(slots []model.GameSlot, book Book) []model.UserPoints {
	users := book.Users()
	out := make([]model.UserPoints, 0, len(users))

	for _, user := range users {
		row := model.UserPoints{User: user}
		for _, slot := range slots {
			g, ok := slot.Game()
			if !ok {
				continue
			}
			p, ok := book.Lookup(user, g.ID)
			if !ok {
				continue
			}
			row.TotalNumberOfPredictions++

			points, exact, outcome := e.Award(g, p)
			row.Score += points
			if exact {
				row.CorrectPredictions++
			}
			if outcome {
				row.CorrectOutcomes++
			}
		}
		out = append(out, row)
	}

	return out
}
