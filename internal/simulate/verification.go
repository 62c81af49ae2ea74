package simulate

import (
	"context"
	"fmt"

	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/internal/domain/scoring"
	"github.com/okian/meerkat/pkg/logger"
)

// localBook mirrors the predictions the server accepted.
type localBook struct {
	users  []model.Address
	byUser map[model.Address]map[uint64]model.Prediction
}

func newLocalBook() *localBook {
	return &localBook{byUser: make(map[model.Address]map[uint64]model.Prediction)}
}

func (b *localBook) add(user model.Address, p model.Prediction) {
	preds, ok := b.byUser[user]
	if !ok {
		preds = make(map[uint64]model.Prediction)
		b.byUser[user] = preds
		b.users = append(b.users, user)
	}
	preds[p.GameID] = p
}

func (b *localBook) Users() []model.Address { return b.users }

func (b *localBook) Lookup(user model.Address, gameID uint64) (model.Prediction, bool) {
	p, ok := b.byUser[user][gameID]
	return p, ok
}

// expectedStandings recomputes points for the final fixture state.
func expectedStandings(engine *scoring.Engine, fixtures []Fixture, deleted uint64, book *localBook) []model.UserPoints {
	slots := make([]model.GameSlot, len(fixtures))
	for i, f := range fixtures {
		if f.ID == deleted {
			slots[i] = model.AbsentSlot()
			continue
		}
		slots[i] = model.PresentSlot(model.Game{
			ID:             f.ID,
			HomeCompetitor: f.Home,
			AwayCompetitor: f.Away,
			StartTime:      f.Start.UnixMilli(),
			HomeScore:      f.HomeScore,
			AwayScore:      f.AwayScore,
			IsFinalized:    true,
		})
	}
	return engine.Points(slots, book)
}

// verifyStandings compares server rows with the local recomputation by user.
// Submission is concurrent, so row order is not compared.
func verifyStandings(ctx context.Context, got []Standing, want []model.UserPoints) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: server has %d users, expected %d", ErrMismatch, len(got), len(want))
	}

	byUser := make(map[string]Standing, len(got))
	for _, s := range got {
		byUser[s.User] = s
	}

	for _, w := range want {
		s, ok := byUser[w.User.String()]
		if !ok {
			return fmt.Errorf("%w: user %s missing from server standings", ErrMismatch, w.User)
		}
		if s.Score != w.Score ||
			s.CorrectPredictions != w.CorrectPredictions ||
			s.CorrectOutcomes != w.CorrectOutcomes ||
			s.TotalNumberOfPredictions != w.TotalNumberOfPredictions {
			return fmt.Errorf("%w: user %s got %+v, expected score=%d exact=%d outcomes=%d total=%d",
				ErrMismatch, w.User, s, w.Score, w.CorrectPredictions, w.CorrectOutcomes, w.TotalNumberOfPredictions)
		}
		logger.Get().Debug(ctx, "standing verified",
			logger.String("user", s.User),
			logger.Int("score", s.Score),
		)
	}
	return nil
}
