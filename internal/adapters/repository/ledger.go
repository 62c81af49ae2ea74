package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/internal/domain/scoring"
)

// userBook holds one user's predictions.
type userBook struct {
	order  []uint64 // game ids in first-submitted order
	byGame map[uint64]model.Prediction
}

// MemoryLedger implements Ledger in process memory. A single RWMutex guards
// all state: mutations are exclusive and validated before any write, reads
// share the lock and observe a consistent snapshot.
type MemoryLedger struct {
	mu      sync.RWMutex
	owner   model.Address
	slots   []model.GameSlot // slot i holds game id i+1
	users   []model.Address  // first-appearance order
	books   map[model.Address]*userBook
	version uint64

	engine *scoring.Engine
	now    func() time.Time
}

// NewMemoryLedger creates an empty ledger administered by owner.
func NewMemoryLedger(owner model.Address, opts ...Option) *MemoryLedger {
	l := &MemoryLedger{
		owner:  owner,
		books:  make(map[model.Address]*userBook),
		engine: scoring.NewEngine(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Owner returns the registry administrator.
func (l *MemoryLedger) Owner() model.Address {
	return l.owner
}

// AddGame appends a new game. Ids start at 1 and are never reused.
func (l *MemoryLedger) AddGame(_ context.Context, caller model.Address, home, away string, startTime int64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return 0, ErrUnauthorized
	}
	if err := validateCompetitors(home, away); err != nil {
		return 0, err
	}

	id := uint64(len(l.slots)) + 1
	l.slots = append(l.slots, model.PresentSlot(model.Game{
		ID:             id,
		HomeCompetitor: home,
		AwayCompetitor: away,
		StartTime:      startTime,
	}))
	l.version++

	return id, nil
}

// UpdateGame overwrites every field of a live game.
func (l *MemoryLedger) UpdateGame(_ context.Context, caller model.Address, id uint64, in GameInput) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	if !l.liveLocked(id) {
		return fmt.Errorf("%w: %d", ErrGameNotFound, id)
	}
	if err := validateCompetitors(in.HomeCompetitor, in.AwayCompetitor); err != nil {
		return err
	}
	if in.HomeScore < 0 || in.AwayScore < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrInvalidGame)
	}

	l.slots[id-1] = model.PresentSlot(model.Game{
		ID:             id,
		HomeCompetitor: in.HomeCompetitor,
		AwayCompetitor: in.AwayCompetitor,
		StartTime:      in.StartTime,
		HomeScore:      in.HomeScore,
		AwayScore:      in.AwayScore,
		IsFinalized:    in.IsFinalized,
	})
	l.version++

	return nil
}

// DeleteGame clears a live game's slot in place. Predictions for the game are kept.
func (l *MemoryLedger) DeleteGame(_ context.Context, caller model.Address, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrUnauthorized
	}
	if !l.liveLocked(id) {
		return fmt.Errorf("%w: %d", ErrGameNotFound, id)
	}

	l.slots[id-1] = model.AbsentSlot()
	l.version++

	return nil
}

// Game returns the slot for id.
func (l *MemoryLedger) Game(_ context.Context, id uint64) model.GameSlot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if id == 0 || id > uint64(len(l.slots)) {
		return model.AbsentSlot()
	}
	return l.slots[id-1]
}

// Games returns a copy of every slot in insertion order.
func (l *MemoryLedger) Games(_ context.Context) []model.GameSlot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.GameSlot, len(l.slots))
	copy(out, l.slots)
	return out
}

// AddOrUpdatePrediction creates or overwrites the caller's forecast. An update
// keeps the prediction's original position in the caller's list.
func (l *MemoryLedger) AddOrUpdatePrediction(_ context.Context, caller model.Address, gameID uint64, home, away int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.liveLocked(gameID) {
		return fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	g, _ := l.slots[gameID-1].Game()
	if g.StartTime <= l.now().UnixMilli() {
		return fmt.Errorf("%w: %d", ErrGameAlreadyStarted, gameID)
	}
	if home < 0 || away < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrInvalidPrediction)
	}

	b, ok := l.books[caller]
	if !ok {
		b = &userBook{byGame: make(map[uint64]model.Prediction)}
		l.books[caller] = b
		l.users = append(l.users, caller)
	}
	if _, seen := b.byGame[gameID]; !seen {
		b.order = append(b.order, gameID)
	}
	b.byGame[gameID] = model.Prediction{GameID: gameID, HomeScore: home, AwayScore: away}
	l.version++

	return nil
}

// Prediction returns the user's forecast for a game or the zero sentinel.
func (l *MemoryLedger) Prediction(_ context.Context, user model.Address, gameID uint64) model.Prediction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if b, ok := l.books[user]; ok {
		return b.byGame[gameID]
	}
	return model.Prediction{}
}

// Predictions returns the user's forecasts in first-submitted order, orphans included.
func (l *MemoryLedger) Predictions(_ context.Context, user model.Address) []model.Prediction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, ok := l.books[user]
	if !ok {
		return []model.Prediction{}
	}
	out := make([]model.Prediction, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.byGame[id])
	}
	return out
}

// Points recomputes the standings under the read lock.
func (l *MemoryLedger) Points(_ context.Context) ([]model.UserPoints, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.engine.Points(l.slots, lockedBook{l}), l.version
}

// Version returns the mutation counter.
func (l *MemoryLedger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Stats returns counts describing the ledger.
func (l *MemoryLedger) Stats(_ context.Context) Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{Slots: len(l.slots), Users: len(l.users), Version: l.version}
	for _, slot := range l.slots {
		if g, ok := slot.Game(); ok {
			s.LiveGames++
			if g.IsFinalized {
				s.Finalized++
			}
		}
	}
	for _, b := range l.books {
		s.Predictions += len(b.order)
	}
	return s
}

// liveLocked reports whether id names a live game. Caller holds l.mu.
func (l *MemoryLedger) liveLocked(id uint64) bool {
	if id == 0 || id > uint64(len(l.slots)) {
		return false
	}
	return l.slots[id-1].ID() == id
}

// lockedBook exposes the prediction state to the scoring engine. It must
// only be used while l.mu is held.
type lockedBook struct {
	l *MemoryLedger
}

func (b lockedBook) Users() []model.Address { return b.l.users }

func (b lockedBook) Lookup(user model.Address, gameID uint64) (model.Prediction, bool) {
	ub, ok := b.l.books[user]
	if !ok {
		return model.Prediction{}, false
	}
	p, ok := ub.byGame[gameID]
	return p, ok
}

func validateCompetitors(home, away string) error {
	if strings.TrimSpace(home) == "" || strings.TrimSpace(away) == "" {
		return fmt.Errorf("%w: competitor names must not be empty", ErrInvalidGame)
	}
	return nil
}
