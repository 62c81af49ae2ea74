// Package publisher delivers league changes to downstream consumers.
package publisher

import (
	"context"

	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/pkg/logger"
)

// Publisher delivers one change.
type Publisher interface {
	Publish(ctx context.Context, c model.Change) error
}

var (
	_ Publisher = (*LogPublisher)(nil)
	_ Publisher = (*StreamPublisher)(nil)
)

// LogPublisher writes changes to the log. It is used when no stream is configured.
type LogPublisher struct {
	logger logger.Logger
}

// NewLogPublisher creates a publisher that logs every change at info.
func NewLogPublisher(l logger.Logger) *LogPublisher {
	if l == nil {
		l = logger.Get().Named("changes")
	}
	return &LogPublisher{logger: l}
}

// Publish logs the change.
func (p *LogPublisher) Publish(ctx context.Context, c model.Change) error {
	p.logger.Info(ctx, "league change",
		logger.String("change_id", c.ID),
		logger.String("kind", string(c.Kind)),
		logger.Uint64("competition_id", c.CompetitionID),
		logger.Uint64("game_id", c.GameID),
		logger.String("actor", c.Actor.String()),
	)
	return nil
}
