package scoring

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithExactScorePoints sets the points for an exact score match.
func WithExactScorePoints(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.exactPoints = points
		}
	}
}

// WithCorrectOutcomePoints sets the points for a matching outcome.
func WithCorrectOutcomePoints(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.outcomePoints = points
		}
	}
}
