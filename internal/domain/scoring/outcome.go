package scoring

// Outcome is the direction of a result.
type Outcome int

// Outcomes.
const (
	Draw Outcome = iota
	HomeWin
	AwayWin
)

// OutcomeOf classifies a pair of scores.
func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return HomeWin
	case away > home:
		return AwayWin
	default:
		return Draw
	}
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case HomeWin:
		return "home_win"
	case AwayWin:
		return "away_win"
	default:
		return "draw"
	}
}
