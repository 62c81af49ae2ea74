package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"
)

var teams = []string{
	"Lions", "Tigers", "Bears", "Wolves", "Eagles", "Sharks",
	"Falcons", "Hawks", "Bulls", "Rams", "Foxes", "Owls",
}

// Fixture is a scheduled game and the result the simulator will record.
type Fixture struct {
	ID        uint64
	Home      string
	Away      string
	Start     time.Time
	HomeScore int
	AwayScore int
}

// Forecast is one player's prediction for one fixture, by fixture index.
type Forecast struct {
	Player    string
	Fixture   int
	HomeScore int
	AwayScore int
}

// Wallet returns the deterministic address of player i.
func Wallet(i int) string {
	return fmt.Sprintf("0x%040x", i+1)
}

// OwnerWallet is the address that creates and administers the competition.
func OwnerWallet() string {
	return fmt.Sprintf("0x%040x", ownerSeed)
}

// plan generates fixtures and forecasts from seed. Fixture ids are assigned
// once the games are created.
func plan(cfg *Config, kickoff time.Time) ([]Fixture, []Forecast) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	fixtures := make([]Fixture, cfg.Games)
	for i := range fixtures {
		home := teams[(2*i)%len(teams)]
		away := teams[(2*i+1)%len(teams)]
		fixtures[i] = Fixture{
			Home:      home,
			Away:      away,
			Start:     kickoff.Add(time.Duration(i) * time.Minute),
			HomeScore: rng.IntN(maxGoals),
			AwayScore: rng.IntN(maxGoals),
		}
	}

	forecasts := make([]Forecast, 0, cfg.Players*cfg.Games)
	for p := 0; p < cfg.Players; p++ {
		for g := range fixtures {
			// Some players skip some games.
			if rng.IntN(5) == 0 {
				continue
			}
			forecasts = append(forecasts, Forecast{
				Player:    Wallet(p),
				Fixture:   g,
				HomeScore: rng.IntN(maxGoals),
				AwayScore: rng.IntN(maxGoals),
			})
		}
	}
	return fixtures, forecasts
}
