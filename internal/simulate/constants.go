package simulate

import "time"

// Defaults used when a Config field is left zero.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultPlayers = 10
	DefaultGames   = 5
	DefaultWorkers = 4
	DefaultTimeout = 10 * time.Second

	// kickoffLead schedules games far enough ahead that every forecast
	// lands before kickoff.
	kickoffLead = time.Hour

	// maxGoals bounds generated scores so exact hits are common.
	maxGoals = 4

	ownerSeed = 0xad31
)
