// Package simulate drives a running league server through its HTTP API and
// checks the standings it reports against a local recomputation.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Players    int           // Number of predicting wallets
	Games      int           // Number of games to schedule
	Workers    int           // Concurrent prediction submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed for forecasts and results
	DeleteGame bool          // Delete the second game before scoring
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable debug logging
}

// Report summarizes a simulation run.
type Report struct {
	CompetitionID        uint64
	Games                int
	Players              int
	PredictionsSubmitted int
	PredictionsFailed    int
	DeletedGameID        uint64
	Standings            []Standing
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}

// Standing is one row of the points table as served by the API.
type Standing struct {
	User                     string `json:"user"`
	Score                    int    `json:"score"`
	CorrectPredictions       int    `json:"correct_predictions"`
	CorrectOutcomes          int    `json:"correct_outcomes"`
	TotalNumberOfPredictions int    `json:"total_number_of_predictions"`
}
