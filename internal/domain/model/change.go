package model

import "time"

// ChangeKind names the mutation a Change describes.
type ChangeKind string

// Change kinds emitted on the change feed.
const (
	ChangeCompetitionCreated ChangeKind = "competition_created"
	ChangeGameAdded          ChangeKind = "game_added"
	ChangeGameUpdated        ChangeKind = "game_updated"
	ChangeGameDeleted        ChangeKind = "game_deleted"
	ChangePredictionSaved    ChangeKind = "prediction_saved"
)

// Change describes one applied mutation. Changes are published after the
// mutation is visible to readers.
type Change struct {
	ID            string     `json:"id"`
	Kind          ChangeKind `json:"kind"`
	CompetitionID uint64     `json:"competition_id"`
	GameID        uint64     `json:"game_id,omitempty"`
	Actor         Address    `json:"actor"`
	At            time.Time  `json:"at"`
}
