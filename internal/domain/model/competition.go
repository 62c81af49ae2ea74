package model

import "time"

// Competition is a named ledger of games and predictions administered by its owner.
type Competition struct {
	ID        uint64
	Name      string
	Owner     Address
	CreatedAt time.Time
}
