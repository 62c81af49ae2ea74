// Package model contains domain models passed between layers.
package model

import "strings"

// Address identifies a wallet. Addresses compare in lowercase form.
type Address string

// NormalizeAddress trims and lowercases a wallet address.
func NormalizeAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

// String implements fmt.Stringer.
func (a Address) String() string { return string(a) }

// Game is a fixture registered within a competition.
type Game struct {
	ID             uint64 // sequential, starts at 1, never reused
	HomeCompetitor string
	AwayCompetitor string
	StartTime      int64 // unix milliseconds
	HomeScore      int
	AwayScore      int
	IsFinalized    bool
}

// GameSlot is one position in a registry's game collection. Deleting a game
// leaves an absent slot in place so the positions of other games never move.
type GameSlot struct {
	game *Game
}

// PresentSlot wraps a live game.
func PresentSlot(g Game) GameSlot {
	return GameSlot{game: &g}
}

// AbsentSlot is the sentinel left behind by a deleted game.
func AbsentSlot() GameSlot {
	return GameSlot{}
}

// Game returns the stored game and whether the slot is live.
func (s GameSlot) Game() (Game, bool) {
	if s.game == nil {
		return Game{}, false
	}
	return *s.game, true
}

// Live reports whether the slot holds a game.
func (s GameSlot) Live() bool { return s.game != nil }

// ID returns the stored game id, or 0 for an absent slot.
func (s GameSlot) ID() uint64 {
	if s.game == nil {
		return 0
	}
	return s.game.ID
}
