package repository

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/meerkat/internal/domain/model"
)

// DefaultStandingsCacheSize bounds the number of cached standings tables.
const DefaultStandingsCacheSize = 256

type standingsKey struct {
	competitionID uint64
	version       uint64
}

// StandingsCache memoizes computed standings per competition and ledger
// version. A new version never matches an old key, so a hit always equals a
// fresh recomputation.
type StandingsCache struct {
	cache *lru.Cache[standingsKey, []model.UserPoints]
}

// NewStandingsCache creates a cache holding at most size tables.
func NewStandingsCache(size int) (*StandingsCache, error) {
	if size <= 0 {
		size = DefaultStandingsCacheSize
	}
	c, err := lru.New[standingsKey, []model.UserPoints](size)
	if err != nil {
		return nil, fmt.Errorf("create standings cache: %w", err)
	}
	return &StandingsCache{cache: c}, nil
}

// Get returns a copy of the cached standings for the given version.
func (s *StandingsCache) Get(competitionID, version uint64) ([]model.UserPoints, bool) {
	rows, ok := s.cache.Get(standingsKey{competitionID, version})
	if !ok {
		return nil, false
	}
	return cloneRows(rows), true
}

// Put stores a copy of rows for the given version.
func (s *StandingsCache) Put(competitionID, version uint64, rows []model.UserPoints) {
	s.cache.Add(standingsKey{competitionID, version}, cloneRows(rows))
}

// Len returns the number of cached tables.
func (s *StandingsCache) Len() int {
	return s.cache.Len()
}

func cloneRows(rows []model.UserPoints) []model.UserPoints {
	out := make([]model.UserPoints, len(rows))
	copy(out, rows)
	return out
}
