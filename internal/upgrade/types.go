package upgrade

import (
	"fmt"
	"sync"
)

// Candidate is an item eligible for upgrade in the current cycle: below its
// profile's cutoff score and not yet marked with the upgrade tag. For movies
// ID is the movie ID; for episodes it is the episode-file ID and SeriesID is
// set.
type Candidate struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	SeriesID      int64  `json:"seriesId,omitempty"`
	CurrentScore  int    `json:"currentScore"`
	RequiredScore int    `json:"requiredScore"`
}

// ValidationError reports a bad target name or missing required field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ResolutionError reports an episode file whose owning episode could not be
// resolved. Such files are dropped from the search batch.
type ResolutionError struct {
	FileID int64
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no episode found for episode file %d", e.FileID)
}

// RecentItem is one entry in the recent-upgrades cache.
type RecentItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	SeriesID int64  `json:"seriesId,omitempty"`
}

// RecentUpgrades is a snapshot of the most recent selection per kind.
type RecentUpgrades struct {
	Movies   []RecentItem `json:"movies"`
	Episodes []RecentItem `json:"episodes"`
}

// RecentStore holds the items tagged by the most recent run of each kind.
// It lives for the process lifetime; each selection replaces the list for
// its kind wholesale, nothing accumulates across cycles.
type RecentStore struct {
	mu       sync.RWMutex
	movies   []RecentItem
	episodes []RecentItem
}

// NewRecentStore creates an empty recent-upgrades store.
func NewRecentStore() *RecentStore {
	return &RecentStore{}
}

// ReplaceMovies overwrites the movie list with the latest selection.
func (s *RecentStore) ReplaceMovies(items []RecentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies = items
}

// ReplaceEpisodes overwrites the episode list with the latest selection.
func (s *RecentStore) ReplaceEpisodes(items []RecentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes = items
}

// Snapshot returns a copy of both lists. The copy never aliases internal
// state, so callers can serve it without holding the lock.
func (s *RecentStore) Snapshot() RecentUpgrades {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := RecentUpgrades{
		Movies:   make([]RecentItem, len(s.movies)),
		Episodes: make([]RecentItem, len(s.episodes)),
	}
	copy(out.Movies, s.movies)
	copy(out.Episodes, s.episodes)
	return out
}
