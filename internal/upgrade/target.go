package upgrade

import (
	"fmt"
	"strings"
)

// Target selects which catalog kinds a run covers.
type Target int

const (
	TargetMovies Target = iota
	TargetEpisodes
	TargetBoth
)

// ParseTarget parses a request target. The empty string means both kinds.
// The service names "radarr" and "sonarr" are accepted as legacy spellings.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return TargetBoth, nil
	case "movies", "radarr":
		return TargetMovies, nil
	case "episodes", "sonarr":
		return TargetEpisodes, nil
	default:
		return 0, &ValidationError{Msg: fmt.Sprintf("invalid target %q (expected movies, episodes or both)", s)}
	}
}

func (t Target) String() string {
	switch t {
	case TargetMovies:
		return "movies"
	case TargetEpisodes:
		return "episodes"
	case TargetBoth:
		return "both"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// IncludesMovies reports whether the movie cycle should run.
func (t Target) IncludesMovies() bool {
	return t == TargetMovies || t == TargetBoth
}

// IncludesEpisodes reports whether the episode cycle should run.
func (t Target) IncludesEpisodes() bool {
	return t == TargetEpisodes || t == TargetBoth
}
