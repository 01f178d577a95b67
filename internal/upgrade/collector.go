package upgrade

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/polishrr/polishrr/internal/arr"
)

const defaultWorkers = 8

// Collector computes the eligible-for-upgrade candidate set for each
// catalog kind. Fetch failures for individual items are logged and exclude
// only that item; they never abort a collection pass.
type Collector struct {
	movies  MovieCatalog
	series  SeriesCatalog
	workers int
	logger  zerolog.Logger
}

// NewCollector creates a collector. workers bounds the parallel file-score
// fetches for movies; values <= 0 fall back to the default of 8.
func NewCollector(movies MovieCatalog, series SeriesCatalog, workers int, logger zerolog.Logger) *Collector {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Collector{
		movies:  movies,
		series:  series,
		workers: workers,
		logger:  logger.With().Str("component", "collector").Logger(),
	}
}

// MovieCandidates returns movie ID to candidate for every monitored movie
// with a file whose current custom-format score is below its profile cutoff
// and which does not carry the upgrade tag.
func (c *Collector) MovieCandidates(ctx context.Context, tagID int64) (map[int64]Candidate, error) {
	cutoffs, err := c.movies.QualityProfileCutoffs(ctx)
	if err != nil {
		return nil, err
	}
	all, err := c.movies.Movies(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]arr.Movie, 0, len(all))
	for _, m := range all {
		if m.Monitored && m.MovieFileID != 0 {
			eligible = append(eligible, m)
		}
	}

	scores := c.movieScores(ctx, eligible)

	candidates := make(map[int64]Candidate)
	tagged := 0
	for _, m := range eligible {
		if hasTag(m.Tags, tagID) {
			tagged++
			continue
		}
		score, ok := scores[m.ID]
		if !ok {
			continue
		}
		cutoff := cutoffs[m.QualityProfileID]
		if score < cutoff {
			candidates[m.ID] = Candidate{
				ID:            m.ID,
				Title:         m.Title,
				CurrentScore:  score,
				RequiredScore: cutoff,
			}
		}
	}

	c.logger.Info().
		Int("movies", len(eligible)).
		Int("candidates", len(candidates)).
		Int("alreadyTagged", tagged).
		Msg("movie candidates collected")
	return candidates, nil
}

// movieScores fetches the custom-format score of each movie's file with a
// bounded worker pool. Movies whose fetch fails are absent from the result.
func (c *Collector) movieScores(ctx context.Context, movies []arr.Movie) map[int64]int {
	scores := make(map[int64]int, len(movies))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	sem := make(chan struct{}, c.workers)

	for _, m := range movies {
		wg.Add(1)
		go func(m arr.Movie) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			file, err := c.movies.MovieFile(ctx, m.MovieFileID)
			if err != nil {
				c.logger.Warn().Err(err).
					Int64("movieId", m.ID).
					Int64("fileId", m.MovieFileID).
					Msg("failed to fetch movie file score, excluding movie")
				return
			}
			mu.Lock()
			scores[m.ID] = file.CustomFormatScore
			mu.Unlock()
		}(m)
	}
	wg.Wait()
	return scores
}

// EpisodeCandidates returns episode-file ID to candidate for every
// below-cutoff episode file of a monitored series that carries files and is
// not tagged. Tag exclusion is at the series level: one tagged series hides
// all of its files, which keeps the API cost to one call per series.
func (c *Collector) EpisodeCandidates(ctx context.Context, tagID int64) (map[int64]Candidate, error) {
	cutoffs, err := c.series.QualityProfileCutoffs(ctx)
	if err != nil {
		return nil, err
	}
	seriesList, err := c.series.Series(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make(map[int64]Candidate)
	for _, s := range seriesList {
		if !s.Monitored || s.Statistics.EpisodeFileCount == 0 {
			continue
		}
		if hasTag(s.Tags, tagID) {
			continue
		}

		files, err := c.series.EpisodeFiles(ctx, s.ID)
		if err != nil {
			c.logger.Warn().Err(err).
				Int64("seriesId", s.ID).
				Msg("failed to fetch episode files, skipping series")
			continue
		}

		cutoff := cutoffs[s.QualityProfileID]
		for _, f := range files {
			if f.CustomFormatScore < cutoff {
				candidates[f.ID] = Candidate{
					ID:            f.ID,
					Title:         episodeFileTitle(s.Title, f.ID),
					SeriesID:      s.ID,
					CurrentScore:  f.CustomFormatScore,
					RequiredScore: cutoff,
				}
			}
		}
	}

	c.logger.Info().
		Int("series", len(seriesList)).
		Int("candidates", len(candidates)).
		Msg("episode candidates collected")
	return candidates, nil
}

func episodeFileTitle(series string, fileID int64) string {
	return fmt.Sprintf("%s (episode file %d)", series, fileID)
}

func hasTag(tags []int64, tagID int64) bool {
	for _, t := range tags {
		if t == tagID {
			return true
		}
	}
	return false
}
