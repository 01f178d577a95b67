// Package upgrade implements the upgrade candidate engine: collecting
// below-cutoff items from the catalog services, cycling through them with a
// marker tag, and triggering replacement searches for a bounded random
// selection each run.
package upgrade

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/polishrr/polishrr/internal/arr"
)

// Engine runs the tag-cycle state machine for both catalog kinds.
type Engine struct {
	movies    MovieCatalog
	series    SeriesCatalog
	collector *Collector
	recent    *RecentStore
	tagLabel  string
	logger    zerolog.Logger
}

// NewEngine creates the upgrade engine. Either catalog may be nil when the
// corresponding service is not configured; its cycle then becomes a no-op.
func NewEngine(movies MovieCatalog, series SeriesCatalog, collector *Collector, recent *RecentStore, tagLabel string, logger zerolog.Logger) *Engine {
	return &Engine{
		movies:    movies,
		series:    series,
		collector: collector,
		recent:    recent,
		tagLabel:  tagLabel,
		logger:    logger.With().Str("component", "upgrade-engine").Logger(),
	}
}

// Recent returns the recent-upgrades store.
func (e *Engine) Recent() *RecentStore {
	return e.recent
}

// RunMovies executes one movie upgrade cycle: full-cycle reset check,
// candidate collection, random selection, tagging and one batched search.
func (e *Engine) RunMovies(ctx context.Context, count int) error {
	if e.movies == nil {
		e.logger.Info().Msg("movies service not configured, skipping cycle")
		return nil
	}

	e.logger.Info().Msg("starting movie upgrade cycle")
	tagID, err := e.movies.EnsureTag(ctx, e.tagLabel)
	if err != nil {
		return fmt.Errorf("failed to ensure upgrade tag: %w", err)
	}

	all, err := e.movies.Movies(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		e.logger.Info().Msg("movie library is empty")
		return nil
	}

	// Once every monitored movie carries the tag the whole library has been
	// cycled through; strip the tag everywhere and end without searching.
	if allMonitoredTagged(all, tagID) {
		e.logger.Info().Msg("all monitored movies tagged, removing tag to restart cycle")
		for _, m := range all {
			if !hasTag(m.Tags, tagID) {
				continue
			}
			if err := e.movies.RemoveMovieTag(ctx, m.ID, tagID); err != nil {
				return fmt.Errorf("failed to remove tag from movie %d: %w", m.ID, err)
			}
		}
		e.logger.Info().Msg("upgrade tag removed from all movies")
		return nil
	}

	candidates, err := e.collector.MovieCandidates(ctx, tagID)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		e.logger.Info().Msg("no movies eligible for upgrade")
		return nil
	}

	selected := sampleKeys(candidates, count)
	e.logger.Info().Ints64("movieIds", selected).Msg("selected movies for upgrade")

	recent := make([]RecentItem, 0, len(selected))
	for _, id := range selected {
		if err := e.movies.AddMovieTag(ctx, id, tagID); err != nil {
			return fmt.Errorf("failed to tag movie %d: %w", id, err)
		}
		recent = append(recent, RecentItem{ID: id, Title: candidates[id].Title})
		e.logger.Info().Int64("movieId", id).Str("title", candidates[id].Title).Msg("tagged movie for upgrade")
	}
	e.recent.ReplaceMovies(recent)

	if err := e.movies.SearchMovies(ctx, selected); err != nil {
		return err
	}
	e.logger.Info().Int("count", len(selected)).Msg("triggered movie search")
	return nil
}

// RunEpisodes executes one episode upgrade cycle. Selection is keyed by
// episode file; tagging happens at the series level, and episode IDs for the
// search are resolved best-effort afterwards.
func (e *Engine) RunEpisodes(ctx context.Context, count int) error {
	if e.series == nil {
		e.logger.Info().Msg("episodes service not configured, skipping cycle")
		return nil
	}

	e.logger.Info().Msg("starting episode upgrade cycle")
	tagID, err := e.series.EnsureTag(ctx, e.tagLabel)
	if err != nil {
		return fmt.Errorf("failed to ensure upgrade tag: %w", err)
	}

	candidates, err := e.collector.EpisodeCandidates(ctx, tagID)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		e.logger.Info().Msg("no episodes eligible for upgrade")
		return nil
	}

	selected := sampleKeys(candidates, count)
	e.logger.Info().Ints64("episodeFileIds", selected).Msg("selected episode files for upgrade")

	recent := make([]RecentItem, 0, len(selected))
	for _, fileID := range selected {
		cand := candidates[fileID]
		if err := e.series.AddSeriesTag(ctx, cand.SeriesID, tagID); err != nil {
			return fmt.Errorf("failed to tag series %d: %w", cand.SeriesID, err)
		}
		recent = append(recent, RecentItem{ID: fileID, Title: cand.Title, SeriesID: cand.SeriesID})
		e.logger.Info().
			Int64("episodeFileId", fileID).
			Int64("seriesId", cand.SeriesID).
			Msg("tagged series for upgrade")
	}
	e.recent.ReplaceEpisodes(recent)

	episodeIDs := e.resolveEpisodeIDs(ctx, selected)
	if len(episodeIDs) == 0 {
		e.logger.Info().Msg("could not resolve any episode IDs from selected files, skipping search")
		return nil
	}
	if err := e.series.SearchEpisodes(ctx, episodeIDs); err != nil {
		return err
	}
	e.logger.Info().Int("count", len(episodeIDs)).Msg("triggered episode search")
	return nil
}

// resolveEpisodeIDs maps episode-file IDs to the deduplicated, sorted set of
// owning episode IDs. Files that cannot be resolved are dropped from the
// search batch; the series tag stays in place regardless.
func (e *Engine) resolveEpisodeIDs(ctx context.Context, fileIDs []int64) []int64 {
	seen := make(map[int64]struct{})
	for _, fileID := range fileIDs {
		episodes, err := e.series.EpisodesByFileID(ctx, fileID)
		if err != nil {
			e.logger.Warn().Err(err).Int64("episodeFileId", fileID).Msg("failed to resolve episode IDs")
			continue
		}
		if len(episodes) == 0 {
			err := &ResolutionError{FileID: fileID}
			e.logger.Warn().Err(err).Int64("episodeFileId", fileID).Msg("dropping file from search batch")
			continue
		}
		for _, ep := range episodes {
			seen[ep.ID] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// allMonitoredTagged reports whether every monitored movie carries the tag.
// An empty monitored set does not count as a full cycle.
func allMonitoredTagged(movies []arr.Movie, tagID int64) bool {
	monitored := 0
	for _, m := range movies {
		if !m.Monitored {
			continue
		}
		monitored++
		if !hasTag(m.Tags, tagID) {
			return false
		}
	}
	return monitored > 0
}

// sampleKeys draws min(count, len(candidates)) distinct keys uniformly at
// random without replacement.
func sampleKeys(candidates map[int64]Candidate, count int) []int64 {
	keys := make([]int64, 0, len(candidates))
	for id := range candidates {
		keys = append(keys, id)
	}
	rand.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	if count > len(keys) {
		count = len(keys)
	}
	if count < 0 {
		count = 0
	}
	return keys[:count]
}
