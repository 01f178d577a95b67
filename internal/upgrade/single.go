package upgrade

import (
	"context"
	"fmt"
)

// UpgradeItem tags a single item and triggers a search for it. For movies,
// id is the movie ID; for episodes it is the episode ID and the tag lands on
// the owning series.
func (e *Engine) UpgradeItem(ctx context.Context, target Target, id int64) error {
	switch target {
	case TargetMovies:
		if e.movies == nil {
			return &ValidationError{Msg: "movies service not configured"}
		}
		tagID, err := e.movies.EnsureTag(ctx, e.tagLabel)
		if err != nil {
			return fmt.Errorf("failed to ensure upgrade tag: %w", err)
		}
		movie, err := e.movies.Movie(ctx, id)
		if err != nil {
			return err
		}
		if err := e.movies.AddMovieTag(ctx, id, tagID); err != nil {
			return err
		}
		if err := e.movies.SearchMovies(ctx, []int64{id}); err != nil {
			return err
		}
		e.logger.Info().Int64("movieId", id).Str("title", movie.Title).Msg("triggered single movie upgrade")
		return nil

	case TargetEpisodes:
		if e.series == nil {
			return &ValidationError{Msg: "episodes service not configured"}
		}
		tagID, err := e.series.EnsureTag(ctx, e.tagLabel)
		if err != nil {
			return fmt.Errorf("failed to ensure upgrade tag: %w", err)
		}
		episode, err := e.series.Episode(ctx, id)
		if err != nil {
			return err
		}
		if episode.SeriesID == 0 {
			return &ValidationError{Msg: fmt.Sprintf("no series found for episode %d", id)}
		}
		if err := e.series.AddSeriesTag(ctx, episode.SeriesID, tagID); err != nil {
			return err
		}
		if err := e.series.SearchEpisodes(ctx, []int64{id}); err != nil {
			return err
		}
		e.logger.Info().Int64("episodeId", id).Int64("seriesId", episode.SeriesID).Msg("triggered single episode upgrade")
		return nil

	default:
		return &ValidationError{Msg: "target must be movies or episodes"}
	}
}

// ForceUpgradeItem deletes the item's current file, tolerating deletion
// failures, and triggers a search. The search runs even when no file exists.
func (e *Engine) ForceUpgradeItem(ctx context.Context, target Target, id int64) error {
	switch target {
	case TargetMovies:
		if e.movies == nil {
			return &ValidationError{Msg: "movies service not configured"}
		}
		movie, err := e.movies.Movie(ctx, id)
		if err != nil {
			return err
		}
		if movie.MovieFileID != 0 {
			if err := e.movies.DeleteMovieFile(ctx, movie.MovieFileID); err != nil {
				e.logger.Warn().Err(err).Int64("fileId", movie.MovieFileID).Msg("failed to delete movie file")
			} else {
				e.logger.Info().Int64("movieId", id).Msg("deleted movie file")
			}
		}
		return e.movies.SearchMovies(ctx, []int64{id})

	case TargetEpisodes:
		if e.series == nil {
			return &ValidationError{Msg: "episodes service not configured"}
		}
		episode, err := e.series.Episode(ctx, id)
		if err != nil {
			return err
		}
		if episode.EpisodeFileID != 0 {
			if err := e.series.DeleteEpisodeFile(ctx, episode.EpisodeFileID); err != nil {
				e.logger.Warn().Err(err).Int64("fileId", episode.EpisodeFileID).Msg("failed to delete episode file")
			} else {
				e.logger.Info().Int64("episodeId", id).Msg("deleted episode file")
			}
		}
		return e.series.SearchEpisodes(ctx, []int64{id})

	default:
		return &ValidationError{Msg: "target must be movies or episodes"}
	}
}
