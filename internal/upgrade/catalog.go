package upgrade

import (
	"context"

	"github.com/polishrr/polishrr/internal/arr"
)

// MovieCatalog is the slice of the Radarr API the engine depends on.
type MovieCatalog interface {
	EnsureTag(ctx context.Context, label string) (int64, error)
	QualityProfileCutoffs(ctx context.Context) (map[int64]int, error)
	Queue(ctx context.Context) ([]arr.QueueItem, error)
	Movies(ctx context.Context) ([]arr.Movie, error)
	Movie(ctx context.Context, id int64) (*arr.Movie, error)
	MovieFile(ctx context.Context, fileID int64) (*arr.MovieFile, error)
	AddMovieTag(ctx context.Context, movieID, tagID int64) error
	RemoveMovieTag(ctx context.Context, movieID, tagID int64) error
	DeleteMovieFile(ctx context.Context, fileID int64) error
	SearchMovies(ctx context.Context, movieIDs []int64) error
}

// SeriesCatalog is the slice of the Sonarr API the engine depends on.
type SeriesCatalog interface {
	EnsureTag(ctx context.Context, label string) (int64, error)
	QualityProfileCutoffs(ctx context.Context) (map[int64]int, error)
	Queue(ctx context.Context) ([]arr.QueueItem, error)
	Series(ctx context.Context) ([]arr.Series, error)
	SeriesByID(ctx context.Context, id int64) (*arr.Series, error)
	EpisodeFiles(ctx context.Context, seriesID int64) ([]arr.EpisodeFile, error)
	Episode(ctx context.Context, id int64) (*arr.Episode, error)
	EpisodesByFileID(ctx context.Context, fileID int64) ([]arr.Episode, error)
	AddSeriesTag(ctx context.Context, seriesID, tagID int64) error
	RemoveSeriesTag(ctx context.Context, seriesID, tagID int64) error
	DeleteEpisodeFile(ctx context.Context, fileID int64) error
	SearchEpisodes(ctx context.Context, episodeIDs []int64) error
}

var (
	_ MovieCatalog  = (*arr.Radarr)(nil)
	_ SeriesCatalog = (*arr.Sonarr)(nil)
)
