package arr

import (
	"context"
	"fmt"
	"net/http"
)

// Radarr is a client for the Radarr v3 API.
type Radarr struct {
	*client
}

// NewRadarr creates a new Radarr client.
func NewRadarr(cfg ClientConfig) (*Radarr, error) {
	c, err := newClient("radarr", cfg)
	if err != nil {
		return nil, err
	}
	return &Radarr{client: c}, nil
}

// Movies returns all movies in the library.
func (r *Radarr) Movies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	if err := r.getJSON(ctx, "/movie", nil, &movies); err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// Movie returns one movie by ID.
func (r *Radarr) Movie(ctx context.Context, id int64) (*Movie, error) {
	var movie Movie
	if err := r.getJSON(ctx, fmt.Sprintf("/movie/%d", id), nil, &movie); err != nil {
		return nil, fmt.Errorf("failed to fetch movie %d: %w", id, err)
	}
	return &movie, nil
}

// MovieFile returns the file resource backing a movie, including its
// custom-format score.
func (r *Radarr) MovieFile(ctx context.Context, fileID int64) (*MovieFile, error) {
	var file MovieFile
	if err := r.getJSON(ctx, fmt.Sprintf("/moviefile/%d", fileID), nil, &file); err != nil {
		return nil, fmt.Errorf("failed to fetch movie file %d: %w", fileID, err)
	}
	return &file, nil
}

// AddMovieTag adds tagID to a movie's tag set. The movie document is
// re-fetched fresh before the write.
func (r *Radarr) AddMovieTag(ctx context.Context, movieID, tagID int64) error {
	return r.modifyTags(ctx, "movie", movieID, func(tags []int64) []int64 {
		return addTag(tags, tagID)
	})
}

// RemoveMovieTag removes tagID from a movie's tag set.
func (r *Radarr) RemoveMovieTag(ctx context.Context, movieID, tagID int64) error {
	return r.modifyTags(ctx, "movie", movieID, func(tags []int64) []int64 {
		return removeTag(tags, tagID)
	})
}

// DeleteMovieFile removes a movie's current file from disk and library.
func (r *Radarr) DeleteMovieFile(ctx context.Context, fileID int64) error {
	if _, err := r.request(ctx, http.MethodDelete, fmt.Sprintf("/moviefile/%d", fileID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete movie file %d: %w", fileID, err)
	}
	return nil
}

// SearchMovies triggers a MoviesSearch command for the given movie IDs.
func (r *Radarr) SearchMovies(ctx context.Context, movieIDs []int64) error {
	return r.Command(ctx, "MoviesSearch", map[string]any{"movieIds": movieIDs})
}
