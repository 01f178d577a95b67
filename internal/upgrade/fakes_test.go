package upgrade

import (
	"context"
	"sync"

	"github.com/polishrr/polishrr/internal/arr"
)

// fakeMovies is an in-memory MovieCatalog. Tag mutations are applied to the
// movie list so subsequent reads observe them, mirroring the real service.
type fakeMovies struct {
	mu sync.Mutex

	tagID   int64
	cutoffs map[int64]int
	movies  []arr.Movie
	files   map[int64]*arr.MovieFile
	queue   []arr.QueueItem

	ensureTagErr error
	moviesErr    error
	fileErr      map[int64]error
	searchErr    error

	tagged   []int64
	untagged []int64
	searched [][]int64
	deleted  []int64
	tagCalls int
}

func (f *fakeMovies) EnsureTag(ctx context.Context, label string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls++
	if f.ensureTagErr != nil {
		return 0, f.ensureTagErr
	}
	return f.tagID, nil
}

func (f *fakeMovies) QualityProfileCutoffs(ctx context.Context) (map[int64]int, error) {
	return f.cutoffs, nil
}

func (f *fakeMovies) Queue(ctx context.Context) ([]arr.QueueItem, error) {
	return f.queue, nil
}

func (f *fakeMovies) Movies(ctx context.Context) ([]arr.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moviesErr != nil {
		return nil, f.moviesErr
	}
	out := make([]arr.Movie, len(f.movies))
	copy(out, f.movies)
	return out, nil
}

func (f *fakeMovies) Movie(ctx context.Context, id int64) (*arr.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movies {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, &arr.StatusError{Code: 404, Body: "movie not found"}
}

func (f *fakeMovies) MovieFile(ctx context.Context, fileID int64) (*arr.MovieFile, error) {
	if err := f.fileErr[fileID]; err != nil {
		return nil, err
	}
	file, ok := f.files[fileID]
	if !ok {
		return nil, &arr.StatusError{Code: 404, Body: "file not found"}
	}
	return file, nil
}

func (f *fakeMovies) AddMovieTag(ctx context.Context, movieID, tagID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagged = append(f.tagged, movieID)
	for i := range f.movies {
		if f.movies[i].ID == movieID {
			f.movies[i].Tags = append(f.movies[i].Tags, tagID)
		}
	}
	return nil
}

func (f *fakeMovies) RemoveMovieTag(ctx context.Context, movieID, tagID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.untagged = append(f.untagged, movieID)
	for i := range f.movies {
		if f.movies[i].ID != movieID {
			continue
		}
		tags := f.movies[i].Tags[:0]
		for _, t := range f.movies[i].Tags {
			if t != tagID {
				tags = append(tags, t)
			}
		}
		f.movies[i].Tags = tags
	}
	return nil
}

func (f *fakeMovies) DeleteMovieFile(ctx context.Context, fileID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakeMovies) SearchMovies(ctx context.Context, movieIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return f.searchErr
	}
	f.searched = append(f.searched, movieIDs)
	return nil
}

// fakeSeries is an in-memory SeriesCatalog.
type fakeSeries struct {
	mu sync.Mutex

	tagID          int64
	cutoffs        map[int64]int
	series         []arr.Series
	episodeFiles   map[int64][]arr.EpisodeFile
	episodes       map[int64]*arr.Episode
	episodesByFile map[int64][]arr.Episode
	queue          []arr.QueueItem

	ensureTagErr error
	filesErr     map[int64]error
	resolveErr   map[int64]error

	tagged   []int64
	untagged []int64
	searched [][]int64
	deleted  []int64
}

func (f *fakeSeries) EnsureTag(ctx context.Context, label string) (int64, error) {
	if f.ensureTagErr != nil {
		return 0, f.ensureTagErr
	}
	return f.tagID, nil
}

func (f *fakeSeries) QualityProfileCutoffs(ctx context.Context) (map[int64]int, error) {
	return f.cutoffs, nil
}

func (f *fakeSeries) Queue(ctx context.Context) ([]arr.QueueItem, error) {
	return f.queue, nil
}

func (f *fakeSeries) Series(ctx context.Context) ([]arr.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]arr.Series, len(f.series))
	copy(out, f.series)
	return out, nil
}

func (f *fakeSeries) SeriesByID(ctx context.Context, id int64) (*arr.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.series {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, &arr.StatusError{Code: 404, Body: "series not found"}
}

func (f *fakeSeries) EpisodeFiles(ctx context.Context, seriesID int64) ([]arr.EpisodeFile, error) {
	if err := f.filesErr[seriesID]; err != nil {
		return nil, err
	}
	return f.episodeFiles[seriesID], nil
}

func (f *fakeSeries) Episode(ctx context.Context, id int64) (*arr.Episode, error) {
	ep, ok := f.episodes[id]
	if !ok {
		return nil, &arr.StatusError{Code: 404, Body: "episode not found"}
	}
	return ep, nil
}

func (f *fakeSeries) EpisodesByFileID(ctx context.Context, fileID int64) ([]arr.Episode, error) {
	if err := f.resolveErr[fileID]; err != nil {
		return nil, err
	}
	return f.episodesByFile[fileID], nil
}

func (f *fakeSeries) AddSeriesTag(ctx context.Context, seriesID, tagID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagged = append(f.tagged, seriesID)
	for i := range f.series {
		if f.series[i].ID == seriesID && !containsTag(f.series[i].Tags, tagID) {
			f.series[i].Tags = append(f.series[i].Tags, tagID)
		}
	}
	return nil
}

func (f *fakeSeries) RemoveSeriesTag(ctx context.Context, seriesID, tagID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.untagged = append(f.untagged, seriesID)
	for i := range f.series {
		if f.series[i].ID != seriesID {
			continue
		}
		tags := f.series[i].Tags[:0]
		for _, t := range f.series[i].Tags {
			if t != tagID {
				tags = append(tags, t)
			}
		}
		f.series[i].Tags = tags
	}
	return nil
}

func (f *fakeSeries) DeleteEpisodeFile(ctx context.Context, fileID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakeSeries) SearchEpisodes(ctx context.Context, episodeIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, episodeIDs)
	return nil
}

func containsTag(tags []int64, tagID int64) bool {
	for _, t := range tags {
		if t == tagID {
			return true
		}
	}
	return false
}
