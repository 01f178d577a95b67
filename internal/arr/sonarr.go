package arr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Sonarr is a client for the Sonarr v3 API.
type Sonarr struct {
	*client
}

// NewSonarr creates a new Sonarr client.
func NewSonarr(cfg ClientConfig) (*Sonarr, error) {
	c, err := newClient("sonarr", cfg)
	if err != nil {
		return nil, err
	}
	return &Sonarr{client: c}, nil
}

// Series returns all series in the library.
func (s *Sonarr) Series(ctx context.Context) ([]Series, error) {
	var series []Series
	if err := s.getJSON(ctx, "/series", nil, &series); err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	return series, nil
}

// SeriesByID returns one series by ID.
func (s *Sonarr) SeriesByID(ctx context.Context, id int64) (*Series, error) {
	var series Series
	if err := s.getJSON(ctx, fmt.Sprintf("/series/%d", id), nil, &series); err != nil {
		return nil, fmt.Errorf("failed to fetch series %d: %w", id, err)
	}
	return &series, nil
}

// EpisodeFiles returns all episode files for a series.
func (s *Sonarr) EpisodeFiles(ctx context.Context, seriesID int64) ([]EpisodeFile, error) {
	query := url.Values{"seriesId": []string{strconv.FormatInt(seriesID, 10)}}
	var files []EpisodeFile
	if err := s.getJSON(ctx, "/episodefile", query, &files); err != nil {
		return nil, fmt.Errorf("failed to list episode files for series %d: %w", seriesID, err)
	}
	return files, nil
}

// Episode returns one episode by ID.
func (s *Sonarr) Episode(ctx context.Context, id int64) (*Episode, error) {
	var episode Episode
	if err := s.getJSON(ctx, fmt.Sprintf("/episode/%d", id), nil, &episode); err != nil {
		return nil, fmt.Errorf("failed to fetch episode %d: %w", id, err)
	}
	return &episode, nil
}

// EpisodesByFileID resolves the episodes backed by an episode file.
func (s *Sonarr) EpisodesByFileID(ctx context.Context, fileID int64) ([]Episode, error) {
	query := url.Values{"episodeFileId": []string{strconv.FormatInt(fileID, 10)}}
	var episodes []Episode
	if err := s.getJSON(ctx, "/episode", query, &episodes); err != nil {
		return nil, fmt.Errorf("failed to resolve episodes for file %d: %w", fileID, err)
	}
	return episodes, nil
}

// AddSeriesTag adds tagID to a series' tag set. The series document is
// re-fetched fresh before the write.
func (s *Sonarr) AddSeriesTag(ctx context.Context, seriesID, tagID int64) error {
	return s.modifyTags(ctx, "series", seriesID, func(tags []int64) []int64 {
		return addTag(tags, tagID)
	})
}

// RemoveSeriesTag removes tagID from a series' tag set.
func (s *Sonarr) RemoveSeriesTag(ctx context.Context, seriesID, tagID int64) error {
	return s.modifyTags(ctx, "series", seriesID, func(tags []int64) []int64 {
		return removeTag(tags, tagID)
	})
}

// DeleteEpisodeFile removes an episode file from disk and library.
func (s *Sonarr) DeleteEpisodeFile(ctx context.Context, fileID int64) error {
	if _, err := s.request(ctx, http.MethodDelete, fmt.Sprintf("/episodefile/%d", fileID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete episode file %d: %w", fileID, err)
	}
	return nil
}

// SearchEpisodes triggers an EpisodeSearch command for the given episode IDs.
func (s *Sonarr) SearchEpisodes(ctx context.Context, episodeIDs []int64) error {
	return s.Command(ctx, "EpisodeSearch", map[string]any{"episodeIds": episodeIDs})
}
