package arr

// Tag is a user-defined label attached to movies or series.
type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// QualityProfile holds the custom-format cutoff for a profile.
type QualityProfile struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	CutoffFormatScore int    `json:"cutoffFormatScore"`
}

// Movie is the subset of the Radarr movie resource the engine reads.
// Mutations go through tag helpers that round-trip the full document,
// so nothing is lost by keeping this narrow.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Monitored        bool    `json:"monitored"`
	QualityProfileID int64   `json:"qualityProfileId"`
	MovieFileID      int64   `json:"movieFileId"`
	Tags             []int64 `json:"tags"`
}

// MovieFile carries the current custom-format score of a movie's file.
type MovieFile struct {
	ID                int64 `json:"id"`
	MovieID           int64 `json:"movieId"`
	CustomFormatScore int   `json:"customFormatScore"`
}

// SeriesStatistics is the statistics block on a Sonarr series resource.
type SeriesStatistics struct {
	EpisodeFileCount int `json:"episodeFileCount"`
}

// Series is the subset of the Sonarr series resource the engine reads.
type Series struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Monitored        bool             `json:"monitored"`
	QualityProfileID int64            `json:"qualityProfileId"`
	Tags             []int64          `json:"tags"`
	Statistics       SeriesStatistics `json:"statistics"`
}

// EpisodeFile carries the current custom-format score of one episode file.
type EpisodeFile struct {
	ID                int64 `json:"id"`
	SeriesID          int64 `json:"seriesId"`
	SeasonNumber      int   `json:"seasonNumber"`
	CustomFormatScore int   `json:"customFormatScore"`
}

// Episode is the subset of the Sonarr episode resource the engine reads.
type Episode struct {
	ID            int64  `json:"id"`
	SeriesID      int64  `json:"seriesId"`
	EpisodeFileID int64  `json:"episodeFileId"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
}

// QueueEpisode is the nested episode block on a Sonarr queue item.
type QueueEpisode struct {
	ID            int64 `json:"id"`
	EpisodeNumber int   `json:"episodeNumber"`
}

// QueueItem is one entry in the download/import queue of either service.
type QueueItem struct {
	Title        string        `json:"title"`
	Status       string        `json:"status"`
	Protocol     string        `json:"protocol"`
	Size         float64       `json:"size"`
	SizeLeft     float64       `json:"sizeleft"`
	TimeLeft     string        `json:"timeleft"`
	ErrorMessage string        `json:"errorMessage"`
	Indexer      string        `json:"indexer"`
	DownloadID   string        `json:"downloadId"`
	MovieID      int64         `json:"movieId"`
	SeriesID     int64         `json:"seriesId"`
	SeasonNumber int           `json:"seasonNumber"`
	Episode      *QueueEpisode `json:"episode"`
}
