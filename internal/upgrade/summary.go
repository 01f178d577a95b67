package upgrade

import (
	"context"
	"fmt"
	"math"

	"github.com/polishrr/polishrr/internal/arr"
)

// SummaryItem is one library item in a detailed upgrade summary.
type SummaryItem struct {
	ID     int64  `json:"id"`
	Title  string `json:"title,omitempty"`
	Series string `json:"series,omitempty"`
	Score  int    `json:"score"`
	Cutoff int    `json:"cutoff"`
	Tagged bool   `json:"tagged"`
}

// KindSummary holds the eligibility counts for one catalog kind.
type KindSummary struct {
	TotalBelowCutoff   int           `json:"totalBelowCutoff"`
	EligibleForUpgrade int           `json:"eligibleForUpgrade"`
	Items              []SummaryItem `json:"items,omitempty"`
	Error              string        `json:"error,omitempty"`
}

// Summary reports eligibility counts per catalog kind. A failure on one
// kind is reported in its Error field and never hides the other kind.
type Summary struct {
	Movies   KindSummary `json:"movies"`
	Episodes KindSummary `json:"episodes"`
}

// UpgradeSummary counts below-cutoff and eligible items per kind. With
// detailed set, every inspected item is listed with its score and tag state.
func (e *Engine) UpgradeSummary(ctx context.Context, detailed bool) Summary {
	var out Summary

	if e.movies != nil {
		s, err := e.movieSummary(ctx, detailed)
		if err != nil {
			e.logger.Error().Err(err).Msg("movie summary failed")
			out.Movies = KindSummary{Error: err.Error()}
		} else {
			out.Movies = s
		}
	}

	if e.series != nil {
		s, err := e.episodeSummary(ctx, detailed)
		if err != nil {
			e.logger.Error().Err(err).Msg("episode summary failed")
			out.Episodes = KindSummary{Error: err.Error()}
		} else {
			out.Episodes = s
		}
	}

	return out
}

func (e *Engine) movieSummary(ctx context.Context, detailed bool) (KindSummary, error) {
	var out KindSummary

	tagID, err := e.movies.EnsureTag(ctx, e.tagLabel)
	if err != nil {
		return out, err
	}
	cutoffs, err := e.movies.QualityProfileCutoffs(ctx)
	if err != nil {
		return out, err
	}
	all, err := e.movies.Movies(ctx)
	if err != nil {
		return out, err
	}

	eligible := all[:0:0]
	for _, m := range all {
		if m.Monitored && m.MovieFileID != 0 {
			eligible = append(eligible, m)
		}
	}
	scores := e.collector.movieScores(ctx, eligible)

	for _, m := range eligible {
		score, ok := scores[m.ID]
		if !ok {
			continue
		}
		cutoff := cutoffs[m.QualityProfileID]
		tagged := hasTag(m.Tags, tagID)
		if score < cutoff {
			out.TotalBelowCutoff++
			if !tagged {
				out.EligibleForUpgrade++
			}
		}
		if detailed {
			out.Items = append(out.Items, SummaryItem{
				ID:     m.ID,
				Title:  m.Title,
				Score:  score,
				Cutoff: cutoff,
				Tagged: tagged,
			})
		}
	}
	return out, nil
}

func (e *Engine) episodeSummary(ctx context.Context, detailed bool) (KindSummary, error) {
	var out KindSummary

	tagID, err := e.series.EnsureTag(ctx, e.tagLabel)
	if err != nil {
		return out, err
	}
	cutoffs, err := e.series.QualityProfileCutoffs(ctx)
	if err != nil {
		return out, err
	}
	seriesList, err := e.series.Series(ctx)
	if err != nil {
		return out, err
	}

	for _, s := range seriesList {
		if s.Statistics.EpisodeFileCount == 0 {
			continue
		}
		tagged := hasTag(s.Tags, tagID)
		cutoff := cutoffs[s.QualityProfileID]

		files, err := e.series.EpisodeFiles(ctx, s.ID)
		if err != nil {
			e.logger.Warn().Err(err).Int64("seriesId", s.ID).Msg("failed to fetch episode files for summary")
			continue
		}
		for _, f := range files {
			if f.CustomFormatScore >= cutoff {
				continue
			}
			out.TotalBelowCutoff++
			if !tagged {
				out.EligibleForUpgrade++
			}
			if detailed {
				out.Items = append(out.Items, SummaryItem{
					ID:     f.ID,
					Series: s.Title,
					Score:  f.CustomFormatScore,
					Cutoff: cutoff,
					Tagged: tagged,
				})
			}
		}
	}
	return out, nil
}

// EligibleItem is one upgrade-eligible item in the eligibility listing.
type EligibleItem struct {
	ID      int64  `json:"id"`
	Title   string `json:"title,omitempty"`
	Series  string `json:"series,omitempty"`
	Episode string `json:"episode,omitempty"`
	Status  string `json:"status"`
	Score   int    `json:"score"`
	Cutoff  int    `json:"cutoff"`
}

// EligibleList holds the below-cutoff, untagged items per kind.
type EligibleList struct {
	Movies        []EligibleItem `json:"movies"`
	Episodes      []EligibleItem `json:"episodes"`
	MoviesError   string         `json:"moviesError,omitempty"`
	EpisodesError string         `json:"episodesError,omitempty"`
}

// EligibleItems lists the current candidate set per kind. The eligibility
// rule is exactly the candidate invariant, so this reuses the collector.
func (e *Engine) EligibleItems(ctx context.Context) EligibleList {
	out := EligibleList{Movies: []EligibleItem{}, Episodes: []EligibleItem{}}

	if e.movies != nil {
		if items, err := e.eligibleMovies(ctx); err != nil {
			e.logger.Error().Err(err).Msg("eligible movie listing failed")
			out.MoviesError = err.Error()
		} else {
			out.Movies = items
		}
	}

	if e.series != nil {
		if items, err := e.eligibleEpisodes(ctx); err != nil {
			e.logger.Error().Err(err).Msg("eligible episode listing failed")
			out.EpisodesError = err.Error()
		} else {
			out.Episodes = items
		}
	}

	return out
}

func (e *Engine) eligibleMovies(ctx context.Context) ([]EligibleItem, error) {
	tagID, err := e.movies.EnsureTag(ctx, e.tagLabel)
	if err != nil {
		return nil, err
	}
	candidates, err := e.collector.MovieCandidates(ctx, tagID)
	if err != nil {
		return nil, err
	}

	items := make([]EligibleItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, EligibleItem{
			ID:     c.ID,
			Title:  c.Title,
			Status: scoreStatus(c.CurrentScore, c.RequiredScore),
			Score:  c.CurrentScore,
			Cutoff: c.RequiredScore,
		})
	}
	return items, nil
}

func (e *Engine) eligibleEpisodes(ctx context.Context) ([]EligibleItem, error) {
	tagID, err := e.series.EnsureTag(ctx, e.tagLabel)
	if err != nil {
		return nil, err
	}
	candidates, err := e.collector.EpisodeCandidates(ctx, tagID)
	if err != nil {
		return nil, err
	}

	items := make([]EligibleItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, EligibleItem{
			ID:      c.ID,
			Series:  c.Title,
			Episode: fmt.Sprintf("episode file %d", c.ID),
			Status:  scoreStatus(c.CurrentScore, c.RequiredScore),
			Score:   c.CurrentScore,
			Cutoff:  c.RequiredScore,
		})
	}
	return items, nil
}

func scoreStatus(score, cutoff int) string {
	return fmt.Sprintf("Score %d / %d", score, cutoff)
}

// QueueRow is one download-queue entry in a compact, display-ready shape.
// Sizes are in GiB.
type QueueRow struct {
	Title        string  `json:"title,omitempty"`
	Series       string  `json:"series,omitempty"`
	Episode      string  `json:"episode,omitempty"`
	Status       string  `json:"status"`
	Protocol     string  `json:"protocol"`
	Size         float64 `json:"size"`
	SizeLeft     float64 `json:"sizeleft"`
	TimeLeft     string  `json:"timeleft,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	Indexer      string  `json:"indexer,omitempty"`
	DownloadID   string  `json:"downloadId,omitempty"`
}

// QueueView holds both services' download queues.
type QueueView struct {
	Movies        []QueueRow `json:"movies"`
	Episodes      []QueueRow `json:"episodes"`
	MoviesError   string     `json:"moviesError,omitempty"`
	EpisodesError string     `json:"episodesError,omitempty"`
}

// DownloadQueue fetches and formats the current queue of both services.
func (e *Engine) DownloadQueue(ctx context.Context) QueueView {
	out := QueueView{Movies: []QueueRow{}, Episodes: []QueueRow{}}

	if e.movies != nil {
		items, err := e.movies.Queue(ctx)
		if err != nil {
			e.logger.Error().Err(err).Msg("movie queue fetch failed")
			out.MoviesError = err.Error()
		} else {
			for _, item := range items {
				out.Movies = append(out.Movies, QueueRow{
					Title:        item.Title,
					Status:       item.Status,
					Protocol:     item.Protocol,
					Size:         toGiB(item.Size),
					SizeLeft:     toGiB(item.SizeLeft),
					TimeLeft:     item.TimeLeft,
					ErrorMessage: item.ErrorMessage,
					Indexer:      item.Indexer,
					DownloadID:   item.DownloadID,
				})
			}
		}
	}

	if e.series != nil {
		if rows, err := e.episodeQueue(ctx); err != nil {
			e.logger.Error().Err(err).Msg("episode queue fetch failed")
			out.EpisodesError = err.Error()
		} else {
			out.Episodes = rows
		}
	}

	return out
}

func (e *Engine) episodeQueue(ctx context.Context) ([]QueueRow, error) {
	items, err := e.series.Queue(ctx)
	if err != nil {
		return nil, err
	}

	// Queue items reference their series by ID only; resolve titles once
	// per series.
	titles := make(map[int64]string)
	rows := make([]QueueRow, 0, len(items))
	for _, item := range items {
		if item.SeriesID == 0 {
			continue
		}
		title, ok := titles[item.SeriesID]
		if !ok {
			if s, err := e.series.SeriesByID(ctx, item.SeriesID); err != nil {
				e.logger.Warn().Err(err).Int64("seriesId", item.SeriesID).Msg("failed to fetch series for queue item")
				title = fmt.Sprintf("Series %d", item.SeriesID)
			} else {
				title = s.Title
			}
			titles[item.SeriesID] = title
		}

		rows = append(rows, QueueRow{
			Series:       title,
			Episode:      episodeLabel(item.SeasonNumber, item.Episode),
			Status:       item.Status,
			Protocol:     item.Protocol,
			Size:         toGiB(item.Size),
			SizeLeft:     toGiB(item.SizeLeft),
			TimeLeft:     item.TimeLeft,
			ErrorMessage: item.ErrorMessage,
			Indexer:      item.Indexer,
			DownloadID:   item.DownloadID,
		})
	}
	return rows, nil
}

func episodeLabel(season int, ep *arr.QueueEpisode) string {
	if ep != nil {
		return fmt.Sprintf("S%02dE%02d", season, ep.EpisodeNumber)
	}
	if season > 0 {
		return fmt.Sprintf("S%02d", season)
	}
	return "-"
}

func toGiB(bytes float64) float64 {
	return math.Round(bytes/(1<<30)*100) / 100
}
