package upgrade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/polishrr/polishrr/internal/events"
)

// ErrRunInProgress is returned when a trigger arrives while a run is active.
// Triggers are rejected, never queued.
var ErrRunInProgress = errors.New("upgrade run already in progress")

// RunResult is the outcome of a completed run.
type RunResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// RunStatus is the process-wide run state. It is mutated only by the
// coordinator under its lock; handlers read snapshots.
type RunStatus struct {
	RunID      string     `json:"runId,omitempty"`
	Started    *time.Time `json:"started"`
	Finished   *time.Time `json:"finished"`
	Running    bool       `json:"running"`
	LastResult *RunResult `json:"lastResult"`
}

// RunConfig is the per-run tuning, snapshotted from settings when a run
// starts so mid-run settings changes cannot skew a cycle.
type RunConfig struct {
	ProcessMovies     bool
	ProcessEpisodes   bool
	MoviesToUpgrade   int
	EpisodesToUpgrade int
}

// Coordinator serializes trigger requests: at most one full run at a time,
// executed in the background, with progress published to the event broker.
type Coordinator struct {
	engine *Engine
	broker *events.Broker
	config func() RunConfig
	logger zerolog.Logger

	running atomic.Bool
	mu      sync.RWMutex
	status  RunStatus
}

// NewCoordinator creates a run coordinator. config is called once per run to
// snapshot the current settings.
func NewCoordinator(engine *Engine, broker *events.Broker, config func() RunConfig, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		engine: engine,
		broker: broker,
		config: config,
		logger: logger.With().Str("component", "coordinator").Logger(),
	}
}

// Status returns a snapshot of the current run state.
func (c *Coordinator) Status() RunStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := c.status
	st.Running = c.running.Load()
	return st
}

// Trigger accepts a run for the given target and executes it in the
// background, returning the run ID immediately. A second trigger while a run
// is in flight fails with ErrRunInProgress.
func (c *Coordinator) Trigger(target Target) (string, error) {
	if !c.running.CompareAndSwap(false, true) {
		return "", ErrRunInProgress
	}

	runID := uuid.NewString()
	started := time.Now().UTC()
	c.mu.Lock()
	c.status = RunStatus{RunID: runID, Started: &started, Running: true}
	c.mu.Unlock()

	c.logger.Info().Str("runId", runID).Stringer("target", target).Msg("run accepted")
	go c.run(runID, target)
	return runID, nil
}

// run executes one full trigger-cycle. The movie and episode cycles are
// independent units of failure: an error in one is published and recorded
// but never prevents the other from running.
func (c *Coordinator) run(runID string, target Target) {
	defer c.running.Store(false)

	ctx := context.Background()
	cfg := c.config()
	result := RunResult{OK: true}
	var failures []string

	c.publish(events.TypeInfo, runID, target, "run started")

	if target.IncludesMovies() {
		if !cfg.ProcessMovies {
			c.publish(events.TypeInfo, runID, target, "movie processing disabled")
		} else {
			c.publish(events.TypeInfo, runID, target, "starting movie cycle")
			if err := c.engine.RunMovies(ctx, cfg.MoviesToUpgrade); err != nil {
				c.logger.Error().Err(err).Str("runId", runID).Msg("movie cycle failed")
				c.publish(events.TypeError, runID, target, fmt.Sprintf("movie cycle failed: %v", err))
				failures = append(failures, fmt.Sprintf("movies: %v", err))
			} else {
				c.publish(events.TypeInfo, runID, target, "finished movie cycle")
			}
		}
	}

	if target.IncludesEpisodes() {
		if !cfg.ProcessEpisodes {
			c.publish(events.TypeInfo, runID, target, "episode processing disabled")
		} else {
			c.publish(events.TypeInfo, runID, target, "starting episode cycle")
			if err := c.engine.RunEpisodes(ctx, cfg.EpisodesToUpgrade); err != nil {
				c.logger.Error().Err(err).Str("runId", runID).Msg("episode cycle failed")
				c.publish(events.TypeError, runID, target, fmt.Sprintf("episode cycle failed: %v", err))
				failures = append(failures, fmt.Sprintf("episodes: %v", err))
			} else {
				c.publish(events.TypeInfo, runID, target, "finished episode cycle")
			}
		}
	}

	if len(failures) > 0 {
		result = RunResult{OK: false, Error: strings.Join(failures, "; ")}
		c.publish(events.TypeDone, runID, target, "completed with errors")
	} else {
		c.publish(events.TypeDone, runID, target, "ok")
	}

	finished := time.Now().UTC()
	c.mu.Lock()
	c.status.Finished = &finished
	c.status.Running = false
	c.status.LastResult = &result
	c.mu.Unlock()

	c.logger.Info().Str("runId", runID).Bool("ok", result.OK).Msg("run finished")
}

func (c *Coordinator) publish(eventType, runID string, target Target, message string) {
	c.broker.Publish(events.Event{
		Type:    eventType,
		Message: message,
		RunID:   runID,
		Target:  target.String(),
	})
}
