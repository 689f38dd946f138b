package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/saaga0h/lumos-platform/internal/clock"
)

// Runner plays a scenario into sinks
type Runner struct {
	scenario Scenario
	backfill Sink
	live     Sink
	clock    clock.Clock
	rng      *rand.Rand
	runID    string
	logger   *slog.Logger
}

// NewRunner creates a runner. Either sink may be nil to skip that phase.
// A zero seed picks one from the current time.
func NewRunner(scenario Scenario, backfill, live Sink, clk clock.Clock, logger *slog.Logger) *Runner {
	seed := scenario.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()

	return &Runner{
		scenario: scenario,
		backfill: backfill,
		live:     live,
		clock:    clk,
		rng:      rand.New(rand.NewSource(seed)),
		runID:    runID,
		logger:   logger.With("run_id", runID, "scenario", scenario.Name),
	}
}

// RunID identifies this run in logs
func (r *Runner) RunID() string {
	return r.runID
}

// Run plays the backfill phase, then the live phase
func (r *Runner) Run(ctx context.Context) error {
	if _, err := r.Backfill(ctx); err != nil {
		return err
	}
	if _, err := r.Live(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// BackfillTimestamps draws the backfill timestamps uniformly from
// [now - hours, now], in draw order
func (r *Runner) BackfillTimestamps(now time.Time) []int64 {
	total := r.scenario.Backfill.Hours * r.scenario.Backfill.EventsPerHour
	end := now.Unix()
	start := end - int64(r.scenario.Backfill.Hours)*3600

	out := make([]int64, total)
	for i := range out {
		out[i] = start + r.rng.Int63n(end-start+1)
	}
	return out
}

// Backfill inserts the scenario history and returns how many events were written
func (r *Runner) Backfill(ctx context.Context) (int, error) {
	if r.backfill == nil {
		return 0, nil
	}

	timestamps := r.BackfillTimestamps(r.clock.Now())
	r.logger.Info("Starting backfill",
		"sink", r.backfill.Name(),
		"hours", r.scenario.Backfill.Hours,
		"events", len(timestamps))

	for i, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := r.backfill.Emit(ctx, ts); err != nil {
			return i, fmt.Errorf("backfill event %d: %w", i, err)
		}
	}

	r.logger.Info("Backfill complete", "events", len(timestamps))
	return len(timestamps), nil
}

// Live emits one event per interval until Count is reached or ctx is done
func (r *Runner) Live(ctx context.Context) (int, error) {
	if r.live == nil || r.scenario.Live.IntervalSeconds <= 0 {
		return 0, nil
	}

	interval := time.Duration(r.scenario.Live.IntervalSeconds * float64(time.Second))
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	r.logger.Info("Starting live loop",
		"sink", r.live.Name(),
		"interval", interval,
		"count", r.scenario.Live.Count)

	emitted := 0
	for r.scenario.Live.Count == 0 || emitted < r.scenario.Live.Count {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return emitted, ctx.Err()
			}
			return emitted, err
		}

		ts := r.clock.Now().Unix()
		if err := r.live.Emit(ctx, ts); err != nil {
			r.logger.Warn("Failed to emit live event", "timestamp", ts, "error", err)
			continue
		}
		emitted++
		r.logger.Debug("Emitted live event", "timestamp", ts, "emitted", emitted)
	}

	r.logger.Info("Live loop complete", "events", emitted)
	return emitted, nil
}
