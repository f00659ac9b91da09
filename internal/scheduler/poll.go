package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/metrics"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

// pollEnv is what every fetch needs to apply its result.
type pollEnv struct {
	store  *snapshot.Store
	seq    *Sequencer
	logger logger.Logger
}

// poll fetches one slice and applies the result under the sequence guard.
// Errors stop here: they are logged and recorded, and the slice keeps its
// previous data.
func poll[T any](
	ctx context.Context,
	env pollEnv,
	slice snapshot.Slice,
	fetch func(context.Context) (T, error),
	apply func(seq uint64, v T) bool,
) (string, error) {
	seq := env.seq.Next(slice)
	end := env.store.Begin(slice)
	defer end()

	start := time.Now()
	v, err := fetch(ctx)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			env.logger.Debug("fetch cancelled",
				logger.String("slice", string(slice)),
				logger.Uint64("seq", seq))
			return metrics.OutcomeError, ctx.Err()
		}
		if env.store.Fail(slice, seq, err) {
			env.logger.Error("fetch failed",
				logger.String("slice", string(slice)),
				logger.Uint64("seq", seq),
				logger.Duration("elapsed", elapsed),
				logger.Error(err))
		} else {
			env.logger.Debug("fetch failed after newer data was applied",
				logger.String("slice", string(slice)),
				logger.Uint64("seq", seq),
				logger.Error(err))
		}
		metrics.RecordPoll(string(slice), metrics.OutcomeError, elapsed)
		return metrics.OutcomeError, err
	}

	if !apply(seq, v) {
		env.logger.Debug("dropping stale response",
			logger.String("slice", string(slice)),
			logger.Uint64("seq", seq),
			logger.Uint64("latest", env.seq.Current(slice)))
		metrics.RecordPoll(string(slice), metrics.OutcomeStale, elapsed)
		return metrics.OutcomeStale, nil
	}

	metrics.RecordPoll(string(slice), metrics.OutcomeOK, elapsed)
	return metrics.OutcomeOK, nil
}

// Report summarises one refresh round.
type Report struct {
	Applied  []snapshot.Slice
	Stale    []snapshot.Slice
	Failed   map[snapshot.Slice]error
	Duration time.Duration
}

// OK reports whether every fetch of the round succeeded.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

type reportBuilder struct {
	mu  sync.Mutex
	rep Report
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{rep: Report{Failed: make(map[snapshot.Slice]error)}}
}

func (b *reportBuilder) add(slice snapshot.Slice, outcome string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case err != nil:
		b.rep.Failed[slice] = err
	case outcome == metrics.OutcomeStale:
		b.rep.Stale = append(b.rep.Stale, slice)
	default:
		b.rep.Applied = append(b.rep.Applied, slice)
	}
}

func (b *reportBuilder) report(start time.Time) Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rep.Duration = time.Since(start)
	return b.rep
}

// bindTo returns a context that is cancelled when either ctx or run is.
func bindTo(ctx, run context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	if run == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(run, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
