package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/metrics"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
	"golang.org/x/sync/errgroup"
)

// API is the read side of the monitoring client used by the main poller.
type API interface {
	ListChannels(ctx context.Context, filter domain.ChannelFilter) ([]domain.Channel, error)
	ActiveAlerts(ctx context.Context) ([]domain.Alert, error)
	ListInputs(ctx context.Context) ([]domain.ProbeInput, error)
	DebugInputs(ctx context.Context) (*domain.DebugInputs, error)
	DebugSystem(ctx context.Context) (*domain.DebugSystem, error)
}

// Persister stores the last good snapshot for warm starts.
type Persister interface {
	SaveSnapshot(ctx context.Context, p snapshot.Persisted) error
}

// Poller refreshes channels, alerts and inputs on a fixed interval, on
// demand, and (while enabled) the debug dumps.
type Poller struct {
	api      API
	env      pollEnv
	persist  Persister
	interval time.Duration
	debug    atomic.Bool

	trigger  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu     sync.Mutex
	runCtx context.Context
	cancel context.CancelFunc
}

// NewPoller creates a poller; persist may be nil.
func NewPoller(
	api API,
	store *snapshot.Store,
	seq *Sequencer,
	persist Persister,
	log logger.Logger,
	interval time.Duration,
) *Poller {
	return &Poller{
		api:      api,
		env:      pollEnv{store: store, seq: seq, logger: log},
		persist:  persist,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// SetDebug enables fetching the debug dumps on each round.
func (p *Poller) SetDebug(enabled bool) {
	p.debug.Store(enabled)
}

// Start runs a first refresh immediately, then one per interval, until
// Stop is called or ctx is done.
func (p *Poller) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.runCtx, p.cancel = runCtx, cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.Refresh(runCtx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Refresh(runCtx)
			case <-p.trigger:
				p.env.logger.Info("manual refresh triggered")
				p.Refresh(runCtx)
			case <-p.stopCh:
				return
			case <-runCtx.Done():
				return
			}
		}
	}()
}

// Stop cancels in-flight requests and waits for the loop to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		if p.cancel != nil {
			p.cancel()
		}
		p.mu.Unlock()
		close(p.stopCh)
	})
	p.wg.Wait()
}

// Trigger queues a refresh. It returns false when one is already queued.
func (p *Poller) Trigger() bool {
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (p *Poller) context(ctx context.Context) (context.Context, context.CancelFunc) {
	p.mu.Lock()
	run := p.runCtx
	p.mu.Unlock()
	return bindTo(ctx, run)
}

// Refresh fetches channels, alerts and inputs concurrently. Each success
// replaces only its own slice; failures leave the slice untouched.
func (p *Poller) Refresh(ctx context.Context) Report {
	ctx, cancel := p.context(ctx)
	defer cancel()

	start := time.Now()
	b := newReportBuilder()
	filter := p.env.store.Filter()

	var g errgroup.Group
	g.Go(func() error {
		out, err := poll(ctx, p.env, snapshot.Channels,
			func(ctx context.Context) ([]domain.Channel, error) { return p.api.ListChannels(ctx, filter) },
			func(seq uint64, v []domain.Channel) bool { return p.env.store.ApplyChannels(seq, filter, v) })
		b.add(snapshot.Channels, out, err)
		return nil
	})
	g.Go(func() error {
		out, err := poll(ctx, p.env, snapshot.Alerts, p.api.ActiveAlerts, p.env.store.ApplyAlerts)
		b.add(snapshot.Alerts, out, err)
		return nil
	})
	g.Go(func() error {
		out, err := poll(ctx, p.env, snapshot.Inputs, p.api.ListInputs, p.env.store.ApplyInputs)
		b.add(snapshot.Inputs, out, err)
		return nil
	})
	if p.debug.Load() {
		g.Go(func() error {
			out, err := poll(ctx, p.env, snapshot.Debug, p.fetchDebug, p.env.store.ApplyDebug)
			b.add(snapshot.Debug, out, err)
			return nil
		})
	}
	_ = g.Wait()

	rep := b.report(start)
	if !p.env.store.MarkReady() {
		p.env.logger.Warn("no snapshot data yet, console not ready",
			logger.Int("failed", len(rep.Failed)))
	}
	p.recordCounts()
	p.save(ctx, rep)

	p.env.logger.Debug("refresh round done",
		logger.Int("applied", len(rep.Applied)),
		logger.Int("stale", len(rep.Stale)),
		logger.Int("failed", len(rep.Failed)),
		logger.Duration("duration", rep.Duration))
	return rep
}

// RefreshAlerts re-fetches the alert list only.
func (p *Poller) RefreshAlerts(ctx context.Context) error {
	ctx, cancel := p.context(ctx)
	defer cancel()

	_, err := poll(ctx, p.env, snapshot.Alerts, p.api.ActiveAlerts, p.env.store.ApplyAlerts)
	p.recordCounts()
	return err
}

// RefreshInputs re-fetches the input list only.
func (p *Poller) RefreshInputs(ctx context.Context) error {
	ctx, cancel := p.context(ctx)
	defer cancel()

	_, err := poll(ctx, p.env, snapshot.Inputs, p.api.ListInputs, p.env.store.ApplyInputs)
	p.recordCounts()
	return err
}

// fetchDebug reads both debug dumps; either failing fails the slice.
func (p *Poller) fetchDebug(ctx context.Context) (domain.Debug, error) {
	var d domain.Debug
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in, err := p.api.DebugInputs(gctx)
		d.Inputs = in
		return err
	})
	g.Go(func() error {
		sys, err := p.api.DebugSystem(gctx)
		d.System = sys
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Debug{}, err
	}
	return d, nil
}

func (p *Poller) recordCounts() {
	for slice, n := range p.env.store.Counts() {
		metrics.RecordSnapshotItems(string(slice), n)
	}
}

// save persists the snapshot after a round that changed something.
// Best effort: the in-memory store stays the primary source.
func (p *Poller) save(ctx context.Context, rep Report) {
	if p.persist == nil || len(rep.Applied) == 0 || ctx.Err() != nil {
		return
	}
	if err := p.persist.SaveSnapshot(ctx, p.env.store.Export()); err != nil {
		p.env.logger.Warn("failed to save snapshot to redis",
			logger.Error(err))
	}
}
