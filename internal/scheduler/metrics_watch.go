package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// MetricsAPI is the per-input metrics side of the monitoring client.
type MetricsAPI interface {
	StreamMetrics(ctx context.Context, id, minutes int) ([]domain.BitrateSample, error)
	TR101290(ctx context.Context, id int) (*domain.TR101290, error)
	InputStatus(ctx context.Context, id int) (*domain.InputStatus, error)
	MDI(ctx context.Context, id int) (*domain.MDI, error)
	QoE(ctx context.Context, id int) (*domain.QoE, error)
	Codec(ctx context.Context, id int) (*domain.CodecInfo, error)
}

// Metrics panel sections, used as error keys and log fields.
const (
	SectionBitrate  = "bitrate"
	SectionTR101290 = "tr101290"
	SectionStatus   = "status"
	SectionMDI      = "mdi"
	SectionQoE      = "qoe"
	SectionCodec    = "codec"
)

// Sections lists every metrics panel section in display order.
var Sections = []string{SectionBitrate, SectionTR101290, SectionStatus, SectionMDI, SectionQoE, SectionCodec}

// FetchPanel loads every metrics section of one input concurrently.
// A section whose fetch fails keeps its value from prev (if prev is for
// the same input); the failures are returned by section.
func FetchPanel(ctx context.Context, api MetricsAPI, id, minutes int, prev *domain.MetricsPanel) (domain.MetricsPanel, map[string]error) {
	panel := domain.MetricsPanel{InputID: id, Bitrate: []domain.BitratePoint{}}
	if prev != nil && prev.InputID == id {
		panel = *prev
	}
	panel.Loading = false

	var (
		mu   sync.Mutex
		errs = make(map[string]error)
		g    errgroup.Group
	)
	section := func(name string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				mu.Lock()
				errs[name] = err
				mu.Unlock()
			}
			return nil
		})
	}

	var (
		samples []domain.BitrateSample
		tr      *domain.TR101290
		status  *domain.InputStatus
		mdi     *domain.MDI
		qoe     *domain.QoE
		codec   *domain.CodecInfo
	)
	section(SectionBitrate, func() (err error) { samples, err = api.StreamMetrics(ctx, id, minutes); return })
	section(SectionTR101290, func() (err error) { tr, err = api.TR101290(ctx, id); return })
	section(SectionStatus, func() (err error) { status, err = api.InputStatus(ctx, id); return })
	section(SectionMDI, func() (err error) { mdi, err = api.MDI(ctx, id); return })
	section(SectionQoE, func() (err error) { qoe, err = api.QoE(ctx, id); return })
	section(SectionCodec, func() (err error) { codec, err = api.Codec(ctx, id); return })
	_ = g.Wait()

	if _, failed := errs[SectionBitrate]; !failed {
		panel.Bitrate = domain.BitrateSeries(samples)
	}
	if _, failed := errs[SectionTR101290]; !failed {
		panel.TR101290 = tr
	}
	if _, failed := errs[SectionStatus]; !failed {
		panel.Status = status
	}
	if _, failed := errs[SectionMDI]; !failed {
		panel.MDI = mdi
	}
	if _, failed := errs[SectionQoE]; !failed {
		panel.QoE = qoe
	}
	if _, failed := errs[SectionCodec]; !failed {
		panel.Codec = codec
	}
	panel.UpdatedAt = time.Now()
	return panel, errs
}

// MetricsWatcher polls the metrics panel of the selected input while the
// metrics view is active. Selecting another input starts a new generation;
// results of an older generation are discarded.
type MetricsWatcher struct {
	api      MetricsAPI
	logger   logger.Logger
	interval time.Duration
	minutes  int

	mu     sync.RWMutex
	gen    uint64
	panel  *domain.MetricsPanel
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMetricsWatcher(api MetricsAPI, log logger.Logger, interval time.Duration, minutes int) *MetricsWatcher {
	return &MetricsWatcher{
		api:      api,
		logger:   log,
		interval: interval,
		minutes:  minutes,
	}
}

// Watch starts polling inputID, replacing any previous watch.
func (w *MetricsWatcher) Watch(ctx context.Context, inputID int) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.panel = &domain.MetricsPanel{InputID: inputID, Bitrate: []domain.BitratePoint{}, Loading: true}
	w.mu.Unlock()

	metrics.RecordMetricsWatch(true)
	w.logger.Info("metrics watch started", logger.Int("input_id", inputID))

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		w.tick(ctx, gen, inputID)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.tick(ctx, gen, inputID)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Unwatch stops polling and clears the panel.
func (w *MetricsWatcher) Unwatch() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.gen++
	w.panel = nil
	w.mu.Unlock()

	metrics.RecordMetricsWatch(false)
}

// Stop unwatches and waits for the polling goroutines to exit.
func (w *MetricsWatcher) Stop() {
	w.Unwatch()
	w.wg.Wait()
}

// Panel returns the current panel, if an input is being watched.
func (w *MetricsWatcher) Panel() (domain.MetricsPanel, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.panel == nil {
		return domain.MetricsPanel{}, false
	}
	return *w.panel, true
}

func (w *MetricsWatcher) current(gen uint64) (*domain.MetricsPanel, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if gen != w.gen || w.panel == nil {
		return nil, false
	}
	p := *w.panel
	return &p, true
}

func (w *MetricsWatcher) tick(ctx context.Context, gen uint64, inputID int) {
	prev, ok := w.current(gen)
	if !ok {
		return
	}

	panel, errs := FetchPanel(ctx, w.api, inputID, w.minutes, prev)
	if ctx.Err() != nil {
		return
	}
	for section, err := range errs {
		w.logger.Warn("metrics fetch failed",
			logger.Int("input_id", inputID),
			logger.String("section", section),
			logger.Error(err))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		w.logger.Debug("dropping metrics of a previous selection",
			logger.Int("input_id", inputID))
		return
	}
	w.panel = &panel
}
