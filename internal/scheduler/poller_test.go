package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

type fakeAPI struct {
	channels    func(ctx context.Context, f domain.ChannelFilter) ([]domain.Channel, error)
	alerts      func(ctx context.Context) ([]domain.Alert, error)
	inputs      func(ctx context.Context) ([]domain.ProbeInput, error)
	debugInputs func(ctx context.Context) (*domain.DebugInputs, error)
	debugSystem func(ctx context.Context) (*domain.DebugSystem, error)
}

func (f *fakeAPI) ListChannels(ctx context.Context, filter domain.ChannelFilter) ([]domain.Channel, error) {
	if f.channels == nil {
		return []domain.Channel{{ID: 1, Name: "one", Tier: 1}}, nil
	}
	return f.channels(ctx, filter)
}

func (f *fakeAPI) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	if f.alerts == nil {
		return []domain.Alert{{ID: 1, Severity: domain.SeverityCritical}}, nil
	}
	return f.alerts(ctx)
}

func (f *fakeAPI) ListInputs(ctx context.Context) ([]domain.ProbeInput, error) {
	if f.inputs == nil {
		return []domain.ProbeInput{{ID: 1, Name: "in"}}, nil
	}
	return f.inputs(ctx)
}

func (f *fakeAPI) DebugInputs(ctx context.Context) (*domain.DebugInputs, error) {
	if f.debugInputs == nil {
		return &domain.DebugInputs{Status: "ok"}, nil
	}
	return f.debugInputs(ctx)
}

func (f *fakeAPI) DebugSystem(ctx context.Context) (*domain.DebugSystem, error) {
	if f.debugSystem == nil {
		return &domain.DebugSystem{Status: "healthy"}, nil
	}
	return f.debugSystem(ctx)
}

type fakePersister struct {
	mu    sync.Mutex
	saved []snapshot.Persisted
}

func (f *fakePersister) SaveSnapshot(_ context.Context, p snapshot.Persisted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, p)
	return nil
}

func (f *fakePersister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newTestPoller(api API, persist Persister) (*Poller, *snapshot.Store) {
	store := snapshot.New()
	p := NewPoller(api, store, NewSequencer(), persist, logger.NewNop(), time.Hour)
	return p, store
}

func TestPoller_RefreshAppliesEachSlice(t *testing.T) {
	p, store := newTestPoller(&fakeAPI{}, nil)

	rep := p.Refresh(context.Background())

	if !rep.OK() {
		t.Fatalf("Refresh failed: %v", rep.Failed)
	}
	if len(rep.Applied) != 3 {
		t.Errorf("Applied = %v, want channels, alerts and inputs", rep.Applied)
	}

	v := store.View()
	if len(v.Channels) != 1 || len(v.Alerts) != 1 || len(v.Inputs) != 1 {
		t.Errorf("view = %d channels, %d alerts, %d inputs; want 1 each",
			len(v.Channels), len(v.Alerts), len(v.Inputs))
	}
	if !v.Ready {
		t.Error("store not ready after first refresh")
	}
	for _, sl := range snapshot.Slices {
		if v.Loading[sl] {
			t.Errorf("slice %s still loading", sl)
		}
	}
}

func TestPoller_FailedFetchKeepsSlice(t *testing.T) {
	var fail atomic.Bool
	api := &fakeAPI{
		alerts: func(context.Context) ([]domain.Alert, error) {
			if fail.Load() {
				return nil, errors.New("connection refused")
			}
			return []domain.Alert{{ID: 7}}, nil
		},
	}
	p, store := newTestPoller(api, nil)
	p.Refresh(context.Background())

	fail.Store(true)
	rep := p.Refresh(context.Background())

	if _, ok := rep.Failed[snapshot.Alerts]; !ok {
		t.Fatalf("Failed = %v, want alerts", rep.Failed)
	}
	if len(rep.Applied) != 2 {
		t.Errorf("Applied = %v, want channels and inputs", rep.Applied)
	}

	v := store.View()
	if len(v.Alerts) != 1 || v.Alerts[0].ID != 7 {
		t.Errorf("alerts = %+v, want previous list kept", v.Alerts)
	}
	if v.Errors[snapshot.Alerts] == "" {
		t.Error("alerts error not recorded")
	}
}

func TestPoller_StaleResponseIsDropped(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	api := &fakeAPI{
		alerts: func(context.Context) ([]domain.Alert, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-release
				return []domain.Alert{{ID: 1}}, nil
			}
			return []domain.Alert{{ID: 2}}, nil
		},
	}
	p, store := newTestPoller(api, nil)

	slow := make(chan Report, 1)
	go func() { slow <- p.Refresh(context.Background()) }()
	<-started

	fast := p.Refresh(context.Background())
	if !fast.OK() {
		t.Fatalf("fast refresh failed: %v", fast.Failed)
	}
	close(release)
	rep := <-slow

	found := false
	for _, sl := range rep.Stale {
		if sl == snapshot.Alerts {
			found = true
		}
	}
	if !found {
		t.Errorf("slow round Stale = %v, want alerts", rep.Stale)
	}

	v := store.View()
	if len(v.Alerts) != 1 || v.Alerts[0].ID != 2 {
		t.Errorf("alerts = %+v, want the newer response", v.Alerts)
	}
}

func TestPoller_ChannelsForOldFilterAreDropped(t *testing.T) {
	tier := 1
	var store *snapshot.Store
	api := &fakeAPI{
		channels: func(_ context.Context, f domain.ChannelFilter) ([]domain.Channel, error) {
			// the operator changes the filter while the request is in flight
			store.SetFilter(domain.ChannelFilter{Tier: &tier})
			return []domain.Channel{{ID: 3, Name: "x", Tier: 2}}, nil
		},
	}
	p, s := newTestPoller(api, nil)
	store = s

	rep := p.Refresh(context.Background())

	if len(rep.Stale) != 1 || rep.Stale[0] != snapshot.Channels {
		t.Errorf("Stale = %v, want channels", rep.Stale)
	}
	if got := store.View().Channels; len(got) != 0 {
		t.Errorf("channels = %+v, want none applied", got)
	}
}

func TestPoller_StopCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	api := &fakeAPI{
		alerts: func(ctx context.Context) ([]domain.Alert, error) {
			once.Do(func() { close(started) })
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	p, store := newTestPoller(api, nil)
	p.Start(context.Background())
	<-started

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a fetch was in flight")
	}

	if e := store.View().Errors[snapshot.Alerts]; e != "" {
		t.Errorf("cancelled fetch recorded as failure: %q", e)
	}
	p.Stop()
}

func TestPoller_Trigger(t *testing.T) {
	p, _ := newTestPoller(&fakeAPI{}, nil)

	if !p.Trigger() {
		t.Error("first Trigger() = false, want true")
	}
	if p.Trigger() {
		t.Error("Trigger() with one queued = true, want false")
	}
}

func TestPoller_TriggerRunsRefresh(t *testing.T) {
	var calls atomic.Int32
	api := &fakeAPI{
		inputs: func(context.Context) ([]domain.ProbeInput, error) {
			calls.Add(1)
			return []domain.ProbeInput{{ID: 1, Name: "in"}}, nil
		},
	}
	p, _ := newTestPoller(api, nil)
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Trigger()
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := calls.Load(); got < 2 {
		t.Errorf("inputs fetched %d times, want at least 2", got)
	}
}

func TestPoller_DebugOnlyWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	api := &fakeAPI{
		debugSystem: func(context.Context) (*domain.DebugSystem, error) {
			calls.Add(1)
			return &domain.DebugSystem{Status: "healthy"}, nil
		},
	}
	p, store := newTestPoller(api, nil)

	p.Refresh(context.Background())
	if calls.Load() != 0 {
		t.Fatalf("debug fetched while disabled")
	}

	p.SetDebug(true)
	p.Refresh(context.Background())
	if calls.Load() != 1 {
		t.Errorf("debug fetched %d times, want 1", calls.Load())
	}
	d := store.View().Debug
	if d.Inputs == nil || d.System == nil {
		t.Errorf("debug = %+v, want both dumps", d)
	}
}

func TestPoller_DebugFailsAsOne(t *testing.T) {
	api := &fakeAPI{
		debugInputs: func(context.Context) (*domain.DebugInputs, error) {
			return nil, errors.New("boom")
		},
	}
	p, store := newTestPoller(api, nil)
	p.SetDebug(true)

	rep := p.Refresh(context.Background())

	if _, ok := rep.Failed[snapshot.Debug]; !ok {
		t.Errorf("Failed = %v, want debug", rep.Failed)
	}
	if d := store.View().Debug; d.System != nil {
		t.Errorf("debug system applied despite failure: %+v", d.System)
	}
}

func TestPoller_SavesSnapshot(t *testing.T) {
	persist := &fakePersister{}
	p, _ := newTestPoller(&fakeAPI{}, persist)

	p.Refresh(context.Background())

	if persist.count() != 1 {
		t.Fatalf("saved %d snapshots, want 1", persist.count())
	}
	if got := persist.saved[0]; len(got.Channels) != 1 || len(got.Inputs) != 1 {
		t.Errorf("saved = %+v", got)
	}
}

func TestPoller_NoSaveWhenNothingApplied(t *testing.T) {
	fail := func(context.Context) error { return errors.New("down") }
	api := &fakeAPI{
		channels: func(ctx context.Context, _ domain.ChannelFilter) ([]domain.Channel, error) { return nil, fail(ctx) },
		alerts:   func(ctx context.Context) ([]domain.Alert, error) { return nil, fail(ctx) },
		inputs:   func(ctx context.Context) ([]domain.ProbeInput, error) { return nil, fail(ctx) },
	}
	persist := &fakePersister{}
	p, store := newTestPoller(api, persist)

	rep := p.Refresh(context.Background())

	if len(rep.Failed) != 3 {
		t.Errorf("Failed = %v, want 3 slices", rep.Failed)
	}
	if persist.count() != 0 {
		t.Errorf("saved %d snapshots after a failed round", persist.count())
	}
	if store.Ready() {
		t.Error("a round where every fetch failed must not make the store ready")
	}
}

func TestPoller_RefreshAlertsOnly(t *testing.T) {
	var inputs atomic.Int32
	api := &fakeAPI{
		inputs: func(context.Context) ([]domain.ProbeInput, error) {
			inputs.Add(1)
			return nil, nil
		},
	}
	p, store := newTestPoller(api, nil)

	if err := p.RefreshAlerts(context.Background()); err != nil {
		t.Fatalf("RefreshAlerts: %v", err)
	}
	if inputs.Load() != 0 {
		t.Error("RefreshAlerts fetched inputs")
	}
	if len(store.View().Alerts) != 1 {
		t.Error("alerts not applied")
	}
}
