package console

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

// fakeAPI is an in-memory monitoring API that records the calls it gets.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	inputs    []domain.ProbeInput
	alerts    []domain.Alert
	ackErr    error
	resolvErr error
	createErr error
	updateErr error
	deleteErr error
	getInput  *domain.ProbeInput

	created []domain.ProbeInputRequest
	updated map[int]domain.ProbeInputRequest
	ackedBy []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls: make(map[string]int),
		inputs: []domain.ProbeInput{
			{ID: 3, Name: "feed-a", URL: "udp://239.1.1.1:5000", Type: "MPEGTS_UDP", ProbeID: 2,
				Port: domain.Ptr(5000), Protocol: domain.Ptr("udp"), IsPrimary: true, Enabled: true},
			{ID: 4, Name: "feed-b", URL: "http://origin/live.ts", Type: "HTTP", ProbeID: 1,
				BitrateMbps: domain.Ptr(12.5)},
		},
		alerts: []domain.Alert{
			{ID: 10, Severity: domain.SeverityCritical, Message: "sync loss", CreatedAt: domain.NewTimestamp(time.Now())},
			{ID: 11, Severity: domain.SeverityMinor, Acknowledged: true, CreatedAt: domain.NewTimestamp(time.Now())},
		},
		updated: make(map[int]domain.ProbeInputRequest),
	}
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) ListChannels(context.Context, domain.ChannelFilter) ([]domain.Channel, error) {
	f.hit("channels")
	return []domain.Channel{{ID: 1, Name: "News", Tier: 1}, {ID: 2, Name: "Sport 4K", Tier: 1, Is4K: true}}, nil
}

func (f *fakeAPI) ActiveAlerts(context.Context) ([]domain.Alert, error) {
	f.hit("alerts")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Alert(nil), f.alerts...), nil
}

func (f *fakeAPI) ListInputs(context.Context) ([]domain.ProbeInput, error) {
	f.hit("inputs")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ProbeInput(nil), f.inputs...), nil
}

func (f *fakeAPI) DebugInputs(context.Context) (*domain.DebugInputs, error) {
	f.hit("debug_inputs")
	return &domain.DebugInputs{Status: "ok", Count: 2}, nil
}

func (f *fakeAPI) DebugSystem(context.Context) (*domain.DebugSystem, error) {
	f.hit("debug_system")
	return &domain.DebugSystem{Status: "healthy"}, nil
}

func (f *fakeAPI) Health(context.Context) (*domain.Health, error) {
	f.hit("health")
	return &domain.Health{Status: domain.HealthHealthy, Database: "connected"}, nil
}

func (f *fakeAPI) StreamMetrics(_ context.Context, id, _ int) ([]domain.BitrateSample, error) {
	f.hit("stream")
	v := 8.0
	return []domain.BitrateSample{{Time: domain.NewTimestamp(time.Now()), Field: domain.MetricBitrate, Value: &v}}, nil
}

func (f *fakeAPI) TR101290(context.Context, int) (*domain.TR101290, error) {
	return &domain.TR101290{}, nil
}

func (f *fakeAPI) InputStatus(_ context.Context, id int) (*domain.InputStatus, error) {
	return &domain.InputStatus{InputName: "feed", Enabled: true}, nil
}

func (f *fakeAPI) MDI(context.Context, int) (*domain.MDI, error) {
	return &domain.MDI{DF: domain.Ptr(12.0)}, nil
}

func (f *fakeAPI) QoE(context.Context, int) (*domain.QoE, error) {
	return &domain.QoE{OverallMOS: domain.Ptr(4.2)}, nil
}

func (f *fakeAPI) Codec(context.Context, int) (*domain.CodecInfo, error) {
	return &domain.CodecInfo{VideoCodec: domain.Ptr("h264")}, nil
}

func (f *fakeAPI) AcknowledgeAlert(_ context.Context, _ int, operator string) (string, error) {
	f.hit("ack")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ackedBy = append(f.ackedBy, operator)
	return "", f.ackErr
}

func (f *fakeAPI) ResolveAlert(context.Context, int) (string, error) {
	f.hit("resolve")
	return "Alert resolved", f.resolvErr
}

func (f *fakeAPI) GetInput(_ context.Context, id int) (*domain.ProbeInput, error) {
	f.hit("get_input")
	if f.getInput != nil {
		return f.getInput, nil
	}
	return &domain.ProbeInput{ID: id, Name: "remote", URL: "srt://10.0.0.1:9000", Type: "SRT", ProbeID: 1}, nil
}

func (f *fakeAPI) CreateInput(_ context.Context, req domain.ProbeInputRequest) (int, string, error) {
	f.hit("create")
	if f.createErr != nil {
		return 0, "", f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return 42, "", nil
}

func (f *fakeAPI) UpdateInput(_ context.Context, id int, req domain.ProbeInputRequest) (string, error) {
	f.hit("update")
	if f.updateErr != nil {
		return "", f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = req
	return "", nil
}

func (f *fakeAPI) DeleteInput(context.Context, int) (string, error) {
	f.hit("delete")
	return "Input deleted", f.deleteErr
}

func (f *fakeAPI) InputSnapshot(context.Context, int) (*domain.Thumbnail, error) {
	f.hit("snapshot")
	return &domain.Thumbnail{ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}, nil
}

type memoryAuditor struct {
	mu   sync.Mutex
	recs []domain.ActionRecord
}

func (m *memoryAuditor) RecordAction(_ context.Context, rec domain.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

type memoryThumbnails struct {
	mu    sync.Mutex
	items map[int]domain.Thumbnail
}

func (m *memoryThumbnails) GetCachedThumbnail(_ context.Context, id int) (*domain.Thumbnail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memoryThumbnails) CacheThumbnail(_ context.Context, id int, t domain.Thumbnail, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[int]domain.Thumbnail)
	}
	m.items[id] = t
	return nil
}

func (m *memoryThumbnails) InvalidateThumbnail(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}
