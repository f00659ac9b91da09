package snapshot

import (
	"slices"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

// Slice names one independently refreshed part of the snapshot.
type Slice string

const (
	Channels Slice = "channels"
	Alerts   Slice = "alerts"
	Inputs   Slice = "inputs"
	Health   Slice = "health"
	Debug    Slice = "debug"
)

// Slices lists every slice in display order.
var Slices = []Slice{Channels, Alerts, Inputs, Health, Debug}

// Store holds the latest snapshot fetched from the monitoring API.
//
// Each slice is replaced wholesale and only by a response whose request
// sequence is newer than the one already applied, so a slow response can
// never overwrite fresher data.
type Store struct {
	mu sync.RWMutex

	channels []domain.Channel
	alerts   []domain.Alert
	inputs   []domain.ProbeInput
	health   *domain.Health
	debug    domain.Debug
	filter   domain.ChannelFilter

	applied  map[Slice]uint64
	inFlight map[Slice]int
	updated  map[Slice]time.Time
	lastErr  map[Slice]string
	ready    bool
	restored bool
	seeded   map[Slice]bool
}

func New() *Store {
	return &Store{
		channels: []domain.Channel{},
		alerts:   []domain.Alert{},
		inputs:   []domain.ProbeInput{},
		applied:  make(map[Slice]uint64),
		inFlight: make(map[Slice]int),
		updated:  make(map[Slice]time.Time),
		lastErr:  make(map[Slice]string),
		seeded:   make(map[Slice]bool),
	}
}

// accept must be called with the write lock held.
func (s *Store) accept(slice Slice, seq uint64) bool {
	if seq <= s.applied[slice] {
		return false
	}
	s.applied[slice] = seq
	s.updated[slice] = time.Now()
	delete(s.lastErr, slice)
	return true
}

// ApplyChannels replaces the channel list if seq is newer than the last
// applied one and filter is still the active filter.
func (s *Store) ApplyChannels(seq uint64, filter domain.ChannelFilter, channels []domain.Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !filter.Equal(s.filter) || !s.accept(Channels, seq) {
		return false
	}
	s.channels = slices.Clone(channels)
	return true
}

func (s *Store) ApplyAlerts(seq uint64, alerts []domain.Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accept(Alerts, seq) {
		return false
	}
	s.alerts = slices.Clone(alerts)
	return true
}

func (s *Store) ApplyInputs(seq uint64, inputs []domain.ProbeInput) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accept(Inputs, seq) {
		return false
	}
	s.inputs = slices.Clone(inputs)
	return true
}

func (s *Store) ApplyHealth(seq uint64, h *domain.Health) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accept(Health, seq) {
		return false
	}
	s.health = h
	return true
}

func (s *Store) ApplyDebug(seq uint64, d domain.Debug) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accept(Debug, seq) {
		return false
	}
	s.debug = d
	return true
}

// Fail records a failed fetch. The slice data is left untouched. A failure
// of a request older than the applied data is ignored; it reports whether
// the error was recorded.
func (s *Store) Fail(slice Slice, seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied[slice] {
		return false
	}
	s.lastErr[slice] = err.Error()
	return true
}

// Begin marks a fetch of slice as in flight; the returned func ends it.
func (s *Store) Begin(slice Slice) (end func()) {
	s.mu.Lock()
	s.inFlight[slice]++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.inFlight[slice]--
			s.mu.Unlock()
		})
	}
}

func (s *Store) Loading(slice Slice) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight[slice] > 0
}

// SetFilter changes the active channel filter and reports whether it
// actually changed.
func (s *Store) SetFilter(f domain.ChannelFilter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Equal(s.filter) {
		return false
	}
	s.filter = f
	return true
}

func (s *Store) Filter() domain.ChannelFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// MarkReady records that a first refresh round has completed. The store
// only becomes ready once a list slice holds data, fetched or restored,
// and it reports whether it is ready.
func (s *Store) MarkReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		s.ready = s.loaded(Channels) || s.loaded(Alerts) || s.loaded(Inputs)
	}
	return s.ready
}

// Loaded reports whether slice holds data from a successful fetch or from
// the warm-start cache.
func (s *Store) Loaded(slice Slice) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded(slice)
}

func (s *Store) loaded(slice Slice) bool {
	return s.applied[slice] > 0 || s.seeded[slice]
}

func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Input returns the input with id from the current snapshot.
func (s *Store) Input(id int) (domain.ProbeInput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, in := range s.inputs {
		if in.ID == id {
			return in, true
		}
	}
	return domain.ProbeInput{}, false
}

// Counts returns the number of records held per list slice.
func (s *Store) Counts() map[Slice]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[Slice]int{
		Channels: len(s.channels),
		Alerts:   len(s.alerts),
		Inputs:   len(s.inputs),
	}
}

// View is a consistent copy of the store for renderers.
type View struct {
	Channels  []domain.Channel     `json:"channels"`
	Alerts    []domain.Alert       `json:"alerts"`
	Inputs    []domain.ProbeInput  `json:"inputs"`
	Health    *domain.Health       `json:"health,omitempty"`
	Debug     domain.Debug         `json:"debug"`
	Filter    domain.ChannelFilter `json:"filter"`
	Loading   map[Slice]bool       `json:"loading"`
	UpdatedAt map[Slice]time.Time  `json:"updated_at"`
	Errors    map[Slice]string     `json:"errors,omitempty"`
	Ready     bool                 `json:"ready"`
	Restored  bool                 `json:"restored"`
}

func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Channels:  slices.Clone(s.channels),
		Alerts:    slices.Clone(s.alerts),
		Inputs:    slices.Clone(s.inputs),
		Health:    s.health,
		Debug:     s.debug,
		Filter:    s.filter,
		Loading:   make(map[Slice]bool, len(Slices)),
		UpdatedAt: make(map[Slice]time.Time, len(s.updated)),
		Errors:    make(map[Slice]string, len(s.lastErr)),
		Ready:     s.ready,
		Restored:  s.restored,
	}
	for _, sl := range Slices {
		v.Loading[sl] = s.inFlight[sl] > 0
	}
	for k, t := range s.updated {
		v.UpdatedAt[k] = t
	}
	for k, e := range s.lastErr {
		v.Errors[k] = e
	}
	return v
}
