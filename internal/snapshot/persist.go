package snapshot

import (
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

// Persisted is the last good snapshot as written to the warm-start cache.
type Persisted struct {
	Channels []domain.Channel     `json:"channels"`
	Alerts   []domain.Alert       `json:"alerts"`
	Inputs   []domain.ProbeInput  `json:"inputs"`
	Health   *domain.Health       `json:"health,omitempty"`
	Filter   domain.ChannelFilter `json:"filter"`
	SavedAt  time.Time            `json:"saved_at"`
}

// Export captures the store for persistence.
func (s *Store) Export() Persisted {
	v := s.View()
	return Persisted{
		Channels: v.Channels,
		Alerts:   v.Alerts,
		Inputs:   v.Inputs,
		Health:   v.Health,
		Filter:   v.Filter,
		SavedAt:  time.Now().UTC(),
	}
}

// Restore seeds the store from a persisted snapshot. Slices already filled
// by a live fetch are kept, and restored data never blocks a later fetch.
// It reports whether anything was restored.
func (s *Store) Restore(p Persisted) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored := false
	seed := func(slice Slice) {
		s.updated[slice] = p.SavedAt
		s.seeded[slice] = true
		restored = true
	}

	if s.applied[Channels] == 0 && len(p.Channels) > 0 {
		switch {
		case p.Filter.Equal(s.filter):
			s.channels = p.Channels
			seed(Channels)
		case p.Filter.Equal(domain.ChannelFilter{}):
			// an unfiltered list can serve any filter
			s.channels = domain.FilterChannels(p.Channels, s.filter)
			seed(Channels)
		}
	}
	if s.applied[Alerts] == 0 && len(p.Alerts) > 0 {
		s.alerts = p.Alerts
		seed(Alerts)
	}
	if s.applied[Inputs] == 0 && len(p.Inputs) > 0 {
		s.inputs = p.Inputs
		seed(Inputs)
	}
	if s.applied[Health] == 0 && p.Health != nil {
		s.health = p.Health
		seed(Health)
	}
	s.restored = s.restored || restored
	return restored
}
