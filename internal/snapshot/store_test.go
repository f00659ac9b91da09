package snapshot

import (
	"errors"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

func channels(ids ...int) []domain.Channel {
	out := make([]domain.Channel, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Channel{ID: id, Name: "ch", Tier: 1})
	}
	return out
}

func TestStaleResponseIsDropped(t *testing.T) {
	s := New()

	if !s.ApplyChannels(2, domain.ChannelFilter{}, channels(1, 2)) {
		t.Fatal("ApplyChannels(seq=2) = false, want true")
	}
	if s.ApplyChannels(1, domain.ChannelFilter{}, channels(9)) {
		t.Error("ApplyChannels(seq=1) after seq=2 = true, want false")
	}
	if s.ApplyChannels(2, domain.ChannelFilter{}, channels(9)) {
		t.Error("ApplyChannels(seq=2) twice = true, want false")
	}

	v := s.View()
	if len(v.Channels) != 2 || v.Channels[0].ID != 1 {
		t.Errorf("channels = %+v, want the seq=2 list", v.Channels)
	}
}

func TestSlicesAreIndependent(t *testing.T) {
	s := New()
	s.ApplyAlerts(5, []domain.Alert{{ID: 1}})

	if !s.ApplyInputs(1, []domain.ProbeInput{{ID: 1, Name: "a"}}) {
		t.Error("inputs seq is independent of alerts seq")
	}
	if got := s.Counts(); got[Alerts] != 1 || got[Inputs] != 1 || got[Channels] != 0 {
		t.Errorf("Counts() = %v", got)
	}
}

func TestFailKeepsPreviousData(t *testing.T) {
	s := New()
	s.ApplyChannels(1, domain.ChannelFilter{}, channels(1, 2, 3))
	if !s.Fail(Channels, 2, errors.New("connection refused")) {
		t.Fatal("Fail(seq=2) after seq=1 = false, want true")
	}

	v := s.View()
	if len(v.Channels) != 3 {
		t.Errorf("channels after failure = %d, want 3", len(v.Channels))
	}
	if v.Errors[Channels] != "connection refused" {
		t.Errorf("Errors[channels] = %q", v.Errors[Channels])
	}

	s.ApplyChannels(3, domain.ChannelFilter{}, channels(1))
	if _, ok := s.View().Errors[Channels]; ok {
		t.Error("successful apply should clear the error")
	}
}

func TestSupersededFailureIsIgnored(t *testing.T) {
	s := New()
	s.ApplyAlerts(5, []domain.Alert{{ID: 1}})

	if s.Fail(Alerts, 4, errors.New("timeout")) {
		t.Error("Fail(seq=4) after seq=5 applied = true, want false")
	}
	if _, ok := s.View().Errors[Alerts]; ok {
		t.Error("a slow failure must not flag fresh data")
	}
	if !s.Fail(Alerts, 6, errors.New("timeout")) {
		t.Error("Fail(seq=6) = false, want true")
	}
}

func TestReadyNeedsData(t *testing.T) {
	s := New()

	if s.MarkReady() || s.Ready() {
		t.Fatal("store is ready without any data")
	}
	if s.Loaded(Inputs) {
		t.Error("Loaded(inputs) on an empty store")
	}

	s.ApplyInputs(1, nil)
	if !s.Loaded(Inputs) {
		t.Error("an applied empty list is still loaded")
	}
	if !s.MarkReady() || !s.Ready() {
		t.Error("store not ready after inputs were applied")
	}
}

func TestRestoreMakesReady(t *testing.T) {
	s := New()
	s.Restore(Persisted{Inputs: []domain.ProbeInput{{ID: 3, Name: "feed-a"}}})

	if !s.Loaded(Inputs) || s.Loaded(Channels) {
		t.Errorf("Loaded() after restoring inputs: inputs=%v channels=%v", s.Loaded(Inputs), s.Loaded(Channels))
	}
	if !s.MarkReady() {
		t.Error("restored data should make the store ready")
	}
}

func TestRestoreFiltersUnfilteredChannels(t *testing.T) {
	tier := 2
	s := New()
	s.SetFilter(domain.ChannelFilter{Tier: &tier})

	list := []domain.Channel{{ID: 1, Name: "a", Tier: 1}, {ID: 2, Name: "b", Tier: 2}}
	if !s.Restore(Persisted{Channels: list}) {
		t.Fatal("Restore() = false")
	}
	if v := s.View(); len(v.Channels) != 1 || v.Channels[0].ID != 2 {
		t.Errorf("channels = %+v, want tier 2 only", v.Channels)
	}

	one := 1
	s = New()
	s.SetFilter(domain.ChannelFilter{Tier: &tier})
	s.Restore(Persisted{Channels: list, Filter: domain.ChannelFilter{Tier: &one}})
	if v := s.View(); len(v.Channels) != 0 {
		t.Errorf("channels saved under another filter were restored: %+v", v.Channels)
	}
}

func TestChannelsForOldFilterAreDropped(t *testing.T) {
	s := New()
	tier := 2
	if !s.SetFilter(domain.ChannelFilter{Tier: &tier}) {
		t.Fatal("SetFilter() = false for a new filter")
	}
	if s.SetFilter(domain.ChannelFilter{Tier: domain.Ptr(2)}) {
		t.Error("SetFilter() = true for the same filter")
	}

	if s.ApplyChannels(10, domain.ChannelFilter{}, channels(1)) {
		t.Error("response for a previous filter was applied")
	}
	if !s.ApplyChannels(11, domain.ChannelFilter{Tier: &tier}, channels(2)) {
		t.Error("response for the active filter was dropped")
	}
}

func TestLoadingFlag(t *testing.T) {
	s := New()
	end1 := s.Begin(Alerts)
	end2 := s.Begin(Alerts)
	if !s.Loading(Alerts) {
		t.Fatal("Loading() = false with fetches in flight")
	}
	end1()
	end1()
	if !s.Loading(Alerts) {
		t.Error("double end must not release another fetch")
	}
	end2()
	if s.Loading(Alerts) {
		t.Error("Loading() = true after all fetches ended")
	}
}

func TestViewIsACopy(t *testing.T) {
	s := New()
	s.ApplyInputs(1, []domain.ProbeInput{{ID: 1, Name: "a"}})

	v := s.View()
	v.Inputs[0].Name = "mutated"

	if in, _ := s.Input(1); in.Name != "a" {
		t.Errorf("store was mutated through a view: %q", in.Name)
	}
}

func TestConcurrentApply(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			s.ApplyAlerts(seq, []domain.Alert{{ID: int(seq)}})
		}(uint64(i))
	}
	wg.Wait()

	v := s.View()
	if len(v.Alerts) != 1 || v.Alerts[0].ID != 100 {
		t.Errorf("alerts = %+v, want the seq=100 list", v.Alerts)
	}
}

func TestRestore(t *testing.T) {
	s := New()
	s.ApplyAlerts(1, []domain.Alert{{ID: 7}})

	ok := s.Restore(Persisted{
		Channels: channels(1, 2),
		Alerts:   []domain.Alert{{ID: 1}, {ID: 2}},
		Health:   &domain.Health{Status: domain.HealthHealthy},
	})
	if !ok {
		t.Fatal("Restore() = false")
	}

	v := s.View()
	if len(v.Channels) != 2 {
		t.Errorf("channels = %d, want restored 2", len(v.Channels))
	}
	if len(v.Alerts) != 1 || v.Alerts[0].ID != 7 {
		t.Errorf("live alerts were overwritten by restore: %+v", v.Alerts)
	}
	if !v.Restored {
		t.Error("View().Restored = false")
	}

	if !s.ApplyChannels(1, domain.ChannelFilter{}, channels(3)) {
		t.Error("restored data must not block the first live fetch")
	}
}
