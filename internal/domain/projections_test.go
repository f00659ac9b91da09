package domain

import (
	"reflect"
	"testing"
	"time"
)

func alertAt(id int, sev Severity, acked bool, created time.Time) Alert {
	return Alert{ID: id, Severity: sev, Acknowledged: acked, CreatedAt: NewTimestamp(created)}
}

func TestCountBySeverity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		alerts []Alert
		want   SeverityCounts
	}{
		{
			name:   "empty",
			alerts: nil,
			want:   SeverityCounts{},
		},
		{
			name: "mixed severities",
			alerts: []Alert{
				alertAt(1, SeverityCritical, false, now),
				alertAt(2, SeverityMajor, true, now),
				alertAt(3, SeverityMinor, false, now),
				alertAt(4, "critical", false, now),
				alertAt(5, "INFO", false, now),
				alertAt(6, "", false, now),
			},
			want: SeverityCounts{Critical: 2, Major: 1, Minor: 1, Other: 2, Total: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountBySeverity(tt.alerts)
			if got != tt.want {
				t.Errorf("CountBySeverity() = %+v, want %+v", got, tt.want)
			}
			if sum := got.Critical + got.Major + got.Minor + got.Other; sum != got.Total {
				t.Errorf("severity buckets sum to %d, total is %d", sum, got.Total)
			}
		})
	}
}

func TestSeverityBucketsAlwaysSumToTotal(t *testing.T) {
	severities := []Severity{SeverityCritical, SeverityMajor, SeverityMinor, "WARN", "minor", ""}
	var alerts []Alert
	for i := 0; i < 50; i++ {
		alerts = append(alerts, Alert{ID: i + 1, Severity: severities[i%len(severities)]})
		c := CountBySeverity(alerts)
		if c.Critical+c.Major+c.Minor+c.Other != c.Total || c.Total != len(alerts) {
			t.Fatalf("after %d alerts: %+v", len(alerts), c)
		}
	}
}

func TestFilterAlertsUnacknowledged(t *testing.T) {
	now := time.Now()
	lists := [][]Alert{
		{},
		{alertAt(1, SeverityCritical, true, now)},
		{alertAt(1, SeverityCritical, false, now), alertAt(2, SeverityMajor, true, now), alertAt(3, SeverityMinor, false, now)},
	}

	for _, alerts := range lists {
		got := FilterAlerts(alerts, AlertFilterUnacknowledged)
		if got == nil {
			t.Fatalf("FilterAlerts() returned nil for %d alerts", len(alerts))
		}
		want := 0
		for _, a := range alerts {
			if !a.Acknowledged {
				want++
			}
		}
		if len(got) != want {
			t.Errorf("FilterAlerts(unack) = %d alerts, want %d", len(got), want)
		}
		for _, a := range got {
			if a.Acknowledged {
				t.Errorf("alert %d is acknowledged but passed the filter", a.ID)
			}
		}
	}
}

func TestAlertTabCountsScenario(t *testing.T) {
	now := time.Now()
	alerts := []Alert{
		alertAt(1, SeverityCritical, false, now),
		alertAt(2, SeverityMajor, true, now),
	}

	counts := CountAlertTabs(alerts)
	if counts.Count(AlertFilterUnacknowledged) != 1 {
		t.Errorf("unack count = %d, want 1", counts.Unacknowledged)
	}
	if counts.Count(AlertFilterAll) != 2 {
		t.Errorf("all count = %d, want 2", counts.All)
	}
	for _, f := range AlertFilters {
		if got := len(FilterAlerts(alerts, f)); got != counts.Count(f) {
			t.Errorf("tab %s: badge %d, filtered %d", f, counts.Count(f), got)
		}
	}
}

func TestParseAlertFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    AlertFilter
		wantErr bool
	}{
		{"", AlertFilterAll, false},
		{"all", AlertFilterAll, false},
		{"CRITICAL", AlertFilterCritical, false},
		{"unacknowledged", AlertFilterUnacknowledged, false},
		{"unack", AlertFilterUnacknowledged, false},
		{"bogus", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAlertFilter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlertFilter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAlertFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTierDistribution(t *testing.T) {
	var channels []Channel
	for i, tier := range []int{1, 1, 1, 2, 2, 2, 2, 3, 3, 3} {
		channels = append(channels, Channel{ID: i + 1, Name: "ch", Tier: tier})
	}

	got := TierDistribution(channels)
	want := []TierCount{{Tier: 1, Count: 3}, {Tier: 2, Count: 4}, {Tier: 3, Count: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TierDistribution() = %+v, want %+v", got, want)
	}
}

func TestTierDistributionEmptyKeepsAllTiers(t *testing.T) {
	got := TierDistribution(nil)
	want := []TierCount{{Tier: 1}, {Tier: 2}, {Tier: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TierDistribution(nil) = %+v, want %+v", got, want)
	}
}

func TestCountResolutions(t *testing.T) {
	channels := []Channel{
		{ID: 1, Tier: 1, Is4K: true},
		{ID: 2, Tier: 1},
		{ID: 3, Tier: 2},
		{ID: 4, Tier: 3},
		{ID: 5, Tier: 3, Is4K: true},
	}
	got := CountResolutions(channels)
	if got.UHD != 2 || got.HD != 2 {
		t.Errorf("CountResolutions() = %+v, want 4K=2 HD=2", got)
	}
}

func TestRecentAlerts(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var alerts []Alert
	for i := 0; i < 15; i++ {
		alerts = append(alerts, alertAt(i+1, SeverityMinor, false, base.Add(time.Duration(i)*time.Minute)))
	}

	got := RecentAlerts(alerts, RecentAlertLimit)
	if len(got) != RecentAlertLimit {
		t.Fatalf("RecentAlerts() len = %d, want %d", len(got), RecentAlertLimit)
	}
	if got[0].ID != 15 || got[9].ID != 6 {
		t.Errorf("RecentAlerts() order = first %d last %d, want 15 and 6", got[0].ID, got[9].ID)
	}
	if alerts[0].ID != 1 {
		t.Error("RecentAlerts() modified its input")
	}
}

func TestChannelFilter(t *testing.T) {
	channels := []Channel{
		{ID: 1, Tier: 1, Is4K: true},
		{ID: 2, Tier: 1},
		{ID: 3, Tier: 2, Is4K: true},
	}

	f, err := ParseChannelFilter("1", "true")
	if err != nil {
		t.Fatalf("ParseChannelFilter() error = %v", err)
	}
	got := FilterChannels(channels, f)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("FilterChannels() = %+v, want channel 1", got)
	}

	q := f.Query()
	if q["tier"] != "1" || q["is_4k"] != "true" {
		t.Errorf("Query() = %v", q)
	}

	if q := (ChannelFilter{}).Query(); len(q) != 0 {
		t.Errorf("empty filter Query() = %v, want empty", q)
	}

	if _, err := ParseChannelFilter("7", ""); err == nil {
		t.Error("ParseChannelFilter(7) expected error")
	}
	if !f.Equal(ChannelFilter{Tier: Ptr(1), Is4K: Ptr(true)}) {
		t.Error("Equal() = false for identical filters")
	}
	if f.Equal(ChannelFilter{Tier: Ptr(1)}) {
		t.Error("Equal() = true for different filters")
	}
}

func TestBuildOverview(t *testing.T) {
	now := time.Now()
	channels := []Channel{
		{ID: 1, Tier: 1, Enabled: true},
		{ID: 2, Tier: 3, Is4K: true},
	}
	alerts := []Alert{alertAt(1, SeverityCritical, false, now)}
	inputs := []ProbeInput{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}

	o := BuildOverview(channels, alerts, inputs)
	if o.TotalChannels != 2 || o.EnabledChannels != 1 || o.TotalInputs != 3 || o.ActiveAlerts != 1 {
		t.Errorf("BuildOverview() KPIs = %+v", o)
	}
	if o.Resolution.UHD != 1 || o.Resolution.HD != 1 {
		t.Errorf("BuildOverview() resolution = %+v", o.Resolution)
	}
	if len(o.Tiers) != 3 || len(o.RecentAlerts) != 1 {
		t.Errorf("BuildOverview() tiers=%d recent=%d", len(o.Tiers), len(o.RecentAlerts))
	}
}

func TestSearchInputs(t *testing.T) {
	inputs := []ProbeInput{
		{ID: 1, Name: "BBC One", URL: "udp://239.1.1.1:5000", Type: "MPEGTS_UDP"},
		{ID: 2, Name: "ITV", URL: "srt://ingest:9000", Type: "SRT", ChannelName: Ptr("ITV HD")},
		{ID: 3, Name: "Sky", URL: "http://origin/live.ts", Type: "HTTP"},
	}

	tests := []struct {
		term string
		want []int
	}{
		{"", []int{1, 2, 3}},
		{"bbc", []int{1}},
		{"ITV hd", []int{2}},
		{"239.1", []int{1}},
		{"http", []int{3}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		var ids []int
		for _, in := range SearchInputs(inputs, tt.term) {
			ids = append(ids, in.ID)
		}
		if !reflect.DeepEqual(ids, tt.want) {
			t.Errorf("SearchInputs(%q) = %v, want %v", tt.term, ids, tt.want)
		}
	}
}

func TestSortInputs(t *testing.T) {
	inputs := []ProbeInput{
		{ID: 2, Name: "b", BitrateMbps: Ptr(8.0)},
		{ID: 1, Name: "C"},
		{ID: 3, Name: "a", BitrateMbps: Ptr(2.5)},
	}

	ids := func(in []ProbeInput) []int {
		var out []int
		for _, p := range in {
			out = append(out, p.ID)
		}
		return out
	}

	byName, _ := SortInputs(inputs, "name", false)
	if got := ids(byName); !reflect.DeepEqual(got, []int{3, 2, 1}) {
		t.Errorf("sort by name = %v", got)
	}
	byBitrate, _ := SortInputs(inputs, "bitrate", true)
	if got := ids(byBitrate); !reflect.DeepEqual(got, []int{2, 3, 1}) {
		t.Errorf("sort by bitrate desc = %v", got)
	}
	if _, err := SortInputs(inputs, "color", false); err == nil {
		t.Error("SortInputs(color) expected error")
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantLen   int
		wantFirst int
	}{
		{"first page", 1, 1, 10, 0},
		{"last page", 3, 3, 3, 20},
		{"page below range", 0, 1, 10, 0},
		{"page above range", 9, 3, 3, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, InputsPerPage)
			if p.Page != tt.wantPage || len(p.Items) != tt.wantLen || p.Items[0] != tt.wantFirst {
				t.Errorf("Paginate(page=%d) = page %d len %d", tt.page, p.Page, len(p.Items))
			}
			if p.TotalPages != 3 || p.Total != 23 {
				t.Errorf("Paginate() totals = %d pages, %d items", p.TotalPages, p.Total)
			}
		})
	}

	empty := Paginate([]int{}, 1, InputsPerPage)
	if empty.TotalPages != 1 || len(empty.Items) != 0 || empty.HasNext() || empty.HasPrev() {
		t.Errorf("Paginate(empty) = %+v", empty)
	}
}
