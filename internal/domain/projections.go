package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// RecentAlertLimit is the length of the overview "recent alerts" list.
const RecentAlertLimit = 10

// Tiers are always reported, even when empty.
var Tiers = []int{1, 2, 3}

// SeverityCounts splits alerts by severity. Critical+Major+Minor+Other == Total.
type SeverityCounts struct {
	Critical int `json:"critical" yaml:"critical"`
	Major    int `json:"major" yaml:"major"`
	Minor    int `json:"minor" yaml:"minor"`
	Other    int `json:"other" yaml:"other"`
	Total    int `json:"total" yaml:"total"`
}

func CountBySeverity(alerts []Alert) SeverityCounts {
	var c SeverityCounts
	for _, a := range alerts {
		switch a.Severity.Normalize() {
		case SeverityCritical:
			c.Critical++
		case SeverityMajor:
			c.Major++
		case SeverityMinor:
			c.Minor++
		default:
			c.Other++
		}
	}
	c.Total = len(alerts)
	return c
}

type TierCount struct {
	Tier  int `json:"tier" yaml:"tier"`
	Count int `json:"count" yaml:"count"`
}

// TierDistribution counts channels in tiers 1, 2 and 3. Channels outside
// those tiers are not counted.
func TierDistribution(channels []Channel) []TierCount {
	out := make([]TierCount, len(Tiers))
	for i, tier := range Tiers {
		out[i].Tier = tier
	}
	for _, ch := range channels {
		if ch.Tier >= 1 && ch.Tier <= len(Tiers) {
			out[ch.Tier-1].Count++
		}
	}
	return out
}

type ResolutionCounts struct {
	UHD int `json:"4k" yaml:"4k"`
	HD  int `json:"hd" yaml:"hd"`
}

func CountResolutions(channels []Channel) ResolutionCounts {
	var r ResolutionCounts
	for _, ch := range channels {
		if ch.Is4K {
			r.UHD++
		}
		if ch.IsHD() {
			r.HD++
		}
	}
	return r
}

// RecentAlerts returns the n most recent alerts by created_at, newest first.
// The input slice is not modified.
func RecentAlerts(alerts []Alert, n int) []Alert {
	sorted := slices.Clone(alerts)
	slices.SortStableFunc(sorted, func(a, b Alert) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ─────────────────────────────────────────────────────────────────
// Alert tabs
// ─────────────────────────────────────────────────────────────────

type AlertFilter string

const (
	AlertFilterAll            AlertFilter = "all"
	AlertFilterCritical       AlertFilter = "critical"
	AlertFilterMajor          AlertFilter = "major"
	AlertFilterMinor          AlertFilter = "minor"
	AlertFilterUnacknowledged AlertFilter = "unack"
)

// AlertFilters lists the alert tabs in display order.
var AlertFilters = []AlertFilter{
	AlertFilterAll,
	AlertFilterCritical,
	AlertFilterMajor,
	AlertFilterMinor,
	AlertFilterUnacknowledged,
}

// ParseAlertFilter accepts the tab names; an empty string means all.
func ParseAlertFilter(s string) (AlertFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AlertFilterAll, nil
	case "critical":
		return AlertFilterCritical, nil
	case "major":
		return AlertFilterMajor, nil
	case "minor":
		return AlertFilterMinor, nil
	case "unack", "unacknowledged":
		return AlertFilterUnacknowledged, nil
	default:
		return "", fmt.Errorf("unknown alert filter %q", s)
	}
}

func (f AlertFilter) Match(a Alert) bool {
	switch f {
	case AlertFilterCritical:
		return a.Severity.Normalize() == SeverityCritical
	case AlertFilterMajor:
		return a.Severity.Normalize() == SeverityMajor
	case AlertFilterMinor:
		return a.Severity.Normalize() == SeverityMinor
	case AlertFilterUnacknowledged:
		return !a.Acknowledged
	default:
		return true
	}
}

// FilterAlerts never returns nil.
func FilterAlerts(alerts []Alert, f AlertFilter) []Alert {
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

type AlertTabCounts struct {
	All            int `json:"all" yaml:"all"`
	Critical       int `json:"critical" yaml:"critical"`
	Major          int `json:"major" yaml:"major"`
	Minor          int `json:"minor" yaml:"minor"`
	Unacknowledged int `json:"unack" yaml:"unack"`
}

// Count returns the badge count of one tab.
func (c AlertTabCounts) Count(f AlertFilter) int {
	switch f {
	case AlertFilterCritical:
		return c.Critical
	case AlertFilterMajor:
		return c.Major
	case AlertFilterMinor:
		return c.Minor
	case AlertFilterUnacknowledged:
		return c.Unacknowledged
	default:
		return c.All
	}
}

func CountAlertTabs(alerts []Alert) AlertTabCounts {
	sev := CountBySeverity(alerts)
	c := AlertTabCounts{
		All:      sev.Total,
		Critical: sev.Critical,
		Major:    sev.Major,
		Minor:    sev.Minor,
	}
	for _, a := range alerts {
		if !a.Acknowledged {
			c.Unacknowledged++
		}
	}
	return c
}

// ─────────────────────────────────────────────────────────────────
// Channel filter
// ─────────────────────────────────────────────────────────────────

// ChannelFilter is the tier / 4K filter of the channels tab. Nil fields
// do not filter.
type ChannelFilter struct {
	Tier *int  `json:"tier,omitempty" yaml:"tier,omitempty"`
	Is4K *bool `json:"is_4k,omitempty" yaml:"is_4k,omitempty"`
}

// ParseChannelFilter reads the query-string form of the filter.
func ParseChannelFilter(tier, is4k string) (ChannelFilter, error) {
	var f ChannelFilter
	if tier = strings.TrimSpace(tier); tier != "" && tier != "all" {
		n, err := strconv.Atoi(tier)
		if err != nil || n < 1 || n > len(Tiers) {
			return ChannelFilter{}, fmt.Errorf("invalid tier %q", tier)
		}
		f.Tier = &n
	}
	if is4k = strings.TrimSpace(is4k); is4k != "" && is4k != "all" {
		b, err := strconv.ParseBool(is4k)
		if err != nil {
			return ChannelFilter{}, fmt.Errorf("invalid is_4k %q", is4k)
		}
		f.Is4K = &b
	}
	return f, nil
}

// Query renders the filter as /channels query parameters.
func (f ChannelFilter) Query() map[string]string {
	q := make(map[string]string, 2)
	if f.Tier != nil {
		q["tier"] = strconv.Itoa(*f.Tier)
	}
	if f.Is4K != nil {
		q["is_4k"] = strconv.FormatBool(*f.Is4K)
	}
	return q
}

func (f ChannelFilter) Match(c Channel) bool {
	if f.Tier != nil && c.Tier != *f.Tier {
		return false
	}
	if f.Is4K != nil && c.Is4K != *f.Is4K {
		return false
	}
	return true
}

func (f ChannelFilter) Equal(o ChannelFilter) bool {
	return ptrEqual(f.Tier, o.Tier) && ptrEqual(f.Is4K, o.Is4K)
}

func FilterChannels(channels []Channel, f ChannelFilter) []Channel {
	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if f.Match(ch) {
			out = append(out, ch)
		}
	}
	return out
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ─────────────────────────────────────────────────────────────────
// Overview
// ─────────────────────────────────────────────────────────────────

// Overview holds the KPIs of the overview tab.
type Overview struct {
	TotalChannels   int              `json:"total_channels" yaml:"total_channels"`
	EnabledChannels int              `json:"enabled_channels" yaml:"enabled_channels"`
	TotalInputs     int              `json:"total_inputs" yaml:"total_inputs"`
	ActiveAlerts    int              `json:"active_alerts" yaml:"active_alerts"`
	Severity        SeverityCounts   `json:"severity" yaml:"severity"`
	Tiers           []TierCount      `json:"tiers" yaml:"tiers"`
	Resolution      ResolutionCounts `json:"resolution" yaml:"resolution"`
	RecentAlerts    []Alert          `json:"recent_alerts" yaml:"recent_alerts"`
}

func BuildOverview(channels []Channel, alerts []Alert, inputs []ProbeInput) Overview {
	o := Overview{
		TotalChannels: len(channels),
		TotalInputs:   len(inputs),
		ActiveAlerts:  len(alerts),
		Severity:      CountBySeverity(alerts),
		Tiers:         TierDistribution(channels),
		Resolution:    CountResolutions(channels),
		RecentAlerts:  RecentAlerts(alerts, RecentAlertLimit),
	}
	for _, ch := range channels {
		if ch.Enabled {
			o.EnabledChannels++
		}
	}
	return o
}

// ─────────────────────────────────────────────────────────────────
// Inputs table
// ─────────────────────────────────────────────────────────────────

// InputsPerPage is the inputs table page size.
const InputsPerPage = 10

// FilterBySearch keeps the items for which any field contains term,
// case-insensitively. An empty term keeps everything.
func FilterBySearch[T any](items []T, term string, fields func(T) []string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, v := range fields(it) {
			if v != "" && strings.Contains(strings.ToLower(v), term) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// InputSearchFields are the columns the inputs search looks at.
func InputSearchFields(p ProbeInput) []string {
	fields := []string{p.Name, p.URL, p.Type, strconv.Itoa(p.ID)}
	if p.ChannelName != nil {
		fields = append(fields, *p.ChannelName)
	}
	if p.Protocol != nil {
		fields = append(fields, *p.Protocol)
	}
	return fields
}

func SearchInputs(inputs []ProbeInput, term string) []ProbeInput {
	return FilterBySearch(inputs, term, InputSearchFields)
}

// SortInputs orders inputs by id, name, type or bitrate. Missing bitrates
// sort last in both directions.
func SortInputs(inputs []ProbeInput, field string, desc bool) ([]ProbeInput, error) {
	var less func(a, b ProbeInput) int
	switch field {
	case "", "id":
		less = func(a, b ProbeInput) int { return cmp.Compare(a.ID, b.ID) }
	case "name":
		less = func(a, b ProbeInput) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case "type":
		less = func(a, b ProbeInput) int { return strings.Compare(a.Type, b.Type) }
	case "bitrate":
		sorted := slices.Clone(inputs)
		slices.SortStableFunc(sorted, func(a, b ProbeInput) int {
			switch {
			case a.BitrateMbps == nil && b.BitrateMbps == nil:
				return 0
			case a.BitrateMbps == nil:
				return 1
			case b.BitrateMbps == nil:
				return -1
			}
			c := cmp.Compare(*a.BitrateMbps, *b.BitrateMbps)
			if desc {
				return -c
			}
			return c
		})
		return sorted, nil
	default:
		return nil, fmt.Errorf("unknown sort field %q", field)
	}

	sorted := slices.Clone(inputs)
	slices.SortStableFunc(sorted, func(a, b ProbeInput) int {
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return sorted, nil
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T `json:"items" yaml:"items"`
	Page       int `json:"page" yaml:"page"`
	TotalPages int `json:"total_pages" yaml:"total_pages"`
	Total      int `json:"total" yaml:"total"`
}

func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// Paginate returns page (1-based, clamped to the valid range) of items.
// An empty list still has one empty page.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = InputsPerPage
	}
	total := len(items)
	pages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), pages)

	start := (page - 1) * perPage
	end := min(start+perPage, total)
	return Page[T]{
		Items:      slices.Clone(items[start:end]),
		Page:       page,
		TotalPages: pages,
		Total:      total,
	}
}
