// Package profile describes which parts of the console a deployment shows.
//
// The console ships one view with three built-in profiles: basic (lists and
// alert actions), standard (adds the input form and thumbnails) and
// inspector (adds the full metrics panel and the debug view).
package profile

import (
	"errors"
	"fmt"
	"sort"
)

// Tab is one top-level view of the console.
type Tab string

const (
	TabOverview Tab = "overview"
	TabChannels Tab = "channels"
	TabInputs   Tab = "inputs"
	TabAlerts   Tab = "alerts"
	TabMetrics  Tab = "metrics"
	TabDebug    Tab = "debug"
)

// Built-in profile names.
const (
	Basic     = "basic"
	Standard  = "standard"
	Inspector = "inspector"
)

// ErrUnknownProfile is returned for a profile name with no definition.
var ErrUnknownProfile = errors.New("unknown profile")

// ErrNotAllowed is returned when an operation needs a capability the
// active profile lacks.
var ErrNotAllowed = errors.New("not allowed by the active profile")

// Capabilities are the feature flags of a profile.
type Capabilities struct {
	InputForm   bool `yaml:"input_form" json:"input_form"`
	Snapshots   bool `yaml:"snapshots" json:"snapshots"`
	DeepMetrics bool `yaml:"deep_metrics" json:"deep_metrics"`
	Debug       bool `yaml:"debug" json:"debug"`
}

// Profile is a named set of capabilities.
type Profile struct {
	Name         string `yaml:"name" json:"name"`
	Capabilities `yaml:",inline"`
}

// Tabs lists the tabs the profile shows, in display order.
func (p Profile) Tabs() []Tab {
	tabs := []Tab{TabOverview, TabChannels, TabInputs, TabAlerts, TabMetrics}
	if p.Debug {
		tabs = append(tabs, TabDebug)
	}
	return tabs
}

// Has reports whether the profile shows tab.
func (p Profile) Has(tab Tab) bool {
	for _, t := range p.Tabs() {
		if t == tab {
			return true
		}
	}
	return false
}

// Require returns ErrNotAllowed, naming feature, unless ok.
func Require(ok bool, feature string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%s: %w", feature, ErrNotAllowed)
}

// Registry holds the known profiles by name.
type Registry map[string]Profile

// Builtin returns the built-in profiles.
func Builtin() Registry {
	return Registry{
		Basic: {Name: Basic},
		Standard: {Name: Standard, Capabilities: Capabilities{
			InputForm: true,
			Snapshots: true,
		}},
		Inspector: {Name: Inspector, Capabilities: Capabilities{
			InputForm:   true,
			Snapshots:   true,
			DeepMetrics: true,
			Debug:       true,
		}},
	}
}

// Get returns the profile called name.
func (r Registry) Get(name string) (Profile, error) {
	p, ok := r[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownProfile, name, r.Names())
	}
	return p, nil
}

// Names returns the profile names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
