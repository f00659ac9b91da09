package domain

// HealthHealthy is the status reported by a healthy backend.
const HealthHealthy = "healthy"

// Health is the backend /health payload.
type Health struct {
	Status    string     `json:"status" yaml:"status"`
	Database  string     `json:"database,omitempty" yaml:"database,omitempty"`
	Error     *string    `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp *Timestamp `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func (h Health) IsHealthy() bool {
	return h.Status == HealthHealthy
}

// DebugInput is an input as listed by /debug/inputs.
type DebugInput struct {
	ProbeInput     `yaml:",inline"`
	SnapshotExists bool `json:"snapshot_exists" yaml:"snapshot_exists"`
}

type DebugInputs struct {
	Status    string       `json:"status" yaml:"status"`
	Count     int          `json:"count" yaml:"count"`
	Inputs    []DebugInput `json:"inputs" yaml:"inputs"`
	Timestamp *Timestamp   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

type SystemCounts struct {
	Channels     int `json:"channels" yaml:"channels"`
	Inputs       int `json:"inputs" yaml:"inputs"`
	Probes       int `json:"probes" yaml:"probes"`
	ActiveAlerts int `json:"active_alerts" yaml:"active_alerts"`
}

type DebugSystem struct {
	Status    string       `json:"status" yaml:"status"`
	Database  string       `json:"database,omitempty" yaml:"database,omitempty"`
	Counts    SystemCounts `json:"counts" yaml:"counts"`
	Error     *string      `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp *Timestamp   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// Debug groups both diagnostic dumps.
type Debug struct {
	Inputs *DebugInputs `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	System *DebugSystem `json:"system,omitempty" yaml:"system,omitempty"`
}
