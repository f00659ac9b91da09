package domain

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

// Normalize upper-cases the raw severity so "critical" and "CRITICAL" match.
func (s Severity) Normalize() Severity {
	return Severity(strings.ToUpper(strings.TrimSpace(string(s))))
}

// Alert is raised by the monitoring backend. The console only mutates it
// through acknowledge and resolve requests.
type Alert struct {
	ID             int        `json:"alert_id" yaml:"alert_id"`
	ChannelID      *int       `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	ChannelName    *string    `json:"channel_name,omitempty" yaml:"channel_name,omitempty"`
	Type           string     `json:"alert_type" yaml:"alert_type"`
	Severity       Severity   `json:"severity" yaml:"severity"`
	Message        string     `json:"message" yaml:"message"`
	Acknowledged   bool       `json:"acknowledged" yaml:"acknowledged"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty" yaml:"acknowledged_by,omitempty"`
	AcknowledgedAt *Timestamp `json:"acknowledged_at,omitempty" yaml:"acknowledged_at,omitempty"`
	Resolved       bool       `json:"resolved" yaml:"resolved"`
	ResolvedAt     *Timestamp `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
	CreatedAt      Timestamp  `json:"created_at" yaml:"created_at"`
}

// Validate rejects records without an id and acknowledged alerts that were
// never created.
func (a Alert) Validate() error {
	if a.ID <= 0 {
		return fmt.Errorf("alert: invalid alert_id %d", a.ID)
	}
	if a.Acknowledged && a.CreatedAt.IsZero() {
		return fmt.Errorf("alert %d: acknowledged without created_at", a.ID)
	}
	return nil
}
