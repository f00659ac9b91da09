package domain

import (
	"errors"
	"fmt"
)

// Defaults applied to a fresh probe input form.
const (
	DefaultInputType     = "MPEGTS_UDP"
	DefaultInputProtocol = "udp"
	DefaultProbeID       = 1
)

// InputTypes are the input types offered by the form. The API accepts
// others; the list only drives pickers.
var InputTypes = []string{"MPEGTS_UDP", "HTTP", "HLS", "RTMP", "SRT"}

// InputProtocols are the protocols offered by the form; empty means auto.
var InputProtocols = []string{"", "udp", "http", "rtmp", "srt"}

// ProbeInput is a configured stream source watched by a backend probe.
type ProbeInput struct {
	ID             int            `json:"input_id" yaml:"input_id"`
	Name           string         `json:"input_name" yaml:"input_name"`
	URL            string         `json:"input_url" yaml:"input_url"`
	Type           string         `json:"input_type" yaml:"input_type"`
	Protocol       *string        `json:"input_protocol,omitempty" yaml:"input_protocol,omitempty"`
	Port           *int           `json:"input_port,omitempty" yaml:"input_port,omitempty"`
	ChannelID      *int           `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	ChannelName    *string        `json:"channel_name,omitempty" yaml:"channel_name,omitempty"`
	ProbeID        int            `json:"probe_id" yaml:"probe_id"`
	IsPrimary      bool           `json:"is_primary" yaml:"is_primary"`
	Enabled        bool           `json:"enabled" yaml:"enabled"`
	BitrateMbps    *float64       `json:"bitrate_mbps,omitempty" yaml:"bitrate_mbps,omitempty"`
	Metadata       map[string]any `json:"input_metadata,omitempty" yaml:"input_metadata,omitempty"`
	SnapshotURL    *string        `json:"snapshot_url,omitempty" yaml:"snapshot_url,omitempty"`
	LastSnapshotAt *Timestamp     `json:"last_snapshot_at,omitempty" yaml:"last_snapshot_at,omitempty"`
	CreatedAt      *Timestamp     `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt      *Timestamp     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func (p ProbeInput) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("input: invalid input_id %d", p.ID)
	}
	if p.Name == "" {
		return fmt.Errorf("input %d: missing input_name", p.ID)
	}
	return nil
}

// ProbeInputRequest is the write body for POST /inputs and PUT /inputs/{id}.
type ProbeInputRequest struct {
	Name        string   `json:"input_name"`
	URL         string   `json:"input_url"`
	Type        string   `json:"input_type"`
	Protocol    *string  `json:"input_protocol"`
	Port        *int     `json:"input_port"`
	ChannelID   *int     `json:"channel_id"`
	ProbeID     int      `json:"probe_id"`
	IsPrimary   bool     `json:"is_primary"`
	Enabled     bool     `json:"enabled"`
	BitrateMbps *float64 `json:"bitrate_mbps"`
}

func (r ProbeInputRequest) Validate() error {
	switch {
	case r.Name == "":
		return errors.New("input_name is required")
	case r.URL == "":
		return errors.New("input_url is required")
	case r.Type == "":
		return errors.New("input_type is required")
	case r.ProbeID == 0:
		return errors.New("probe_id is required")
	}
	return nil
}
