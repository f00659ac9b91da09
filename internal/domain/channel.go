package domain

import (
	"errors"
	"fmt"
)

// Channel is a monitored broadcast channel. It is read-only for the console.
type Channel struct {
	ID         int        `json:"channel_id" yaml:"channel_id"`
	Code       string     `json:"channel_code" yaml:"channel_code"`
	Name       string     `json:"channel_name" yaml:"channel_name"`
	Type       *string    `json:"channel_type,omitempty" yaml:"channel_type,omitempty"`
	Tier       int        `json:"tier" yaml:"tier"`
	Codec      *string    `json:"codec,omitempty" yaml:"codec,omitempty"`
	Resolution *string    `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	FPS        *float64   `json:"fps,omitempty" yaml:"fps,omitempty"`
	Is4K       bool       `json:"is_4k" yaml:"is_4k"`
	IsHDR      bool       `json:"is_hdr" yaml:"is_hdr"`
	HasAtmos   bool       `json:"has_atmos" yaml:"has_atmos"`
	ProbeID    *int       `json:"probe_id,omitempty" yaml:"probe_id,omitempty"`
	InputURL   *string    `json:"input_url,omitempty" yaml:"input_url,omitempty"`
	TemplateID *int       `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	Enabled    bool       `json:"enabled" yaml:"enabled"`
	CreatedAt  *Timestamp `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt  *Timestamp `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// IsHD reports the HD bucket used by the overview: not 4K and tier 1 or 2.
func (c Channel) IsHD() bool {
	return !c.Is4K && c.Tier <= 2
}

func (c Channel) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("channel: invalid channel_id %d", c.ID)
	}
	if c.Name == "" {
		return errors.New("channel: missing channel_name")
	}
	if c.Tier < 0 {
		return fmt.Errorf("channel %d: invalid tier %d", c.ID, c.Tier)
	}
	return nil
}
