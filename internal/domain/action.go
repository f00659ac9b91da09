package domain

import "time"

// Operator actions, as recorded in metrics and the action log.
const (
	ActionAcknowledge = "acknowledge"
	ActionResolve     = "resolve"
	ActionCreateInput = "create_input"
	ActionUpdateInput = "update_input"
	ActionDeleteInput = "delete_input"
)

// ActionRecord is one operator action dispatched to the monitoring API.
type ActionRecord struct {
	Action   string    `json:"action" yaml:"action"`
	TargetID int       `json:"target_id" yaml:"target_id"`
	Operator string    `json:"operator,omitempty" yaml:"operator,omitempty"`
	OK       bool      `json:"ok" yaml:"ok"`
	Message  string    `json:"message,omitempty" yaml:"message,omitempty"`
	At       time.Time `json:"at" yaml:"at"`
}

// Thumbnail is an input snapshot image.
type Thumbnail struct {
	ContentType string `json:"content_type" yaml:"content_type"`
	Data        []byte `json:"-" yaml:"-"`
}
