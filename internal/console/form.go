package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

var (
	// ErrFormNotOpen is returned when editing or submitting a closed form.
	ErrFormNotOpen = errors.New("input form is not open")
	// ErrFormBusy is returned while a submission is in flight or another
	// draft is being edited.
	ErrFormBusy = errors.New("input form is busy")
	// ErrMissingField is returned when a required field is empty.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField is returned when a field cannot be coerced to its type.
	ErrInvalidField = errors.New("invalid field value")
	// ErrUnknownField is returned when setting a field the draft lacks.
	ErrUnknownField = errors.New("unknown field")
)

// FormMode says whether the form creates a new input or edits one.
type FormMode string

const (
	ModeCreate FormMode = "create"
	ModeEdit   FormMode = "edit"
)

// FormState is the lifecycle of the input form.
type FormState string

const (
	FormClosed     FormState = "closed"
	FormOpen       FormState = "open"
	FormSubmitting FormState = "submitting"
)

// Draft field names, as sent to the API.
const (
	FieldName      = "input_name"
	FieldURL       = "input_url"
	FieldType      = "input_type"
	FieldProtocol  = "input_protocol"
	FieldPort      = "input_port"
	FieldChannelID = "channel_id"
	FieldProbeID   = "probe_id"
	FieldIsPrimary = "is_primary"
	FieldEnabled   = "enabled"
	FieldBitrate   = "bitrate_mbps"
)

// DraftFields lists the fields in form order.
var DraftFields = []string{
	FieldName, FieldURL, FieldType, FieldProtocol, FieldPort,
	FieldChannelID, FieldProbeID, FieldBitrate, FieldIsPrimary, FieldEnabled,
}

// Draft holds the raw form values as typed by the operator. Values are
// coerced only on submit.
type Draft struct {
	Name      string `json:"input_name"`
	URL       string `json:"input_url"`
	Type      string `json:"input_type"`
	Protocol  string `json:"input_protocol"`
	Port      string `json:"input_port"`
	ChannelID string `json:"channel_id"`
	ProbeID   string `json:"probe_id"`
	IsPrimary string `json:"is_primary"`
	Enabled   string `json:"enabled"`
	Bitrate   string `json:"bitrate_mbps"`
}

// NewDraft returns the defaults of a fresh create form.
func NewDraft() Draft {
	return Draft{
		Type:      domain.DefaultInputType,
		Protocol:  domain.DefaultInputProtocol,
		ProbeID:   strconv.Itoa(domain.DefaultProbeID),
		IsPrimary: "true",
		Enabled:   "true",
	}
}

// DraftFrom pre-populates a draft from an existing input.
func DraftFrom(in domain.ProbeInput) Draft {
	d := Draft{
		Name:      in.Name,
		URL:       in.URL,
		Type:      in.Type,
		ProbeID:   strconv.Itoa(in.ProbeID),
		IsPrimary: strconv.FormatBool(in.IsPrimary),
		Enabled:   strconv.FormatBool(in.Enabled),
	}
	if in.Protocol != nil {
		d.Protocol = *in.Protocol
	}
	if in.Port != nil {
		d.Port = strconv.Itoa(*in.Port)
	}
	if in.ChannelID != nil {
		d.ChannelID = strconv.Itoa(*in.ChannelID)
	}
	if in.BitrateMbps != nil {
		d.Bitrate = strconv.FormatFloat(*in.BitrateMbps, 'f', -1, 64)
	}
	return d
}

func (d *Draft) field(name string) (*string, bool) {
	switch name {
	case FieldName:
		return &d.Name, true
	case FieldURL:
		return &d.URL, true
	case FieldType:
		return &d.Type, true
	case FieldProtocol:
		return &d.Protocol, true
	case FieldPort:
		return &d.Port, true
	case FieldChannelID:
		return &d.ChannelID, true
	case FieldProbeID:
		return &d.ProbeID, true
	case FieldIsPrimary:
		return &d.IsPrimary, true
	case FieldEnabled:
		return &d.Enabled, true
	case FieldBitrate:
		return &d.Bitrate, true
	}
	return nil, false
}

// Get returns the raw value of field.
func (d Draft) Get(field string) (string, error) {
	p, ok := d.field(field)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownField, field)
	}
	return *p, nil
}

// Set replaces the raw value of field.
func (d *Draft) Set(field, value string) error {
	p, ok := d.field(field)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, field)
	}
	*p = value
	return nil
}

// Merge sets every field present in values.
func (d *Draft) Merge(values map[string]string) error {
	for k, v := range values {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Request checks the required fields and coerces the draft into the API
// write body. Empty optional numbers are sent as null.
func (d Draft) Request() (domain.ProbeInputRequest, error) {
	required := []struct{ name, value string }{
		{FieldName, d.Name},
		{FieldURL, d.URL},
		{FieldType, d.Type},
		{FieldProbeID, d.ProbeID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.ProbeInputRequest{}, fmt.Errorf("%w: %s", ErrMissingField, r.name)
		}
	}

	req := domain.ProbeInputRequest{
		Name: strings.TrimSpace(d.Name),
		URL:  strings.TrimSpace(d.URL),
		Type: strings.TrimSpace(d.Type),
	}
	if p := strings.TrimSpace(d.Protocol); p != "" {
		req.Protocol = &p
	}

	var err error
	if req.ProbeID, err = parseInt(FieldProbeID, d.ProbeID); err != nil {
		return domain.ProbeInputRequest{}, err
	}
	if req.Port, err = parseOptionalInt(FieldPort, d.Port); err != nil {
		return domain.ProbeInputRequest{}, err
	}
	if req.ChannelID, err = parseOptionalInt(FieldChannelID, d.ChannelID); err != nil {
		return domain.ProbeInputRequest{}, err
	}
	if req.BitrateMbps, err = parseOptionalFloat(FieldBitrate, d.Bitrate); err != nil {
		return domain.ProbeInputRequest{}, err
	}
	if req.IsPrimary, err = parseBool(FieldIsPrimary, d.IsPrimary); err != nil {
		return domain.ProbeInputRequest{}, err
	}
	if req.Enabled, err = parseBool(FieldEnabled, d.Enabled); err != nil {
		return domain.ProbeInputRequest{}, err
	}
	if err := req.Validate(); err != nil {
		return domain.ProbeInputRequest{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return req, nil
}

func parseInt(field, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidField, field, raw)
	}
	return v, nil
}

func parseOptionalInt(field, raw string) (*int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := parseInt(field, raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalFloat(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidField, field, raw)
	}
	return &v, nil
}

// parseBool reads checkbox-like values. Empty means unchecked.
func parseBool(field, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "false", "0", "no", "off":
		return false, nil
	case "true", "1", "yes", "on":
		return true, nil
	}
	return false, fmt.Errorf("%w: %s: %q is not a boolean", ErrInvalidField, field, raw)
}

// FormView is a copy of the form for renderers.
type FormView struct {
	State   FormState `json:"state"`
	Mode    FormMode  `json:"mode,omitempty"`
	InputID int       `json:"input_id,omitempty"`
	Draft   Draft     `json:"draft"`
	Error   string    `json:"error,omitempty"`
}

// InputForm is the create/edit form of a probe input:
//
//	closed -> open(draft) -> submitting -> closed
//	                                    -> open(draft, error)
type InputForm struct {
	mu      sync.Mutex
	state   FormState
	mode    FormMode
	inputID int
	draft   Draft
	err     string
}

func NewInputForm() *InputForm {
	return &InputForm{state: FormClosed}
}

// OpenCreate opens an empty form with the create defaults.
func (f *InputForm) OpenCreate() error {
	return f.open(ModeCreate, 0, NewDraft())
}

// OpenEdit opens the form pre-populated from in.
func (f *InputForm) OpenEdit(in domain.ProbeInput) error {
	return f.open(ModeEdit, in.ID, DraftFrom(in))
}

func (f *InputForm) open(mode FormMode, id int, d Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inUse() {
		return ErrFormBusy
	}
	f.state, f.mode, f.inputID, f.draft, f.err = FormOpen, mode, id, d, ""
	return nil
}

// inUse reports whether a draft must not be replaced: a submission is in
// flight, or an open draft has not been submitted yet. A draft left open
// by a failed submission may be replaced. Callers hold f.mu.
func (f *InputForm) inUse() bool {
	return f.state == FormSubmitting || (f.state == FormOpen && f.err == "")
}

// Set changes one draft field.
func (f *InputForm) Set(field, value string) error {
	return f.Update(func(d *Draft) error { return d.Set(field, value) })
}

// Update edits the draft in place.
func (f *InputForm) Update(fn func(*Draft) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case FormClosed:
		return ErrFormNotOpen
	case FormSubmitting:
		return ErrFormBusy
	}
	return fn(&f.draft)
}

// Cancel discards the draft.
func (f *InputForm) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FormSubmitting {
		return
	}
	f.reset()
}

func (f *InputForm) reset() {
	f.state, f.mode, f.inputID, f.draft, f.err = FormClosed, "", 0, Draft{}, ""
}

func (f *InputForm) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()

	return FormView{
		State:   f.state,
		Mode:    f.mode,
		InputID: f.inputID,
		Draft:   f.draft,
		Error:   f.err,
	}
}

type submission struct {
	mode    FormMode
	inputID int
	req     domain.ProbeInputRequest
}

// begin moves an open form to submitting. A draft that fails validation
// keeps the form open with the error.
func (f *InputForm) begin() (submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case FormClosed:
		return submission{}, ErrFormNotOpen
	case FormSubmitting:
		return submission{}, ErrFormBusy
	}

	req, err := f.draft.Request()
	if err != nil {
		f.err = err.Error()
		return submission{}, err
	}
	f.state, f.err = FormSubmitting, ""
	return submission{mode: f.mode, inputID: f.inputID, req: req}, nil
}

// submit opens the form with d, applies values and moves it to submitting
// in one step, so nothing else can edit or replace the draft in between.
// A draft that fails to merge or validate stays open with the error.
func (f *InputForm) submit(mode FormMode, id int, d Draft, values map[string]string) (submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inUse() {
		return submission{}, ErrFormBusy
	}
	f.state, f.mode, f.inputID, f.draft, f.err = FormOpen, mode, id, d, ""

	if err := f.draft.Merge(values); err != nil {
		f.err = err.Error()
		return submission{}, err
	}
	req, err := f.draft.Request()
	if err != nil {
		f.err = err.Error()
		return submission{}, err
	}
	f.state = FormSubmitting
	return submission{mode: mode, inputID: id, req: req}, nil
}

// finish closes the form on success, or reopens it with msg.
func (f *InputForm) finish(failed bool, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !failed {
		f.reset()
		return
	}
	f.state, f.err = FormOpen, msg
}
