// Package console is the view-model of the monitoring console: it owns the
// pollers, the snapshot, the input form and the notifications, and turns
// operator intents into monitoring API calls.
//
// Renderers (the HTTP daemon, the CLI, the terminal dashboard) only read
// projections from a Controller and call its action methods.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/metrics"
	"github.com/MrSnakeDoc/tally/internal/monitorapi"
	"github.com/MrSnakeDoc/tally/internal/profile"
	"github.com/MrSnakeDoc/tally/internal/scheduler"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

// ErrDeleteNotConfirmed is returned when a delete was not confirmed. No
// request is issued in that case.
var ErrDeleteNotConfirmed = errors.New("delete not confirmed")

// API is everything the console calls on the monitoring API.
type API interface {
	scheduler.API
	scheduler.HealthAPI
	scheduler.MetricsAPI

	AcknowledgeAlert(ctx context.Context, id int, operator string) (string, error)
	ResolveAlert(ctx context.Context, id int) (string, error)
	GetInput(ctx context.Context, id int) (*domain.ProbeInput, error)
	CreateInput(ctx context.Context, req domain.ProbeInputRequest) (int, string, error)
	UpdateInput(ctx context.Context, id int, req domain.ProbeInputRequest) (string, error)
	DeleteInput(ctx context.Context, id int) (string, error)
	InputSnapshot(ctx context.Context, id int) (*domain.Thumbnail, error)
}

// Auditor keeps a log of operator actions.
type Auditor interface {
	RecordAction(ctx context.Context, rec domain.ActionRecord) error
}

// ThumbnailCache caches input thumbnails between requests.
type ThumbnailCache interface {
	GetCachedThumbnail(ctx context.Context, inputID int) (*domain.Thumbnail, error)
	CacheThumbnail(ctx context.Context, inputID int, thumb domain.Thumbnail, ttl time.Duration) error
	InvalidateThumbnail(ctx context.Context, inputID int) error
}

type Options struct {
	Operator string
	Profile  profile.Profile

	RefreshInterval time.Duration
	HealthInterval  time.Duration
	MetricsInterval time.Duration
	MetricsWindow   int
	NotificationTTL time.Duration
	Debug           bool

	// Optional collaborators, nil disables them.
	Persister  scheduler.Persister
	Auditor    Auditor
	Thumbnails ThumbnailCache
}

func (o *Options) defaults() {
	if o.Operator == "" {
		o.Operator = "operator"
	}
	if o.Profile.Name == "" {
		o.Profile, _ = profile.Builtin().Get(profile.Standard)
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = 30 * time.Second
	}
	if o.HealthInterval <= 0 {
		o.HealthInterval = 60 * time.Second
	}
	if o.MetricsInterval <= 0 {
		o.MetricsInterval = 10 * time.Second
	}
	if o.MetricsWindow <= 0 {
		o.MetricsWindow = 60
	}
}

// Controller is the console view-model.
type Controller struct {
	api    API
	opts   Options
	logger logger.Logger

	store   *snapshot.Store
	poller  *scheduler.Poller
	health  *scheduler.HealthPoller
	watcher *scheduler.MetricsWatcher
	form    *InputForm
	notes   *Notifier

	mu     sync.Mutex
	runCtx context.Context
	debug  bool
}

func New(api API, opts Options, log logger.Logger) *Controller {
	opts.defaults()

	store := snapshot.New()
	seq := scheduler.NewSequencer()

	c := &Controller{
		api:     api,
		opts:    opts,
		logger:  log,
		store:   store,
		poller:  scheduler.NewPoller(api, store, seq, opts.Persister, log.With(logger.String("component", "poller")), opts.RefreshInterval),
		health:  scheduler.NewHealthPoller(api, store, seq, log.With(logger.String("component", "health")), opts.HealthInterval),
		watcher: scheduler.NewMetricsWatcher(api, log.With(logger.String("component", "metrics")), opts.MetricsInterval, opts.MetricsWindow),
		form:    NewInputForm(),
		notes:   NewNotifier(opts.NotificationTTL),
	}
	if opts.Debug && opts.Profile.Debug {
		c.debug = true
		c.poller.SetDebug(true)
	}
	return c
}

// Store exposes the snapshot, for warm starts.
func (c *Controller) Store() *snapshot.Store {
	return c.store
}

func (c *Controller) Profile() profile.Profile {
	return c.opts.Profile
}

func (c *Controller) Operator() string {
	return c.opts.Operator
}

// ─────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────

// Start runs the main and health pollers until Stop or ctx is done.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	c.poller.Start(ctx)
	c.health.Start(ctx)
	c.logger.Info("console started",
		logger.String("profile", c.opts.Profile.Name),
		logger.Duration("refresh_interval", c.opts.RefreshInterval),
		logger.Duration("health_interval", c.opts.HealthInterval))
}

// Stop cancels in-flight requests and waits for every loop to exit.
func (c *Controller) Stop() {
	c.watcher.Stop()
	c.poller.Stop()
	c.health.Stop()
	c.logger.Info("console stopped")
}

func (c *Controller) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runCtx == nil {
		return context.Background()
	}
	return c.runCtx
}

// Refresh runs one synchronous refresh round.
func (c *Controller) Refresh(ctx context.Context) scheduler.Report {
	return c.poller.Refresh(ctx)
}

// RefreshHealth checks backend health once.
func (c *Controller) RefreshHealth(ctx context.Context) error {
	return c.health.Refresh(ctx)
}

// TriggerRefresh queues a refresh on the running poller. It returns false
// when one is already queued.
func (c *Controller) TriggerRefresh() bool {
	return c.poller.Trigger()
}

func (c *Controller) Ready() bool {
	return c.store.Ready()
}

// View returns a copy of the whole snapshot.
func (c *Controller) View() snapshot.View {
	return c.store.View()
}

// ─────────────────────────────────────────────────────────────────
// Projections
// ─────────────────────────────────────────────────────────────────

// OverviewView is the overview tab.
type OverviewView struct {
	domain.Overview `yaml:",inline"`

	Health       *domain.Health            `json:"health,omitempty" yaml:"health,omitempty"`
	Profile      string                    `json:"profile" yaml:"profile"`
	Capabilities profile.Capabilities      `json:"capabilities" yaml:"capabilities"`
	Ready        bool                      `json:"ready" yaml:"ready"`
	Restored     bool                      `json:"restored" yaml:"restored"`
	Errors       map[snapshot.Slice]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (c *Controller) Overview() OverviewView {
	v := c.store.View()
	return OverviewView{
		Overview:     domain.BuildOverview(v.Channels, v.Alerts, v.Inputs),
		Health:       v.Health,
		Profile:      c.opts.Profile.Name,
		Capabilities: c.opts.Profile.Capabilities,
		Ready:        v.Ready,
		Restored:     v.Restored,
		Errors:       v.Errors,
	}
}

// AlertsView is one alert tab with the counts of every tab.
type AlertsView struct {
	Filter domain.AlertFilter    `json:"filter" yaml:"filter"`
	Alerts []domain.Alert        `json:"alerts" yaml:"alerts"`
	Counts domain.AlertTabCounts `json:"counts" yaml:"counts"`
}

func (c *Controller) Alerts(f domain.AlertFilter) AlertsView {
	v := c.store.View()
	return AlertsView{
		Filter: f,
		Alerts: domain.FilterAlerts(v.Alerts, f),
		Counts: domain.CountAlertTabs(v.Alerts),
	}
}

// ChannelsView is the channel list fetched for the active filter.
type ChannelsView struct {
	Channels []domain.Channel     `json:"channels" yaml:"channels"`
	Filter   domain.ChannelFilter `json:"filter" yaml:"filter"`
	Loading  bool                 `json:"loading" yaml:"loading"`
}

func (c *Controller) Channels() ChannelsView {
	v := c.store.View()
	return ChannelsView{
		Channels: v.Channels,
		Filter:   v.Filter,
		Loading:  v.Loading[snapshot.Channels],
	}
}

// SetFilter changes the channel filter. A changed filter queues a refresh
// so the list is fetched with the new query.
func (c *Controller) SetFilter(f domain.ChannelFilter) bool {
	if !c.store.SetFilter(f) {
		return false
	}
	c.logger.Debug("channel filter changed")
	c.poller.Trigger()
	return true
}

// InputQuery selects a page of the inputs table.
type InputQuery struct {
	Search string
	Sort   string
	Desc   bool
	Page   int
}

func (c *Controller) Inputs(q InputQuery) (domain.Page[domain.ProbeInput], error) {
	v := c.store.View()
	inputs, err := domain.SortInputs(domain.SearchInputs(v.Inputs, q.Search), q.Sort, q.Desc)
	if err != nil {
		return domain.Page[domain.ProbeInput]{}, err
	}
	return domain.Paginate(inputs, q.Page, domain.InputsPerPage), nil
}

// Input returns one input from the snapshot, falling back to the API.
func (c *Controller) Input(ctx context.Context, id int) (domain.ProbeInput, error) {
	if in, ok := c.store.Input(id); ok {
		return in, nil
	}
	in, err := c.api.GetInput(ctx, id)
	if err != nil {
		return domain.ProbeInput{}, err
	}
	return *in, nil
}

// ─────────────────────────────────────────────────────────────────
// Alert actions
// ─────────────────────────────────────────────────────────────────

// AcknowledgeAlert acknowledges an alert as the configured operator, then
// re-fetches the alert list. Nothing is changed locally before the answer.
func (c *Controller) AcknowledgeAlert(ctx context.Context, id int) error {
	msg, err := c.api.AcknowledgeAlert(ctx, id, c.opts.Operator)
	c.dispatched(ctx, domain.ActionAcknowledge, id, msg, err, "Alert acknowledged", "Error acknowledging alert")
	if err != nil {
		return err
	}
	c.refreshAlerts(ctx)
	return nil
}

func (c *Controller) ResolveAlert(ctx context.Context, id int) error {
	msg, err := c.api.ResolveAlert(ctx, id)
	c.dispatched(ctx, domain.ActionResolve, id, msg, err, "Alert resolved", "Error resolving alert")
	if err != nil {
		return err
	}
	c.refreshAlerts(ctx)
	return nil
}

func (c *Controller) refreshAlerts(ctx context.Context) {
	if err := c.poller.RefreshAlerts(ctx); err != nil {
		c.logger.Warn("alert re-fetch after action failed", logger.Error(err))
	}
}

// ─────────────────────────────────────────────────────────────────
// Input form
// ─────────────────────────────────────────────────────────────────

func (c *Controller) requireForm() error {
	return profile.Require(c.opts.Profile.InputForm, "input form")
}

func (c *Controller) OpenCreateForm() error {
	if err := c.requireForm(); err != nil {
		return err
	}
	return c.form.OpenCreate()
}

// OpenEditForm opens the form pre-populated with input id.
func (c *Controller) OpenEditForm(ctx context.Context, id int) error {
	if err := c.requireForm(); err != nil {
		return err
	}
	in, err := c.Input(ctx, id)
	if err != nil {
		c.notes.Error(errorText(err, "Error loading input"))
		return err
	}
	return c.form.OpenEdit(in)
}

// UpdateForm sets several draft fields at once.
func (c *Controller) UpdateForm(values map[string]string) error {
	return c.form.Update(func(d *Draft) error { return d.Merge(values) })
}

func (c *Controller) CancelForm() {
	c.form.Cancel()
}

func (c *Controller) Form() FormView {
	return c.form.View()
}

// SubmitForm sends the draft and returns the id of the written input. On
// success the form closes and the input list is re-fetched; on failure the
// draft stays with the server message.
func (c *Controller) SubmitForm(ctx context.Context) (int, error) {
	sub, err := c.form.begin()
	if err != nil {
		c.draftRejected(err)
		return 0, err
	}
	return c.send(ctx, sub)
}

// SubmitInput writes an input in one form transaction: the form opens in
// mode, values are applied over the create defaults or the stored input,
// and the draft is sent. Concurrent callers cannot swap each other's
// drafts; a second caller gets ErrFormBusy.
func (c *Controller) SubmitInput(ctx context.Context, mode FormMode, id int, values map[string]string) (int, error) {
	if err := c.requireForm(); err != nil {
		return 0, err
	}

	draft := NewDraft()
	if mode == ModeEdit {
		in, err := c.Input(ctx, id)
		if err != nil {
			c.notes.Error(errorText(err, "Error loading input"))
			return 0, err
		}
		draft = DraftFrom(in)
	} else {
		mode, id = ModeCreate, 0
	}

	sub, err := c.form.submit(mode, id, draft, values)
	if err != nil {
		c.draftRejected(err)
		return 0, err
	}
	return c.send(ctx, sub)
}

func (c *Controller) draftRejected(err error) {
	if errors.Is(err, ErrMissingField) || errors.Is(err, ErrInvalidField) || errors.Is(err, ErrUnknownField) {
		c.notes.Error("Error: " + err.Error())
	}
}

func (c *Controller) send(ctx context.Context, sub submission) (int, error) {
	var (
		err    error
		id     = sub.inputID
		msg    string
		action string
		ok     string
	)
	switch sub.mode {
	case ModeEdit:
		action, ok = domain.ActionUpdateInput, "Input updated successfully"
		msg, err = c.api.UpdateInput(ctx, id, sub.req)
	default:
		action, ok = domain.ActionCreateInput, "Input added successfully"
		id, msg, err = c.api.CreateInput(ctx, sub.req)
	}

	c.form.finish(err != nil, formError(err))
	c.dispatched(ctx, action, id, msg, err, ok, "Error saving input")
	if err != nil {
		return 0, err
	}

	if sub.mode == ModeEdit {
		c.invalidateThumbnail(ctx, id)
	}
	c.refreshInputs(ctx)
	return id, nil
}

// DeleteInput deletes an input once confirm agrees. A nil confirmer or a
// refusal returns ErrDeleteNotConfirmed without calling the API.
func (c *Controller) DeleteInput(ctx context.Context, id int, confirm Confirmer) error {
	if err := c.requireForm(); err != nil {
		return err
	}
	if confirm == nil {
		return ErrDeleteNotConfirmed
	}
	yes, err := confirm.Confirm(ctx, fmt.Sprintf("Are you sure you want to delete input %d?", id))
	if err != nil {
		return err
	}
	if !yes {
		return ErrDeleteNotConfirmed
	}

	msg, err := c.api.DeleteInput(ctx, id)
	c.dispatched(ctx, domain.ActionDeleteInput, id, msg, err, "Input deleted", "Error deleting input")
	if err != nil {
		return err
	}
	c.invalidateThumbnail(ctx, id)
	c.refreshInputs(ctx)
	return nil
}

func (c *Controller) refreshInputs(ctx context.Context) {
	if err := c.poller.RefreshInputs(ctx); err != nil {
		c.logger.Warn("input re-fetch after action failed", logger.Error(err))
	}
}

// ─────────────────────────────────────────────────────────────────
// Thumbnails
// ─────────────────────────────────────────────────────────────────

// Snapshot returns the thumbnail of an input, from the cache when one is
// configured.
func (c *Controller) Snapshot(ctx context.Context, id int) (*domain.Thumbnail, error) {
	if err := profile.Require(c.opts.Profile.Snapshots, "thumbnails"); err != nil {
		return nil, err
	}

	if c.opts.Thumbnails != nil {
		cached, err := c.opts.Thumbnails.GetCachedThumbnail(ctx, id)
		if err != nil {
			c.logger.Warn("thumbnail cache read failed", logger.Int("input_id", id), logger.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	thumb, err := c.api.InputSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.opts.Thumbnails != nil {
		if err := c.opts.Thumbnails.CacheThumbnail(ctx, id, *thumb, 0); err != nil {
			c.logger.Warn("thumbnail cache write failed", logger.Int("input_id", id), logger.Error(err))
		}
	}
	return thumb, nil
}

func (c *Controller) invalidateThumbnail(ctx context.Context, id int) {
	if c.opts.Thumbnails == nil {
		return
	}
	if err := c.opts.Thumbnails.InvalidateThumbnail(ctx, id); err != nil {
		c.logger.Warn("thumbnail invalidation failed", logger.Int("input_id", id), logger.Error(err))
	}
}

// ─────────────────────────────────────────────────────────────────
// Metrics panel
// ─────────────────────────────────────────────────────────────────

// WatchMetrics selects the input shown in the metrics view and polls it
// until StopMetrics or Stop.
func (c *Controller) WatchMetrics(id int) {
	c.watcher.Watch(c.context(), id)
}

func (c *Controller) StopMetrics() {
	c.watcher.Unwatch()
}

// Metrics returns the current panel. Without deep metrics only the bitrate
// and status sections are shown.
func (c *Controller) Metrics() (domain.MetricsPanel, bool) {
	panel, ok := c.watcher.Panel()
	if !ok {
		return panel, false
	}
	if !c.opts.Profile.DeepMetrics {
		panel.TR101290, panel.MDI, panel.QoE, panel.Codec = nil, nil, nil, nil
	}
	return panel, true
}

// LoadMetrics fetches the panel of one input once, outside the watch loop.
func (c *Controller) LoadMetrics(ctx context.Context, id int) (domain.MetricsPanel, map[string]error) {
	panel, errs := scheduler.FetchPanel(ctx, c.api, id, c.opts.MetricsWindow, nil)
	if !c.opts.Profile.DeepMetrics {
		panel.TR101290, panel.MDI, panel.QoE, panel.Codec = nil, nil, nil, nil
	}
	return panel, errs
}

// ─────────────────────────────────────────────────────────────────
// Debug view
// ─────────────────────────────────────────────────────────────────

// SetDebug turns the debug dumps on or off. Enabling queues a refresh.
func (c *Controller) SetDebug(enabled bool) error {
	if enabled {
		if err := profile.Require(c.opts.Profile.Debug, "debug view"); err != nil {
			return err
		}
	}
	c.mu.Lock()
	changed := c.debug != enabled
	c.debug = enabled
	c.mu.Unlock()

	c.poller.SetDebug(enabled)
	if enabled && changed {
		c.poller.Trigger()
	}
	return nil
}

func (c *Controller) DebugEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debug
}

// Debug returns the last debug dumps.
func (c *Controller) Debug() (domain.Debug, error) {
	if err := profile.Require(c.opts.Profile.Debug, "debug view"); err != nil {
		return domain.Debug{}, err
	}
	return c.store.View().Debug, nil
}

// ─────────────────────────────────────────────────────────────────
// Notifications
// ─────────────────────────────────────────────────────────────────

func (c *Controller) Notifications() []Notification {
	return c.notes.List()
}

func (c *Controller) Dismiss(id string) bool {
	return c.notes.Dismiss(id)
}

// dispatched records the outcome of an operator action and tells the
// operator about it.
func (c *Controller) dispatched(ctx context.Context, action string, id int, msg string, err error, okText, failText string) {
	metrics.RecordAction(action, err)

	rec := domain.ActionRecord{
		Action:   action,
		TargetID: id,
		Operator: c.opts.Operator,
		OK:       err == nil,
		Message:  msg,
		At:       time.Now().UTC(),
	}

	if err != nil {
		rec.Message = monitorapi.Message(err)
		c.notes.Error(errorText(err, failText))
		c.logger.Warn("action failed",
			logger.String("action", action),
			logger.Int("target_id", id),
			logger.Int("status", monitorapi.StatusCode(err)),
			logger.Error(err))
	} else {
		if msg == "" {
			msg = okText
		}
		c.notes.Success(msg)
		c.logger.Info("action done",
			logger.String("action", action),
			logger.Int("target_id", id),
			logger.String("operator", c.opts.Operator))
	}

	if c.opts.Auditor != nil {
		if aerr := c.opts.Auditor.RecordAction(ctx, rec); aerr != nil {
			c.logger.Warn("failed to record action", logger.Error(aerr))
		}
	}
}

// formError is kept on the reopened form: the server message verbatim.
func formError(err error) string {
	if err == nil {
		return ""
	}
	if monitorapi.StatusCode(err) != 0 {
		return monitorapi.Message(err)
	}
	return "Error saving input"
}

// errorText is the operator-facing text of err: the server message for an
// API answer, fallback for a transport failure.
func errorText(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if monitorapi.StatusCode(err) != 0 {
		return "Error: " + monitorapi.Message(err)
	}
	return fallback
}
