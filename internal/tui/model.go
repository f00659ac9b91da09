// Package tui is the live terminal dashboard of the console. It renders the
// projections of a running console controller and turns key presses into
// controller actions; the pollers keep the data fresh in the background.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/monitorapi"
	"github.com/MrSnakeDoc/tally/internal/profile"
)

// Console is the part of the console controller the dashboard drives.
type Console interface {
	Profile() profile.Profile
	Overview() console.OverviewView
	Channels() console.ChannelsView
	SetFilter(f domain.ChannelFilter) bool
	Alerts(f domain.AlertFilter) console.AlertsView
	AcknowledgeAlert(ctx context.Context, id int) error
	ResolveAlert(ctx context.Context, id int) error
	Inputs(q console.InputQuery) (domain.Page[domain.ProbeInput], error)
	DeleteInput(ctx context.Context, id int, confirm console.Confirmer) error
	WatchMetrics(id int)
	StopMetrics()
	Metrics() (domain.MetricsPanel, bool)
	SetDebug(enabled bool) error
	Debug() (domain.Debug, error)
	Notifications() []console.Notification
	TriggerRefresh() bool
}

// tickMsg re-renders the dashboard from the latest snapshot.
type tickMsg time.Time

// actionMsg carries the outcome of an alert or input action.
type actionMsg struct {
	text string
	err  error
}

const redrawInterval = time.Second

var sortFields = []string{"id", "name", "type", "bitrate"}

// Model is the top-level bubbletea model of the dashboard.
type Model struct {
	ctx     context.Context
	console Console
	server  string

	tabs   []profile.Tab
	active int
	width  int
	height int

	cursor        int
	alertFilter   domain.AlertFilter
	query         console.InputQuery
	searching     bool
	pendingDelete int
	status        string
	busy          bool
	lastTick      time.Time
}

// New returns a Model over c. Actions run with ctx.
func New(ctx context.Context, c Console, server string) Model {
	return Model{
		ctx:         ctx,
		console:     c,
		server:      server,
		tabs:        c.Profile().Tabs(),
		alertFilter: domain.AlertFilterAll,
		query:       console.InputQuery{Page: 1},
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(redrawInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		m.lastTick = time.Time(msg)
		return m, tick()

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + errorText(msg.err)
		} else {
			m.status = msg.text
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.searching {
		return m.handleSearchKey(msg), nil
	}
	if m.pendingDelete != 0 {
		return m.handleDeleteKey(msg)
	}

	switch key := msg.String(); key {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		m = m.selectTab((m.active + 1) % len(m.tabs))
		return m, nil
	case "shift+tab", "left", "h":
		m = m.selectTab((m.active - 1 + len(m.tabs)) % len(m.tabs))
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if i := int(key[0] - '1'); i < len(m.tabs) {
			m = m.selectTab(i)
		}
		return m, nil
	case "r":
		if m.console.TriggerRefresh() {
			m.status = "Refresh triggered"
		} else {
			m.status = "Refresh already queued, please wait"
		}
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}
		return m, nil
	}

	switch m.tabs[m.active] {
	case profile.TabChannels:
		return m.handleChannelsKey(msg), nil
	case profile.TabAlerts:
		return m.handleAlertsKey(msg)
	case profile.TabInputs:
		return m.handleInputsKey(msg)
	case profile.TabMetrics:
		if msg.String() == "esc" {
			m.console.StopMetrics()
			m.status = "Metrics watch stopped"
		}
	}
	return m, nil
}

func (m Model) selectTab(i int) Model {
	if i == m.active {
		return m
	}
	m.active, m.cursor = i, 0
	if m.tabs[i] == profile.TabDebug {
		if err := m.console.SetDebug(true); err != nil {
			m.status = "Error: " + errorText(err)
		}
	}
	return m
}

func (m Model) handleChannelsKey(msg tea.KeyMsg) Model {
	f := m.console.Channels().Filter
	switch msg.String() {
	case "t":
		f.Tier = nextTier(f.Tier)
	case "u":
		f.Is4K = nextBool(f.Is4K)
	default:
		return m
	}
	if m.console.SetFilter(f) {
		m.cursor = 0
		m.status = "Loading channels..."
	}
	return m
}

func nextTier(t *int) *int {
	if t == nil {
		n := domain.Tiers[0]
		return &n
	}
	for i, tier := range domain.Tiers {
		if tier == *t && i+1 < len(domain.Tiers) {
			n := domain.Tiers[i+1]
			return &n
		}
	}
	return nil
}

func nextBool(b *bool) *bool {
	switch {
	case b == nil:
		v := true
		return &v
	case *b:
		v := false
		return &v
	default:
		return nil
	}
}

func (m Model) handleAlertsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "f":
		for i, f := range domain.AlertFilters {
			if f == m.alertFilter {
				m.alertFilter = domain.AlertFilters[(i+1)%len(domain.AlertFilters)]
				break
			}
		}
		m.cursor = 0
		return m, nil
	case "a":
		id, ok := m.selectedAlert()
		if !ok || m.busy {
			return m, nil
		}
		m.busy, m.status = true, fmt.Sprintf("Acknowledging alert %d...", id)
		return m, m.act(fmt.Sprintf("Alert %d acknowledged", id), func(ctx context.Context) error {
			return m.console.AcknowledgeAlert(ctx, id)
		})
	case "x":
		id, ok := m.selectedAlert()
		if !ok || m.busy {
			return m, nil
		}
		m.busy, m.status = true, fmt.Sprintf("Resolving alert %d...", id)
		return m, m.act(fmt.Sprintf("Alert %d resolved", id), func(ctx context.Context) error {
			return m.console.ResolveAlert(ctx, id)
		})
	}
	return m, nil
}

func (m Model) handleInputsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.searching = true
	case "n":
		if page, err := m.console.Inputs(m.query); err == nil && page.HasNext() {
			m.query.Page = page.Page + 1
		}
		m.cursor = 0
	case "p":
		if page, err := m.console.Inputs(m.query); err == nil && page.HasPrev() {
			m.query.Page = page.Page - 1
		}
		m.cursor = 0
	case "s":
		for i, f := range sortFields {
			if f == m.query.Sort || (m.query.Sort == "" && f == "id") {
				m.query.Sort = sortFields[(i+1)%len(sortFields)]
				break
			}
		}
	case "o":
		m.query.Desc = !m.query.Desc
	case "d":
		if !m.console.Profile().InputForm {
			m.status = "Deleting inputs is not allowed by the active profile"
			return m, nil
		}
		if in, ok := m.selectedInput(); ok && !m.busy {
			m.pendingDelete = in.ID
		}
	case "m", "enter":
		in, ok := m.selectedInput()
		if !ok {
			return m, nil
		}
		m.console.WatchMetrics(in.ID)
		m.status = fmt.Sprintf("Watching metrics of %s", in.Name)
		for i, t := range m.tabs {
			if t == profile.TabMetrics {
				m = m.selectTab(i)
			}
		}
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) Model {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyEsc:
		m.searching = false
		m.query.Search = ""
	case tea.KeyBackspace:
		if r := []rune(m.query.Search); len(r) > 0 {
			m.query.Search = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.query.Search += " "
	case tea.KeyRunes:
		m.query.Search += string(msg.Runes)
	default:
		return m
	}
	m.query.Page, m.cursor = 1, 0
	return m
}

func (m Model) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	switch msg.String() {
	case "y", "Y":
		m.pendingDelete = 0
		m.busy, m.status = true, fmt.Sprintf("Deleting input %d...", id)
		return m, m.act(fmt.Sprintf("Input %d deleted", id), func(ctx context.Context) error {
			return m.console.DeleteInput(ctx, id, console.Confirmed(true))
		})
	case "n", "N", "esc":
		m.pendingDelete = 0
		m.status = "Delete cancelled"
	}
	return m, nil
}

// act runs fn off the update loop and reports its outcome.
func (m Model) act(okText string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: okText}
	}
}

func (m Model) selectedAlert() (int, bool) {
	alerts := m.console.Alerts(m.alertFilter).Alerts
	if len(alerts) == 0 {
		return 0, false
	}
	return alerts[clamp(m.cursor, len(alerts))].ID, true
}

func (m Model) selectedInput() (domain.ProbeInput, bool) {
	page, err := m.console.Inputs(m.query)
	if err != nil || len(page.Items) == 0 {
		return domain.ProbeInput{}, false
	}
	return page.Items[clamp(m.cursor, len(page.Items))], true
}

// listLen is the number of selectable rows of the active tab.
func (m Model) listLen() int {
	switch m.tabs[m.active] {
	case profile.TabChannels:
		return len(m.console.Channels().Channels)
	case profile.TabAlerts:
		return len(m.console.Alerts(m.alertFilter).Alerts)
	case profile.TabInputs:
		page, err := m.console.Inputs(m.query)
		if err != nil {
			return 0
		}
		return len(page.Items)
	}
	return 0
}

func clamp(i, n int) int {
	return max(0, min(i, n-1))
}

func errorText(err error) string {
	if monitorapi.StatusCode(err) != 0 {
		return monitorapi.Message(err)
	}
	return err.Error()
}
