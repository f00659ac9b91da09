package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/profile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	altRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Background(lipgloss.Color("236"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(22)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true).
			PaddingLeft(1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true).
			PaddingLeft(1)

	severityStyles = map[domain.Severity]lipgloss.Style{
		domain.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		domain.SeverityMajor:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		domain.SeverityMinor:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}

	levelStyles = map[domain.Level]lipgloss.Style{
		domain.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		domain.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		domain.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

var tabTitles = map[profile.Tab]string{
	profile.TabOverview: "Overview",
	profile.TabChannels: "Channels",
	profile.TabInputs:   "Inputs",
	profile.TabAlerts:   "Alerts",
	profile.TabMetrics:  "Metrics",
	profile.TabDebug:    "Debug",
}

// View renders the whole dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading…"
	}

	var sb strings.Builder

	p := m.console.Profile()
	sb.WriteString(titleStyle.Render(fmt.Sprintf("  tally console | profile: %s  ", p.Name)))
	sb.WriteString("\n")

	parts := make([]string, 0, len(m.tabs))
	for i, t := range m.tabs {
		label := fmt.Sprintf(" %d: %s ", i+1, tabTitles[t])
		if i == m.active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	sb.WriteString(strings.Join(parts, ""))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")

	// title(1) + tabs(1) + divider(1) + divider(1) + status(2)
	contentHeight := max(m.height-6, 1)
	sb.WriteString(clipLines(m.renderActiveTab(), contentHeight))
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())

	return sb.String()
}

func (m Model) renderActiveTab() string {
	switch m.tabs[m.active] {
	case profile.TabOverview:
		return m.renderOverview()
	case profile.TabChannels:
		return m.renderChannels()
	case profile.TabInputs:
		return m.renderInputs()
	case profile.TabAlerts:
		return m.renderAlerts()
	case profile.TabMetrics:
		return m.renderMetrics()
	case profile.TabDebug:
		return m.renderDebug()
	}
	return ""
}

func (m Model) renderOverview() string {
	ov := m.console.Overview()
	if !ov.Ready && !ov.Restored {
		return dimStyle.Render("Waiting for the first refresh…")
	}

	var sb strings.Builder
	kv := func(label, value string) {
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	health := domain.NotAvailable
	if ov.Health != nil {
		health = ov.Health.Status
		if ov.Health.Database != "" {
			health += " (database " + ov.Health.Database + ")"
		}
	}
	kv("Backend", health)
	kv("Channels", fmt.Sprintf("%d (%d enabled)", ov.TotalChannels, ov.EnabledChannels))
	kv("Inputs", strconv.Itoa(ov.TotalInputs))
	kv("Active alerts", fmt.Sprintf("%d  %s %d  %s %d  %s %d",
		ov.ActiveAlerts,
		severityStyles[domain.SeverityCritical].Render("critical"), ov.Severity.Critical,
		severityStyles[domain.SeverityMajor].Render("major"), ov.Severity.Major,
		severityStyles[domain.SeverityMinor].Render("minor"), ov.Severity.Minor))

	tiers := make([]string, 0, len(ov.Tiers))
	for _, t := range ov.Tiers {
		tiers = append(tiers, fmt.Sprintf("tier %d: %d", t.Tier, t.Count))
	}
	kv("Tiers", strings.Join(tiers, "  "))
	kv("Resolution", fmt.Sprintf("4K: %d  HD: %d", ov.Resolution.UHD, ov.Resolution.HD))
	if ov.Restored && !ov.Ready {
		sb.WriteString(dimStyle.Render("Showing the last saved snapshot until the first refresh."))
		sb.WriteString("\n")
	}
	for slice, msg := range ov.Errors {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("%s: %s", slice, msg)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(headerCellStyle.Render("Recent alerts"))
	sb.WriteString("\n")
	if len(ov.RecentAlerts) == 0 {
		sb.WriteString(dimStyle.Render("No active alerts."))
		return sb.String()
	}
	rows := make([][]string, 0, len(ov.RecentAlerts))
	for _, a := range ov.RecentAlerts {
		rows = append(rows, []string{
			string(a.Severity.Normalize()),
			domain.FormatString(a.ChannelName),
			a.Message,
			domain.FormatTime(&a.CreatedAt),
		})
	}
	sb.WriteString(renderTable([]string{"SEVERITY", "CHANNEL", "MESSAGE", "CREATED"}, rows, -1))
	return sb.String()
}

func (m Model) renderChannels() string {
	view := m.console.Channels()

	var sb strings.Builder
	tier, is4k := "all", "all"
	if view.Filter.Tier != nil {
		tier = strconv.Itoa(*view.Filter.Tier)
	}
	if view.Filter.Is4K != nil {
		is4k = strconv.FormatBool(*view.Filter.Is4K)
	}
	line := fmt.Sprintf("tier: %s  4K: %s", tier, is4k)
	if view.Loading {
		line += "  loading…"
	}
	sb.WriteString(dimStyle.Render(line))
	sb.WriteString("\n")

	if len(view.Channels) == 0 {
		sb.WriteString(dimStyle.Render("No channels."))
		return sb.String()
	}
	rows := make([][]string, 0, len(view.Channels))
	for _, ch := range view.Channels {
		rows = append(rows, []string{
			strconv.Itoa(ch.ID), ch.Code, ch.Name, strconv.Itoa(ch.Tier),
			domain.FormatString(ch.Resolution), yesNo(ch.Is4K), yesNo(ch.Enabled),
		})
	}
	sb.WriteString(renderTable([]string{"ID", "CODE", "NAME", "TIER", "RESOLUTION", "4K", "ENABLED"},
		rows, clamp(m.cursor, len(rows))))
	return sb.String()
}

func (m Model) renderAlerts() string {
	view := m.console.Alerts(m.alertFilter)

	var sb strings.Builder
	tabs := make([]string, 0, len(domain.AlertFilters))
	for _, f := range domain.AlertFilters {
		label := fmt.Sprintf("%s (%d)", f, view.Counts.Count(f))
		if f == m.alertFilter {
			label = headerCellStyle.Render("[" + label + "]")
		}
		tabs = append(tabs, label)
	}
	sb.WriteString(strings.Join(tabs, "  "))
	sb.WriteString("\n")

	if len(view.Alerts) == 0 {
		sb.WriteString(dimStyle.Render("No alerts in this tab."))
		return sb.String()
	}
	rows := make([][]string, 0, len(view.Alerts))
	for _, a := range view.Alerts {
		ack := "no"
		if a.Acknowledged {
			ack = "yes"
			if a.AcknowledgedBy != nil {
				ack = *a.AcknowledgedBy
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(a.ID), string(a.Severity.Normalize()), a.Type,
			domain.FormatString(a.ChannelName), a.Message, ack, domain.FormatTime(&a.CreatedAt),
		})
	}
	sb.WriteString(renderTable([]string{"ID", "SEVERITY", "TYPE", "CHANNEL", "MESSAGE", "ACK", "CREATED"},
		rows, clamp(m.cursor, len(rows))))
	return sb.String()
}

func (m Model) renderInputs() string {
	var sb strings.Builder

	search := m.query.Search
	if m.searching {
		search += "▌"
	}
	sort := m.query.Sort
	if sort == "" {
		sort = "id"
	}
	if m.query.Desc {
		sort += " desc"
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("search: %s  sort: %s", search, sort)))
	sb.WriteString("\n")

	page, err := m.console.Inputs(m.query)
	if err != nil {
		sb.WriteString(errorStyle.Render(err.Error()))
		return sb.String()
	}
	if len(page.Items) == 0 {
		sb.WriteString(dimStyle.Render("No inputs."))
		return sb.String()
	}
	rows := make([][]string, 0, len(page.Items))
	for _, in := range page.Items {
		rows = append(rows, []string{
			strconv.Itoa(in.ID), in.Name, in.URL, in.Type, domain.FormatString(in.ChannelName),
			yesNo(in.IsPrimary), yesNo(in.Enabled), domain.FormatBitrate(in.BitrateMbps),
		})
	}
	sb.WriteString(renderTable([]string{"ID", "NAME", "URL", "TYPE", "CHANNEL", "PRIMARY", "ENABLED", "BITRATE"},
		rows, clamp(m.cursor, len(rows))))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("page %d/%d, %d inputs", page.Page, page.TotalPages, page.Total)))
	return sb.String()
}

func (m Model) renderMetrics() string {
	panel, ok := m.console.Metrics()
	if !ok {
		return dimStyle.Render("No input selected. Pick one in the Inputs tab and press m.")
	}
	if panel.Loading {
		return dimStyle.Render(fmt.Sprintf("Loading metrics of input %d…", panel.InputID))
	}

	var sb strings.Builder
	kv := func(label, value string) {
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	kv("Input", strconv.Itoa(panel.InputID))
	if st := panel.Status; st != nil {
		kv("Name", st.InputName)
		kv("Health", string(st.Health()))
		kv("Last update", domain.FormatTime(st.LastUpdate))
		kv("Last snapshot", domain.FormatTime(st.LastSnapshot))
	}
	if n := len(panel.Bitrate); n > 0 {
		last := panel.Bitrate[n-1].Mbps
		kv("Bitrate", domain.FormatBitrate(&last))
		kv("", sparkline(panel.Bitrate, max(m.width-24, 10)))
	} else {
		kv("Bitrate", domain.NotAvailable)
	}
	if tr := panel.TR101290; tr != nil {
		mos := tr.EstimatedMOS()
		kv("TR 101 290", fmt.Sprintf("P1 %d  P2 %d  P3 %d (%s)",
			tr.Priority1.Total, tr.Priority2.Total, tr.Priority3.Total, tr.Health()))
		kv("Estimated MOS", levelStyles[domain.MOSLevel(mos)].Render(
			fmt.Sprintf("%.2f %s", mos, domain.MOSRating(mos))))
		if tr.Metadata.PCRIntervalMs != nil {
			pcr := domain.FormatFloat(tr.Metadata.PCRIntervalMs, 1) + " ms"
			if !tr.Metadata.PCRIntervalOK() {
				pcr = levelStyles[domain.LevelWarning].Render(pcr + " (out of range)")
			}
			kv("PCR interval", pcr)
		}
	}
	if mdi := panel.MDI; mdi != nil {
		kv("MDI jitter", levelStyles[mdi.JitterLevel()].Render(domain.FormatFloat(mdi.JitterMs, 2)+" ms"))
		kv("MDI buffer", levelStyles[mdi.BufferLevel()].Render(domain.FormatFloat(mdi.BufferUtilization, 1)+" %"))
		for _, f := range mdi.Findings() {
			kv("", levelStyles[f.Level].Render(f.Message))
		}
	}
	if q := panel.QoE; q != nil {
		kv("QoE MOS", domain.FormatFloat(q.OverallMOS, 2))
		for _, f := range q.Findings() {
			kv("", levelStyles[f.Level].Render(f.Message))
		}
	}
	if c := panel.Codec; c != nil {
		kv("Video", fmt.Sprintf("%s %s %s fps", domain.FormatString(c.VideoCodec),
			domain.FormatString(c.Resolution), domain.FormatFloat(c.FrameRate, 2)))
		kv("Audio", fmt.Sprintf("%s %s ch", domain.FormatString(c.AudioCodec), domain.FormatInt(c.AudioChannels)))
	}
	if !m.console.Profile().DeepMetrics {
		sb.WriteString(dimStyle.Render("Detailed stream metrics are not part of this profile."))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderDebug() string {
	d, err := m.console.Debug()
	if err != nil {
		return errorStyle.Render(errorText(err))
	}
	if d.System == nil && d.Inputs == nil {
		return dimStyle.Render("Waiting for the debug dumps…")
	}

	var sb strings.Builder
	if sys := d.System; sys != nil {
		sb.WriteString(labelStyle.Render("System"))
		sb.WriteString(fmt.Sprintf("%s (database %s)\n", sys.Status, sys.Database))
		sb.WriteString(labelStyle.Render("Counts"))
		sb.WriteString(fmt.Sprintf("channels %d  inputs %d  probes %d  active alerts %d\n",
			sys.Counts.Channels, sys.Counts.Inputs, sys.Counts.Probes, sys.Counts.ActiveAlerts))
	}
	if in := d.Inputs; in != nil && len(in.Inputs) > 0 {
		sb.WriteString("\n")
		rows := make([][]string, 0, len(in.Inputs))
		for _, i := range in.Inputs {
			rows = append(rows, []string{strconv.Itoa(i.ID), i.Name, i.URL, yesNo(i.SnapshotExists)})
		}
		sb.WriteString(renderTable([]string{"ID", "NAME", "URL", "SNAPSHOT"}, rows, -1))
	}
	return sb.String()
}

func (m Model) renderStatus() string {
	if m.pendingDelete != 0 {
		return promptStyle.Render(fmt.Sprintf("Are you sure you want to delete input %d? [y/N]", m.pendingDelete))
	}

	var line string
	if notes := m.console.Notifications(); len(notes) > 0 {
		last := notes[len(notes)-1]
		if last.Kind == console.KindError {
			line = errorStyle.Render(last.Message)
		} else {
			line = statusBarStyle.Render(last.Message)
		}
	} else if m.status != "" {
		line = statusBarStyle.Render(m.status)
	}

	parts := []string{fmt.Sprintf("server: %s", m.server)}
	if !m.lastTick.IsZero() {
		parts = append(parts, m.lastTick.Format("15:04:05"))
	}
	if m.busy {
		parts = append(parts, "working…")
	}
	parts = append(parts, m.keyHelp())
	return line + "\n" + statusBarStyle.Render(strings.Join(parts, "  |  "))
}

func (m Model) keyHelp() string {
	help := "q: quit  tab: next tab  r: refresh"
	switch m.tabs[m.active] {
	case profile.TabChannels:
		help += "  t: tier  u: 4K"
	case profile.TabAlerts:
		help += "  f: filter  a: ack  x: resolve"
	case profile.TabInputs:
		help += "  /: search  s: sort  o: order  n/p: page  m: metrics"
		if m.console.Profile().InputForm {
			help += "  d: delete"
		}
	case profile.TabMetrics:
		help += "  esc: stop watching"
	}
	return help
}

// renderTable pads columns to their widest cell. selected < 0 highlights
// nothing.
func renderTable(headers []string, rows [][]string, selected int) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string) string {
		padded := make([]string, len(cells))
		for i, c := range cells {
			padded[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		return strings.Join(padded, "  ")
	}

	out := make([]string, 0, len(rows)+1)
	out = append(out, headerCellStyle.Render(line(headers)))
	for i, r := range rows {
		style := rowStyle
		switch {
		case i == selected:
			style = selectedRowStyle
		case i%2 == 1:
			style = altRowStyle
		}
		out = append(out, style.Render(line(r)))
	}
	return strings.Join(out, "\n")
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws the last width points scaled between their min and max.
func sparkline(points []domain.BitratePoint, width int) string {
	if len(points) > width {
		points = points[len(points)-width:]
	}
	if len(points) == 0 {
		return ""
	}
	lo, hi := points[0].Mbps, points[0].Mbps
	for _, p := range points {
		lo, hi = min(lo, p.Mbps), max(hi, p.Mbps)
	}
	out := make([]rune, len(points))
	for i, p := range points {
		idx := 0
		if hi > lo {
			idx = int((p.Mbps - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}

func clipLines(s string, maxLines int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[:maxLines], "\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
