package cli

import (
	"strconv"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

// Table rows. json and yaml print the domain values as is.

type channelRow struct {
	ID         int    `table:"ID"`
	Code       string `table:"CODE"`
	Name       string `table:"NAME"`
	Tier       int    `table:"TIER"`
	Resolution string `table:"RESOLUTION"`
	Is4K       bool   `table:"4K"`
	Enabled    bool   `table:"ENABLED"`
}

func channelRows(channels []domain.Channel) []channelRow {
	rows := make([]channelRow, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, channelRow{
			ID:         ch.ID,
			Code:       ch.Code,
			Name:       ch.Name,
			Tier:       ch.Tier,
			Resolution: domain.FormatString(ch.Resolution),
			Is4K:       ch.Is4K,
			Enabled:    ch.Enabled,
		})
	}
	return rows
}

type alertRow struct {
	ID       int    `table:"ID"`
	Severity string `table:"SEVERITY"`
	Type     string `table:"TYPE"`
	Channel  string `table:"CHANNEL"`
	Message  string `table:"MESSAGE"`
	Ack      string `table:"ACK"`
	Created  string `table:"CREATED"`
}

func alertRows(alerts []domain.Alert) []alertRow {
	rows := make([]alertRow, 0, len(alerts))
	for _, a := range alerts {
		ack := "no"
		if a.Acknowledged {
			ack = "yes"
			if a.AcknowledgedBy != nil {
				ack = *a.AcknowledgedBy
			}
		}
		created := a.CreatedAt
		rows = append(rows, alertRow{
			ID:       a.ID,
			Severity: string(a.Severity.Normalize()),
			Type:     a.Type,
			Channel:  domain.FormatString(a.ChannelName),
			Message:  a.Message,
			Ack:      ack,
			Created:  domain.FormatTime(&created),
		})
	}
	return rows
}

type inputRow struct {
	ID      int    `table:"ID"`
	Name    string `table:"NAME"`
	URL     string `table:"URL"`
	Type    string `table:"TYPE"`
	Channel string `table:"CHANNEL"`
	Primary bool   `table:"PRIMARY"`
	Enabled bool   `table:"ENABLED"`
	Bitrate string `table:"BITRATE"`
}

func inputRows(inputs []domain.ProbeInput) []inputRow {
	rows := make([]inputRow, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, inputRow{
			ID:      in.ID,
			Name:    in.Name,
			URL:     in.URL,
			Type:    in.Type,
			Channel: domain.FormatString(in.ChannelName),
			Primary: in.IsPrimary,
			Enabled: in.Enabled,
			Bitrate: domain.FormatBitrate(in.BitrateMbps),
		})
	}
	return rows
}

type inputDetail struct {
	ID           int    `table:"ID"`
	Name         string `table:"NAME"`
	URL          string `table:"URL"`
	Type         string `table:"TYPE"`
	Protocol     string `table:"PROTOCOL"`
	Port         string `table:"PORT"`
	Channel      string `table:"CHANNEL"`
	Probe        int    `table:"PROBE"`
	Primary      bool   `table:"PRIMARY"`
	Enabled      bool   `table:"ENABLED"`
	Bitrate      string `table:"BITRATE"`
	LastSnapshot string `table:"LAST SNAPSHOT"`
	Updated      string `table:"UPDATED"`
}

func inputDetailOf(in domain.ProbeInput) inputDetail {
	channel := domain.FormatString(in.ChannelName)
	if in.ChannelName == nil && in.ChannelID != nil {
		channel = strconv.Itoa(*in.ChannelID)
	}
	return inputDetail{
		ID:           in.ID,
		Name:         in.Name,
		URL:          in.URL,
		Type:         in.Type,
		Protocol:     domain.FormatString(in.Protocol),
		Port:         domain.FormatInt(in.Port),
		Channel:      channel,
		Probe:        in.ProbeID,
		Primary:      in.IsPrimary,
		Enabled:      in.Enabled,
		Bitrate:      domain.FormatBitrate(in.BitrateMbps),
		LastSnapshot: domain.FormatTime(in.LastSnapshotAt),
		Updated:      domain.FormatTime(in.UpdatedAt),
	}
}

type healthRow struct {
	Status   string `table:"STATUS"`
	Database string `table:"DATABASE"`
	Error    string `table:"ERROR"`
	Checked  string `table:"CHECKED"`
}

func healthRowOf(h domain.Health) healthRow {
	return healthRow{
		Status:   h.Status,
		Database: h.Database,
		Error:    domain.FormatString(h.Error),
		Checked:  domain.FormatTime(h.Timestamp),
	}
}

type metricsSummary struct {
	Input       int    `table:"INPUT"`
	Name        string `table:"NAME"`
	Health      string `table:"HEALTH"`
	Bitrate     string `table:"BITRATE"`
	Samples     int    `table:"SAMPLES"`
	P1Errors    string `table:"P1 ERRORS"`
	P2Errors    string `table:"P2 ERRORS"`
	MOS         string `table:"EST. MOS"`
	PCRInterval string `table:"PCR INTERVAL"`
	Jitter      string `table:"JITTER"`
	Codec       string `table:"CODEC"`
	LastUpdate  string `table:"LAST UPDATE"`
}

func metricsSummaryOf(p domain.MetricsPanel) metricsSummary {
	s := metricsSummary{
		Input:       p.InputID,
		Name:        domain.NotAvailable,
		Health:      domain.NotAvailable,
		Bitrate:     domain.NotAvailable,
		Samples:     len(p.Bitrate),
		P1Errors:    domain.NotAvailable,
		P2Errors:    domain.NotAvailable,
		MOS:         domain.NotAvailable,
		PCRInterval: domain.NotAvailable,
		Jitter:      domain.NotAvailable,
		Codec:       domain.NotAvailable,
		LastUpdate:  domain.NotAvailable,
	}
	if n := len(p.Bitrate); n > 0 {
		last := p.Bitrate[n-1].Mbps
		s.Bitrate = domain.FormatBitrate(&last)
	}
	if st := p.Status; st != nil {
		s.Name = st.InputName
		s.Health = string(st.Health())
		s.P1Errors = strconv.FormatInt(st.TR101290P1Errors, 10)
		s.P2Errors = strconv.FormatInt(st.TR101290P2Errors, 10)
		s.LastUpdate = domain.FormatTime(st.LastUpdate)
	}
	if tr := p.TR101290; tr != nil {
		mos := tr.EstimatedMOS()
		s.Health = string(tr.Health())
		s.P1Errors = strconv.FormatInt(tr.Priority1.Total, 10)
		s.P2Errors = strconv.FormatInt(tr.Priority2.Total, 10)
		s.MOS = strconv.FormatFloat(mos, 'f', 2, 64) + " (" + domain.MOSRating(mos) + ")"
		if tr.Metadata.PCRIntervalMs != nil {
			s.PCRInterval = domain.FormatFloat(tr.Metadata.PCRIntervalMs, 1) + " ms"
			if !tr.Metadata.PCRIntervalOK() {
				s.PCRInterval += " (out of range)"
			}
		}
	}
	if m := p.MDI; m != nil && m.JitterMs != nil {
		s.Jitter = domain.FormatFloat(m.JitterMs, 2) + " ms (" + string(m.JitterLevel()) + ")"
	}
	if cd := p.Codec; cd != nil {
		s.Codec = domain.FormatString(cd.VideoCodec)
		if cd.Resolution != nil {
			s.Codec += " " + *cd.Resolution
		}
	}
	return s
}

type debugSummary struct {
	Status          string `table:"STATUS"`
	Database        string `table:"DATABASE"`
	Channels        int    `table:"CHANNELS"`
	Inputs          int    `table:"INPUTS"`
	Probes          int    `table:"PROBES"`
	ActiveAlerts    int    `table:"ACTIVE ALERTS"`
	ListedInputs    int    `table:"LISTED INPUTS"`
	WithSnapshot    int    `table:"WITH SNAPSHOT"`
	WithoutSnapshot int    `table:"WITHOUT SNAPSHOT"`
}

func debugSummaryOf(d domain.Debug) debugSummary {
	var s debugSummary
	if sys := d.System; sys != nil {
		s.Status = sys.Status
		s.Database = sys.Database
		s.Channels = sys.Counts.Channels
		s.Inputs = sys.Counts.Inputs
		s.Probes = sys.Counts.Probes
		s.ActiveAlerts = sys.Counts.ActiveAlerts
	}
	if in := d.Inputs; in != nil {
		s.ListedInputs = in.Count
		for _, i := range in.Inputs {
			if i.SnapshotExists {
				s.WithSnapshot++
			} else {
				s.WithoutSnapshot++
			}
		}
	}
	return s
}
