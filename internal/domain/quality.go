package domain

import "fmt"

// Level is the traffic-light severity used by metric cards.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelUnknown Level = "unknown"
)

// StreamHealth classifies an input from its TR 101 290 counters.
type StreamHealth string

const (
	HealthCritical StreamHealth = "critical"
	HealthWarning  StreamHealth = "warning"
	HealthMinor    StreamHealth = "minor"
	HealthOK       StreamHealth = "healthy"
	HealthUnknown  StreamHealth = "unknown"
)

// ClassifyStreamHealth: more than 10 P1 errors is critical, any P1 error a
// warning, more than 5 P2 errors minor.
func ClassifyStreamHealth(p1, p2 int64) StreamHealth {
	switch {
	case p1 > 10:
		return HealthCritical
	case p1 > 0:
		return HealthWarning
	case p2 > 5:
		return HealthMinor
	default:
		return HealthOK
	}
}

// Health classifies the status card; a nil status is unknown.
func (s *InputStatus) Health() StreamHealth {
	if s == nil {
		return HealthUnknown
	}
	return ClassifyStreamHealth(s.TR101290P1Errors, s.TR101290P2Errors)
}

// EstimateMOS derives a 1..5 opinion score from the error counters.
func EstimateMOS(p1, p2, p3 int64) float64 {
	mos := 5.0
	mos -= min(float64(p1)*0.1, 2.0)
	mos -= min(float64(p2)*0.02, 0.5)
	mos -= min(float64(p3)*0.01, 0.3)
	return max(1.0, min(5.0, mos))
}

// EstimatedMOS applies EstimateMOS to the priority totals.
func (t TR101290) EstimatedMOS() float64 {
	return EstimateMOS(t.Priority1.Total, t.Priority2.Total, t.Priority3.Total)
}

func (t TR101290) Health() StreamHealth {
	return ClassifyStreamHealth(t.Priority1.Total, t.Priority2.Total)
}

// PCRIntervalOK reports whether the PCR interval is within 10..40 ms.
// A missing interval is not OK.
func (m StreamMetadata) PCRIntervalOK() bool {
	return m.PCRIntervalMs != nil && *m.PCRIntervalMs >= 10 && *m.PCRIntervalMs <= 40
}

func MOSRating(mos float64) string {
	switch {
	case mos >= 4.5:
		return "Excellent"
	case mos >= 4.0:
		return "Good"
	case mos >= 3.5:
		return "Fair"
	case mos >= 2.5:
		return "Poor"
	default:
		return "Bad"
	}
}

func MOSLevel(mos float64) Level {
	switch {
	case mos >= 4.5:
		return LevelSuccess
	case mos >= 3.5:
		return LevelWarning
	default:
		return LevelError
	}
}

// JitterLevel grades MDI jitter in milliseconds.
func JitterLevel(ms float64) Level {
	switch {
	case ms < 5:
		return LevelSuccess
	case ms < 15:
		return LevelWarning
	default:
		return LevelError
	}
}

// BufferLevel grades buffer utilisation in percent.
func BufferLevel(pct float64) Level {
	switch {
	case pct < 60:
		return LevelSuccess
	case pct < 85:
		return LevelWarning
	default:
		return LevelError
	}
}

// Finding is one line of the network or quality analysis.
type Finding struct {
	Level   Level  `json:"level" yaml:"level"`
	Message string `json:"message" yaml:"message"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Findings returns the network analysis of the MDI sample.
func (m *MDI) Findings() []Finding {
	if m == nil {
		return nil
	}
	var out []Finding
	df, mlr := deref(m.DF), deref(m.MLR)
	if df > 30 {
		out = append(out, Finding{LevelWarning, fmt.Sprintf("high delay factor (%.2f ms): network congestion or jitter", df)})
	}
	if mlr > 0 {
		out = append(out, Finding{LevelError, fmt.Sprintf("packet loss detected (%.2f pps): causes continuity count errors", mlr)})
	}
	if buf := deref(m.BufferUtilization); buf > 85 {
		out = append(out, Finding{LevelError, fmt.Sprintf("buffer near capacity (%.1f%%): risk of overflow", buf)})
	}
	if m.JitterMs != nil && *m.JitterMs < 5 && m.MLR != nil && *m.MLR == 0 {
		out = append(out, Finding{LevelSuccess, "excellent network quality: low jitter, no packet loss"})
	}
	return out
}

// JitterLevel grades the sample; missing jitter counts as zero.
func (m *MDI) JitterLevel() Level {
	if m == nil {
		return LevelUnknown
	}
	return JitterLevel(deref(m.JitterMs))
}

func (m *MDI) BufferLevel() Level {
	if m == nil {
		return LevelUnknown
	}
	return BufferLevel(deref(m.BufferUtilization))
}

// Findings lists the decode-level problems of the QoE sample.
func (q *QoE) Findings() []Finding {
	if q == nil {
		return nil
	}
	var out []Finding
	if deref(q.BlackFramesDetected) > 0 {
		out = append(out, Finding{LevelWarning, "black frames detected: possible signal loss or content issue"})
	}
	if deref(q.FreezeFramesDetected) > 0 {
		out = append(out, Finding{LevelWarning, "freeze frames detected: decoder or bitrate issue"})
	}
	if deref(q.AudioSilenceDetected) > 0 {
		out = append(out, Finding{LevelError, "audio silence detected: audio stream may be missing or muted"})
	}
	return out
}
