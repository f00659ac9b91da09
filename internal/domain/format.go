package domain

import (
	"fmt"
	"strconv"
	"time"
)

// NotAvailable is shown for missing optional values.
const NotAvailable = "N/A"

// FormatBitrate renders a bitrate given in Mbps with a unit that fits.
func FormatBitrate(mbps *float64) string {
	if mbps == nil {
		return NotAvailable
	}
	v := *mbps
	switch {
	case v >= 1000:
		return fmt.Sprintf("%.2f Gbps", v/1000)
	case v >= 1:
		return fmt.Sprintf("%.3f Mbps", v)
	default:
		return fmt.Sprintf("%.0f Kbps", v*1000)
	}
}

// FormatFloat renders v with prec decimals, or N/A.
func FormatFloat(v *float64, prec int) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func FormatInt(v *int) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.Itoa(*v)
}

func FormatString(v *string) string {
	if v == nil || *v == "" {
		return NotAvailable
	}
	return *v
}

func FormatBool(v *bool) string {
	if v == nil {
		return NotAvailable
	}
	if *v {
		return "yes"
	}
	return "no"
}

// FormatTime renders t in UTC, or N/A.
func FormatTime(t *Timestamp) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// FormatRelative renders how long ago t was, relative to now.
func FormatRelative(t *Timestamp, now time.Time) string {
	if t == nil || t.IsZero() {
		return "Never"
	}
	d := now.Sub(t.Time)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.UTC().Format("Jan 2")
	}
}

// Truncate shortens s to n runes with a trailing ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
