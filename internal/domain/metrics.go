package domain

import (
	"fmt"
	"time"
)

// MetricBitrate is the series field plotted by the bitrate chart.
const MetricBitrate = "bitrate_mbps"

// MaxBitratePoints bounds the bitrate chart.
const MaxBitratePoints = 60

// TR101290 holds the priority-tiered transport stream error counters.
type TR101290 struct {
	Priority1 Priority1Errors `json:"priority_1" yaml:"priority_1"`
	Priority2 Priority2Errors `json:"priority_2" yaml:"priority_2"`
	Priority3 Priority3Errors `json:"priority_3" yaml:"priority_3"`
	Metadata  StreamMetadata  `json:"metadata" yaml:"metadata"`
}

type Priority1Errors struct {
	Total                int64 `json:"total_p1_errors" yaml:"total_p1_errors"`
	TSSyncLoss           int64 `json:"ts_sync_loss" yaml:"ts_sync_loss"`
	SyncByteError        int64 `json:"sync_byte_error" yaml:"sync_byte_error"`
	PATError             int64 `json:"pat_error" yaml:"pat_error"`
	ContinuityCountError int64 `json:"continuity_count_error" yaml:"continuity_count_error"`
	PMTError             int64 `json:"pmt_error" yaml:"pmt_error"`
	PIDError             int64 `json:"pid_error" yaml:"pid_error"`
}

type Priority2Errors struct {
	Total            int64 `json:"total_p2_errors" yaml:"total_p2_errors"`
	TransportError   int64 `json:"transport_error" yaml:"transport_error"`
	CRCError         int64 `json:"crc_error" yaml:"crc_error"`
	PCRError         int64 `json:"pcr_error" yaml:"pcr_error"`
	PCRAccuracyError int64 `json:"pcr_accuracy_error" yaml:"pcr_accuracy_error"`
	PTSError         int64 `json:"pts_error" yaml:"pts_error"`
	CATError         int64 `json:"cat_error" yaml:"cat_error"`
}

type Priority3Errors struct {
	Total             int64 `json:"total_p3_errors" yaml:"total_p3_errors"`
	NITError          int64 `json:"nit_error" yaml:"nit_error"`
	SIRepetitionError int64 `json:"si_repetition_error" yaml:"si_repetition_error"`
	UnreferencedPID   int64 `json:"unreferenced_pid" yaml:"unreferenced_pid"`
}

type StreamMetadata struct {
	TotalPackets  int64    `json:"total_packets" yaml:"total_packets"`
	PATReceived   bool     `json:"pat_received" yaml:"pat_received"`
	PMTReceived   bool     `json:"pmt_received" yaml:"pmt_received"`
	PCRIntervalMs *float64 `json:"pcr_interval_ms,omitempty" yaml:"pcr_interval_ms,omitempty"`
}

// MDI is the RFC 4445 media delivery index for one input.
type MDI struct {
	DF                *float64   `json:"df,omitempty" yaml:"df,omitempty"`
	MLR               *float64   `json:"mlr,omitempty" yaml:"mlr,omitempty"`
	JitterMs          *float64   `json:"jitter_ms,omitempty" yaml:"jitter_ms,omitempty"`
	MaxJitterMs       *float64   `json:"max_jitter_ms,omitempty" yaml:"max_jitter_ms,omitempty"`
	BufferUtilization *float64   `json:"buffer_utilization,omitempty" yaml:"buffer_utilization,omitempty"`
	BufferDepth       *int64     `json:"buffer_depth,omitempty" yaml:"buffer_depth,omitempty"`
	BufferMax         *int64     `json:"buffer_max,omitempty" yaml:"buffer_max,omitempty"`
	PacketsLost       *int64     `json:"packets_lost,omitempty" yaml:"packets_lost,omitempty"`
	PacketsOutOfOrder *int64     `json:"packets_out_of_order,omitempty" yaml:"packets_out_of_order,omitempty"`
	InputRateMbps     *float64   `json:"input_rate_mbps,omitempty" yaml:"input_rate_mbps,omitempty"`
	Time              *Timestamp `json:"time,omitempty" yaml:"time,omitempty"`
}

// QoE carries the perceptual quality scores computed by the probe.
type QoE struct {
	OverallMOS           *float64   `json:"overall_mos,omitempty" yaml:"overall_mos,omitempty"`
	VideoQualityScore    *float64   `json:"video_quality_score,omitempty" yaml:"video_quality_score,omitempty"`
	VideoBitrateMbps     *float64   `json:"video_bitrate_mbps,omitempty" yaml:"video_bitrate_mbps,omitempty"`
	VideoPIDActive       *bool      `json:"video_pid_active,omitempty" yaml:"video_pid_active,omitempty"`
	BlackFramesDetected  *int64     `json:"black_frames_detected,omitempty" yaml:"black_frames_detected,omitempty"`
	FreezeFramesDetected *int64     `json:"freeze_frames_detected,omitempty" yaml:"freeze_frames_detected,omitempty"`
	AudioPIDActive       *bool      `json:"audio_pid_active,omitempty" yaml:"audio_pid_active,omitempty"`
	AudioQualityScore    *float64   `json:"audio_quality_score,omitempty" yaml:"audio_quality_score,omitempty"`
	AudioBitrateKbps     *float64   `json:"audio_bitrate_kbps,omitempty" yaml:"audio_bitrate_kbps,omitempty"`
	AudioSilenceDetected *int64     `json:"audio_silence_detected,omitempty" yaml:"audio_silence_detected,omitempty"`
	AudioLoudnessLUFS    *float64   `json:"audio_loudness_lufs,omitempty" yaml:"audio_loudness_lufs,omitempty"`
	Time                 *Timestamp `json:"time,omitempty" yaml:"time,omitempty"`
}

// CodecInfo describes the elementary streams of an input.
type CodecInfo struct {
	VideoCodec       *string  `json:"video_codec,omitempty" yaml:"video_codec,omitempty"`
	VideoProfile     *string  `json:"video_profile,omitempty" yaml:"video_profile,omitempty"`
	VideoLevel       *string  `json:"video_level,omitempty" yaml:"video_level,omitempty"`
	Resolution       *string  `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	FrameRate        *float64 `json:"frame_rate,omitempty" yaml:"frame_rate,omitempty"`
	VideoBitrateMbps *float64 `json:"video_bitrate_mbps,omitempty" yaml:"video_bitrate_mbps,omitempty"`
	AudioCodec       *string  `json:"audio_codec,omitempty" yaml:"audio_codec,omitempty"`
	AudioChannels    *int     `json:"audio_channels,omitempty" yaml:"audio_channels,omitempty"`
	AudioSampleRate  *int     `json:"audio_sample_rate,omitempty" yaml:"audio_sample_rate,omitempty"`
	AudioBitrateKbps *float64 `json:"audio_bitrate_kbps,omitempty" yaml:"audio_bitrate_kbps,omitempty"`
}

// InputStatus is the status card of one input.
type InputStatus struct {
	InputName        string     `json:"input_name" yaml:"input_name"`
	InputURL         string     `json:"input_url" yaml:"input_url"`
	InputType        string     `json:"input_type" yaml:"input_type"`
	BitrateMbps      *float64   `json:"bitrate_mbps,omitempty" yaml:"bitrate_mbps,omitempty"`
	TR101290P1Errors int64      `json:"tr101290_p1_errors" yaml:"tr101290_p1_errors"`
	TR101290P2Errors int64      `json:"tr101290_p2_errors" yaml:"tr101290_p2_errors"`
	LastSnapshot     *Timestamp `json:"last_snapshot,omitempty" yaml:"last_snapshot,omitempty"`
	LastUpdate       *Timestamp `json:"last_update,omitempty" yaml:"last_update,omitempty"`
	Enabled          bool       `json:"enabled" yaml:"enabled"`
}

// BitrateSample is one point of /metrics/stream.
type BitrateSample struct {
	Time  Timestamp `json:"time" yaml:"time"`
	Field string    `json:"field" yaml:"field"`
	Value *float64  `json:"value,omitempty" yaml:"value,omitempty"`
}

func (s BitrateSample) Validate() error {
	if s.Time.IsZero() {
		return fmt.Errorf("sample %q: missing time", s.Field)
	}
	return nil
}

// BitratePoint is a chart-ready bitrate sample.
type BitratePoint struct {
	Time time.Time `json:"time" yaml:"time"`
	Mbps float64   `json:"mbps" yaml:"mbps"`
}

// BitrateSeries keeps the bitrate_mbps samples that carry a value and
// returns the last MaxBitratePoints of them in input order.
func BitrateSeries(samples []BitrateSample) []BitratePoint {
	points := make([]BitratePoint, 0, len(samples))
	for _, s := range samples {
		if s.Field != MetricBitrate || s.Value == nil {
			continue
		}
		points = append(points, BitratePoint{Time: s.Time.Time, Mbps: *s.Value})
	}
	if len(points) > MaxBitratePoints {
		points = points[len(points)-MaxBitratePoints:]
	}
	return points
}

// MetricsPanel is everything the metrics view shows for the selected input.
// A nil section means the last fetch for it never succeeded.
type MetricsPanel struct {
	InputID   int            `json:"input_id" yaml:"input_id"`
	Bitrate   []BitratePoint `json:"bitrate" yaml:"bitrate"`
	TR101290  *TR101290      `json:"tr101290,omitempty" yaml:"tr101290,omitempty"`
	Status    *InputStatus   `json:"status,omitempty" yaml:"status,omitempty"`
	MDI       *MDI           `json:"mdi,omitempty" yaml:"mdi,omitempty"`
	QoE       *QoE           `json:"qoe,omitempty" yaml:"qoe,omitempty"`
	Codec     *CodecInfo     `json:"codec,omitempty" yaml:"codec,omitempty"`
	Loading   bool           `json:"loading" yaml:"loading"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}
