package monitorapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/tally/internal/domain"
)

// ─────────────────────────────────────────────────────────────────
// Channels & alerts
// ─────────────────────────────────────────────────────────────────

func (c *Client) ListChannels(ctx context.Context, filter domain.ChannelFilter) ([]domain.Channel, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: "/channels", query: filter.Query()})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Channel](resp.Body(), "channels", c.logger)
}

func (c *Client) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: "/alerts/active"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Alert](resp.Body(), "alerts", c.logger)
}

// AcknowledgeAlert marks the alert acknowledged by operator and returns the
// server message.
func (c *Client) AcknowledgeAlert(ctx context.Context, id int, operator string) (string, error) {
	body := map[string]string{"acknowledged_by": operator}
	resp, err := c.do(ctx, call{method: http.MethodPost, path: alertPath(id, "acknowledge"), body: body})
	if err != nil {
		return "", err
	}
	return messageOf(resp.Body()), nil
}

func (c *Client) ResolveAlert(ctx context.Context, id int) (string, error) {
	resp, err := c.do(ctx, call{method: http.MethodPost, path: alertPath(id, "resolve")})
	if err != nil {
		return "", err
	}
	return messageOf(resp.Body()), nil
}

func alertPath(id int, action string) string {
	return fmt.Sprintf("/alerts/%d/%s", id, action)
}

// ─────────────────────────────────────────────────────────────────
// Probe inputs
// ─────────────────────────────────────────────────────────────────

func inputPath(id int) string {
	return "/inputs/" + strconv.Itoa(id)
}

func (c *Client) ListInputs(ctx context.Context) ([]domain.ProbeInput, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: "/inputs"})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.ProbeInput](resp.Body(), "inputs", c.logger)
}

func (c *Client) GetInput(ctx context.Context, id int) (*domain.ProbeInput, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: inputPath(id)})
	if err != nil {
		return nil, err
	}
	in, err := decodeObject[domain.ProbeInput](resp.Body(), "input")
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// CreateInput returns the id of the new input and the server message.
func (c *Client) CreateInput(ctx context.Context, req domain.ProbeInputRequest) (int, string, error) {
	if err := req.Validate(); err != nil {
		return 0, "", err
	}
	resp, err := c.do(ctx, call{method: http.MethodPost, path: "/inputs", body: req})
	if err != nil {
		return 0, "", err
	}
	var out struct {
		InputID int    `json:"input_id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return out.InputID, out.Message, nil
}

func (c *Client) UpdateInput(ctx context.Context, id int, req domain.ProbeInputRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	resp, err := c.do(ctx, call{method: http.MethodPut, path: inputPath(id), body: req})
	if err != nil {
		return "", err
	}
	return messageOf(resp.Body()), nil
}

func (c *Client) DeleteInput(ctx context.Context, id int) (string, error) {
	resp, err := c.do(ctx, call{method: http.MethodDelete, path: inputPath(id)})
	if err != nil {
		return "", err
	}
	return messageOf(resp.Body()), nil
}

// InputSnapshot returns the latest thumbnail captured by the probe.
func (c *Client) InputSnapshot(ctx context.Context, id int) (*domain.Thumbnail, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: inputPath(id) + "/snapshot"})
	if err != nil {
		return nil, err
	}
	ct := resp.Header().Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(resp.Body())
	}
	return &domain.Thumbnail{ContentType: ct, Data: resp.Body()}, nil
}

// ─────────────────────────────────────────────────────────────────
// Metrics
// ─────────────────────────────────────────────────────────────────

func metricsPath(kind string, id int) string {
	return fmt.Sprintf("/metrics/%s/%d", kind, id)
}

// StreamMetrics returns the raw samples of the last minutes.
func (c *Client) StreamMetrics(ctx context.Context, id, minutes int) ([]domain.BitrateSample, error) {
	q := map[string]string{"minutes": strconv.Itoa(minutes)}
	resp, err := c.do(ctx, call{method: http.MethodGet, path: metricsPath("stream", id), query: q})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.BitrateSample](resp.Body(), "metrics", c.logger)
}

func (c *Client) TR101290(ctx context.Context, id int) (*domain.TR101290, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: metricsPath("tr101290", id)})
	if err != nil {
		return nil, err
	}
	return decodeBody[domain.TR101290](resp.Body(), "priority_1")
}

func (c *Client) InputStatus(ctx context.Context, id int) (*domain.InputStatus, error) {
	return getData[domain.InputStatus](ctx, c, metricsPath("status", id))
}

func (c *Client) MDI(ctx context.Context, id int) (*domain.MDI, error) {
	return getData[domain.MDI](ctx, c, metricsPath("mdi", id))
}

func (c *Client) QoE(ctx context.Context, id int) (*domain.QoE, error) {
	return getData[domain.QoE](ctx, c, metricsPath("qoe", id))
}

func (c *Client) Codec(ctx context.Context, id int) (*domain.CodecInfo, error) {
	return getData[domain.CodecInfo](ctx, c, metricsPath("codec", id))
}

func getData[T any](ctx context.Context, c *Client, path string) (*T, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeObject[T](resp.Body(), "data")
}

// ─────────────────────────────────────────────────────────────────
// Health & diagnostics
// ─────────────────────────────────────────────────────────────────

// Health returns the backend health. An unhealthy backend answers with an
// error status but a valid body; that is reported as a Health, not an error.
func (c *Client) Health(ctx context.Context) (*domain.Health, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: "/health"})
	if resp == nil {
		return nil, err
	}
	h, decErr := decodeBody[domain.Health](resp.Body(), "status")
	if decErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, decErr
	}
	return h, nil
}

func (c *Client) DebugInputs(ctx context.Context) (*domain.DebugInputs, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: "/debug/inputs"})
	if err != nil {
		return nil, err
	}
	return decodeBody[domain.DebugInputs](resp.Body(), "inputs")
}

// DebugSystem behaves like Health: an error status with a body is a report.
func (c *Client) DebugSystem(ctx context.Context) (*domain.DebugSystem, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: "/debug/system"})
	if resp == nil {
		return nil, err
	}
	d, decErr := decodeBody[domain.DebugSystem](resp.Body(), "status")
	if decErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, decErr
	}
	return d, nil
}
