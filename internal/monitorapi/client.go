// Package monitorapi is the typed client of the monitoring REST API.
//
// Every response body is decoded into explicit types and validated here;
// callers never see raw JSON.
package monitorapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is used when Options.BaseURL is empty.
const DefaultBaseURL = "http://localhost:5000/api/v1"

var (
	// ErrMalformedEnvelope is returned when a response lacks its envelope key.
	ErrMalformedEnvelope = errors.New("malformed response envelope")
	// ErrNoData is returned when a {data: ...} envelope carries null.
	ErrNoData = errors.New("no data")
)

// APIError is a non-2xx answer. Message is the server-provided text and is
// meant to be shown to the operator verbatim.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status of err when it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Message returns the operator-facing text of err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Client talks to one monitoring API. It never retries: the pollers decide
// what a failed request means.
type Client struct {
	http   *resty.Client
	logger logger.Logger
}

func New(opts Options, log logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}

	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		log.Debug("monitoring api call",
			logger.String("method", resp.Request.Method),
			logger.String("url", resp.Request.URL),
			logger.Int("status", resp.StatusCode()),
			logger.Duration("duration", resp.Time()))
		return nil
	})

	return &Client{http: rc, logger: log}
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

type call struct {
	method string
	path   string
	query  map[string]string
	body   any
}

// do executes the call and returns the raw body of a 2xx answer.
func (c *Client) do(ctx context.Context, cl call) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if len(cl.query) > 0 {
		req.SetQueryParams(cl.query)
	}
	if cl.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	if !resp.IsSuccess() {
		return resp, &APIError{
			StatusCode: resp.StatusCode(),
			Method:     cl.method,
			Path:       cl.path,
			Message:    errorMessage(resp),
		}
	}
	return resp, nil
}

// errorMessage extracts {message} or {error} from an error body and falls
// back to the status text.
func errorMessage(resp *resty.Response) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := http.StatusText(resp.StatusCode()); text != "" {
		return text
	}
	return resp.Status()
}
