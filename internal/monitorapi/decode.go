package monitorapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/tally/internal/logger"
)

type validator interface {
	Validate() error
}

// envelope splits a JSON object into its top-level members.
func envelope(body []byte) (map[string]json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env == nil {
		return nil, fmt.Errorf("%w: null body", ErrMalformedEnvelope)
	}
	return env, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeList reads the list under key. A missing key is a malformed
// envelope, null is an empty list, and records that fail to decode or
// validate are dropped and logged.
func decodeList[T validator](body []byte, key string, log logger.Logger) ([]T, error) {
	env, err := envelope(body)
	if err != nil {
		return nil, err
	}
	raw, ok := env[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedEnvelope, key)
	}
	if isNull(raw) {
		return []T{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list: %v", ErrMalformedEnvelope, key, err)
	}

	out := make([]T, 0, len(records))
	for i, rec := range records {
		var item T
		if err := json.Unmarshal(rec, &item); err != nil {
			log.Warn("dropping undecodable record",
				logger.String("list", key),
				logger.Int("index", i),
				logger.Error(err))
			continue
		}
		if err := item.Validate(); err != nil {
			log.Warn("dropping invalid record",
				logger.String("list", key),
				logger.Int("index", i),
				logger.Error(err))
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// decodeObject reads the object under key into a new T.
func decodeObject[T any](body []byte, key string) (*T, error) {
	env, err := envelope(body)
	if err != nil {
		return nil, err
	}
	raw, ok := env[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedEnvelope, key)
	}
	if isNull(raw) {
		return nil, ErrNoData
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return &out, nil
}

// decodeBody reads the whole body into T after checking key is present.
func decodeBody[T any](body []byte, key string) (*T, error) {
	env, err := envelope(body)
	if err != nil {
		return nil, err
	}
	if _, ok := env[key]; !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedEnvelope, key)
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return &out, nil
}

// messageOf returns the {message} of a mutation answer, if any.
func messageOf(body []byte) string {
	var m struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &m)
	return m.Message
}
