package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StorageKey is the single key the queue blob is persisted under.
const StorageKey = "cadsocial_offline_queue"

// CurrentVersion is the blob format written by this package. Version 0 is the
// legacy bare JSON array without an envelope.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned when a blob was written by a newer client.
var ErrUnsupportedVersion = errors.New("unsupported queue blob version")

// Item is one submission captured while offline.
type Item struct {
	ID         string
	Payload    map[string]any
	EnqueuedAt time.Time
}

// Clone returns a deep copy so callers cannot mutate queued payloads.
func (i Item) Clone() Item {
	return Item{ID: i.ID, Payload: clonePayload(i.Payload), EnqueuedAt: i.EnqueuedAt}
}

type wireItem struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

type envelope struct {
	Version int        `json:"version"`
	Items   []wireItem `json:"items"`
}

func encodeBlob(items []Item) (string, error) {
	env := envelope{Version: CurrentVersion, Items: make([]wireItem, len(items))}
	for i, item := range items {
		env.Items[i] = wireItem{
			ID:        item.ID,
			Data:      item.Payload,
			Timestamp: item.EnqueuedAt.UnixMilli(),
		}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode queue: %w", err)
	}
	return string(data), nil
}

// decodeBlob accepts both the versioned envelope and the legacy bare array.
func decodeBlob(raw string) ([]Item, int, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return nil, CurrentVersion, nil
	}

	var (
		wire    []wireItem
		version int
	)
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, 0, fmt.Errorf("decode legacy queue: %w", err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, 0, fmt.Errorf("decode queue: %w", err)
		}
		if env.Version > CurrentVersion {
			return nil, env.Version, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
		}
		version = env.Version
		wire = env.Items
	default:
		return nil, 0, errors.New("decode queue: not a JSON array or object")
	}

	items := make([]Item, 0, len(wire))
	for _, w := range wire {
		data := w.Data
		if data == nil {
			data = map[string]any{}
		}
		items = append(items, Item{
			ID:         w.ID,
			Payload:    data,
			EnqueuedAt: time.UnixMilli(w.Timestamp),
		})
	}
	return items, version, nil
}

// normalizePayload deep-copies payload through JSON so the in-memory copy has
// exactly the shape a reload would produce.
func normalizePayload(payload map[string]any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

func clonePayload(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return clonePayload(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
