// Package model defines domain entities for the application.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Website is a site registered for SEO tracking.
type Website struct {
	ID         int64      `json:"id"`
	URL        string     `json:"url"`
	Name       string     `json:"name"`
	CreatedAt  Timestamp  `json:"created_at"`
	LastAudit  *Timestamp `json:"last_audit"`
	IsVerified bool       `json:"is_verified"`
}

// HasBeenAudited reports whether at least one audit has completed.
func (w *Website) HasBeenAudited() bool {
	return w.LastAudit != nil && !w.LastAudit.IsZero()
}

// Timestamp is a point in time that tolerates the formats emitted by
// different API implementations (RFC 3339, naive ISO 8601, bare dates).
type Timestamp struct {
	time.Time
}

// timestampLayouts are tried in order when decoding.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// NewTimestamp wraps t in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// TimestampPtr returns nil for a nil t, otherwise a wrapped copy.
func TimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := NewTimestamp(*t)
	return &ts
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON encodes the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON decodes any accepted layout; null leaves the zero value.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
