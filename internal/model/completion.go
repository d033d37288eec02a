package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// IsCompleted is the single completion predicate. Boolean true, numeric 1 and the
// string "yes" (any case) are completed; every other value, nil included, is pending.
func IsCompleted(v any) bool {
	switch c := v.(type) {
	case bool:
		return c
	case Completion:
		return bool(c)
	case float64:
		return c == 1
	case float32:
		return c == 1
	case int:
		return c == 1
	case int32:
		return c == 1
	case int64:
		return c == 1
	case json.Number:
		f, err := c.Float64()
		return err == nil && f == 1
	case string:
		return strings.EqualFold(strings.TrimSpace(c), "yes")
	}
	return false
}

// Completion is the canonical completed flag. It decodes any legacy representation
// through IsCompleted and always encodes as a JSON bool.
type Completion bool

func (c *Completion) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("completed: %w", err)
	}
	*c = Completion(IsCompleted(raw))
	return nil
}

func (c Completion) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(c))
}

const dateLayout = "2006-01-02"

// DueDate is a calendar date on the wire. Both "2006-01-02" and RFC 3339 are accepted,
// the value is truncated to midnight UTC.
type DueDate struct {
	time.Time
}

func NewDueDate(t time.Time) DueDate {
	return DueDate{Time: DateOf(t)}
}

func (d *DueDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = NewDueDate(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("dueDate: expected YYYY-MM-DD or RFC 3339, got %q", s)
	}
	*d = NewDueDate(t)
	return nil
}

func (d DueDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	return DateOf(t.UTC())
}

// DateOf is the calendar date of t in t's own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var westernmost = time.FixedZone("UTC-12", -12*60*60)

// EarliestToday is the date it currently is in UTC-12. No clock on Earth shows
// an earlier day.
func EarliestToday(now time.Time) time.Time {
	return DateOf(now.In(westernmost))
}
