package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Settings is an opaque structured document stored as JSONB. Nested values are
// addressed with dot-separated paths ("notifications.email.enabled").
type Settings map[string]any

func (s Settings) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func (s *Settings) Scan(value any) error {
	if value == nil {
		*s = Settings{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("settings: cannot scan %T", value)
	}
}

// Get walks the path and returns the value, or def when any segment is absent.
func (s Settings) Get(path string, def any) any {
	cur := any(s)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if ms, ok2 := cur.(Settings); ok2 {
				m = map[string]any(ms)
			} else {
				return def
			}
		}
		v, ok := m[seg]
		if !ok {
			return def
		}
		cur = v
	}
	return cur
}

// Set writes value at path, creating intermediate maps as needed. Existing
// non-map values along the path are overwritten.
func (s *Settings) Set(path string, value any) {
	if *s == nil {
		*s = Settings{}
	}
	segs := strings.Split(path, ".")
	m := map[string]any(*s)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = value
}
