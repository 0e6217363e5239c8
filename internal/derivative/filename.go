package derivative

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Clock hands out strictly increasing UTC instants. Two calls on the same
// Clock never return the same value, even when the wall clock stalls or steps
// backwards. It is safe for concurrent use.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewClock returns a Clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Next returns the next instant.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

// Timestamp formats t with nanosecond resolution and no separators that are
// unsafe in file names, e.g. 20240102T030405000000007Z.
func Timestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%09dZ", t.Format("20060102T150405"), t.Nanosecond())
}

// Filename builds {baseName}-{role}-{ownerId}-{timestamp}.{ext}.
func Filename(original, role string, ownerID int64, ts time.Time, ext string) string {
	return fmt.Sprintf("%s-%s-%d-%s.%s", BaseName(original), role, ownerID, Timestamp(ts), ext)
}

// BaseName strips directories and the extension from an uploaded file name and
// replaces anything outside [A-Za-z0-9._-] with an underscore.
func BaseName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	base = strings.Trim(base, ".")
	if base == "" {
		return "image"
	}
	return base
}
