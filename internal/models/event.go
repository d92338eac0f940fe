package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// AdminAnonymous owns admin-created events without a resolved identity.
	AdminAnonymous = "anonymous"
	// AdminQRGenerated owns events auto-created by joining an unknown id.
	AdminQRGenerated = "qr-generated"

	// ColorOff is the default live color of admin-created events.
	ColorOff = "#000000"
	// ColorJoined is the default live color of QR-spawned events (instant visible feedback).
	ColorJoined = "#FF0000"

	// DefaultDuration is assumed for expiration math when durationHours is absent. Never persisted.
	DefaultDuration = 2 * time.Hour
	// RetentionPeriod is how long an event is kept after its active window ends.
	RetentionPeriod = 30 * 24 * time.Hour
)

// startLayouts are accepted for startDateTime: RFC 3339 plus the datetime-local forms browsers send.
var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var validate = validator.New()

// Event is the unit of a light show. The JSON shape is the persisted layout.
type Event struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Color         string   `json:"color"` // #RRGGBB or #RGB
	IsActive      bool     `json:"isActive"`
	IsRandom      bool     `json:"isRandom"`
	StartDateTime *string  `json:"startDateTime,omitempty"`
	DurationHours *float64 `json:"durationHours,omitempty"`
	AdminID       string   `json:"adminId,omitempty"`
}

// ValidColor reports whether c is a #RGB or #RRGGBB hex color.
func ValidColor(c string) bool {
	if !strings.HasPrefix(c, "#") || (len(c) != 4 && len(c) != 7) {
		return false
	}
	return validate.Var(c, "required,hexcolor") == nil
}

// ParseStart parses an ISO-8601 or datetime-local timestamp. Zone-less values are local time.
func ParseStart(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range startLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Start returns the scheduled start, if set and parseable.
func (e *Event) Start() (time.Time, bool) {
	if e.StartDateTime == nil {
		return time.Time{}, false
	}
	return ParseStart(*e.StartDateTime)
}

// Duration returns the persisted duration, or DefaultDuration when absent or non-positive.
func (e *Event) Duration() time.Duration {
	if e.DurationHours == nil || *e.DurationHours <= 0 {
		return DefaultDuration
	}
	return time.Duration(*e.DurationHours * float64(time.Hour))
}

// WindowEnd returns the end of the active window [start, start+duration).
func (e *Event) WindowEnd() (time.Time, bool) {
	start, ok := e.Start()
	if !ok {
		return time.Time{}, false
	}
	return start.Add(e.Duration()), true
}

// Ended reports whether the active window is over at now. Events without both
// a start and a positive duration never end for discovery purposes.
func (e *Event) Ended(now time.Time) bool {
	if e.DurationHours == nil || *e.DurationHours <= 0 {
		return false
	}
	end, ok := e.WindowEnd()
	if !ok {
		return false
	}
	return !now.Before(end)
}

// Expired reports whether the retention window (active end + 30 days) has passed.
// Events without a start are exempt.
func (e *Event) Expired(now time.Time) bool {
	end, ok := e.WindowEnd()
	if !ok {
		return false
	}
	return !now.Before(end.Add(RetentionPeriod))
}

// Clone returns a deep copy so callers never share the store's pointers.
func (e Event) Clone() Event {
	if e.StartDateTime != nil {
		s := *e.StartDateTime
		e.StartDateTime = &s
	}
	if e.DurationHours != nil {
		d := *e.DurationHours
		e.DurationHours = &d
	}
	return e
}
