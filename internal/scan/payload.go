// Package scan turns a scanned QR payload into an event to join.
package scan

import (
	"errors"
	"strings"
)

// ErrEmptyPayload is returned for a code that carries no event id.
var ErrEmptyPayload = errors.New("empty qr payload")

const marker = "eventId="

// ExtractEventID returns the eventId parameter of payload when present,
// otherwise the whole trimmed payload. Any QR text is accepted.
func ExtractEventID(payload string) (string, error) {
	id := strings.TrimSpace(payload)
	if i := strings.Index(id, marker); i >= 0 {
		id = id[i+len(marker):]
		if j := strings.IndexByte(id, '&'); j >= 0 {
			id = id[:j]
		}
	}
	if id == "" {
		return "", ErrEmptyPayload
	}
	return id, nil
}

// DisplayName is the name given to an event spawned from a scanned id.
func DisplayName(id string) string {
	switch {
	case strings.HasPrefix(id, "http"):
		return "Evento Web"
	case len(id) > 20:
		return "Evento " + id[:6] + "..."
	default:
		return "Evento " + id
	}
}
