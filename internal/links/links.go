// Package links builds and consumes the shareable event URL.
package links

import (
	"net/url"
	"strings"
)

// Param is the query parameter that carries the event id.
const Param = "eventId"

// EventURL returns base with eventId=id set, keeping any other query values.
func EventURL(base, id string) string {
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "?") + "?" + Param + "=" + url.QueryEscape(id)
	}
	q := u.Query()
	q.Set(Param, id)
	u.RawQuery = q.Encode()
	return u.String()
}

// TakePendingEvent extracts the event id from raw and returns raw with the
// parameter removed, so reloading the cleaned URL does not join again.
// ok is false when raw carries no non-empty eventId.
func TakePendingEvent(raw string) (id, cleaned string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw, false
	}
	q := u.Query()
	id = strings.TrimSpace(q.Get(Param))
	if id == "" {
		return "", raw, false
	}
	q.Del(Param)
	u.RawQuery = q.Encode()
	return id, u.String(), true
}
