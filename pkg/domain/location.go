package domain

import "strings"

// Location is an explicit city/state value with defined absence semantics:
// the zero value means "no location on record" and matches nothing.
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// IsZero reports whether no location is recorded.
func (l Location) IsZero() bool { return l.City == "" && l.State == "" }

// Matches reports whether the query matches this location by case-insensitive
// substring on city or state. An empty query matches any recorded location.
func (l Location) Matches(query string) bool {
	if l.IsZero() {
		return false
	}
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.City), query) ||
		strings.Contains(strings.ToLower(l.State), query)
}

func (l Location) String() string {
	switch {
	case l.IsZero():
		return ""
	case l.City == "":
		return l.State
	case l.State == "":
		return l.City
	default:
		return l.City + ", " + l.State
	}
}
