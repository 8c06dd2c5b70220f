// Package events looks up upcoming events for the get_events function.
package events

import (
	"context"
	"strings"
)

type Event struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
	StartsAt string `json:"startsAt,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Source finds events in a location ("Malmö, Sweden") for a category
// ("hike"). An empty result is not an error.
type Source interface {
	Find(ctx context.Context, location, category string) ([]Event, error)
}

// matches filters loosely: the city part of location and the category must
// appear in the event's fields, ignoring case.
func matches(e Event, location, category string) bool {
	if city := cityOf(location); city != "" && !strings.Contains(strings.ToLower(e.Location), city) {
		return false
	}
	if c := strings.ToLower(strings.TrimSpace(category)); c != "" {
		hay := strings.ToLower(e.Category + " " + e.Title)
		if !strings.Contains(hay, c) {
			return false
		}
	}
	return true
}

func cityOf(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.ToLower(strings.TrimSpace(city))
}
