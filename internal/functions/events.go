package functions

import (
	"context"

	"frieddie/internal/events"
)

const noEventsResult = "No events found."

// GetEvents looks up events by location and category.
type GetEvents struct {
	Source events.Source
}

func (g *GetEvents) Name() string { return "get_events" }
func (g *GetEvents) Description() string {
	return "Get the current events in a given location and event category"
}
func (g *GetEvents) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "The city and country, e.g. Malmö, Sweden",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "The event category, e.g. concert, wine tasting and hike",
			},
		},
		"required": []string{"location", "category"},
	}
}

func (g *GetEvents) Execute(ctx context.Context, args map[string]any) (any, error) {
	location, _ := args["location"].(string)
	category, _ := args["category"].(string)

	found, err := g.Source.Find(ctx, location, category)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return noEventsResult, nil
	}
	return found, nil
}
