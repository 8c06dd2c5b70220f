package functions

import (
	"context"
	"strings"

	"frieddie/internal/backend"
	"frieddie/internal/fault"
)

type FrieddieLister interface {
	ListFrieddies(ctx context.Context) ([]backend.Frieddie, error)
}

type FrieddieInviter interface {
	InviteFrieddie(ctx context.Context, frieddieID, resourceID string) (string, error)
}

// GetFrieddies lists the user's contacts.
type GetFrieddies struct {
	Backend FrieddieLister
}

func (g *GetFrieddies) Name() string { return "get_frieddies" }
func (g *GetFrieddies) Description() string {
	return "Get the current frieddies and their information"
}
func (g *GetFrieddies) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (g *GetFrieddies) Execute(ctx context.Context, _ map[string]any) (any, error) {
	list, err := g.Backend.ListFrieddies(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []backend.Frieddie{}
	}
	return list, nil
}

// InviteFrieddie invites a contact to an event or other resource.
// DefaultResourceID is used only when the model leaves resourceID out.
type InviteFrieddie struct {
	Backend           FrieddieInviter
	DefaultResourceID string
}

func (i *InviteFrieddie) Name() string { return "invite_frieddie" }
func (i *InviteFrieddie) Description() string {
	return "Invite a frieddie to attend an event"
}
func (i *InviteFrieddie) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"frieddieID": map[string]any{
				"type":        "string",
				"description": "ID of the frieddie that will attend the event.",
			},
			"resourceID": map[string]any{
				"type":        "string",
				"description": "The ID for the event resource.",
			},
		},
		"required": []string{"frieddieID"},
	}
}

func (i *InviteFrieddie) Execute(ctx context.Context, args map[string]any) (any, error) {
	frieddieID, _ := args["frieddieID"].(string)
	resourceID, _ := args["resourceID"].(string)
	if strings.TrimSpace(resourceID) == "" {
		resourceID = i.DefaultResourceID
	}
	if strings.TrimSpace(frieddieID) == "" || strings.TrimSpace(resourceID) == "" {
		return nil, fault.BadFunctionArgs("invite_frieddie needs frieddieID and resourceID", nil)
	}
	return i.Backend.InviteFrieddie(ctx, frieddieID, resourceID)
}
