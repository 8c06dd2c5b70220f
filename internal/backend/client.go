// Package backend talks to the Frieddie social-graph GraphQL API.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"frieddie/internal/fault"

	"github.com/machinebox/graphql"
)

const (
	listFrieddiesQuery = `query ListFrieddies($id: ID!) {
  listfrieddies(id: $id) {
    userId
    firstName
    lastName
  }
}`

	inviteFrieddieMutation = `mutation InviteFrieddie($frieddieID: String!, $resourceID: String!) {
  inviteFrieddie(frieddieID: $frieddieID, resourceID: $resourceID)
}`
)

type Frieddie struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Config struct {
	URL    string
	APIKey string
	// OwnerID is whose frieddies are listed.
	OwnerID string
	Timeout time.Duration
}

type Client struct {
	gql     *graphql.Client
	apiKey  string
	ownerID string
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if cfg.OwnerID == "" {
		cfg.OwnerID = "0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		gql:     graphql.NewClient(cfg.URL, graphql.WithHTTPClient(hc)),
		apiKey:  cfg.APIKey,
		ownerID: cfg.OwnerID,
	}, nil
}

func (c *Client) newRequest(q string) *graphql.Request {
	req := graphql.NewRequest(q)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	return req
}

func (c *Client) ListFrieddies(ctx context.Context) ([]Frieddie, error) {
	req := c.newRequest(listFrieddiesQuery)
	req.Var("id", c.ownerID)

	var resp struct {
		Listfrieddies []Frieddie `json:"listfrieddies"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return nil, fault.FromContext(ctx, fault.KindBackendCallFailed, "list frieddies", err)
	}
	return resp.Listfrieddies, nil
}

// InviteFrieddie invites frieddieID to resourceID and returns the backend's
// confirmation text.
func (c *Client) InviteFrieddie(ctx context.Context, frieddieID, resourceID string) (string, error) {
	req := c.newRequest(inviteFrieddieMutation)
	req.Var("frieddieID", frieddieID)
	req.Var("resourceID", resourceID)

	var resp struct {
		InviteFrieddie string `json:"inviteFrieddie"`
	}
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return "", fault.FromContext(ctx, fault.KindBackendCallFailed, "invite frieddie", err)
	}
	if resp.InviteFrieddie == "" {
		return fmt.Sprintf("Invitation sent to %s.", frieddieID), nil
	}
	return resp.InviteFrieddie, nil
}
