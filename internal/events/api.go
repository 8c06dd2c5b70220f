package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"frieddie/internal/fault"
)

// APISource queries a JSON endpoint:
// GET {endpoint}?location=..&category=.. -> {"events":[...]}
type APISource struct {
	endpoint string
	client   *http.Client
}

func NewAPISource(endpoint string, client *http.Client) *APISource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &APISource{endpoint: endpoint, client: client}
}

type apiResponse struct {
	Events []Event `json:"events"`
}

func (s *APISource) Find(ctx context.Context, location, category string) ([]Event, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fault.BackendCallFailed("events endpoint", err)
	}
	q := u.Query()
	q.Set("location", location)
	q.Set("category", category)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fault.BackendCallFailed("events request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fault.BackendCallFailed("events request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fault.BackendCallFailed("events response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fault.BackendCallFailed(fmt.Sprintf("events source returned HTTP %d", resp.StatusCode), fmt.Errorf("%s", body))
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fault.BackendCallFailed("decode events", err)
	}
	return out.Events, nil
}
