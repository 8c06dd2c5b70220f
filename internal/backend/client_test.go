package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"frieddie/internal/fault"

	"github.com/stretchr/testify/require"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newServer(t *testing.T, handle func(req gqlRequest) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":[{"message":"Forbidden"}]}`))
			return
		}
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(handle(req)))
	}))
}

func TestListFrieddies(t *testing.T) {
	srv := newServer(t, func(req gqlRequest) string {
		require.Contains(t, req.Query, "listfrieddies")
		require.Equal(t, "0", req.Variables["id"])
		return `{"data":{"listfrieddies":[{"userId":"u1","firstName":"Ada","lastName":"Lovelace"},{"userId":"u2","firstName":"Alan","lastName":"Turing"}]}}`
	})
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	got, err := c.ListFrieddies(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Frieddie{
		{UserID: "u1", FirstName: "Ada", LastName: "Lovelace"},
		{UserID: "u2", FirstName: "Alan", LastName: "Turing"},
	}, got)
}

func TestInviteFrieddieUsesVariables(t *testing.T) {
	srv := newServer(t, func(req gqlRequest) string {
		require.Contains(t, req.Query, "inviteFrieddie")
		require.Equal(t, `u1" } evil { "`, req.Variables["frieddieID"])
		require.Equal(t, "res-9", req.Variables["resourceID"])
		return `{"data":{"inviteFrieddie":"Invitation sent"}}`
	})
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	got, err := c.InviteFrieddie(context.Background(), `u1" } evil { "`, "res-9")
	require.NoError(t, err)
	require.Equal(t, "Invitation sent", got)
}

func TestBackendErrorsAreClassified(t *testing.T) {
	srv := newServer(t, func(gqlRequest) string {
		return `{"errors":[{"message":"resource not found"}]}`
	})
	defer srv.Close()

	c, err := New(Config{URL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	_, err = c.InviteFrieddie(context.Background(), "u1", "missing")
	require.True(t, fault.Is(err, fault.KindBackendCallFailed), "got %v", err)
	require.Contains(t, err.Error(), "resource not found")

	unauth, err := New(Config{URL: srv.URL, APIKey: "wrong"})
	require.NoError(t, err)
	_, err = unauth.ListFrieddies(context.Background())
	require.True(t, fault.Is(err, fault.KindBackendCallFailed), "got %v", err)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
