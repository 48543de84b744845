package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"practicum-portal/portal-backend/internal/compliance"
	"practicum-portal/portal-backend/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.BackendConfig{BaseURL: server.URL + "/", APIKey: "secret", Timeout: time.Second}, zap.NewNop())
}

func TestGetProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/u 1/profile", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"user": {"id": "u 1"},
			"document": [{"documentTypeId": "hep-b", "doseCount": "3"}],
			"documents": [{"documentTypeId": "hep-b", "doseNumber": 1, "state": "approved", "fileReference": "a.pdf"}]
		}`))
	})

	bundle, err := client.GetProfile(context.Background(), "u 1")
	require.NoError(t, err)
	assert.Equal(t, "u 1", bundle.User.ID)
	require.Len(t, bundle.Catalog(), 1)
	assert.Equal(t, compliance.FlexNumber("1"), bundle.Documents[0].DoseNumber)
}

func TestGetProfileNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, compliance.ErrNotFound)
}

func TestGetProfileServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusBadGateway)
	})

	_, err := client.GetProfile(context.Background(), "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "database unavailable")
	assert.NotErrorIs(t, err, compliance.ErrNotFound)
}

func TestGetProfileMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":`))
	})

	_, err := client.GetProfile(context.Background(), "u-1")
	assert.ErrorContains(t, err, "failed to decode")
}

func TestSubmitReview(t *testing.T) {
	reviewedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/documents/review", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var update compliance.ReviewUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		assert.Equal(t, "hep-b", update.DocumentTypeID)
		assert.Equal(t, compliance.StatusRejected, update.State)
		assert.Equal(t, compliance.FlexNumber("2"), update.DoseNumber)
		assert.True(t, reviewedAt.Equal(update.ReviewedAt))
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.SubmitReview(context.Background(), compliance.ReviewUpdate{
		UserID:         "u-1",
		DocumentTypeID: "hep-b",
		DoseNumber:     "2",
		State:          compliance.StatusRejected,
		Comments:       "Ilegible",
		ReviewedAt:     reviewedAt,
	})
	assert.NoError(t, err)
}

func TestListUserIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"u-1"},{"name":"no id"},{"id":"u-2"}]`))
	})

	ids, err := client.ListUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1", "u-2"}, ids)
}

func TestRequestHonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListUserIDs(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
