package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/internal/domain"
	"nexus/internal/relay"
)

func TestHTTP_CreateSession(t *testing.T) {
	var body map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"session_id":"ab12cd34","created_at":"2024-05-01T12:00:00.5","participant_count":0,"is_synced":false,"tpm_config":{"K":4,"N":5,"L":6}}`))
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL+"/", nil)
	info, err := c.CreateSession(context.Background(), domain.TPMConfig{K: 4, N: 5, L: 6})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"tpm_k": 4, "tpm_n": 5, "tpm_l": 6}, body)
	assert.Equal(t, domain.SessionID("ab12cd34"), info.SessionID)
	assert.Equal(t, domain.TPMConfig{K: 4, N: 5, L: 6}, info.TPMConfig)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 5e8, time.UTC), info.CreatedAt.Time)
}

func TestHTTP_CreateSessionDefaultsAndValidation(t *testing.T) {
	var body map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"session_id":"x"}`))
	}))
	defer srv.Close()
	c := relay.NewHTTP(srv.URL, srv.Client())

	_, err := c.CreateSession(context.Background(), domain.TPMConfig{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"tpm_k": 3, "tpm_n": 4, "tpm_l": 3}, body)

	body = nil
	_, err = c.CreateSession(context.Background(), domain.TPMConfig{K: 33, N: 4, L: 3})
	require.Error(t, err)
	assert.Nil(t, body, "invalid config must not reach the relay")
}

func TestHTTP_CreateSessionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	_, err := relay.NewHTTP(srv.URL, nil).CreateSession(context.Background(), domain.DefaultTPMConfig())
	assert.Error(t, err)
}

func TestHTTP_GetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sessions/ab12cd34":
			_, _ = w.Write([]byte(`{"session_id":"ab12cd34","participants":["alice","bob"],"sync_state":{"round":17,"is_synced":true},"created_at":"2024-05-01T12:00:00"}`))
		default:
			http.Error(w, `{"detail":"Session not found"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := relay.NewHTTP(srv.URL, nil)

	st, err := c.GetSession(context.Background(), "ab12cd34")
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"alice", "bob"}, st.Participants)
	assert.Equal(t, domain.SyncState{Round: 17, IsSynced: true}, st.SyncState)

	_, err = c.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, relay.ErrNotFound))
}

func TestHTTP_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy","active_sessions":3,"timestamp":"2024-05-01T12:00:00Z"}`))
	}))
	defer srv.Close()

	h, err := relay.NewHTTP(srv.URL, nil).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 3, h.ActiveSessions)
}

func TestHTTP_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := relay.NewHTTP(srv.URL, nil).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.False(t, errors.Is(err, relay.ErrNotFound))
}

func TestHTTP_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := relay.NewHTTP(srv.URL, nil).Health(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
