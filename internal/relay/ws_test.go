package relay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/internal/domain"
	"nexus/internal/relay"
)

func TestWebsocketDialer_URL(t *testing.T) {
	id := domain.Identity{SessionID: "ab12cd34", UserID: "alice smith"}
	cases := []struct {
		base string
		tpm  domain.TPMConfig
		want string
	}{
		{"http://127.0.0.1:8000", domain.TPMConfig{}, "ws://127.0.0.1:8000/ws/ab12cd34/alice%20smith?tpm_k=3&tpm_l=3&tpm_n=4"},
		{"https://relay.example/", domain.TPMConfig{K: 4, N: 8, L: 2}, "wss://relay.example/ws/ab12cd34/alice%20smith?tpm_k=4&tpm_l=2&tpm_n=8"},
		{"wss://relay.example/api", domain.TPMConfig{}, "wss://relay.example/api/ws/ab12cd34/alice%20smith?tpm_k=3&tpm_l=3&tpm_n=4"},
	}
	for _, tc := range cases {
		d := &relay.WebsocketDialer{Base: tc.base, TPM: tc.tpm}
		got, err := d.URL(id)
		require.NoError(t, err, tc.base)
		assert.Equal(t, tc.want, got)
	}

	_, err := (&relay.WebsocketDialer{Base: "ftp://relay"}).URL(id)
	assert.Error(t, err)
}

func TestWebsocketDialer_RoundTrip(t *testing.T) {
	gotPath := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath <- r.URL.Path + "?" + r.URL.RawQuery
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		ctx := r.Context()
		// A binary frame the client must skip.
		_ = c.Write(ctx, websocket.MessageBinary, []byte{0x00})
		for {
			typ, data, err := c.Read(ctx)
			if err != nil {
				return
			}
			if err := c.Write(ctx, typ, data); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	d := &relay.WebsocketDialer{Base: srv.URL}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := d.Dial(ctx, domain.Identity{SessionID: "s1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "/ws/s1/u1?tpm_k=3&tpm_l=3&tpm_n=4", <-gotPath)

	require.NoError(t, conn.Write(ctx, []byte(`{"type":"ping"}`)))
	got, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(got))

	assert.NoError(t, conn.Close())
}

func TestWebsocketDialer_Refused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := (&relay.WebsocketDialer{Base: srv.URL}).Dial(context.Background(), domain.Identity{SessionID: "s", UserID: "u"})
	assert.Error(t, err)
}
