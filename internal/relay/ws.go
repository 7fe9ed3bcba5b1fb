package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"nexus/internal/domain"
)

const defaultReadLimit = 1 << 20

// WebsocketDialer opens the relay's per-user websocket,
// {base}/ws/{session}/{user}?tpm_k=&tpm_n=&tpm_l=.
type WebsocketDialer struct {
	Base string
	// TPM is sent as query parameters so a relay that has not seen the
	// session yet creates it with the same size. Zero means the default.
	TPM       domain.TPMConfig
	HTTP      *http.Client
	ReadLimit int64
}

func (d *WebsocketDialer) URL(id domain.Identity) (string, error) {
	u, err := url.Parse(strings.TrimRight(d.Base, "/"))
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("relay url: unsupported scheme %q", u.Scheme)
	}
	u = u.JoinPath("ws", id.SessionID.String(), id.UserID.String())

	tpm := d.TPM
	if tpm.IsZero() {
		tpm = domain.DefaultTPMConfig()
	}
	q := url.Values{}
	q.Set("tpm_k", strconv.Itoa(tpm.K))
	q.Set("tpm_n", strconv.Itoa(tpm.N))
	q.Set("tpm_l", strconv.Itoa(tpm.L))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *WebsocketDialer) Dial(ctx context.Context, id domain.Identity) (domain.Conn, error) {
	u, err := d.URL(id)
	if err != nil {
		return nil, err
	}
	c, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPClient: d.HTTP})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	limit := d.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	c.SetReadLimit(limit)
	return &wsConn{c: c}, nil
}

// wsConn carries one JSON envelope per text frame.
type wsConn struct {
	c *websocket.Conn
}

// Read returns the next text frame. Binary frames are skipped.
func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := w.c.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ == websocket.MessageText {
			return data, nil
		}
	}
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, websocket.MessageText, data)
}

// Close performs a normal closure. A connection the peer already closed is
// not an error.
func (w *wsConn) Close() error {
	err := w.c.Close(websocket.StatusNormalClosure, "leaving")
	if err == nil || errors.Is(err, net.ErrClosed) || websocket.CloseStatus(err) != -1 {
		return nil
	}
	return err
}

var (
	_ domain.Dialer = (*WebsocketDialer)(nil)
	_ domain.Conn   = (*wsConn)(nil)
)
