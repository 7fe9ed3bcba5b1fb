package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"nexus/internal/domain"
)

// ErrNotFound is returned when the relay does not know the session.
var ErrNotFound = errors.New("relay: not found")

type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for base. A nil client means http.DefaultClient.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: client}
}

type createSessionRequest struct {
	K int `json:"tpm_k"`
	N int `json:"tpm_n"`
	L int `json:"tpm_l"`
}

// CreateSession asks the relay for a fresh session sized by cfg. A zero cfg
// uses the default machine size.
func (c *HTTP) CreateSession(ctx context.Context, cfg domain.TPMConfig) (domain.SessionInfo, error) {
	if cfg.IsZero() {
		cfg = domain.DefaultTPMConfig()
	}
	if err := cfg.Validate(); err != nil {
		return domain.SessionInfo{}, err
	}
	var out domain.SessionInfo
	if err := c.post(ctx, "/sessions", createSessionRequest{K: cfg.K, N: cfg.N, L: cfg.L}, &out); err != nil {
		return domain.SessionInfo{}, err
	}
	if out.SessionID == "" {
		return domain.SessionInfo{}, errors.New("relay post /sessions: response has no session_id")
	}
	return out, nil
}

func (c *HTTP) GetSession(ctx context.Context, id domain.SessionID) (domain.SessionStatus, error) {
	var out domain.SessionStatus
	if err := c.getJSON(ctx, "/sessions/"+url.PathEscape(id.String()), &out); err != nil {
		return domain.SessionStatus{}, err
	}
	return out, nil
}

func (c *HTTP) Health(ctx context.Context) (domain.Health, error) {
	var out domain.Health
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return domain.Health{}, err
	}
	return out, nil
}

func (c *HTTP) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "post", path, out)
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, "get", path, out)
}

func (c *HTTP) do(req *http.Request, verb, path string, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("relay %s %s: %w", verb, path, ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay %s %s: %s", verb, path, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("relay %s %s: decode: %w", verb, path, err)
		}
	}
	return nil
}

var _ domain.DirectoryClient = (*HTTP)(nil)
