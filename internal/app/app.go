package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"nexus/internal/domain"
	"nexus/internal/services/session"
)

// App is the command-facing surface over the wired dependencies.
type App struct {
	w *Wire
}

// New returns an App over w.
func New(w *Wire) *App { return &App{w: w} }

// Wire exposes the underlying dependencies.
func (a *App) Wire() *Wire { return a.w }

// CreateSession asks the relay for a new session.
func (a *App) CreateSession(ctx context.Context, tpm domain.TPMConfig) (domain.SessionInfo, error) {
	info, err := a.w.Directory.CreateSession(ctx, tpm)
	if err != nil {
		return domain.SessionInfo{}, fmt.Errorf("create session: %w", err)
	}
	a.w.Log.Debug("session created", slog.String("session_id", info.SessionID.String()))
	return info, nil
}

// SessionStatus reports a live session.
func (a *App) SessionStatus(ctx context.Context, id domain.SessionID) (domain.SessionStatus, error) {
	return a.w.Directory.GetSession(ctx, id)
}

// Health reports the relay's liveness.
func (a *App) Health(ctx context.Context) (domain.Health, error) {
	return a.w.Directory.Health(ctx)
}

// ResolveUser returns explicit if set, otherwise the user id remembered for
// this relay, otherwise a fresh one which is then remembered.
func (a *App) ResolveUser(explicit string) (domain.UserID, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return domain.UserID(explicit), nil
	}
	p, ok, err := a.w.Profiles.LoadProfile(a.w.Config.RelayURL)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if ok && p.UserID != "" {
		return p.UserID, nil
	}
	p = domain.Profile{RelayURL: a.w.Config.RelayURL, UserID: newUserID()}
	if err := a.w.Profiles.SaveProfile(p); err != nil {
		return "", fmt.Errorf("save profile: %w", err)
	}
	return p.UserID, nil
}

// LastSession returns the session most recently joined on this relay.
func (a *App) LastSession() (domain.SessionID, bool) {
	p, ok, err := a.w.Profiles.LoadProfile(a.w.Config.RelayURL)
	if err != nil || !ok || p.LastSession == "" {
		return "", false
	}
	return p.LastSession, true
}

// Join connects to a session and remembers it for next time. ctx bounds the
// dial, further limited by the configured dial timeout.
func (a *App) Join(ctx context.Context, id domain.Identity) (*session.Session, error) {
	if a.w.Config.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.w.Config.DialTimeout)
		defer cancel()
	}
	s, err := session.Connect(ctx, a.w.Dialer, id, a.w.Session)
	if err != nil {
		return nil, err
	}
	p := domain.Profile{RelayURL: a.w.Config.RelayURL, UserID: id.UserID, LastSession: id.SessionID}
	if err := a.w.Profiles.SaveProfile(p); err != nil {
		a.w.Log.Warn("could not remember session", slog.String("error", err.Error()))
	}
	return s, nil
}

func newUserID() domain.UserID {
	return domain.UserID("user-" + uuid.NewString()[:8])
}
