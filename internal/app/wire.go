package app

import (
	"log/slog"
	"net/http"

	"nexus/internal/domain"
	"nexus/internal/relay"
	"nexus/internal/services/session"
	"nexus/internal/store"
)

// Wire bundles the stores, clients and session options for the CLI.
type Wire struct {
	Config    Config
	Log       *slog.Logger
	HTTP      *http.Client
	Directory domain.DirectoryClient
	Dialer    domain.Dialer
	Profiles  domain.ProfileStore
	Session   session.Options
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log *slog.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	suite, err := cfg.Suite()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	return &Wire{
		Config:    cfg,
		Log:       log,
		HTTP:      httpClient,
		Directory: relay.NewHTTP(cfg.RelayURL, httpClient),
		// The websocket outlives any request timeout, so the dialer gets a
		// client without one.
		Dialer:   &relay.WebsocketDialer{Base: cfg.RelayURL},
		Profiles: store.NewProfileFileStore(cfg.Home),
		Session: session.Options{
			Suite:  suite,
			Logger: log,
			Policy: session.Policy{
				FatalErrorCodes:      cfg.FatalErrorCodes,
				ErrorOnLossAfterSync: cfg.ErrorOnPeerLoss,
			},
		},
	}, nil
}
