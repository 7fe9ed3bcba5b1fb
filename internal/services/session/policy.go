package session

import (
	"slices"

	"nexus/internal/domain"
)

// Policy controls how relay-signalled errors and transport loss surface.
// The zero value keeps both suppressed: server error envelopes are only
// logged, and losing the connection after the key is established does not
// move the session to Error.
type Policy struct {
	// FatalErrorCodes lists relay error codes that end the session.
	FatalErrorCodes []string
	// OnServerError, if set, is called for every relay error envelope.
	OnServerError func(code, message string)
	// ErrorOnLossAfterSync moves a Synced session to Error when the
	// transport drops.
	ErrorOnLossAfterSync bool
	// OnTransportLost, if set, is called when the transport fails, with the
	// state the machine was in at that moment.
	OnTransportLost func(err error, state domain.ConnectionState)
}

func (p Policy) fatal(code string) bool {
	return code != "" && slices.Contains(p.FatalErrorCodes, code)
}
