package session

import "nexus/internal/domain"

// View is a read-only snapshot of a session, safe to keep and inspect after
// the session moves on.
type View struct {
	Identity       domain.Identity
	State          domain.ConnectionState
	Participants   int
	Sync           domain.SyncSnapshot
	Messages       []domain.Message
	KeyFingerprint string
	// SafetyCode is a short digest of the session key for out-of-band
	// comparison. Empty while no key is held.
	SafetyCode    string
	CanSend       bool
	FailureReason string
	LastFault     error
	Left          bool
}

func (v View) clone() View {
	out := v
	out.Sync = v.Sync.Clone()
	out.Messages = append([]domain.Message(nil), v.Messages...)
	return out
}

func viewOf(id domain.Identity, m *Machine) View {
	v := View{
		Identity:       id,
		State:          m.State(),
		Participants:   m.Participants(),
		Sync:           m.Snapshot(),
		Messages:       m.Messages(),
		KeyFingerprint: m.Fingerprint(),
		SafetyCode:     m.SafetyCode(),
		CanSend:        m.State() == domain.Synced && m.HasKey(),
		FailureReason:  m.FailureReason(),
	}
	if faults := m.Faults(); len(faults) > 0 {
		v.LastFault = faults[len(faults)-1].Err
	}
	return v
}
