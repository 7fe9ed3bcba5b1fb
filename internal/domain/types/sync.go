package types

// AgreementWindow is the number of most recent per-round agreement bits kept
// in a SyncSnapshot.
const AgreementWindow = 100

// SyncSnapshot is the latest known synchronization telemetry. Fields are
// overwritten on each progress report except RecentAgreement, which is a
// sliding window of at most AgreementWindow entries.
//
// Pointer fields are optional on the wire; nil means the relay did not send
// them, which is distinct from a reported zero.
type SyncSnapshot struct {
	Round            int      `json:"round"`
	ProgressPercent  float64  `json:"progress_percent"`
	RecentAgreement  []bool   `json:"recent_agreement"`
	PeerProgress     *float64 `json:"peer_progress,omitempty"`
	PeerSynchronized *bool    `json:"peer_synchronized,omitempty"`

	LearningRule string   `json:"learning_rule,omitempty"`
	BestProgress *float64 `json:"best_progress,omitempty"`
	TauA         *int     `json:"tau_a,omitempty"`
	TauB         *int     `json:"tau_b,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s SyncSnapshot) Clone() SyncSnapshot {
	out := s
	if s.RecentAgreement != nil {
		out.RecentAgreement = append([]bool(nil), s.RecentAgreement...)
	}
	out.PeerProgress = clonePtr(s.PeerProgress)
	out.PeerSynchronized = clonePtr(s.PeerSynchronized)
	out.BestProgress = clonePtr(s.BestProgress)
	out.TauA = clonePtr(s.TauA)
	out.TauB = clonePtr(s.TauB)
	return out
}

// AgreementRate returns the fraction of rounds in the window where both
// machines agreed, or 0 for an empty window.
func (s SyncSnapshot) AgreementRate() float64 {
	if len(s.RecentAgreement) == 0 {
		return 0
	}
	n := 0
	for _, ok := range s.RecentAgreement {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(s.RecentAgreement))
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
