package commands

import (
	"fmt"
	"io"
	"strings"

	"nexus/internal/domain"
	"nexus/internal/services/session"
)

// progressEvery throttles sync progress lines.
const progressEvery = 25

// printer turns successive session views into terminal lines, printing only
// what changed since the previous view.
type printer struct {
	out io.Writer

	started   bool
	state     domain.ConnectionState
	people    int
	round     int
	messages  int
	lastFault error
}

func newPrinter(out io.Writer) *printer { return &printer{out: out} }

func (p *printer) update(v session.View) {
	if !p.started || v.State != p.state {
		p.printState(v)
	}
	if p.started && v.Participants != p.people && v.State != domain.Connecting {
		fmt.Fprintf(p.out, "* %d participant(s) present\n", v.Participants)
	}
	if v.State == domain.Syncing && v.Sync.Round > 0 && v.Sync.Round/progressEvery != p.round/progressEvery {
		fmt.Fprintf(p.out, "* round %d: %.1f%% (agreement %.0f%%%s)\n",
			v.Sync.Round, v.Sync.ProgressPercent, v.Sync.AgreementRate()*100, peerNote(v.Sync))
	}
	for _, m := range v.Messages[min(p.messages, len(v.Messages)):] {
		who := m.Sender.String()
		if m.IsOwn {
			who = "you"
		}
		fmt.Fprintf(p.out, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04:05"), who, m.Content)
	}
	if v.LastFault != nil && v.LastFault != p.lastFault && v.State != domain.Error {
		fmt.Fprintf(p.out, "! %v\n", v.LastFault)
	}

	p.started = true
	p.state = v.State
	p.people = v.Participants
	p.round = v.Sync.Round
	p.messages = len(v.Messages)
	p.lastFault = v.LastFault
}

func (p *printer) printState(v session.View) {
	switch v.State {
	case domain.Connecting:
		fmt.Fprintf(p.out, "* connecting to %s as %s\n", v.Identity.SessionID, v.Identity.UserID)
	case domain.Waiting:
		fmt.Fprintln(p.out, "* waiting for your peer to join")
	case domain.Syncing:
		fmt.Fprintln(p.out, "* peer present, synchronizing")
	case domain.Synced:
		if v.CanSend {
			fmt.Fprintf(p.out, "* key agreed (fingerprint %s, safety code %s). Type to chat, /quit to leave.\n",
				v.KeyFingerprint, groupCode(v.SafetyCode))
		} else {
			fmt.Fprintf(p.out, "* synchronized but no usable key: %v\n", v.LastFault)
		}
	case domain.Error:
		reason := v.FailureReason
		if reason == "" && v.LastFault != nil {
			reason = v.LastFault.Error()
		}
		fmt.Fprintf(p.out, "* session failed: %s\n", reason)
	}
}

func peerNote(s domain.SyncSnapshot) string {
	if s.PeerProgress == nil {
		return ""
	}
	return fmt.Sprintf(", eavesdropper %.0f%%", *s.PeerProgress*100)
}

// groupCode splits a safety code into pairs for reading aloud.
func groupCode(code string) string {
	var b strings.Builder
	for i, r := range code {
		if i > 0 && i%2 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
