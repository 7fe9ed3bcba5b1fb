package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nexus/internal/crypto"
	"nexus/internal/domain"
	"nexus/internal/protocol/envelope"
)

// maxFaults bounds the fault log.
const maxFaults = 32

// Sender transmits one outbound envelope.
type Sender interface {
	Send(ctx context.Context, env envelope.Envelope) error
}

// Fault is one locally handled failure: a dropped envelope, a message that
// did not decrypt, a lost transport.
type Fault struct {
	Err error
	At  time.Time
}

// Kind names the error class of the fault.
func (f Fault) Kind() string {
	switch {
	case errors.Is(f.Err, domain.ErrProtocol):
		return "protocol"
	case errors.Is(f.Err, domain.ErrCrypto):
		return "crypto"
	case errors.Is(f.Err, domain.ErrTransport):
		return "transport"
	case errors.Is(f.Err, domain.ErrSessionFull):
		return "session_full"
	}
	return "other"
}

// MachineConfig configures a Machine.
type MachineConfig struct {
	Identity domain.Identity
	Suite    crypto.Suite
	Policy   Policy
	Logger   *slog.Logger

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Machine is the session protocol state machine.
type Machine struct {
	identity domain.Identity
	suite    crypto.Suite
	policy   Policy
	log      *slog.Logger
	out      Sender
	now      func() time.Time
	newID    func() string

	state        domain.ConnectionState
	participants int
	sync         domain.SyncSnapshot
	fingerprint  string
	failure      string
	key          *crypto.Key
	messages     []domain.Message
	faults       []Fault
}

// NewMachine returns a machine in the Connecting state that writes replies
// through out.
func NewMachine(cfg MachineConfig, out Sender) *Machine {
	m := &Machine{
		identity:     cfg.Identity,
		suite:        cfg.Suite,
		policy:       cfg.Policy,
		log:          cfg.Logger,
		out:          out,
		now:          cfg.Now,
		newID:        cfg.NewID,
		state:        domain.Connecting,
		participants: 1,
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.suite == "" {
		m.suite = crypto.DefaultSuite
	}
	m.log = m.log.With(
		slog.String("session_id", cfg.Identity.SessionID.String()),
		slog.String("user_id", cfg.Identity.UserID.String()),
	)
	return m
}

// HandleFrame parses and handles one raw frame. Malformed frames are recorded
// as protocol faults and otherwise ignored. The returned error is non-nil
// only when writing a reply failed.
func (m *Machine) HandleFrame(ctx context.Context, data []byte) error {
	env, err := envelope.Parse(data)
	if err != nil {
		m.fault(err)
		m.log.Warn("discarding malformed envelope", slog.Int("bytes", len(data)), slog.String("error", err.Error()))
		return nil
	}
	if env == nil {
		m.log.Debug("ignoring envelope of unknown type", slog.Int("bytes", len(data)))
		return nil
	}
	return m.Handle(ctx, env)
}

// Handle applies one envelope. The returned error is non-nil only when
// writing a reply failed; it wraps domain.ErrTransport.
func (m *Machine) Handle(ctx context.Context, env envelope.Envelope) error {
	switch e := env.(type) {
	case envelope.SessionInfo:
		m.onSessionInfo(e)
	case envelope.UserJoined:
		m.onUserJoined(e)
	case envelope.UserLeft:
		m.participants = max(1, m.participants-1)
		m.log.Info("participant left", slog.String("peer", e.UserID.String()), slog.Int("participants", m.participants))
	case envelope.SyncStart:
		m.onSyncStart()
	case envelope.SyncProgress:
		m.onSyncProgress(e)
	case envelope.SyncComplete:
		m.onSyncComplete(e)
	case envelope.SyncFailed:
		m.onSyncFailed(e)
	case envelope.Message:
		m.onMessage(e)
	case envelope.Ping:
		return m.send(ctx, envelope.Pong{})
	case envelope.Error:
		m.onServerError(e)
	case envelope.AlreadySynced:
		m.log.Info("relay reports session already synced")
	case envelope.Pong, envelope.RequestSync, nil:
	default:
		m.log.Debug("ignoring envelope", slog.String("type", string(env.Kind())))
	}
	return nil
}

func (m *Machine) onSessionInfo(e envelope.SessionInfo) {
	if m.state != domain.Connecting {
		return
	}
	m.participants = max(1, e.ParticipantCount)
	if m.participants < 2 {
		m.transition(domain.Waiting)
	} else {
		m.transition(domain.Syncing)
	}
}

func (m *Machine) onUserJoined(e envelope.UserJoined) {
	if m.state != domain.Connecting && m.state != domain.Waiting {
		return
	}
	m.participants = max(1, e.ParticipantCount)
	m.log.Info("participant joined", slog.String("peer", e.UserID.String()), slog.Int("participants", m.participants))
	if m.participants >= 2 {
		m.transition(domain.Syncing)
	}
}

func (m *Machine) onSyncStart() {
	if m.state == domain.Error {
		return
	}
	m.dropKey()
	m.fingerprint = ""
	m.sync = domain.SyncSnapshot{}
	m.transition(domain.Syncing)
}

func (m *Machine) onSyncProgress(e envelope.SyncProgress) {
	if m.state != domain.Syncing {
		return
	}
	if e.Round < m.sync.Round {
		m.log.Debug("dropping stale sync progress", slog.Int("round", e.Round), slog.Int("current", m.sync.Round))
		return
	}
	m.sync.Round = e.Round
	m.sync.ProgressPercent = min(100, max(0, e.Progress*100))

	m.sync.RecentAgreement = append(m.sync.RecentAgreement, e.Agreed)
	if n := len(m.sync.RecentAgreement); n > domain.AgreementWindow {
		m.sync.RecentAgreement = m.sync.RecentAgreement[n-domain.AgreementWindow:]
	}

	if e.AttackerProgress != nil {
		v := *e.AttackerProgress
		m.sync.PeerProgress = &v
	}
	if e.AttackerSynced != nil {
		v := *e.AttackerSynced
		m.sync.PeerSynchronized = &v
	}
	if e.LearningRule != "" {
		m.sync.LearningRule = e.LearningRule
	}
	if e.BestProgress != nil {
		v := *e.BestProgress
		m.sync.BestProgress = &v
	}
	if e.TauA != nil {
		v := *e.TauA
		m.sync.TauA = &v
	}
	if e.TauB != nil {
		v := *e.TauB
		m.sync.TauB = &v
	}
}

func (m *Machine) onSyncComplete(e envelope.SyncComplete) {
	if m.state != domain.Syncing {
		return
	}
	m.fingerprint = e.KeyFingerprint
	m.sync.ProgressPercent = 100
	m.sync.Round = max(m.sync.Round, e.Rounds)
	m.transition(domain.Synced)

	key, err := crypto.DeriveKey(e.KeyFingerprint, m.identity.SessionID, m.suite)
	if err != nil {
		m.fault(err)
		m.log.Error("key derivation failed; sending disabled", slog.String("error", err.Error()))
		return
	}
	m.dropKey()
	m.key = key
	m.log.Info("session key established", slog.Int("rounds", e.Rounds), slog.String("suite", string(m.suite)))
}

func (m *Machine) onSyncFailed(e envelope.SyncFailed) {
	if m.state != domain.Syncing {
		return
	}
	m.failure = e.Message
	m.log.Warn("synchronization failed", slog.String("reason", e.Message))
	m.transition(domain.Error)
}

func (m *Machine) onMessage(e envelope.Message) {
	plaintext, err := crypto.Decrypt(e.Ciphertext, m.key)
	if err != nil {
		m.fault(fmt.Errorf("message from %q: %w", e.SenderID, err))
		m.log.Warn("dropping message that did not decrypt", slog.String("sender", e.SenderID.String()), slog.String("error", err.Error()))
		return
	}
	ts := m.now()
	if e.Timestamp != nil && !e.Timestamp.IsZero() {
		ts = e.Timestamp.Time
	}
	m.messages = append(m.messages, domain.Message{
		ID:        m.newID(),
		Sender:    e.SenderID,
		Content:   plaintext,
		Timestamp: ts,
	})
}

func (m *Machine) onServerError(e envelope.Error) {
	m.log.Info("relay reported error", slog.String("code", e.Code), slog.String("message", e.Message))
	if m.policy.OnServerError != nil {
		m.policy.OnServerError(e.Code, e.Message)
	}
	if !m.policy.fatal(e.Code) || m.state == domain.Error {
		return
	}
	err := fmt.Errorf("relay error %s: %s", e.Code, e.Message)
	if e.Code == envelope.CodeSessionFull {
		err = fmt.Errorf("%w: %s", domain.ErrSessionFull, e.Message)
	}
	m.fault(err)
	m.failure = e.Message
	m.transition(domain.Error)
}

// TransportLost records a connection failure. The machine enters Error unless
// it is Synced and the policy leaves post-sync loss suppressed.
func (m *Machine) TransportLost(err error) {
	if !errors.Is(err, domain.ErrTransport) {
		err = fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	m.fault(err)
	prev := m.state
	if m.policy.OnTransportLost != nil {
		m.policy.OnTransportLost(err, prev)
	}
	if prev == domain.Error {
		return
	}
	if prev == domain.Synced && !m.policy.ErrorOnLossAfterSync {
		m.log.Info("transport lost after sync", slog.String("error", err.Error()))
		return
	}
	m.log.Warn("transport lost", slog.String("error", err.Error()), slog.String("state", prev.String()))
	if m.failure == "" {
		m.failure = "connection lost"
	}
	m.transition(domain.Error)
}

// SendMessage encrypts content, transmits it, and appends it to the local
// history. It fails with domain.ErrNotReady (and domain.ErrCrypto) unless the
// session is Synced with a usable key, and with domain.ErrTransport if the
// write fails; in both cases nothing is transmitted or appended.
func (m *Machine) SendMessage(ctx context.Context, content string) (domain.Message, error) {
	if m.state != domain.Synced {
		return domain.Message{}, fmt.Errorf("%w: %w: session is %s", domain.ErrNotReady, domain.ErrCrypto, m.state)
	}
	if !m.key.Usable() {
		return domain.Message{}, fmt.Errorf("%w: %w: no session key", domain.ErrNotReady, domain.ErrCrypto)
	}
	ciphertext, err := crypto.Encrypt(content, m.key)
	if err != nil {
		m.fault(err)
		return domain.Message{}, err
	}
	if err := m.send(ctx, envelope.Message{Ciphertext: ciphertext}); err != nil {
		return domain.Message{}, err
	}
	msg := domain.Message{
		ID:        m.newID(),
		Sender:    m.identity.UserID,
		Content:   content,
		Timestamp: m.now(),
		IsOwn:     true,
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

// RequestSync asks the relay to start synchronization. It is only meaningful
// while waiting or syncing.
func (m *Machine) RequestSync(ctx context.Context) error {
	if m.state != domain.Waiting && m.state != domain.Syncing {
		return fmt.Errorf("%w: cannot request sync while %s", domain.ErrNotReady, m.state)
	}
	return m.send(ctx, envelope.RequestSync{})
}

// Close destroys the key. The machine keeps its history for inspection.
func (m *Machine) Close() { m.dropKey() }

func (m *Machine) send(ctx context.Context, env envelope.Envelope) error {
	if err := m.out.Send(ctx, env); err != nil {
		return fmt.Errorf("%w: send %s: %w", domain.ErrTransport, env.Kind(), err)
	}
	return nil
}

func (m *Machine) transition(next domain.ConnectionState) {
	if m.state == next {
		return
	}
	m.log.Debug("state change", slog.String("from", m.state.String()), slog.String("to", next.String()))
	m.state = next
	if next == domain.Error {
		m.dropKey()
	}
}

func (m *Machine) dropKey() {
	if m.key != nil {
		m.key.Destroy()
		m.key = nil
	}
}

func (m *Machine) fault(err error) {
	m.faults = append(m.faults, Fault{Err: err, At: m.now()})
	if n := len(m.faults); n > maxFaults {
		m.faults = m.faults[n-maxFaults:]
	}
}

func (m *Machine) State() domain.ConnectionState { return m.state }

// Participants is the last known count, never below 1.
func (m *Machine) Participants() int { return m.participants }

func (m *Machine) Snapshot() domain.SyncSnapshot { return m.sync.Clone() }

// Messages is a copy of the history in arrival order.
func (m *Machine) Messages() []domain.Message { return append([]domain.Message(nil), m.messages...) }

func (m *Machine) Fingerprint() string { return m.fingerprint }

func (m *Machine) HasKey() bool { return m.key.Usable() }

func (m *Machine) SafetyCode() string { return m.key.SafetyCode() }

func (m *Machine) FailureReason() string { return m.failure }

// Faults returns a copy of the recent fault log, oldest first.
func (m *Machine) Faults() []Fault { return append([]Fault(nil), m.faults...) }
