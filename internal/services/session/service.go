package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nexus/internal/crypto"
	"nexus/internal/domain"
	"nexus/internal/protocol/envelope"
)

const (
	// inboundChanSize is the buffer between the reader goroutine and the
	// event loop.
	inboundChanSize = 64
	// defaultWriteTimeout bounds a single frame write.
	defaultWriteTimeout = 10 * time.Second
)

// Options configures Connect.
type Options struct {
	Suite        crypto.Suite
	Policy       Policy
	Logger       *slog.Logger
	WriteTimeout time.Duration
}

type inbound struct {
	data []byte
	err  error
}

type op struct {
	fn     func(ctx context.Context, m *Machine) error
	result chan error
}

// Session is an open connection to one relay session. All methods are safe
// for concurrent use.
type Session struct {
	id     domain.Identity
	conn   domain.Conn
	log    *slog.Logger
	cancel context.CancelFunc

	// machine and sender are owned by the event loop until done is closed.
	machine *Machine
	sender  *connSender

	ops     chan op
	done    chan struct{}
	changes chan struct{}

	mu   sync.RWMutex
	view View

	leaveOnce sync.Once
}

// Connect dials the relay for id and starts processing envelopes. ctx bounds
// the dial only; the session lives until Leave.
func Connect(ctx context.Context, d domain.Dialer, id domain.Identity, opts Options) (*Session, error) {
	if !id.Valid() {
		return nil, errors.New("session id and user id are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	conn, err := d.Dial(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %w", domain.ErrTransport, err)
	}

	s := &Session{
		id:      id,
		conn:    conn,
		log:     logger,
		sender:  &connSender{conn: conn, timeout: opts.WriteTimeout},
		ops:     make(chan op),
		done:    make(chan struct{}),
		changes: make(chan struct{}, 1),
	}
	s.machine = NewMachine(MachineConfig{
		Identity: id,
		Suite:    opts.Suite,
		Policy:   opts.Policy,
		Logger:   logger,
	}, s.sender)
	s.publish()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.run(loopCtx, s.startReader(loopCtx))

	logger.Info("connected", slog.String("session_id", id.SessionID.String()), slog.String("user_id", id.UserID.String()))
	return s, nil
}

// startReader reads frames until the connection fails or ctx is cancelled.
// A read error is delivered as the final value on the returned channel.
func (s *Session) startReader(ctx context.Context) <-chan inbound {
	ch := make(chan inbound, inboundChanSize)
	conn := s.conn
	go func() {
		for {
			data, err := conn.Read(ctx)
			select {
			case ch <- inbound{data: data, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// run is the event loop. It is the only goroutine touching the machine or
// writing to the connection.
func (s *Session) run(ctx context.Context, in <-chan inbound) {
	defer close(s.done)
	for {
		select {
		case msg := <-in:
			if msg.err != nil {
				if ctx.Err() != nil {
					return
				}
				s.lose(msg.err)
				in = nil
				continue
			}
			if err := s.machine.HandleFrame(ctx, msg.data); err != nil {
				s.lose(err)
				in = nil
				continue
			}
			s.publish()

		case o := <-s.ops:
			o.result <- o.fn(ctx, s.machine)
			s.publish()

		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) lose(err error) {
	s.sender.lost = true
	s.machine.TransportLost(err)
	s.publish()
}

func (s *Session) do(ctx context.Context, fn func(ctx context.Context, m *Machine) error) error {
	o := op{fn: fn, result: make(chan error, 1)}
	select {
	case <-s.done:
		return domain.ErrClosed
	default:
	}
	select {
	case s.ops <- o:
	case <-s.done:
		return domain.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-o.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendMessage encrypts and sends content. It fails with domain.ErrNotReady
// until the session is synced and holds a key.
func (s *Session) SendMessage(ctx context.Context, content string) (domain.Message, error) {
	var sent domain.Message
	err := s.do(ctx, func(ctx context.Context, m *Machine) error {
		msg, err := m.SendMessage(ctx, content)
		sent = msg
		return err
	})
	if err != nil {
		return domain.Message{}, err
	}
	return sent, nil
}

// RequestSync asks the relay to (re)start synchronization.
func (s *Session) RequestSync(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context, m *Machine) error {
		return m.RequestSync(ctx)
	})
}

// Leave stops envelope processing, closes the connection and destroys the
// key. It is idempotent. Later calls to SendMessage and RequestSync fail with
// domain.ErrClosed.
func (s *Session) Leave() {
	s.leaveOnce.Do(func() {
		s.cancel()
		if err := s.conn.Close(); err != nil {
			s.log.Debug("close connection", slog.String("error", err.Error()))
		}
		<-s.done
		s.machine.Close()

		s.mu.Lock()
		s.view = viewOf(s.id, s.machine)
		s.view.Left = true
		s.mu.Unlock()
		s.notify()
		s.log.Info("left session", slog.String("session_id", s.id.SessionID.String()))
	})
}

// View returns a copy of the current session state.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.clone()
}

// Changes coalesces: a slow reader sees one pending signal.
func (s *Session) Changes() <-chan struct{} { return s.changes }

// Done is closed once the event loop has stopped after Leave.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) publish() {
	v := viewOf(s.id, s.machine)
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// connSender encodes envelopes onto the connection. It is used only from the
// event loop.
type connSender struct {
	conn    domain.Conn
	timeout time.Duration
	lost    bool
}

var _ Sender = (*connSender)(nil)

func (c *connSender) Send(ctx context.Context, env envelope.Envelope) error {
	if c.lost {
		return errors.New("connection lost")
	}
	data, err := envelope.Encode(env)
	if err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.conn.Write(ctx, data)
}
