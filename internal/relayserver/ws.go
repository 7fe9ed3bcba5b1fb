package relayserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"nexus/internal/domain"
	"nexus/internal/protocol/envelope"
)

func tpmFromQuery(r *http.Request) (domain.TPMConfig, error) {
	tpm := domain.DefaultTPMConfig()
	q := r.URL.Query()
	for name, dst := range map[string]*int{"tpm_k": &tpm.K, "tpm_n": &tpm.N, "tpm_l": &tpm.L} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.TPMConfig{}, errors.New(name + " must be an integer")
		}
		*dst = n
	}
	return tpm, tpm.Validate()
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sid := domain.SessionID(r.PathValue("session"))
	uid := domain.UserID(r.PathValue("user"))
	tpm, err := tpmFromQuery(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.Debug("websocket accept", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()

	log := s.log.With(slog.String("session_id", sid.String()), slog.String("user_id", uid.String()))
	me := &member{user: uid, conn: conn}

	rm, err := s.join(sid, tpm, me)
	if errors.Is(err, domain.ErrSessionFull) {
		log.Info("rejecting join to full session")
		_ = s.send(r.Context(), me, envelope.Error{Code: envelope.CodeSessionFull, Message: "Session is full"})
		conn.Close(websocket.StatusPolicyViolation, "session full")
		return
	}
	defer s.leave(rm, me, log)
	log.Info("participant connected")

	var lastSeen atomic.Int64
	lastSeen.Store(time.Now().UnixNano())

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return err
			}
			lastSeen.Store(time.Now().UnixNano())
			if typ != websocket.MessageText {
				continue
			}
			s.handleFrame(ctx, rm, me, data, log)
		}
	})
	g.Go(func() error {
		t := time.NewTicker(s.cfg.IdlePing / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				if time.Since(time.Unix(0, lastSeen.Load())) < s.cfg.IdlePing {
					continue
				}
				if err := s.send(ctx, me, envelope.Ping{}); err != nil {
					return err
				}
				lastSeen.Store(time.Now().UnixNano())
			}
		}
	})
	if err := g.Wait(); err != nil && websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
		log.Debug("connection ended", slog.String("error", err.Error()))
	}
}

// join adds me to the session, creating it on first use, and announces it.
func (s *Server) join(sid domain.SessionID, tpm domain.TPMConfig, me *member) (*room, error) {
	s.store.mu.Lock()
	rm, ok := s.store.rooms[sid]
	if !ok {
		rm = &room{id: sid, createdAt: s.now(), tpm: tpm}
		s.store.rooms[sid] = rm
	}
	if i := rm.indexOf(me.user); i >= 0 {
		rm.members[i] = me
	} else if len(rm.members) >= maxParticipants {
		s.store.mu.Unlock()
		return nil, domain.ErrSessionFull
	} else {
		rm.members = append(rm.members, me)
	}
	count := len(rm.members)
	info := envelope.SessionInfo{
		SessionID:        rm.id,
		ParticipantCount: count,
		IsSynced:         rm.synced,
		TPMConfig:        &rm.tpm,
	}
	synced := rm.synced
	s.store.mu.Unlock()

	s.broadcast(rm, envelope.UserJoined{UserID: me.user, ParticipantCount: count}, me.user)
	_ = s.send(s.base, me, info)
	if synced {
		_ = s.send(s.base, me, envelope.AlreadySynced{})
	}
	s.startSync(rm)
	return rm, nil
}

// leave removes me, stops a running sync and tells the others.
func (s *Server) leave(rm *room, me *member, log *slog.Logger) {
	s.store.mu.Lock()
	i := rm.indexOf(me.user)
	if i < 0 || rm.members[i] != me {
		s.store.mu.Unlock()
		return
	}
	rm.members = append(rm.members[:i], rm.members[i+1:]...)
	if rm.cancelSync != nil {
		rm.cancelSync()
		rm.cancelSync = nil
		rm.syncing = false
	}
	if len(rm.members) == 0 {
		delete(s.store.rooms, rm.id)
	}
	s.store.mu.Unlock()

	log.Info("participant disconnected")
	s.broadcast(rm, envelope.UserLeft{UserID: me.user}, me.user)
}

func (s *Server) handleFrame(ctx context.Context, rm *room, me *member, data []byte, log *slog.Logger) {
	env, err := envelope.Parse(data)
	if err != nil {
		log.Debug("unparseable frame", slog.Int("bytes", len(data)))
		return
	}
	switch e := env.(type) {
	case envelope.Message:
		ts := domain.NewTimestamp(s.now())
		s.broadcast(rm, envelope.Message{SenderID: me.user, Ciphertext: e.Ciphertext, Timestamp: &ts}, me.user)
	case envelope.RequestSync:
		s.startSync(rm)
	case envelope.Ping:
		_ = s.send(ctx, me, envelope.Pong{})
	}
}

func (s *Server) send(ctx context.Context, m *member, env envelope.Envelope) error {
	data, err := envelope.Encode(env)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	return m.conn.Write(ctx, websocket.MessageText, data)
}

func (s *Server) broadcast(rm *room, env envelope.Envelope, except domain.UserID) {
	for _, m := range s.store.peers(rm, except) {
		if err := s.send(s.base, m, env); err != nil {
			s.log.Debug("broadcast", slog.String("to", m.user.String()), slog.String("type", string(env.Kind())), slog.String("error", err.Error()))
		}
	}
}
