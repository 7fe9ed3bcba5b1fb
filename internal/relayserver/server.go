package relayserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nexus/internal/domain"
)

// Server is the development relay.
type Server struct {
	cfg   Config
	log   *slog.Logger
	store *memoryStore
	now   func() time.Time

	// base outlives individual requests; simulated syncs run under it.
	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New returns a relay with cfg. Call Close to stop running syncs.
func New(cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	base, stop := context.WithCancel(context.Background())
	return &Server{
		cfg:   cfg,
		log:   log,
		store: newMemoryStore(),
		now:   func() time.Time { return time.Now().UTC() },
		base:  base,
		stop:  stop,
	}
}

// Handler routes the relay's endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.handleCreate)
	mux.HandleFunc("GET /sessions/{id}", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws/{session}/{user}", s.handleWebsocket)
	return s.accessLog(mux)
}

// Run serves on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("relay listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close cancels running syncs and waits for them to stop.
func (s *Server) Close() {
	s.stop()
	s.wg.Wait()
}

type createRequest struct {
	K *int `json:"tpm_k"`
	N *int `json:"tpm_n"`
	L *int `json:"tpm_l"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	tpm := domain.DefaultTPMConfig()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.K != nil {
		tpm.K = *req.K
	}
	if req.N != nil {
		tpm.N = *req.N
	}
	if req.L != nil {
		tpm.L = *req.L
	}
	if err := tpm.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id := newSessionID()
	rm := s.store.create(id, tpm, s.now())
	s.log.Info("session created", slog.String("session_id", id.String()),
		slog.Int("k", tpm.K), slog.Int("n", tpm.N), slog.Int("l", tpm.L))

	writeJSON(w, http.StatusOK, domain.SessionInfo{
		SessionID: id,
		CreatedAt: domain.NewTimestamp(rm.createdAt),
		TPMConfig: tpm,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store.status(domain.SessionID(r.PathValue("id")))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Health{
		Status:         "healthy",
		ActiveSessions: s.store.count(),
		Timestamp:      domain.NewTimestamp(s.now()),
	})
}

func newSessionID() domain.SessionID {
	return domain.SessionID(uuid.NewString()[:8])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
