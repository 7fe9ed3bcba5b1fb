package relayserver

import (
	"sync"
	"time"

	"github.com/coder/websocket"

	"nexus/internal/domain"
)

// maxParticipants is the size of a session.
const maxParticipants = 2

type member struct {
	user domain.UserID
	conn *websocket.Conn
}

type room struct {
	id        domain.SessionID
	createdAt time.Time
	tpm       domain.TPMConfig

	// members in join order.
	members []*member

	round      int
	synced     bool
	syncing    bool
	syncGen    int
	cancelSync func()
}

func (r *room) indexOf(user domain.UserID) int {
	for i, m := range r.members {
		if m.user == user {
			return i
		}
	}
	return -1
}

func (r *room) ready() bool { return len(r.members) == maxParticipants }

func (r *room) status() domain.SessionStatus {
	users := make([]domain.UserID, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, m.user)
	}
	return domain.SessionStatus{
		SessionID:    r.id,
		Participants: users,
		SyncState:    domain.SyncState{Round: r.round, IsSynced: r.synced},
		CreatedAt:    domain.NewTimestamp(r.createdAt),
	}
}

// memoryStore holds every live session. All room fields are guarded by mu.
type memoryStore struct {
	mu    sync.Mutex
	rooms map[domain.SessionID]*room
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rooms: make(map[domain.SessionID]*room)}
}

func (s *memoryStore) create(id domain.SessionID, tpm domain.TPMConfig, now time.Time) *room {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &room{id: id, createdAt: now, tpm: tpm}
	s.rooms[id] = r
	return r
}

func (s *memoryStore) status(id domain.SessionID) (domain.SessionStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.SessionStatus{}, false
	}
	return r.status(), true
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// peers returns the members of r other than except, for writing outside the
// lock.
func (s *memoryStore) peers(r *room, except domain.UserID) []*member {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*member, 0, len(r.members))
	for _, m := range r.members {
		if m.user != except {
			out = append(out, m)
		}
	}
	return out
}
