package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/internal/domain"
	"nexus/internal/services/session"
)

type fakeChat struct {
	mu      sync.Mutex
	view    session.View
	changes chan struct{}
	sent    []string
	syncs   int
	sendErr error
	syncErr error
}

func newFakeChat(v session.View) *fakeChat {
	return &fakeChat{view: v, changes: make(chan struct{}, 1)}
}

func (f *fakeChat) View() session.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeChat) Changes() <-chan struct{} { return f.changes }

func (f *fakeChat) set(fn func(*session.View)) {
	f.mu.Lock()
	fn(&f.view)
	f.mu.Unlock()
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

func (f *fakeChat) SendMessage(_ context.Context, content string) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return domain.Message{}, f.sendErr
	}
	f.sent = append(f.sent, content)
	return domain.Message{Content: content, IsOwn: true}, nil
}

func (f *fakeChat) RequestSync(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	return f.syncErr
}

// syncWriter is a bytes.Buffer safe for the printer and input goroutines.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

var chatID = domain.Identity{SessionID: "ab12cd34", UserID: "alice"}

func TestRunChat_SendsLinesUntilQuit(t *testing.T) {
	f := newFakeChat(session.View{Identity: chatID, State: domain.Synced, CanSend: true, Participants: 2})
	in := strings.NewReader("hello\n\n/sync\n/who\nsecond line\n/quit\nnever sent\n")
	out := &syncWriter{}

	err := runChat(context.Background(), f, in, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "second line"}, f.sent)
	assert.Equal(t, 1, f.syncs)
	assert.Contains(t, out.String(), "synced in ab12cd34 as alice, 2 participant(s)")
}

func TestRunChat_EOFEnds(t *testing.T) {
	f := newFakeChat(session.View{Identity: chatID})
	err := runChat(context.Background(), f, strings.NewReader(""), &syncWriter{})
	assert.NoError(t, err)
}

func TestRunChat_ReportsSendErrors(t *testing.T) {
	f := newFakeChat(session.View{Identity: chatID, State: domain.Waiting})
	f.sendErr = fmt.Errorf("%w: session is waiting", domain.ErrNotReady)
	f.syncErr = errors.New("nope")
	out := &syncWriter{}

	require.NoError(t, runChat(context.Background(), f, strings.NewReader("hi\n/sync\n/quit\n"), out))
	assert.Contains(t, out.String(), "! not ready")
	assert.Contains(t, out.String(), "! nope")
}

func TestRunChat_EndsOnSessionFailure(t *testing.T) {
	f := newFakeChat(session.View{Identity: chatID, State: domain.Syncing})
	pr, pw := io.Pipe()
	defer pw.Close()
	out := &syncWriter{}

	done := make(chan error, 1)
	go func() { done <- runChat(context.Background(), f, pr, out) }()

	f.set(func(v *session.View) {
		v.State = domain.Error
		v.FailureReason = "synchronization diverged"
	})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errSessionFailed)
	case <-time.After(2 * time.Second):
		t.Fatal("chat did not end")
	}
	assert.Contains(t, out.String(), "session failed: synchronization diverged")
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	peer := 0.31

	p.update(session.View{Identity: chatID, State: domain.Connecting, Participants: 1})
	p.update(session.View{Identity: chatID, State: domain.Waiting, Participants: 1})
	p.update(session.View{Identity: chatID, State: domain.Syncing, Participants: 2})
	p.update(session.View{Identity: chatID, State: domain.Syncing, Participants: 2,
		Sync: domain.SyncSnapshot{Round: 10, ProgressPercent: 40}})
	p.update(session.View{Identity: chatID, State: domain.Syncing, Participants: 2,
		Sync: domain.SyncSnapshot{Round: 25, ProgressPercent: 62.5, RecentAgreement: []bool{true, false}, PeerProgress: &peer}})
	synced := session.View{Identity: chatID, State: domain.Synced, Participants: 2, CanSend: true,
		KeyFingerprint: "1A2B3C4D", SafetyCode: "DEADBEEF"}
	p.update(synced)
	synced.Messages = []domain.Message{
		{Sender: "bob", Content: "hi", Timestamp: at},
		{Sender: "alice", Content: "hey", Timestamp: at, IsOwn: true},
	}
	p.update(synced)
	p.update(synced)

	want := strings.Join([]string{
		"* connecting to ab12cd34 as alice",
		"* waiting for your peer to join",
		"* peer present, synchronizing",
		"* 2 participant(s) present",
		"* round 25: 62.5% (agreement 50%, eavesdropper 31%)",
		"* key agreed (fingerprint 1A2B3C4D, safety code DE AD BE EF). Type to chat, /quit to leave.",
		"[12:00:00] bob: hi",
		"[12:00:00] you: hey",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestGroupCode(t *testing.T) {
	assert.Equal(t, "", groupCode(""))
	assert.Equal(t, "AB", groupCode("AB"))
	assert.Equal(t, "AB CD E", groupCode("ABCDE"))
}
