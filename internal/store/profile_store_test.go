package store_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"nexus/internal/domain"
	"nexus/internal/store"
)

func TestProfile_SaveLoad_OK(t *testing.T) {
	home := filepath.Join(t.TempDir(), "nexus")
	var ps domain.ProfileStore = store.NewProfileFileStore(home)

	p := domain.Profile{RelayURL: "http://127.0.0.1:8000", UserID: "alice", LastSession: "ab12cd34"}
	if err := ps.SaveProfile(p); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	got, ok, err := ps.LoadProfile("http://127.0.0.1:8000/")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if !ok {
		t.Fatal("profile not found")
	}
	if got != p {
		t.Fatalf("mismatch after load: got %+v want %+v", got, p)
	}

	info, err := os.Stat(filepath.Join(home, "profiles.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("profiles.json mode = %o, want 600", perm)
	}
}

func TestProfile_Missing(t *testing.T) {
	ps := store.NewProfileFileStore(t.TempDir())
	_, ok, err := ps.LoadProfile("http://nowhere")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if ok {
		t.Fatal("expected no profile")
	}
}

func TestProfile_PerRelay(t *testing.T) {
	ps := store.NewProfileFileStore(t.TempDir())
	a := domain.Profile{RelayURL: "http://a", UserID: "alice"}
	b := domain.Profile{RelayURL: "http://b", UserID: "bob"}
	for _, p := range []domain.Profile{a, b} {
		if err := ps.SaveProfile(p); err != nil {
			t.Fatalf("save %s: %v", p.RelayURL, err)
		}
	}
	a.LastSession = "s1"
	if err := ps.SaveProfile(a); err != nil {
		t.Fatalf("update a: %v", err)
	}

	got, _, _ := ps.LoadProfile("http://a")
	if got.LastSession != "s1" {
		t.Fatalf("a not updated: %+v", got)
	}
	got, _, _ = ps.LoadProfile("http://b")
	if got.UserID != "bob" {
		t.Fatalf("b clobbered: %+v", got)
	}
}

func TestProfile_RequiresRelay(t *testing.T) {
	ps := store.NewProfileFileStore(t.TempDir())
	if err := ps.SaveProfile(domain.Profile{UserID: "alice"}); err == nil {
		t.Fatal("expected error without relay url")
	}
}

func TestProfile_CorruptFile(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "profiles.json"), []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ps := store.NewProfileFileStore(home)
	if _, _, err := ps.LoadProfile("http://a"); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestProfile_ConcurrentSaves(t *testing.T) {
	ps := store.NewProfileFileStore(t.TempDir())
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := domain.Profile{RelayURL: "http://r" + string(rune('a'+i)), UserID: "u"}
			if err := ps.SaveProfile(p); err != nil {
				t.Errorf("save: %v", err)
			}
		}()
	}
	wg.Wait()
	for i := range 16 {
		if _, ok, err := ps.LoadProfile("http://r" + string(rune('a'+i))); err != nil || !ok {
			t.Fatalf("profile %d: ok=%v err=%v", i, ok, err)
		}
	}
}
