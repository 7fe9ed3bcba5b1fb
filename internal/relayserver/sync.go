package relayserver

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"math"
	mrand "math/rand/v2"
	"strings"
	"time"

	"nexus/internal/protocol/envelope"
)

// learningRules are cycled when simulated progress stalls.
var learningRules = [...]string{"random_walk", "hebbian", "anti_hebbian"}

// startSync begins a simulated synchronization if the room is full and not
// already synced or syncing.
func (s *Server) startSync(rm *room) {
	s.store.mu.Lock()
	if !rm.ready() || rm.synced || rm.syncing || s.base.Err() != nil {
		s.store.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.base)
	rm.syncing = true
	rm.syncGen++
	rm.cancelSync = cancel
	gen := rm.syncGen
	s.store.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.runSync(ctx, rm, gen)
	}()
}

func (s *Server) runSync(ctx context.Context, rm *room, gen int) {
	log := s.log.With(slog.String("session_id", rm.id.String()))
	defer func() {
		s.store.mu.Lock()
		if rm.syncGen == gen {
			rm.syncing = false
			rm.cancelSync = nil
		}
		s.store.mu.Unlock()
	}()

	s.store.mu.Lock()
	tpm := rm.tpm
	s.store.mu.Unlock()

	s.broadcast(rm, envelope.SyncStart{SessionID: rm.id, TPMConfig: &tpm}, "")
	if !sleep(ctx, s.cfg.SyncStartDelay) {
		return
	}
	log.Info("sync started", slog.Int("k", tpm.K), slog.Int("n", tpm.N), slog.Int("l", tpm.L))

	rounds := s.cfg.SyncRounds
	best := 0.0
	rule := 0
	for round := 1; round <= rounds; round++ {
		if !s.stillReady(rm) {
			log.Info("sync abandoned, participant left", slog.Int("round", round))
			return
		}
		progress := simulatedProgress(round, rounds)
		if progress > best+0.01 {
			best = progress
		} else if round%10 == 0 {
			rule = (rule + 1) % len(learningRules)
		}
		tauA := tau()
		tauB := tauA
		agreed := mrand.Float64() < 0.5+progress/2
		if !agreed {
			tauB = -tauA
		}
		attacker := progress * (0.4 + 0.2*mrand.Float64())
		attackerTau := tau()
		attackerSynced := false

		s.store.mu.Lock()
		rm.round = round
		s.store.mu.Unlock()

		s.broadcast(rm, envelope.SyncProgress{
			Round:            round,
			Agreed:           agreed,
			Progress:         progress,
			TauA:             &tauA,
			TauB:             &tauB,
			LearningRule:     learningRules[rule],
			BestProgress:     &best,
			AttackerProgress: &attacker,
			AttackerTau:      &attackerTau,
			AttackerSynced:   &attackerSynced,
		}, "")

		if round < rounds && !sleep(ctx, s.cfg.SyncInterval) {
			return
		}
	}

	s.store.mu.Lock()
	if ctx.Err() != nil {
		s.store.mu.Unlock()
		return
	}
	rm.synced = true
	s.store.mu.Unlock()

	s.broadcast(rm, envelope.SyncComplete{Rounds: rounds, KeyFingerprint: newFingerprint()}, "")
	log.Info("sync complete", slog.Int("rounds", rounds))
}

func (s *Server) stillReady(rm *room) bool {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return rm.ready()
}

// simulatedProgress rises along an ease-out curve and reaches 1 on the last
// round.
func simulatedProgress(round, rounds int) float64 {
	if round >= rounds {
		return 1
	}
	x := float64(round) / float64(rounds)
	return 0.5 + 0.5*(1-math.Pow(1-x, 2))*0.98
}

func tau() int {
	if mrand.IntN(2) == 0 {
		return -1
	}
	return 1
}

// newFingerprint returns 8 upper-case hex characters of a hashed random
// secret.
func newFingerprint() string {
	var secret [32]byte
	_, _ = rand.Read(secret[:])
	sum := sha256.Sum256(secret[:])
	return strings.ToUpper(hex.EncodeToString(sum[:4]))
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
