package types

import "time"

// Message is one decrypted chat line held in memory for the session.
// Content is plaintext and is never written to disk.
type Message struct {
	ID        string    `json:"id"`
	Sender    UserID    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsOwn     bool      `json:"is_own"`
}
