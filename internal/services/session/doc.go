// Package session runs one client side of a key-agreement-then-chat session.
//
// Machine is the protocol state machine. It interprets inbound envelopes,
// moves between Connecting, Waiting, Syncing, Synced and Error, derives the
// key when the relay reports a completed synchronization, and encrypts and
// decrypts chat content. It is not safe for concurrent use.
//
// Session is the facade a presentation layer talks to. Connect dials the
// relay and starts two goroutines: a reader that only moves frames into a
// channel, and an event loop that owns the Machine and every write to the
// connection. Inbound frames and outbound sends are therefore handled one at
// a time, to completion, in arrival order. Callers observe state through View
// and the Changes notification channel.
//
// Error is terminal for a Session. There is no reconnect; leave and connect
// again.
package session
