// Package store provides file-based persistence for the nexus client.
//
// Only non-secret state is stored: the per-relay profile holding the user id
// to present and the last session joined. Session keys and message history
// live in memory for the lifetime of a session and are never written.
//
// Files are JSON, written through a temp file and renamed into place, under
// the configured home directory. Methods are safe for concurrent use.
package store
