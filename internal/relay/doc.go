// Package relay talks to the relay service that brokers sessions.
//
// HTTP implements domain.DirectoryClient over the relay's JSON endpoints:
// creating a session, reading its status, and the health check. Non-2xx
// statuses are returned as errors naming the method, path and status text;
// 404 wraps ErrNotFound.
//
// WebsocketDialer implements domain.Dialer. Each connection is addressed by
// one (session, user) pair and carries one JSON envelope per text frame.
package relay
