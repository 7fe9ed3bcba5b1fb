// Package memzero wipes sensitive buffers.
package memzero

import "runtime"

// Zero overwrites b with zeros. It is best effort: the runtime may already
// have copied the bytes elsewhere.
//
//go:noinline
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
