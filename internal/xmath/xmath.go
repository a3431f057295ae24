// Package xmath holds the one generic numeric helper the client and srv
// packages both need for clamping message sizes against a negotiated
// ceiling, grounded in the teacher's own min[T constraints.Ordered] helper
// (plan9/server/server.go), written against the same Go 1.18-era
// constraints package rather than the later builtin min/max.
package xmath

import "golang.org/x/exp/constraints"

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
