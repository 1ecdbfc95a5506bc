// Package rng provides the injectable randomness source used by every
// stochastic part of the battle engine (shuffles, AI mode picks, crit
// rolls). The engine never touches a global generator; tests substitute
// a deterministic source.
package rng

import (
	"crypto/rand"
	"math/big"
)

// Source produces uniformly distributed integers in [0, n).
// All engine randomness flows through a single Source so that a battle
// is deterministic with respect to its injected source.
type Source interface {
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: all values produced are uniformly distributed in [0, n)
// for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns the production Source backed by crypto/rand.
//
// Postcondition: every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
// Panics with "rng: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// SeqSource replays a fixed sequence of values, reducing each modulo n.
// It is intended for tests that need exact control over every draw.
//
// Invariant: an exhausted sequence wraps back to the beginning.
type SeqSource struct {
	values []int
	index  int
}

// NewSeqSource creates a SeqSource over values.
//
// Precondition: values must be non-empty.
func NewSeqSource(values ...int) *SeqSource {
	if len(values) == 0 {
		panic("rng: NewSeqSource requires at least one value")
	}
	return &SeqSource{values: values}
}

// Intn returns the next scripted value modulo n.
//
// Precondition: n > 0.
// Postcondition: returned value is in [0, n).
func (s *SeqSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	v := s.values[s.index%len(s.values)]
	s.index++
	if v < 0 {
		v = -v
	}
	return v % n
}
