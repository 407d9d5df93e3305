// Package primes holds the prime index space shared by the basis builder and the
// coefficient assembler, plus factorization of rationals over that space.
//
// Every matrix and table in the module is addressed by a prime's position in the
// space, never by the prime's value.
package primes

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v4/ring"
)

// Space is the ordered list of primes below Bound with the auxiliary prime P removed.
type Space struct {
	Bound  int64
	P      int64
	Primes []int64
	index  map[int64]int
}

// NewSpace enumerates the primes below bound, skipping p. p must be an odd prime.
func NewSpace(bound, p int64) (*Space, error) {
	if p < 3 || !ring.IsPrime(uint64(p)) {
		return nil, fmt.Errorf("primes: auxiliary prime must be an odd prime, got %d", p)
	}
	if bound < 3 {
		return nil, fmt.Errorf("primes: bound must be at least 3, got %d", bound)
	}
	s := &Space{Bound: bound, P: p, index: make(map[int64]int)}
	for n := int64(2); n < bound; n++ {
		if n == p || !ring.IsPrime(uint64(n)) {
			continue
		}
		s.index[n] = len(s.Primes)
		s.Primes = append(s.Primes, n)
	}
	return s, nil
}

// Len returns the number of primes in the space.
func (s *Space) Len() int { return len(s.Primes) }

// Dim is the dimension C(n,2) of the wedge square on the space.
func (s *Space) Dim() int {
	n := len(s.Primes)
	return n * (n - 1) / 2
}

// Index returns the position of q, or false if q is not in the space.
func (s *Space) Index(q int64) (int, bool) {
	i, ok := s.index[q]
	return i, ok
}

// Contains reports whether q is one of the indexed primes.
func (s *Space) Contains(q int64) bool {
	_, ok := s.index[q]
	return ok
}

// PairIndex is the staircase position of the wedge generator on prime indices i<j:
// all pairs ending at j come after every pair ending below j.
func PairIndex(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return j*(j-1)/2 + i
}

// BlockStart is the first staircase position of the block for prime index j.
func BlockStart(j int) int { return j * (j - 1) / 2 }
