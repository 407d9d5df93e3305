package steinberg

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"

	"polylog-dcw/internal/primes"
)

// Pair is the wedge generator [L]∧[Q]. Decompositions are keyed with L < Q; coefficient
// maps also carry the reversed and diagonal pairs.
type Pair struct {
	L, Q int64
}

func (p Pair) String() string { return fmt.Sprintf("(%d,%d)", p.L, p.Q) }

// Term is one summand c·[t]∧[1−t]; Index is t's position in the basis.
type Term struct {
	Index int
	T     *big.Rat
	C     *big.Rat
}

// Decomposition lists the nonzero terms of a generator, ordered by basis index.
type Decomposition []Term

// Coefficient returns the coefficient of t, or nil when t does not occur.
func (d Decomposition) Coefficient(t *big.Rat) *big.Rat {
	for _, term := range d {
		if term.T.Cmp(t) == 0 {
			return term.C
		}
	}
	return nil
}

// Map renders d as t ↦ c using RatString on both sides.
func (d Decomposition) Map() map[string]string {
	out := make(map[string]string, len(d))
	for _, term := range d {
		out[Key(term.T)] = term.C.RatString()
	}
	return out
}

func (d Decomposition) String() string {
	parts := make([]string, len(d))
	for i, term := range d {
		parts[i] = Key(term.T) + ": " + term.C.RatString()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Key is the map key used for a Steinberg element throughout the module.
func Key(t *big.Rat) string { return t.RatString() }

var half = big.NewRat(1, 2)

// Canonical picks the member of {t, 1−t} that is at most 1/2. [1−t]∧[t] is the
// negative of [t]∧[1−t], so callers must derive columns from the returned value.
func Canonical(t *big.Rat) *big.Rat {
	if t.Cmp(half) <= 0 {
		return new(big.Rat).Set(t)
	}
	return new(big.Rat).Sub(big.NewRat(1, 1), t)
}

// Result is the output of Build.
type Result struct {
	Space          *primes.Space
	Basis          []*big.Rat
	Decompositions map[Pair]Decomposition
}

// Pairs lists the decomposed generators ordered by (L, Q).
func (r *Result) Pairs() []Pair {
	out := make([]Pair, 0, len(r.Decompositions))
	for k := range r.Decompositions {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Q != out[j].Q {
			return out[i].Q < out[j].Q
		}
		return out[i].L < out[j].L
	})
	return out
}

// Fingerprint hashes the basis and every decomposition with SHAKE-256 so two builds
// can be compared without walking the maps.
func (r *Result) Fingerprint() [32]byte {
	h := sha3.NewShake256()
	var buf [8]byte
	writeInt := func(x int64) {
		binary.BigEndian.PutUint64(buf[:], uint64(x))
		h.Write(buf[:])
	}
	writeRat := func(x *big.Rat) {
		s := x.RatString()
		writeInt(int64(len(s)))
		h.Write([]byte(s))
	}
	writeInt(r.Space.Bound)
	writeInt(r.Space.P)
	writeInt(int64(len(r.Basis)))
	for _, t := range r.Basis {
		writeRat(t)
	}
	for _, pair := range r.Pairs() {
		writeInt(pair.L)
		writeInt(pair.Q)
		d := r.Decompositions[pair]
		writeInt(int64(len(d)))
		for _, term := range d {
			writeInt(int64(term.Index))
			writeRat(term.C)
		}
	}
	var out [32]byte
	h.Read(out[:])
	return out
}
