package steinberg

import (
	"iter"
	"math/big"
)

// step is one link of the orbit: z is the stored value, halved records that the
// chosen representative was 2z rather than z.
type step struct {
	z      int64
	halved bool
}

// Candidates yields Steinberg elements for the prime pair l<q whose wedge involves q,
// with every t and 1−t a p-adic unit. The sequence is deterministic and finite.
func Candidates(l, q, p int64) iter.Seq[*big.Rat] {
	return func(yield func(*big.Rat) bool) {
		orbit, m, ok := walkOrbit(l, q, p)
		if !ok {
			return
		}
		for i := m + 1; i < len(orbit); i++ {
			cur, prev := orbit[i], orbit[i-1]
			if cur.z%q == 0 || prev.z%q == 0 {
				continue
			}
			num := cur.z
			if cur.halved {
				num *= 2
			}
			t := big.NewRat(num, l*prev.z)
			if !yield(Canonical(t)) {
				return
			}
		}
	}
}

// walkOrbit runs z_i ≡ l·z_{i-1} (mod q) from z_0 = 1 until some z_n = ±z_m with m < n.
// It returns z_0..z_n and m. ok is false when a step had no admissible representative.
func walkOrbit(l, q, p int64) (orbit []step, m int, ok bool) {
	orbit = []step{{z: 1}}
	seen := map[int64]int{1: 0}
	for {
		next, found := nextStep(l, q, p, orbit[len(orbit)-1].z)
		if !found {
			return nil, 0, false
		}
		orbit = append(orbit, next)
		key := abs(next.z)
		if first, dup := seen[key]; dup {
			return orbit, first, true
		}
		seen[key] = len(orbit) - 1
	}
}

// nextStep chooses z_i among r, r−q, r+q, r−2q (r = l·prev mod q in [0,q)). The last
// two carry a factor of two: they must be even, and are halved unless l is 2, where
// the factor cancels against l instead. A representative is admissible when neither
// it nor its cofactor (l·prev − c)/q is divisible by p; the smallest |z| wins.
func nextStep(l, q, p, prev int64) (step, bool) {
	x := l * prev
	r := x % q
	if r < 0 {
		r += q
	}
	reps := [4]int64{r, r - q, r + q, r - 2*q}
	var best step
	found := false
	for j, c := range reps {
		s := step{z: c}
		if j >= 2 {
			if c%2 != 0 {
				continue
			}
			if l != 2 {
				s = step{z: c / 2, halved: true}
			}
		}
		cofactor := (x - c) / q
		if s.z%p == 0 || cofactor%p == 0 {
			continue
		}
		if !found || abs(s.z) < abs(best.z) {
			best, found = s, true
		}
	}
	return best, found
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
