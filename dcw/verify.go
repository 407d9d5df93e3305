package dcw

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/tuneinsight/lattigo/v4/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"polylog-dcw/internal/primes"
	"polylog-dcw/padic"
	"polylog-dcw/prof"
	"polylog-dcw/steinberg"
)

// Triple is a + b = c with gcd(a, b) = 1. It stands for the point t = a/c, 1−t = b/c.
type Triple struct {
	A, B, C int64
}

func (tr Triple) T() *big.Rat { return big.NewRat(tr.A, tr.C) }

func (tr Triple) String() string { return fmt.Sprintf("%d+%d=%d", tr.A, tr.B, tr.C) }

// Violation is a triple where Σ e_l(t)·e_q(1−t)·a_{l,q} and −Li₂(t) differ mod p^prec.
type Violation struct {
	Triple Triple
	Got    *big.Rat
	Want   *big.Rat
	// Agree is v_p(Got − Want), the number of digits that do match.
	Agree int
}

// CommutativityTriples lists every coprime a + b = c below the space's bound with none
// of a, b, c divisible by p, ordered by c then a.
func CommutativityTriples(space *primes.Space) []Triple {
	var out []Triple
	p := space.P
	for c := int64(2); c < space.Bound; c++ {
		if c%p == 0 {
			continue
		}
		for a := int64(1); a < c; a++ {
			b := c - a
			if a%p == 0 || b%p == 0 || gcd(a, b) != 1 {
				continue
			}
			tr := Triple{a, b, c}
			if _, err := primes.Exponents(tr.T(), space.Primes); err != nil {
				continue
			}
			if _, err := primes.Exponents(big.NewRat(b, c), space.Primes); err != nil {
				continue
			}
			out = append(out, tr)
		}
	}
	return out
}

// SampleTriples draws n distinct triples from CommutativityTriples with a keyed PRNG,
// so the same seed always checks the same points.
func SampleTriples(space *primes.Space, n int, seed []byte) ([]Triple, error) {
	all := CommutativityTriples(space)
	if n >= len(all) {
		return all, nil
	}
	prng, err := utils.NewKeyedPRNG(seed)
	if err != nil {
		return nil, fmt.Errorf("dcw: seed prng: %w", err)
	}
	// partial Fisher-Yates
	for i := 0; i < n; i++ {
		j, err := randInt64(prng, int64(len(all)-i))
		if err != nil {
			return nil, err
		}
		k := i + int(j)
		all[i], all[k] = all[k], all[i]
	}
	return all[:n], nil
}

func randInt64(prng utils.PRNG, max int64) (int64, error) {
	if max <= 0 {
		return 0, fmt.Errorf("dcw: max must be > 0")
	}
	buf := make([]byte, 8)
	if _, err := prng.Read(buf); err != nil {
		return 0, err
	}
	r := new(big.Int).SetBytes(buf)
	return r.Mod(r, big.NewInt(max)).Int64(), nil
}

// CheckCommutativity evaluates, for each triple, Σ_{l,q} e_l(t)·e_q(1−t)·a_{l,q} and
// compares it with −Li₂(t) mod p^prec. coeffs must hold every ordered pair, as
// returned by Assembler.All. Triples are checked on at most workers goroutines.
func CheckCommutativity(ctx context.Context, a *Assembler, coeffs map[steinberg.Pair]*big.Rat, triples []Triple, workers int) ([]Violation, error) {
	defer prof.Track(time.Now(), "dcw.verify")
	if workers < 1 {
		workers = 1
	}
	found := make([]*Violation, len(triples))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, tr := range triples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := checkTriple(a, coeffs, tr)
			if err != nil {
				return fmt.Errorf("dcw: triple %v: %w", tr, err)
			}
			found[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []Violation
	for _, v := range found {
		if v != nil {
			out = append(out, *v)
		}
	}
	a.log.Debug("commutativity checked", zap.Int("triples", len(triples)), zap.Int("violations", len(out)))
	return out, nil
}

func checkTriple(a *Assembler, coeffs map[steinberg.Pair]*big.Rat, tr Triple) (*Violation, error) {
	ps := a.space.Primes
	t := tr.T()
	s := new(big.Rat)
	x := new(big.Rat)
	for i, e := range primes.Factor(t, ps) {
		for j, f := range primes.Factor(big.NewRat(tr.B, tr.C), ps) {
			c, ok := coeffs[steinberg.Pair{L: ps[i], Q: ps[j]}]
			if !ok {
				return nil, fmt.Errorf("%w: (%d,%d)", ErrMissingDecomposition, ps[i], ps[j])
			}
			x.SetInt64(int64(e * f))
			s.Add(s, x.Mul(x, c))
		}
	}
	d, err := a.Dilog(t)
	if err != nil {
		return nil, err
	}
	want := new(big.Rat).SetInt(d)
	want.Neg(want)
	diff := new(big.Rat).Sub(s, want)
	if v := padic.Valuation(diff, a.P()); v < a.prec {
		return &Violation{
			Triple: tr,
			Got:    padic.Reduce(s, a.P(), a.prec),
			Want:   padic.Reduce(want, a.P(), a.prec),
			Agree:  v,
		}, nil
	}
	return nil, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
