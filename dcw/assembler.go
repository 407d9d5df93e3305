package dcw

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"go.uber.org/zap"

	"polylog-dcw/internal/primes"
	"polylog-dcw/padic"
	"polylog-dcw/prof"
	"polylog-dcw/steinberg"
)

// Options configures an Assembler.
type Options struct {
	Logger *zap.Logger
}

// ApplyDefaults fills unset fields.
func (o *Options) ApplyDefaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Assembler computes DCW coefficients for one (bound, p, prec). Its log and dilog tables
// are filled once at construction from the precision map and reused for every pair.
type Assembler struct {
	space   *primes.Space
	prec    int
	decomps map[steinberg.Pair]steinberg.Decomposition
	need    map[string]int
	ev      padic.Evaluator
	tab     *Tables
	log     *zap.Logger
}

// NewThreeAdicAssembler uses the p = 3 engine with precomputed dilog coefficients.
func NewThreeAdicAssembler(bound int64, decomps map[steinberg.Pair]steinberg.Decomposition, prec int, opts Options) (*Assembler, error) {
	return NewAssembler(bound, padic.NewEngine3(), decomps, prec, opts)
}

// NewGenericAssembler uses the generic evaluator for any odd prime p.
func NewGenericAssembler(bound, p int64, decomps map[steinberg.Pair]steinberg.Decomposition, prec int, opts Options) (*Assembler, error) {
	f, err := padic.NewField(p)
	if err != nil {
		return nil, err
	}
	return NewAssembler(bound, f, decomps, prec, opts)
}

// NewAssembler builds the precision map and the tables for ev.P().
func NewAssembler(bound int64, ev padic.Evaluator, decomps map[steinberg.Pair]steinberg.Decomposition, prec int, opts Options) (*Assembler, error) {
	defer prof.Track(time.Now(), "dcw.tables")
	opts.ApplyDefaults()
	if prec < 1 {
		return nil, fmt.Errorf("dcw: precision must be positive, got %d", prec)
	}
	space, err := primes.NewSpace(bound, ev.P())
	if err != nil {
		return nil, err
	}
	a := &Assembler{
		space:   space,
		prec:    prec,
		decomps: decomps,
		need:    PrecisionMap(decomps, ev.P(), prec),
		ev:      ev,
		log:     opts.Logger,
	}
	if err := a.fillTables(); err != nil {
		return nil, err
	}
	a.log.Debug("dcw tables ready",
		zap.Int64("p", ev.P()), zap.Int("prec", prec),
		zap.Int("logs", len(a.tab.Log)), zap.Int("dilogs", len(a.tab.Dilog)))
	return a, nil
}

func (a *Assembler) fillTables() error {
	one := big.NewRat(1, 1)
	logNeed := make(map[string]int)
	args := make(map[string]*big.Rat)
	want := func(x *big.Rat, n int) {
		k := steinberg.Key(x)
		if n > logNeed[k] {
			logNeed[k] = n
			args[k] = x
		}
	}
	for _, q := range a.space.Primes {
		want(big.NewRat(q, 1), a.prec+Guard)
	}
	ts := make(map[string]*big.Rat)
	for _, dec := range a.decomps {
		for _, term := range dec {
			ts[steinberg.Key(term.T)] = term.T
		}
	}
	for k, t := range ts {
		n := a.need[k] + Guard
		want(t, n)
		want(new(big.Rat).Sub(one, t), n)
	}

	a.tab = &Tables{
		P:     a.ev.P(),
		Log:   make(map[string]*big.Int, len(args)),
		Dilog: make(map[string]*big.Int, len(ts)),
	}
	for _, k := range sortedKeys(args) {
		v, err := a.ev.Log(args[k], logNeed[k])
		if err != nil {
			return fmt.Errorf("dcw: log(%s): %w", k, err)
		}
		a.tab.Log[k] = v
	}
	for _, k := range sortedKeys(ts) {
		v, err := a.ev.Dilog(ts[k], a.need[k]+Guard)
		if err != nil {
			return fmt.Errorf("dcw: dilog(%s): %w", k, err)
		}
		a.tab.Dilog[k] = v
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (a *Assembler) P() int64 { return a.space.P }

func (a *Assembler) Prec() int { return a.prec }

func (a *Assembler) Space() *primes.Space { return a.space }

func (a *Assembler) Tables() *Tables { return a.tab }

// Need is the precision map the tables were built from.
func (a *Assembler) Need() map[string]int { return a.need }

// Coefficient returns a_{l,q} mod p^prec for any primes l, q of the space. Pairs with
// l > q come from twisted antisymmetry, a_{l,q} = log l·log q − a_{q,l}, applied before
// rounding.
func (a *Assembler) Coefficient(l, q int64) (*big.Rat, error) {
	p := a.space.P
	if l == p || q == p {
		return nil, fmt.Errorf("%w: (%d,%d) with p=%d", ErrAuxiliaryPrime, l, q, p)
	}
	if !a.space.Contains(l) || !a.space.Contains(q) {
		return nil, fmt.Errorf("%w: (%d,%d) outside bound %d", ErrMissingDecomposition, l, q, a.space.Bound)
	}
	if l == q {
		return Coefficient(l, q, nil, a.prec, a.tab)
	}
	lo, hi := min(l, q), max(l, q)
	dec, ok := a.decomps[steinberg.Pair{L: lo, Q: hi}]
	if !ok {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrMissingDecomposition, lo, hi)
	}
	if l < q {
		return Coefficient(l, q, dec, a.prec, a.tab)
	}
	s, err := unreduced(lo, hi, dec, a.tab)
	if err != nil {
		return nil, err
	}
	ll, _ := a.tab.log(big.NewRat(l, 1))
	lq, _ := a.tab.log(big.NewRat(q, 1))
	b := new(big.Rat).Mul(ll, lq)
	return padic.Reduce(b.Sub(b, s), p, a.prec), nil
}

// All returns a_{l,q} for every ordered pair of primes in the space, l = q included.
func (a *Assembler) All() (map[steinberg.Pair]*big.Rat, error) {
	defer prof.Track(time.Now(), "dcw.coefficients")
	out := make(map[steinberg.Pair]*big.Rat, a.space.Len()*a.space.Len())
	for _, l := range a.space.Primes {
		for _, q := range a.space.Primes {
			c, err := a.Coefficient(l, q)
			if err != nil {
				return nil, err
			}
			out[steinberg.Pair{L: l, Q: q}] = c
		}
	}
	return out, nil
}

// Log returns log(x) correct to at least p^(prec+Guard), from the table when present.
func (a *Assembler) Log(x *big.Rat) (*big.Int, error) {
	if v, ok := a.tab.Log[steinberg.Key(x)]; ok {
		return v, nil
	}
	return a.ev.Log(x, a.prec+Guard)
}

// Dilog returns Li₂(t) correct to at least p^(prec+Guard), from the table when present.
func (a *Assembler) Dilog(t *big.Rat) (*big.Int, error) {
	if v, ok := a.tab.Dilog[steinberg.Key(t)]; ok {
		return v, nil
	}
	return a.ev.Dilog(t, a.prec+Guard)
}

// ThreeAdicCoefficients is the p = 3 fast path over all ordered pairs below bound.
func ThreeAdicCoefficients(bound int64, decomps map[steinberg.Pair]steinberg.Decomposition, prec int) (map[steinberg.Pair]*big.Rat, error) {
	a, err := NewThreeAdicAssembler(bound, decomps, prec, Options{})
	if err != nil {
		return nil, err
	}
	return a.All()
}

// Coefficients is the generic path for any odd prime p.
func Coefficients(bound, p int64, decomps map[steinberg.Pair]steinberg.Decomposition, prec int) (map[steinberg.Pair]*big.Rat, error) {
	a, err := NewGenericAssembler(bound, p, decomps, prec, Options{})
	if err != nil {
		return nil, err
	}
	return a.All()
}
