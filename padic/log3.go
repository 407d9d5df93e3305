package padic

import (
	"fmt"
	"math/big"
	"sync"
)

// Evaluator is a p-adic log/dilog backend. Both methods return the representative of
// the value in [0, p^prec).
type Evaluator interface {
	P() int64
	Log(z *big.Rat, prec int) (*big.Int, error)
	Dilog(z *big.Rat, prec int) (*big.Int, error)
}

// logSeries sums −Σ_{k≥1} u^k/k mod p^prec for v_p(u) ≥ 1.
func logSeries(u *big.Rat, p int64, prec int, inv *InverseCache) (*big.Int, error) {
	if u.Sign() == 0 {
		return new(big.Int), nil
	}
	unit, m := UnitPart(u, p)
	if m < 1 {
		return nil, fmt.Errorf("%w: 1-z = %s is a unit", ErrResidue, u.RatString())
	}
	mod := Pow(p, prec)
	U, err := ToInt(unit, p, prec)
	if err != nil {
		return nil, err
	}
	stop := stopIndex(p, m, prec, 1)
	sum := new(big.Int)
	uk := big.NewInt(1)
	term := new(big.Int)
	for k := 1; k < stop; k++ {
		uk.Mul(uk, U).Mod(uk, mod)
		vk, ku := Split(int64(k), p)
		e := m*k - vk
		if e >= prec {
			continue
		}
		term.Mul(uk, inv.Inverse(ku, prec))
		term.Mul(term, Pow(p, e))
		sum.Sub(sum, term)
	}
	return sum.Mod(sum, mod), nil
}

// Engine3 is the p = 3 evaluator. The dilogarithm is expanded around 2, the only
// residue class where both z and 1−z are units, from a precomputed coefficient table.
type Engine3 struct {
	inv *InverseCache

	mu     sync.Mutex
	coeffs *DilogCoeffs
}

func NewEngine3() *Engine3 {
	return &Engine3{inv: NewInverseCache(3)}
}

func (e *Engine3) P() int64 { return 3 }

// Log3 returns log(z) mod 3^prec. z ≡ 2 mod 3 is folded onto −z, since log(−1) = 0.
func (e *Engine3) Log3(z *big.Rat, prec int) (*big.Int, error) {
	if Valuation(z, 3) != 0 {
		return nil, fmt.Errorf("%w: log3(%s)", ErrNotUnit, z.RatString())
	}
	r, err := ToInt(z, 3, 1)
	if err != nil {
		return nil, err
	}
	w := new(big.Rat).Set(z)
	if r.Int64() == 2 {
		w.Neg(w)
	}
	u := new(big.Rat).Sub(big.NewRat(1, 1), w)
	return logSeries(u, 3, prec, e.inv)
}

// DilogCoeffs holds b_k of Li₂(2−y) = Σ_{k≥2} b_k·y^k scaled by 3^Shift, as integers
// modulo 3^(Prec+Shift). B[0] and B[1] are zero.
type DilogCoeffs struct {
	Prec  int
	Shift int
	B     []*big.Int
}

// PrecomputeDilogCoeffs builds the table needed to evaluate Dilog3 at any precision up
// to prec. With c_1 = 0, c_{k+1} = (c_k + 1/k)/2 and b_k = −c_k/k; the valuations of
// c_k and 1/k are at least −⌊log₃ K⌋, so scaling by 3^{2⌊log₃ K⌋} keeps them integral.
func (e *Engine3) PrecomputeDilogCoeffs(prec int) *DilogCoeffs {
	size := stopIndex(3, 1, prec, 2)
	s1 := floorLog(3, int64(size))
	d := &DilogCoeffs{Prec: prec, Shift: 2 * s1, B: make([]*big.Int, size)}
	w := prec + d.Shift
	mod := Pow(3, w)
	inv2 := e.inv.Inverse(2, w)
	c := new(big.Int)
	for k := 1; k < size; k++ {
		vk, ku := Split(int64(k), 3)
		// 3^{s1}/k
		scaledInv := new(big.Int).Mul(Pow(3, s1-vk), e.inv.Inverse(ku, w))
		b := new(big.Int)
		if k >= 2 {
			b.Mul(c, scaledInv)
			b.Neg(b).Mod(b, mod)
		}
		d.B[k] = b
		c.Add(c, scaledInv)
		c.Mul(c, inv2).Mod(c, mod)
	}
	d.B[0] = new(big.Int)
	return d
}

// Dilog3 returns Li₂(z) mod 3^prec for z ≡ 2 mod 3.
func (e *Engine3) Dilog3(z *big.Rat, prec int, coeffs *DilogCoeffs) (*big.Int, error) {
	if coeffs == nil || coeffs.Prec < prec {
		return nil, fmt.Errorf("%w: need precision %d", ErrTableTooShort, prec)
	}
	if Valuation(z, 3) != 0 {
		return nil, fmt.Errorf("%w: dilog3(%s)", ErrNotUnit, z.RatString())
	}
	y := new(big.Rat).Sub(big.NewRat(2, 1), z)
	if y.Sign() == 0 {
		return new(big.Int), nil
	}
	m := Valuation(y, 3)
	if m < 1 {
		return nil, fmt.Errorf("%w: dilog3(%s) needs z ≡ 2 mod 3", ErrResidue, z.RatString())
	}
	stop := stopIndex(3, m, prec, 2)
	if stop > len(coeffs.B) {
		return nil, fmt.Errorf("%w: index %d, table has %d", ErrTableTooShort, stop, len(coeffs.B))
	}
	w := coeffs.Prec + coeffs.Shift
	mod := Pow(3, w)
	Y, err := ToInt(y, 3, w)
	if err != nil {
		return nil, err
	}
	sum := new(big.Int)
	yk := new(big.Int).Set(Y)
	term := new(big.Int)
	for k := 2; k < stop; k++ {
		yk.Mul(yk, Y).Mod(yk, mod)
		term.Mul(coeffs.B[k], yk)
		sum.Add(sum, term)
	}
	sum.Mod(sum, mod)
	sum.Quo(sum, Pow(3, coeffs.Shift))
	return sum.Mod(sum, Pow(3, prec)), nil
}

func (e *Engine3) Log(z *big.Rat, prec int) (*big.Int, error) { return e.Log3(z, prec) }

// Dilog evaluates Li₂ with the engine's own table, growing it when prec exceeds it.
func (e *Engine3) Dilog(z *big.Rat, prec int) (*big.Int, error) {
	return e.Dilog3(z, prec, e.table(prec))
}

func (e *Engine3) table(prec int) *DilogCoeffs {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.coeffs == nil || e.coeffs.Prec < prec {
		e.coeffs = e.PrecomputeDilogCoeffs(prec)
	}
	return e.coeffs
}
