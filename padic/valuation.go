// Package padic evaluates p-adic logarithms and dilogarithms of rational units to a
// guaranteed absolute precision using exact integer arithmetic modulo p^prec.
//
// Values are carried as *big.Int representatives in [0, p^prec) or, once a coefficient
// with a negative valuation has been applied, as *big.Rat. There is no p-adic number
// type; callers track precision themselves.
package padic

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

var (
	ErrNotUnit       = errors.New("padic: value is not a p-adic unit")
	ErrResidue       = errors.New("padic: value is in the wrong residue class")
	ErrTableTooShort = errors.New("padic: dilogarithm coefficient table too short")
	ErrNegative      = errors.New("padic: value has negative valuation")
)

// Infinity is the valuation of zero.
const Infinity = math.MaxInt32

// Valuation returns v_p(x), or Infinity for x = 0.
func Valuation(x *big.Rat, p int64) int {
	if x.Sign() == 0 {
		return Infinity
	}
	vn, _ := splitBig(x.Num(), p)
	vd, _ := splitBig(x.Denom(), p)
	return vn - vd
}

// ValuationInt returns v_p(n), or Infinity for n = 0.
func ValuationInt(n *big.Int, p int64) int {
	if n.Sign() == 0 {
		return Infinity
	}
	v, _ := splitBig(n, p)
	return v
}

// splitBig writes n = p^v·u with p ∤ u. n must be nonzero.
func splitBig(n *big.Int, p int64) (int, *big.Int) {
	bp := big.NewInt(p)
	u := new(big.Int).Set(n)
	q, r := new(big.Int), new(big.Int)
	v := 0
	for {
		q.QuoRem(u, bp, r)
		if r.Sign() != 0 {
			return v, u
		}
		u.Set(q)
		v++
	}
}

// UnitPart returns x·p^{−v_p(x)} together with v_p(x). x must be nonzero.
func UnitPart(x *big.Rat, p int64) (*big.Rat, int) {
	v := Valuation(x, p)
	u := new(big.Rat).Set(x)
	scale := new(big.Rat).SetInt(Pow(p, abs(v)))
	if v > 0 {
		u.Quo(u, scale)
	} else if v < 0 {
		u.Mul(u, scale)
	}
	return u, v
}

// ToInt maps x with v_p(x) ≥ 0 to its representative in [0, p^prec).
func ToInt(x *big.Rat, p int64, prec int) (*big.Int, error) {
	if x.Sign() == 0 {
		return new(big.Int), nil
	}
	mod := Pow(p, prec)
	den := new(big.Int).Mod(x.Denom(), mod)
	if den.ModInverse(den, mod) == nil {
		return nil, fmt.Errorf("%w: %s", ErrNegative, x.RatString())
	}
	out := new(big.Int).Mul(x.Num(), den)
	return out.Mod(out, mod), nil
}

// Reduce rounds x to absolute precision p^prec. For v_p(x) ≥ 0 the result is the
// integer representative mod p^prec; for v < 0 it is p^v times the unit part reduced
// mod p^{prec−v}, so no digit of x above p^prec is lost.
func Reduce(x *big.Rat, p int64, prec int) *big.Rat {
	if x.Sign() == 0 {
		return new(big.Rat)
	}
	u, v := UnitPart(x, p)
	if v >= 0 {
		if v >= prec {
			return new(big.Rat)
		}
		r, _ := ToInt(x, p, prec)
		return new(big.Rat).SetInt(r)
	}
	r, _ := ToInt(u, p, prec-v)
	out := new(big.Rat).SetInt(r)
	return out.Quo(out, new(big.Rat).SetInt(Pow(p, -v)))
}

// Equal reports whether x ≡ y mod p^prec.
func Equal(x, y *big.Rat, p int64, prec int) bool {
	return Valuation(new(big.Rat).Sub(x, y), p) >= prec
}

type powKey struct {
	p int64
	n int
}

var pows memo[powKey, *big.Int]

// Pow returns p^n. The result is shared and must not be modified.
func Pow(p int64, n int) *big.Int {
	return pows.get(powKey{p, n}, func() *big.Int {
		return new(big.Int).Exp(big.NewInt(p), big.NewInt(int64(n)), nil)
	})
}

type splitKey struct{ k, p int64 }

type split struct {
	v    int
	unit int64
}

var splits memo[splitKey, split]

// Split writes the positive integer k as p^v·u with p ∤ u.
func Split(k, p int64) (v int, unit int64) {
	s := splits.get(splitKey{k, p}, func() split {
		s := split{unit: k}
		for s.unit%p == 0 {
			s.unit /= p
			s.v++
		}
		return s
	})
	return s.v, s.unit
}

// floorLog returns the largest s with p^s ≤ k.
func floorLog(p, k int64) int {
	s := 0
	for x := p; x <= k; x *= p {
		s++
		if x > math.MaxInt64/p {
			break
		}
	}
	return s
}

// powExceeds reports whether p^d > bound.
func powExceeds(p int64, d int, bound int64) bool {
	x := int64(1)
	for i := 0; i < d; i++ {
		x *= p
		if x > bound {
			return true
		}
	}
	return x > bound
}

// stopIndex is the first k ≥ 1 at which a series whose k-th term has valuation at
// least m·k − c·log_p k can be truncated at precision prec: m·k ≥ prec and
// p^{m·k−prec} > k^c.
func stopIndex(p int64, m, prec, c int) int {
	for k := 1; ; k++ {
		if m*k < prec {
			continue
		}
		bound := int64(k)
		if c == 2 {
			bound *= int64(k)
		}
		if powExceeds(p, m*k-prec, bound) {
			return k
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
