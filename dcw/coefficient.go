// Package dcw assembles the Dan-Cohen–Wewers coefficients a_{l,q} ∈ ℚ_p from the
// Steinberg decompositions and p-adic log/dilog values, and evaluates the extra-point
// criterion on top of them.
package dcw

import (
	"errors"
	"fmt"
	"math/big"

	"polylog-dcw/padic"
	"polylog-dcw/steinberg"
)

var (
	ErrAuxiliaryPrime       = errors.New("dcw: prime equals the auxiliary prime")
	ErrMissingDecomposition = errors.New("dcw: no decomposition for pair")
	ErrMissingValue         = errors.New("dcw: log or dilog table has no entry")
)

// Guard is the number of p-adic digits every log and dilog is evaluated beyond the
// precision the coefficient needs from it.
const Guard = 2

var half = big.NewRat(1, 2)

// PrecisionMap returns, for every Steinberg element t, the precision its logs and dilog
// must carry so that c·Li₂(t) is still right mod p^prec for the most negative v_p(c)
// attached to t: prec − min(0, min v_p(c)).
func PrecisionMap(decomps map[steinberg.Pair]steinberg.Decomposition, p int64, prec int) map[string]int {
	need := make(map[string]int)
	for _, dec := range decomps {
		for _, term := range dec {
			n := prec
			if v := padic.Valuation(term.C, p); v < 0 {
				n = prec - v
			}
			k := steinberg.Key(term.T)
			if n > need[k] {
				need[k] = n
			}
		}
	}
	return need
}

// Tables carries the log and dilog values a coefficient is assembled from, keyed by
// steinberg.Key of the argument.
type Tables struct {
	P     int64
	Log   map[string]*big.Int
	Dilog map[string]*big.Int
}

func (tab *Tables) log(x *big.Rat) (*big.Rat, error) {
	v, ok := tab.Log[steinberg.Key(x)]
	if !ok {
		return nil, fmt.Errorf("%w: log(%s)", ErrMissingValue, x.RatString())
	}
	return new(big.Rat).SetInt(v), nil
}

func (tab *Tables) dilog(x *big.Rat) (*big.Rat, error) {
	v, ok := tab.Dilog[steinberg.Key(x)]
	if !ok {
		return nil, fmt.Errorf("%w: dilog(%s)", ErrMissingValue, x.RatString())
	}
	return new(big.Rat).SetInt(v), nil
}

// Coefficient returns a_{l,q} reduced to p^prec:
//
//	a_{l,q} = ½·log l·log q + Σ c·½·(−2·Li₂(t) − log t·log(1−t))
//
// with the sum over dec, skipped when l = q.
func Coefficient(l, q int64, dec steinberg.Decomposition, prec int, tab *Tables) (*big.Rat, error) {
	s, err := unreduced(l, q, dec, tab)
	if err != nil {
		return nil, err
	}
	return padic.Reduce(s, tab.P, prec), nil
}

func unreduced(l, q int64, dec steinberg.Decomposition, tab *Tables) (*big.Rat, error) {
	if l == tab.P || q == tab.P {
		return nil, fmt.Errorf("%w: (%d,%d) with p=%d", ErrAuxiliaryPrime, l, q, tab.P)
	}
	ll, err := tab.log(big.NewRat(l, 1))
	if err != nil {
		return nil, err
	}
	lq, err := tab.log(big.NewRat(q, 1))
	if err != nil {
		return nil, err
	}
	s := new(big.Rat).Mul(ll, lq)
	s.Mul(s, half)
	if l == q {
		return s, nil
	}
	one := big.NewRat(1, 1)
	for _, term := range dec {
		lt, err := tab.log(term.T)
		if err != nil {
			return nil, err
		}
		ls, err := tab.log(new(big.Rat).Sub(one, term.T))
		if err != nil {
			return nil, err
		}
		d, err := tab.dilog(term.T)
		if err != nil {
			return nil, err
		}
		// −2·Li₂(t) − log t·log(1−t)
		x := new(big.Rat).Mul(lt, ls)
		d.Add(d, d)
		x.Add(x, d).Neg(x)
		x.Mul(x, half).Mul(x, term.C)
		s.Add(s, x)
	}
	return s, nil
}
