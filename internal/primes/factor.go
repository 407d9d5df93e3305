package primes

import (
	"errors"
	"fmt"
	"iter"
	"math/big"
)

var (
	ErrZero      = errors.New("primes: cannot factor zero")
	ErrNotSmooth = errors.New("primes: rational has a prime factor outside the list")
)

// Factor yields (prime index, exponent) for x over the ordered list primes, skipping
// zero exponents. It stops as soon as the remaining numerator and denominator are both 1.
// Primes of x missing from the list are dropped silently; callers that need to detect
// that use Exponents. The sign of x is ignored.
func Factor(x *big.Rat, primes []int64) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		if x.Sign() == 0 {
			return
		}
		num := new(big.Int).Abs(x.Num())
		den := new(big.Int).Set(x.Denom())
		walk(num, den, primes, yield)
	}
}

// Exponents collects Factor into a map and checks that nothing was dropped.
func Exponents(x *big.Rat, primes []int64) (map[int]int, error) {
	if x.Sign() == 0 {
		return nil, ErrZero
	}
	num := new(big.Int).Abs(x.Num())
	den := new(big.Int).Set(x.Denom())
	out := make(map[int]int)
	walk(num, den, primes, func(i, e int) bool {
		out[i] = e
		return true
	})
	if !isOne(num) || !isOne(den) {
		return nil, fmt.Errorf("%w: %s", ErrNotSmooth, x.RatString())
	}
	return out, nil
}

// walk divides num and den in place; on return they hold the cofactor left over.
func walk(num, den *big.Int, primes []int64, yield func(int, int) bool) {
	bp := new(big.Int)
	for i, p := range primes {
		if isOne(num) && isOne(den) {
			return
		}
		bp.SetInt64(p)
		e := strip(num, bp) - strip(den, bp)
		if e == 0 {
			continue
		}
		if !yield(i, e) {
			return
		}
	}
}

// strip removes every factor p from n and returns how many there were.
func strip(n, p *big.Int) int {
	if n.Sign() == 0 {
		return 0
	}
	q, r := new(big.Int), new(big.Int)
	e := 0
	for {
		q.QuoRem(n, p, r)
		if r.Sign() != 0 {
			return e
		}
		n.Set(q)
		e++
	}
}

func isOne(n *big.Int) bool { return n.IsInt64() && n.Int64() == 1 }
