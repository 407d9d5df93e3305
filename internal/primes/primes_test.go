package primes

import (
	"errors"
	"math/big"
	"testing"
)

func TestNewSpaceSkipsAuxiliaryPrime(t *testing.T) {
	s, err := NewSpace(20, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{2, 5, 7, 11, 13, 17, 19}
	if len(s.Primes) != len(want) {
		t.Fatalf("primes = %v, want %v", s.Primes, want)
	}
	for i, q := range want {
		if s.Primes[i] != q {
			t.Fatalf("primes = %v, want %v", s.Primes, want)
		}
		if j, ok := s.Index(q); !ok || j != i {
			t.Fatalf("Index(%d) = %d,%v want %d", q, j, ok, i)
		}
	}
	if s.Contains(3) {
		t.Fatal("auxiliary prime must not be indexed")
	}
	if s.Dim() != 21 {
		t.Fatalf("Dim = %d, want 21", s.Dim())
	}
}

func TestNewSpaceRejectsBadAuxiliary(t *testing.T) {
	for _, p := range []int64{2, 9, 1} {
		if _, err := NewSpace(20, p); err == nil {
			t.Fatalf("p=%d accepted", p)
		}
	}
}

func TestPairIndexStaircase(t *testing.T) {
	seen := make(map[int]bool)
	n := 6
	next := 0
	for j := 1; j < n; j++ {
		if BlockStart(j) != next {
			t.Fatalf("BlockStart(%d) = %d, want %d", j, BlockStart(j), next)
		}
		for i := 0; i < j; i++ {
			k := PairIndex(i, j)
			if k != next || seen[k] {
				t.Fatalf("PairIndex(%d,%d) = %d, want %d", i, j, k, next)
			}
			seen[k] = true
			next++
		}
	}
	if PairIndex(3, 1) != PairIndex(1, 3) {
		t.Fatal("PairIndex must be symmetric")
	}
}

func TestFactorSignedExponents(t *testing.T) {
	list := []int64{2, 5, 7}
	got := make(map[int]int)
	for i, e := range Factor(big.NewRat(-5, 56), list) {
		got[i] = e
	}
	// -5/56 = -5 / (2^3 * 7)
	want := map[int]int{0: -3, 1: 1, 2: -1}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestFactorStopsEarly(t *testing.T) {
	calls := 0
	for range Factor(big.NewRat(4, 1), []int64{2, 5, 7}) {
		calls++
	}
	if calls != 1 {
		t.Fatalf("yielded %d pairs, want 1", calls)
	}
	for i := range Factor(big.NewRat(50, 1), []int64{2, 5, 7}) {
		if i == 0 {
			break
		}
	}
}

func TestExponentsDetectsMissingPrime(t *testing.T) {
	_, err := Exponents(big.NewRat(3, 2), []int64{2, 5})
	if !errors.Is(err, ErrNotSmooth) {
		t.Fatalf("err = %v, want ErrNotSmooth", err)
	}
	if _, err := Exponents(new(big.Rat), []int64{2}); !errors.Is(err, ErrZero) {
		t.Fatalf("err = %v, want ErrZero", err)
	}
	m, err := Exponents(big.NewRat(-1, 1), []int64{2})
	if err != nil || len(m) != 0 {
		t.Fatalf("Exponents(-1) = %v, %v", m, err)
	}
}
