package ratmat

import (
	"errors"
	"math/big"
	"testing"
)

func ratMatrix(rows [][]int64) Matrix {
	m := make(Matrix, len(rows))
	for i, r := range rows {
		m[i] = FromInts(r)
	}
	return m
}

func TestInverseTimesMatrixIsIdentity(t *testing.T) {
	m := ratMatrix([][]int64{{-1, -3}, {1, 0}})
	inv, err := Inverse(m)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]*big.Rat{
		{big.NewRat(0, 1), big.NewRat(1, 1)},
		{big.NewRat(-1, 3), big.NewRat(-1, 3)},
	}
	for i := range want {
		for j := range want[i] {
			if inv[i][j].Cmp(want[i][j]) != 0 {
				t.Fatalf("inv[%d][%d] = %s, want %s", i, j, inv[i][j].RatString(), want[i][j].RatString())
			}
		}
	}
	id := Mul(m, inv)
	for i := range id {
		for j := range id[i] {
			exp := int64(0)
			if i == j {
				exp = 1
			}
			if id[i][j].Cmp(big.NewRat(exp, 1)) != 0 {
				t.Fatalf("m*inv is not the identity at (%d,%d): %s", i, j, id[i][j].RatString())
			}
		}
	}
}

func TestInverseSingular(t *testing.T) {
	m := ratMatrix([][]int64{{1, 2}, {2, 4}})
	if _, err := Inverse(m); !errors.Is(err, ErrSingular) {
		t.Fatalf("err = %v, want ErrSingular", err)
	}
}

func TestEchelonRejectsDependentVectors(t *testing.T) {
	e := NewEchelon(3)
	if !e.Add(FromInts([]int64{-1, 1, 0})) {
		t.Fatal("first vector rejected")
	}
	if e.Add(FromInts([]int64{2, -2, 0})) {
		t.Fatal("multiple of first vector accepted")
	}
	if !e.Independent(FromInts([]int64{-3, 0, 0})) {
		t.Fatal("independent vector reported dependent")
	}
	if !e.Add(FromInts([]int64{-3, 0, 0})) {
		t.Fatal("independent vector rejected")
	}
	if e.Add(FromInts([]int64{5, 7, 0})) {
		t.Fatal("vector in the span accepted")
	}
	if e.Rank() != 2 {
		t.Fatalf("rank = %d, want 2", e.Rank())
	}
}

func TestRank(t *testing.T) {
	m := ratMatrix([][]int64{{1, 2, 3}, {2, 4, 6}, {0, 1, 1}})
	if r := Rank(m); r != 2 {
		t.Fatalf("rank = %d, want 2", r)
	}
}
