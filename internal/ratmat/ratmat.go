// Package ratmat provides the small amount of exact rational linear algebra the basis
// builder needs: an incremental rank test and Gauss-Jordan inversion.
package ratmat

import (
	"errors"
	"math/big"
)

var ErrSingular = errors.New("ratmat: matrix is singular")

// Vector is a dense rational vector. Entries are never nil.
type Vector []*big.Rat

// NewVector returns the zero vector of length n.
func NewVector(n int) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = new(big.Rat)
	}
	return v
}

// FromInts lifts an integer vector.
func FromInts(a []int64) Vector {
	v := make(Vector, len(a))
	for i, x := range a {
		v[i] = new(big.Rat).SetInt64(x)
	}
	return v
}

// IsZero reports whether all entries vanish.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x.Sign() != 0 {
			return false
		}
	}
	return true
}

func (v Vector) clone() Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = new(big.Rat).Set(x)
	}
	return out
}

// Matrix is row-major.
type Matrix [][]*big.Rat

// NewMatrix returns a rows×cols zero matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = NewVector(cols)
	}
	return m
}

// FromColumns assembles a matrix whose j-th column is cols[j].
func FromColumns(cols []Vector) Matrix {
	if len(cols) == 0 {
		return Matrix{}
	}
	m := NewMatrix(len(cols[0]), len(cols))
	for j, c := range cols {
		for i, x := range c {
			m[i][j].Set(x)
		}
	}
	return m
}

// Mul returns a·b.
func Mul(a, b Matrix) Matrix {
	if len(a) == 0 || len(b) == 0 {
		return NewMatrix(len(a), 0)
	}
	out := NewMatrix(len(a), len(b[0]))
	tmp := new(big.Rat)
	for i := range a {
		for k, aik := range a[i] {
			if aik.Sign() == 0 {
				continue
			}
			for j, bkj := range b[k] {
				if bkj.Sign() == 0 {
					continue
				}
				out[i][j].Add(out[i][j], tmp.Mul(aik, bkj))
			}
		}
	}
	return out
}

// Inverse computes m⁻¹ by Gauss-Jordan elimination with the first nonzero pivot.
func Inverse(m Matrix) (Matrix, error) {
	n := len(m)
	aug := make([]Vector, n)
	for i := range m {
		if len(m[i]) != n {
			return nil, errors.New("ratmat: matrix is not square")
		}
		row := NewVector(2 * n)
		for j := 0; j < n; j++ {
			row[j].Set(m[i][j])
		}
		row[n+i].SetInt64(1)
		aug[i] = row
	}
	tmp := new(big.Rat)
	for c := 0; c < n; c++ {
		piv := -1
		for r := c; r < n; r++ {
			if aug[r][c].Sign() != 0 {
				piv = r
				break
			}
		}
		if piv < 0 {
			return nil, ErrSingular
		}
		aug[c], aug[piv] = aug[piv], aug[c]
		inv := new(big.Rat).Inv(aug[c][c])
		for j := c; j < 2*n; j++ {
			aug[c][j].Mul(aug[c][j], inv)
		}
		for r := 0; r < n; r++ {
			if r == c || aug[r][c].Sign() == 0 {
				continue
			}
			f := new(big.Rat).Set(aug[r][c])
			for j := c; j < 2*n; j++ {
				if aug[c][j].Sign() == 0 {
					continue
				}
				aug[r][j].Sub(aug[r][j], tmp.Mul(f, aug[c][j]))
			}
		}
	}
	out := make(Matrix, n)
	for i := range aug {
		out[i] = aug[i][n:]
	}
	return out, nil
}

// Rank returns the rank of m.
func Rank(m Matrix) int {
	if len(m) == 0 {
		return 0
	}
	e := NewEchelon(len(m[0]))
	for _, row := range m {
		e.Add(Vector(row))
	}
	return e.Rank()
}
