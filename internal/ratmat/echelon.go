package ratmat

import "math/big"

// Echelon keeps a row-echelon basis of the vectors accepted so far, so that the rank
// after adding one more vector is known without redoing the elimination.
type Echelon struct {
	dim    int
	rows   []Vector
	pivots []int
}

// NewEchelon starts an empty echelon basis for vectors of length dim.
func NewEchelon(dim int) *Echelon {
	return &Echelon{dim: dim}
}

// Rank is the number of independent vectors accepted.
func (e *Echelon) Rank() int { return len(e.rows) }

// Independent reports whether v would raise the rank. v is not modified.
func (e *Echelon) Independent(v Vector) bool {
	return !e.reduce(v).IsZero()
}

// Add inserts v if it raises the rank and reports whether it did.
func (e *Echelon) Add(v Vector) bool {
	if len(v) != e.dim {
		panic("ratmat: vector length does not match echelon dimension")
	}
	r := e.reduce(v)
	piv := -1
	for i, x := range r {
		if x.Sign() != 0 {
			piv = i
			break
		}
	}
	if piv < 0 {
		return false
	}
	inv := new(big.Rat).Inv(r[piv])
	for i := piv; i < len(r); i++ {
		r[i].Mul(r[i], inv)
	}
	e.rows = append(e.rows, r)
	e.pivots = append(e.pivots, piv)
	return true
}

// reduce eliminates the stored pivots from a copy of v.
func (e *Echelon) reduce(v Vector) Vector {
	r := v.clone()
	tmp := new(big.Rat)
	for k, row := range e.rows {
		piv := e.pivots[k]
		if r[piv].Sign() == 0 {
			continue
		}
		f := new(big.Rat).Set(r[piv])
		for i := piv; i < len(r); i++ {
			if row[i].Sign() == 0 {
				continue
			}
			r[i].Sub(r[i], tmp.Mul(f, row[i]))
		}
	}
	return r
}
