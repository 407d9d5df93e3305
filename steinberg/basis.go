package steinberg

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"polylog-dcw/internal/primes"
	"polylog-dcw/internal/ratmat"
	"polylog-dcw/prof"
)

// ErrInsufficientBound means the candidates for some q ran out before q's block
// reached full rank.
var ErrInsufficientBound = errors.New("steinberg: not enough independent Steinberg elements")

// BuildOpts configures Build.
type BuildOpts struct {
	Logger *zap.Logger
}

// ApplyDefaults fills unset fields.
func (opts *BuildOpts) ApplyDefaults() {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
}

// Decompositions builds the Steinberg basis for primes below bound (p excluded) and
// the decomposition of every generator [l]∧[q], l<q.
func Decompositions(bound, p int64) ([]*big.Rat, map[Pair]Decomposition, error) {
	res, err := Build(bound, p, BuildOpts{})
	if err != nil {
		return nil, nil, err
	}
	return res.Basis, res.Decompositions, nil
}

// Build runs the staircase construction. Processing the prime at index iq appends iq
// basis elements and iq pair columns; the inverse change-of-basis matrix is extended
// with V⁻¹ on the diagonal and −inv·U·V⁻¹ above it.
func Build(bound, p int64, opts BuildOpts) (*Result, error) {
	defer prof.Track(time.Now(), "steinberg.build")
	opts.ApplyDefaults()
	space, err := primes.NewSpace(bound, p)
	if err != nil {
		return nil, err
	}
	b := &builder{
		space: space,
		p:     p,
		log:   opts.Logger,
		seen:  make(map[string]bool),
	}
	for iq := 1; iq < space.Len(); iq++ {
		if err := b.addBlock(iq); err != nil {
			return nil, err
		}
	}
	res := &Result{Space: space, Basis: b.basis, Decompositions: b.readOff()}
	b.log.Debug("steinberg basis built",
		zap.Int64("bound", bound), zap.Int64("p", p),
		zap.Int("primes", space.Len()), zap.Int("basis", len(b.basis)))
	return res, nil
}

type builder struct {
	space *primes.Space
	p     int64
	log   *zap.Logger

	basis []*big.Rat
	seen  map[string]bool

	// inv[r][c] is the coefficient of basis element r in pair c; nil means zero.
	// Rows and columns are staircase ordered, so inv stays block upper triangular.
	inv    [][]*big.Rat
	oldDim int
	newDim int
}

// columns holds the contribution of one accepted candidate to the current block.
type columns struct {
	t *big.Rat
	v ratmat.Vector // coefficients on (l', q) for l' below q
	u ratmat.Vector // coefficients on finished pairs
}

func (b *builder) addBlock(iq int) error {
	q := b.space.Primes[iq]
	ech := ratmat.NewEchelon(iq)
	var accepted []columns
	pulled := 0
	for il := 0; il < iq && len(accepted) < iq; il++ {
		l := b.space.Primes[il]
		for t := range Candidates(l, q, b.p) {
			pulled++
			if b.seen[Key(t)] || containsT(accepted, t) {
				continue
			}
			col, err := b.candidateColumns(t, iq)
			if errors.Is(err, errAboveBlock) {
				continue
			}
			if err != nil {
				return fmt.Errorf("steinberg: candidate %s for (%d,%d): %w", t.RatString(), l, q, err)
			}
			if !ech.Add(col.v) {
				continue
			}
			accepted = append(accepted, col)
			if len(accepted) == iq {
				break
			}
		}
	}
	if len(accepted) < iq {
		return fmt.Errorf("%w: q=%d has %d of %d (bound %d too small?)",
			ErrInsufficientBound, q, len(accepted), iq, b.space.Bound)
	}
	b.log.Debug("block complete", zap.Int64("q", q), zap.Int("size", iq), zap.Int("pulled", pulled))
	return b.extend(accepted)
}

// errAboveBlock marks a candidate that mentions a prime not yet reached; it belongs to
// a later block and is skipped here.
var errAboveBlock = errors.New("steinberg: candidate involves a later prime")

func aboveBlock(exps map[int]int, iq int) bool {
	for idx := range exps {
		if idx > iq {
			return true
		}
	}
	return false
}

func containsT(cols []columns, t *big.Rat) bool {
	for _, c := range cols {
		if c.t.Cmp(t) == 0 {
			return true
		}
	}
	return false
}

// candidateColumns expands [t]∧[1−t] on the wedge basis. Writing t = q^e·t' and
// 1−t = q^f·s' with t', s' prime to q,
//
//	[t]∧[1−t] = [t']∧[s'] + (f·[t'] − e·[s'])∧[q].
//
// The second part gives the V column, the first the U column.
func (b *builder) candidateColumns(t *big.Rat, iq int) (columns, error) {
	one := big.NewRat(1, 1)
	ft, err := primes.Exponents(t, b.space.Primes)
	if err != nil {
		return columns{}, err
	}
	fs, err := primes.Exponents(new(big.Rat).Sub(one, t), b.space.Primes)
	if err != nil {
		return columns{}, err
	}
	e, f := ft[iq], fs[iq]
	delete(ft, iq)
	delete(fs, iq)
	if e == 0 && f == 0 {
		return columns{}, fmt.Errorf("element does not involve the prime at index %d", iq)
	}
	if aboveBlock(ft, iq) || aboveBlock(fs, iq) {
		return columns{}, errAboveBlock
	}
	v := make([]int64, iq)
	for j := 0; j < iq; j++ {
		v[j] = int64(f*ft[j] - e*fs[j])
	}
	u := make([]int64, primes.BlockStart(iq))
	for j := 1; j < iq; j++ {
		for i := 0; i < j; i++ {
			u[primes.PairIndex(i, j)] = int64(ft[i]*fs[j] - ft[j]*fs[i])
		}
	}
	return columns{t: t, v: ratmat.FromInts(v), u: ratmat.FromInts(u)}, nil
}

// extend appends the block for the accepted columns to the inverse matrix.
func (b *builder) extend(cols []columns) error {
	size := len(cols)
	vcols := make([]ratmat.Vector, size)
	for i, c := range cols {
		vcols[i] = c.v
	}
	vinv, err := ratmat.Inverse(ratmat.FromColumns(vcols))
	if err != nil {
		return fmt.Errorf("steinberg: block V: %w", err)
	}

	b.oldDim = b.newDim
	b.newDim = b.oldDim + size
	for r := range b.inv {
		b.inv[r] = append(b.inv[r], make([]*big.Rat, size)...)
	}
	for i := 0; i < size; i++ {
		row := make([]*big.Rat, b.newDim)
		for j := 0; j < size; j++ {
			if vinv[i][j].Sign() != 0 {
				row[b.oldDim+j] = vinv[i][j]
			}
		}
		b.inv = append(b.inv, row)
		b.basis = append(b.basis, cols[i].t)
		b.seen[Key(cols[i].t)] = true
	}
	if b.oldDim == 0 {
		return nil
	}

	// W = U·V⁻¹ on the finished pairs, then rows above get −inv_old·W.
	ucols := make([]ratmat.Vector, size)
	for i, c := range cols {
		ucols[i] = c.u
	}
	w := ratmat.Mul(ratmat.FromColumns(ucols), vinv)
	tmp := new(big.Rat)
	for r := 0; r < b.oldDim; r++ {
		row := b.inv[r]
		for k := 0; k < b.oldDim; k++ {
			if row[k] == nil {
				continue
			}
			for c := 0; c < size; c++ {
				if w[k][c].Sign() == 0 {
					continue
				}
				tmp.Mul(row[k], w[k][c])
				cell := row[b.oldDim+c]
				if cell == nil {
					cell = new(big.Rat)
					row[b.oldDim+c] = cell
				}
				cell.Sub(cell, tmp)
			}
		}
		for c := 0; c < size; c++ {
			if cell := row[b.oldDim+c]; cell != nil && cell.Sign() == 0 {
				row[b.oldDim+c] = nil
			}
		}
	}
	return nil
}

// readOff turns the columns of the inverse matrix into decompositions.
func (b *builder) readOff() map[Pair]Decomposition {
	out := make(map[Pair]Decomposition, b.space.Dim())
	ps := b.space.Primes
	for j := 1; j < len(ps); j++ {
		for i := 0; i < j; i++ {
			col := primes.PairIndex(i, j)
			var d Decomposition
			for r := 0; r < len(b.inv); r++ {
				c := b.inv[r][col]
				if c == nil || c.Sign() == 0 {
					continue
				}
				d = append(d, Term{Index: r, T: b.basis[r], C: new(big.Rat).Set(c)})
			}
			out[Pair{L: ps[i], Q: ps[j]}] = d
		}
	}
	return out
}
