package padic

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/lattigo/v4/ring"
)

// Field evaluates log and Li₂ for any odd prime p. The dilogarithm starts from the
// Teichmüller point ω ≡ z mod p, where Li₂(ω) has a closed form in terms of
// Li_{−i}(ω), and adds the Taylor expansion of ∫_ω^z −log(1−s)/s ds.
type Field struct {
	p   int64
	inv *InverseCache

	dilogs memo[dilogKey, *big.Int]
	bases  memo[baseKey, *big.Int]
}

type dilogKey struct {
	z    string
	prec int
}

type baseKey struct {
	residue int64
	prec    int
}

func NewField(p int64) (*Field, error) {
	if p < 3 || !ring.IsPrime(uint64(p)) {
		return nil, fmt.Errorf("padic: p must be an odd prime, got %d", p)
	}
	return &Field{p: p, inv: NewInverseCache(p)}, nil
}

func (f *Field) P() int64 { return f.p }

// Log returns log(z) = log(z^{p−1})/(p−1) mod p^prec.
func (f *Field) Log(z *big.Rat, prec int) (*big.Int, error) {
	if Valuation(z, f.p) != 0 {
		return nil, fmt.Errorf("%w: log(%s)", ErrNotUnit, z.RatString())
	}
	w := new(big.Rat).SetInt64(1)
	for i := int64(1); i < f.p; i++ {
		w.Mul(w, z)
	}
	u := w.Sub(big.NewRat(1, 1), w)
	s, err := logSeries(u, f.p, prec, f.inv)
	if err != nil {
		return nil, err
	}
	s.Mul(s, f.inv.Inverse(f.p-1, prec))
	return s.Mod(s, Pow(f.p, prec)), nil
}

// Dilog returns Li₂(z) mod p^prec for z and 1−z units. Results are cached by (z, prec).
func (f *Field) Dilog(z *big.Rat, prec int) (*big.Int, error) {
	if Valuation(z, f.p) != 0 {
		return nil, fmt.Errorf("%w: dilog(%s)", ErrNotUnit, z.RatString())
	}
	r, err := ToInt(z, f.p, 1)
	if err != nil {
		return nil, err
	}
	if r.Int64() == 1 {
		return nil, fmt.Errorf("%w: dilog(%s) with z ≡ 1 mod %d", ErrResidue, z.RatString(), f.p)
	}
	key := dilogKey{z.RatString(), prec}
	if v, ok := f.dilogs.lookup(key); ok {
		return v, nil
	}
	v, err := f.dilog(z, r.Int64(), prec)
	if err != nil {
		return nil, err
	}
	return f.dilogs.get(key, func() *big.Int { return v }), nil
}

func (f *Field) dilog(z *big.Rat, residue int64, prec int) (*big.Int, error) {
	p := f.p
	// m = 1 is the slowest convergence, so its truncation bounds the scaling for any z.
	s1 := floorLog(p, int64(stopIndex(p, 1, prec, 2)))
	shift := 2 * s1
	w := prec + shift + 2
	mod := Pow(p, w)

	omega := teichmuller(residue, p, w)
	base := f.teichmullerDilog(residue, omega, w)

	Z, err := ToInt(z, p, w)
	if err != nil {
		return nil, err
	}
	y := new(big.Int).Sub(Z, omega)
	y.Mod(y, mod)
	if y.Sign() == 0 {
		return new(big.Int).Mod(base, Pow(p, prec)), nil
	}
	m := ValuationInt(y, p)
	stop := stopIndex(p, m, prec, 2)

	// Taylor coefficients of Li₂ at ω: c_j = −ω⁻¹·D_j, D_j = −ω⁻¹·D_{j−1} + L_j with
	// L_0 = log(1−ω), L_n = −(1−ω)^{−n}/n. Everything below is scaled by p^{s1}.
	oneMinus := new(big.Int).Sub(big.NewInt(1), omega)
	oneMinus.Mod(oneMinus, mod)
	logOneMinus, err := f.Log(new(big.Rat).SetInt(oneMinus), w)
	if err != nil {
		return nil, err
	}
	iom := new(big.Int).ModInverse(omega, mod)
	negIom := new(big.Int).Neg(iom)
	negIom.Mod(negIom, mod)
	i1m := new(big.Int).ModInverse(oneMinus, mod)

	d := new(big.Int).Mul(logOneMinus, Pow(p, s1))
	d.Mod(d, mod)
	ipow := big.NewInt(1)
	yk := big.NewInt(1)
	total := new(big.Int)
	c, t := new(big.Int), new(big.Int)
	for k := 1; k < stop; k++ {
		if j := k - 1; j >= 1 {
			ipow.Mul(ipow, i1m).Mod(ipow, mod)
			vj, ju := Split(int64(j), p)
			t.Mul(ipow, f.inv.Inverse(ju, w))
			t.Mul(t, Pow(p, s1-vj))
			d.Mul(d, negIom)
			d.Sub(d, t).Mod(d, mod)
		}
		c.Mul(negIom, d)
		yk.Mul(yk, y).Mod(yk, mod)
		vk, ku := Split(int64(k), p)
		t.Mul(c, yk)
		t.Mul(t, f.inv.Inverse(ku, w))
		t.Mul(t, Pow(p, s1-vk))
		total.Add(total, t).Mod(total, mod)
	}
	total.Quo(total, Pow(p, shift))
	total.Add(total, base)
	return total.Mod(total, Pow(p, prec)), nil
}

// teichmuller returns the (p−1)-th root of unity congruent to a mod p, mod p^prec.
func teichmuller(a, p int64, prec int) *big.Int {
	mod := Pow(p, prec)
	return new(big.Int).Exp(big.NewInt(a), Pow(p, prec), mod)
}

// teichmullerDilog evaluates
//
//	Li₂(ω) = p²/(p²−1) · Σ_{r=1}^{p−1} ω^r Σ_{i≥0} (i+1)(−1)^i p^i r^{−(i+2)} Li_{−i}(ω)
//
// mod p^prec. Terms with i ≥ prec vanish since Li_{−i}(ω) is integral.
func (f *Field) teichmullerDilog(residue int64, omega *big.Int, prec int) *big.Int {
	return f.bases.get(baseKey{residue, prec}, func() *big.Int {
		p := f.p
		mod := Pow(p, prec)
		lis := negativePolylogs(omega, prec, mod)
		sum := new(big.Int)
		t := new(big.Int)
		omr := big.NewInt(1)
		for r := int64(1); r < p; r++ {
			omr.Mul(omr, omega).Mod(omr, mod)
			rinv := f.inv.Inverse(r, prec)
			rpow := new(big.Int).Mul(rinv, rinv) // r^{−(i+2)}
			rpow.Mod(rpow, mod)
			for i := 0; i < prec; i++ {
				t.Mul(omr, big.NewInt(int64(i+1)))
				t.Mul(t, Pow(p, i))
				t.Mul(t, rpow)
				t.Mul(t, lis[i])
				if i%2 == 1 {
					t.Neg(t)
				}
				sum.Add(sum, t).Mod(sum, mod)
				rpow.Mul(rpow, rinv).Mod(rpow, mod)
			}
		}
		p2 := p * p
		sum.Mul(sum, big.NewInt(p2))
		sum.Mul(sum, f.inv.Inverse(p2-1, prec))
		return sum.Mod(sum, mod)
	})
}

// negativePolylogs returns the terms Li_{−i}(w) of the sum above for 0 ≤ i < n, mod mod.
// Entry 0 is 1/(1−w); for i ≥ 1 it is Σ_{k<i} A(i,k)·w^{k+1}/(1−w)^{i+1} with A the
// Eulerian numbers.
func negativePolylogs(w *big.Int, n int, mod *big.Int) []*big.Int {
	oneMinus := new(big.Int).Sub(big.NewInt(1), w)
	oneMinus.Mod(oneMinus, mod)
	inv := new(big.Int).ModInverse(oneMinus, mod)
	wpow := make([]*big.Int, n+1)
	wpow[0] = big.NewInt(1)
	for k := 1; k <= n; k++ {
		wpow[k] = new(big.Int).Mul(wpow[k-1], w)
		wpow[k].Mod(wpow[k], mod)
	}
	out := make([]*big.Int, n)
	out[0] = new(big.Int).Set(inv)
	invPow := new(big.Int).Set(inv)
	t := new(big.Int)
	for i := 1; i < n; i++ {
		invPow.Mul(invPow, inv).Mod(invPow, mod)
		row := eulerianRow(i)
		s := new(big.Int)
		for k := 0; k < i; k++ {
			t.Mul(row[k], wpow[k+1])
			s.Add(s, t)
		}
		s.Mul(s, invPow)
		out[i] = s.Mod(s, mod)
	}
	return out
}

var eulerian memo[int, []*big.Int]

// eulerianRow returns A(n,0..n−1), with A(n,k) = (k+1)·A(n−1,k) + (n−k)·A(n−1,k−1).
func eulerianRow(n int) []*big.Int {
	if n == 0 {
		return []*big.Int{big.NewInt(1)}
	}
	return eulerian.get(n, func() []*big.Int {
		prev := eulerianRow(n - 1)
		row := make([]*big.Int, n)
		t := new(big.Int)
		for k := 0; k < n; k++ {
			row[k] = new(big.Int)
			if k < len(prev) {
				row[k].Mul(big.NewInt(int64(k+1)), prev[k])
			}
			if k >= 1 && k-1 < len(prev) {
				t.Mul(big.NewInt(int64(n-k)), prev[k-1])
				row[k].Add(row[k], t)
			}
		}
		return row
	})
}
