package dcw

import (
	"fmt"
	"math/big"
	"math/bits"
	"time"

	"github.com/tuneinsight/lattigo/v4/ring"
	"go.uber.org/zap"

	"polylog-dcw/padic"
	"polylog-dcw/prof"
	"polylog-dcw/steinberg"
)

// Verdict is the outcome of the extra-point criterion for one prime.
type Verdict int

const (
	NoExtrapoint Verdict = iota
	Extrapoint
	Undecided
)

func (v Verdict) String() string {
	switch v {
	case Extrapoint:
		return "extrapoint"
	case NoExtrapoint:
		return "noextrapoint"
	case Undecided:
		return "undecided"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Row is the evidence behind one verdict. A = a_{l,q}, B = log l·log q − a_{l,q}.
type Row struct {
	Q        int64    `json:"q"`
	A        *big.Rat `json:"-"`
	B        *big.Rat `json:"-"`
	VA       int      `json:"va"`
	VB       int      `json:"vb"`
	VLogQ    int      `json:"vlogq"`
	Expected int      `json:"expected"`
	Verdict  Verdict  `json:"verdict"`
}

// CriterionResult lists the primes q by verdict, in increasing order.
type CriterionResult struct {
	L            int64   `json:"l"`
	P            int64   `json:"p"`
	Prec         int     `json:"prec"`
	Extrapoint   []int64 `json:"extrapoint"`
	NoExtrapoint []int64 `json:"noextrapoint"`
	Undecided    []int64 `json:"undecided"`
	Rows         []Row   `json:"rows"`
}

// Classify decides a verdict from v(a), v(b) and the expected valuation. A v(b) at or
// beyond prec cannot be told apart from zero.
func Classify(va, vb, expected, prec int) Verdict {
	if vb >= prec {
		return Undecided
	}
	if min(va, vb) >= expected {
		return Extrapoint
	}
	return NoExtrapoint
}

// LogValuation returns v_p(log x) for x prime to p, which for odd p equals
// v_p(x^{p−1} − 1). The power is taken modulo the largest p^k below 2^61, so the
// answer saturates at k.
func LogValuation(x, p int64) int {
	k := 0
	mod := uint64(1)
	for bits.Len64(mod)+bits.Len64(uint64(p)) <= 61 {
		mod *= uint64(p)
		k++
	}
	xm := uint64(((x % int64(mod)) + int64(mod)) % int64(mod))
	r := ring.ModExp(xm, uint64(p-1), mod)
	d := (r + mod - 1) % mod
	if d == 0 {
		return k
	}
	v := 0
	for d%uint64(p) == 0 {
		d /= uint64(p)
		v++
	}
	return v
}

// EvaluateCriterion runs the criterion for a fixed l against every other prime of the
// assembler's space.
func EvaluateCriterion(a *Assembler, l int64) (*CriterionResult, error) {
	defer prof.Track(time.Now(), "dcw.criterion")
	p := a.P()
	if !a.space.Contains(l) {
		return nil, fmt.Errorf("%w: l=%d", ErrMissingDecomposition, l)
	}
	res := &CriterionResult{L: l, P: p, Prec: a.prec}
	vl := LogValuation(l, p)
	for _, q := range a.space.Primes {
		if q == l {
			continue
		}
		va, err := a.Coefficient(l, q)
		if err != nil {
			return nil, err
		}
		vb, err := a.Coefficient(q, l)
		if err != nil {
			return nil, err
		}
		row := Row{
			Q:     q,
			A:     va,
			B:     vb,
			VA:    padic.Valuation(va, p),
			VB:    padic.Valuation(vb, p),
			VLogQ: LogValuation(q, p),
		}
		row.Expected = vl + row.VLogQ
		row.Verdict = Classify(row.VA, row.VB, row.Expected, a.prec)
		switch row.Verdict {
		case Extrapoint:
			res.Extrapoint = append(res.Extrapoint, q)
		case NoExtrapoint:
			res.NoExtrapoint = append(res.NoExtrapoint, q)
		case Undecided:
			res.Undecided = append(res.Undecided, q)
		}
		res.Rows = append(res.Rows, row)
	}
	a.log.Debug("criterion evaluated",
		zap.Int64("l", l),
		zap.Int("extrapoint", len(res.Extrapoint)),
		zap.Int("noextrapoint", len(res.NoExtrapoint)),
		zap.Int("undecided", len(res.Undecided)))
	return res, nil
}

// CheckExtrapointCriterion builds the decompositions for p = 3 and evaluates the
// criterion for l = 2 with the p = 3 engine.
func CheckExtrapointCriterion(bound int64, prec int) (*CriterionResult, error) {
	_, decomps, err := steinberg.Decompositions(bound, 3)
	if err != nil {
		return nil, err
	}
	a, err := NewThreeAdicAssembler(bound, decomps, prec, Options{})
	if err != nil {
		return nil, err
	}
	return EvaluateCriterion(a, 2)
}
