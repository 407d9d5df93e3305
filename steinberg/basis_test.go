package steinberg

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"polylog-dcw/internal/primes"
)

func rat(a, b int64) *big.Rat { return big.NewRat(a, b) }

func collect(l, q, p int64) []string {
	var out []string
	for t := range Candidates(l, q, p) {
		out = append(out, t.RatString())
	}
	return out
}

func TestCandidatesSmallPairs(t *testing.T) {
	if got := collect(2, 5, 3); len(got) == 0 || got[0] != "-4" {
		t.Fatalf("Candidates(2,5,3) = %v, want -4 first", got)
	}
	want := []string{"-5/2", "-2/5", "1/8"}
	if diff := cmp.Diff(want, collect(2, 7, 3)); diff != "" {
		t.Fatalf("Candidates(2,7,3) mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidatesStopEarly(t *testing.T) {
	n := 0
	for range Candidates(2, 7, 3) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("pulled %d candidates after break", n)
	}
}

func TestCandidatesAreCanonicalUnits(t *testing.T) {
	for _, pair := range [][2]int64{{2, 11}, {5, 13}, {7, 17}, {2, 19}} {
		for c := range Candidates(pair[0], pair[1], 3) {
			if c.Cmp(half) > 0 {
				t.Fatalf("candidate %s for %v is above 1/2", c.RatString(), pair)
			}
			checkUnit(t, c, 3)
			checkUnit(t, new(big.Rat).Sub(rat(1, 1), c), 3)
		}
	}
}

func checkUnit(t *testing.T, x *big.Rat, p int64) {
	t.Helper()
	bp := big.NewInt(p)
	m := new(big.Int)
	if m.Mod(x.Num(), bp).Sign() == 0 || m.Mod(x.Denom(), bp).Sign() == 0 {
		t.Fatalf("%s is divisible by %d", x.RatString(), p)
	}
}

func TestDecompositionsBound10(t *testing.T) {
	basis, dec, err := Decompositions(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	wantBasis := []string{"-4", "-5/2", "1/8"}
	gotBasis := make([]string, len(basis))
	for i, b := range basis {
		gotBasis[i] = b.RatString()
	}
	if diff := cmp.Diff(wantBasis, gotBasis); diff != "" {
		t.Fatalf("basis mismatch (-want +got):\n%s", diff)
	}
	want := map[Pair]map[string]string{
		{2, 5}: {"-4": "1/2"},
		{2, 7}: {"1/8": "-1/3"},
		{5, 7}: {"-4": "-1/2", "-5/2": "1", "1/8": "-1/3"},
	}
	if len(dec) != len(want) {
		t.Fatalf("got %d decompositions, want %d", len(dec), len(want))
	}
	for pair, w := range want {
		if diff := cmp.Diff(w, dec[pair].Map()); diff != "" {
			t.Fatalf("decomposition of %v mismatch (-want +got):\n%s", pair, diff)
		}
	}
}

// wedge returns the coordinates of [t]∧[1−t] on the staircase-indexed pairs.
func wedge(t *testing.T, x *big.Rat, space *primes.Space) map[int]*big.Rat {
	t.Helper()
	ft, err := primes.Exponents(x, space.Primes)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := primes.Exponents(new(big.Rat).Sub(rat(1, 1), x), space.Primes)
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[int]*big.Rat)
	for j := 1; j < space.Len(); j++ {
		for i := 0; i < j; i++ {
			v := ft[i]*fs[j] - ft[j]*fs[i]
			if v != 0 {
				out[primes.PairIndex(i, j)] = rat(int64(v), 1)
			}
		}
	}
	return out
}

func TestDecompositionsReconstructGenerators(t *testing.T) {
	for _, tc := range []struct{ bound, p int64 }{{30, 3}, {30, 5}, {25, 7}} {
		res, err := Build(tc.bound, tc.p, BuildOpts{})
		if err != nil {
			t.Fatalf("Build(%d,%d): %v", tc.bound, tc.p, err)
		}
		space := res.Space
		if len(res.Basis) != space.Dim() {
			t.Fatalf("basis has %d elements, want %d", len(res.Basis), space.Dim())
		}
		for _, b := range res.Basis {
			checkUnit(t, b, tc.p)
			checkUnit(t, new(big.Rat).Sub(rat(1, 1), b), tc.p)
		}
		for _, pair := range res.Pairs() {
			sum := make(map[int]*big.Rat)
			for _, term := range res.Decompositions[pair] {
				for idx, v := range wedge(t, term.T, space) {
					if sum[idx] == nil {
						sum[idx] = new(big.Rat)
					}
					sum[idx].Add(sum[idx], new(big.Rat).Mul(term.C, v))
				}
			}
			il, _ := space.Index(pair.L)
			iq, _ := space.Index(pair.Q)
			target := primes.PairIndex(il, iq)
			for idx, v := range sum {
				want := int64(0)
				if idx == target {
					want = 1
				}
				if v.Cmp(rat(want, 1)) != 0 {
					t.Fatalf("p=%d %v: coordinate %d is %s, want %d", tc.p, pair, idx, v.RatString(), want)
				}
			}
			if sum[target] == nil {
				t.Fatalf("p=%d %v: decomposition misses its own generator", tc.p, pair)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := Build(40, 3, BuildOpts{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(40, 3, BuildOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("two builds with the same inputs differ")
	}
	for _, pair := range a.Pairs() {
		if diff := cmp.Diff(a.Decompositions[pair].Map(), b.Decompositions[pair].Map()); diff != "" {
			t.Fatalf("%v differs between builds:\n%s", pair, diff)
		}
	}
}

func TestBuildRejectsBadAuxiliaryPrime(t *testing.T) {
	if _, err := Build(10, 4, BuildOpts{}); err == nil {
		t.Fatal("expected error for composite p")
	}
}
