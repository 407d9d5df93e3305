package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"polylog-dcw/dcw"
	"polylog-dcw/padic"
	"polylog-dcw/params"
	"polylog-dcw/steinberg"
)

var (
	generic bool
	workers int
	samples int
	seed    string
	lPrime  int64
	plotOut string
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose",
	Short: "Build the Steinberg basis and decompose every [l]∧[q]",
	RunE:  runDecompose,
}

var coefficientsCmd = &cobra.Command{
	Use:   "coefficients",
	Short: "Compute a_{l,q} mod p^prec for all ordered pairs",
	RunE:  runCoefficients,
}

var criterionCmd = &cobra.Command{
	Use:   "criterion",
	Short: "Classify every prime q by the extra-point criterion for fixed l",
	RunE:  runCriterion,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the coefficients against Li2 on coprime triples a+b=c",
	RunE:  runVerify,
}

func init() {
	coefficientsCmd.Flags().BoolVar(&generic, "generic", false, "use the generic p-adic evaluator even for p=3")
	criterionCmd.Flags().BoolVar(&generic, "generic", false, "use the generic p-adic evaluator even for p=3")
	criterionCmd.Flags().Int64Var(&lPrime, "l", params.DefaultL, "fixed prime l")
	verifyCmd.Flags().BoolVar(&generic, "generic", false, "use the generic p-adic evaluator even for p=3")
	verifyCmd.Flags().IntVar(&workers, "workers", params.DefaultWorkers, "parallel triple checks")
	verifyCmd.Flags().IntVar(&samples, "samples", 0, "check this many random triples (0 = all)")
	verifyCmd.Flags().StringVar(&seed, "seed", "dcw", "PRNG key for --samples")
}

func build(rp params.RunParams) (*steinberg.Result, error) {
	return steinberg.Build(rp.Bound, rp.P, steinberg.BuildOpts{Logger: logger})
}

func assembler(rp params.RunParams, res *steinberg.Result) (*dcw.Assembler, error) {
	opts := dcw.Options{Logger: logger}
	if rp.P == 3 && !generic {
		return dcw.NewThreeAdicAssembler(rp.Bound, res.Decompositions, rp.Prec, opts)
	}
	return dcw.NewGenericAssembler(rp.Bound, rp.P, res.Decompositions, rp.Prec, opts)
}

type decomposeOutput struct {
	Bound          int64                        `json:"bound"`
	P              int64                        `json:"p"`
	Basis          []string                     `json:"basis"`
	Decompositions map[string]map[string]string `json:"decompositions"`
	Fingerprint    string                       `json:"fingerprint"`
}

func runDecompose(cmd *cobra.Command, args []string) error {
	rp, err := runParams(cmd)
	if err != nil {
		return err
	}
	res, err := build(rp)
	if err != nil {
		return err
	}
	fp := res.Fingerprint()
	logger.Info("basis built", zap.Int("size", len(res.Basis)), zap.String("fingerprint", hex.EncodeToString(fp[:8])))
	w := cmd.OutOrStdout()
	if jsonOut {
		out := decomposeOutput{
			Bound:          rp.Bound,
			P:              rp.P,
			Decompositions: make(map[string]map[string]string),
			Fingerprint:    hex.EncodeToString(fp[:]),
		}
		for _, t := range res.Basis {
			out.Basis = append(out.Basis, steinberg.Key(t))
		}
		for pair, d := range res.Decompositions {
			out.Decompositions[pair.String()] = d.Map()
		}
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "basis (%d):", len(res.Basis))
	for _, t := range res.Basis {
		fmt.Fprintf(w, " %s", steinberg.Key(t))
	}
	fmt.Fprintln(w)
	for _, pair := range res.Pairs() {
		fmt.Fprintf(w, "%v = %v\n", pair, res.Decompositions[pair])
	}
	fmt.Fprintf(w, "fingerprint %x\n", fp)
	return nil
}

func sortedPairs(m map[steinberg.Pair]*big.Rat) []steinberg.Pair {
	out := make([]steinberg.Pair, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].L != out[j].L {
			return out[i].L < out[j].L
		}
		return out[i].Q < out[j].Q
	})
	return out
}

func runCoefficients(cmd *cobra.Command, args []string) error {
	rp, err := runParams(cmd)
	if err != nil {
		return err
	}
	res, err := build(rp)
	if err != nil {
		return err
	}
	a, err := assembler(rp, res)
	if err != nil {
		return err
	}
	coeffs, err := a.All()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if jsonOut {
		out := make(map[string]string, len(coeffs))
		for pair, v := range coeffs {
			out[pair.String()] = v.RatString()
		}
		return writeJSON(w, out)
	}
	for _, pair := range sortedPairs(coeffs) {
		fmt.Fprintf(w, "a%v = %s + O(%d^%d)\n", pair, coeffs[pair].RatString(), rp.P, rp.Prec)
	}
	return nil
}

func criterion(cmd *cobra.Command) (*dcw.CriterionResult, error) {
	rp, err := runParams(cmd)
	if err != nil {
		return nil, err
	}
	res, err := build(rp)
	if err != nil {
		return nil, err
	}
	a, err := assembler(rp, res)
	if err != nil {
		return nil, err
	}
	return dcw.EvaluateCriterion(a, rp.L)
}

func runCriterion(cmd *cobra.Command, args []string) error {
	cr, err := criterion(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if jsonOut {
		return writeJSON(w, cr)
	}
	fmt.Fprintf(w, "l=%d p=%d prec=%d\n", cr.L, cr.P, cr.Prec)
	for _, row := range cr.Rows {
		fmt.Fprintf(w, "q=%-5d v(a)=%-3s v(b)=%-3s expected=%-3d %s\n",
			row.Q, showVal(row.VA), showVal(row.VB), row.Expected, row.Verdict)
	}
	fmt.Fprintf(w, "extrapoint:   %v\n", cr.Extrapoint)
	fmt.Fprintf(w, "noextrapoint: %v\n", cr.NoExtrapoint)
	fmt.Fprintf(w, "undecided:    %v\n", cr.Undecided)
	return nil
}

func showVal(v int) string {
	if v >= padic.Infinity {
		return "inf"
	}
	return fmt.Sprint(v)
}

func runVerify(cmd *cobra.Command, args []string) error {
	rp, err := runParams(cmd)
	if err != nil {
		return err
	}
	res, err := build(rp)
	if err != nil {
		return err
	}
	a, err := assembler(rp, res)
	if err != nil {
		return err
	}
	coeffs, err := a.All()
	if err != nil {
		return err
	}
	triples := dcw.CommutativityTriples(a.Space())
	if rp.Samples > 0 {
		triples, err = dcw.SampleTriples(a.Space(), rp.Samples, []byte(rp.Seed))
		if err != nil {
			return err
		}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bad, err := dcw.CheckCommutativity(ctx, a, coeffs, triples, rp.Workers)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, v := range bad {
		fmt.Fprintf(w, "violation %v: got %s want %s (agree to %d digits)\n",
			v.Triple, v.Got.RatString(), v.Want.RatString(), v.Agree)
	}
	fmt.Fprintf(w, "checked %d triples, %d violations\n", len(triples), len(bad))
	if len(bad) > 0 {
		return fmt.Errorf("%d of %d triples violate the commutativity identity", len(bad), len(triples))
	}
	return nil
}
