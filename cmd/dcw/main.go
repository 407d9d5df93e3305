// Command dcw computes Steinberg decompositions, DCW coefficients and the extra-point
// criterion from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"polylog-dcw/params"
	"polylog-dcw/prof"
)

var (
	bound      int64
	auxPrime   int64
	prec       int
	configPath string
	verbose    bool
	jsonOut    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dcw",
	Short: "DCW coefficients and the extra-point criterion",
	Long: `dcw expresses every wedge generator [l]∧[q] of primes below a bound as a
combination of Steinberg elements, turns the decompositions into p-adic DCW
coefficients, and evaluates the extra-point criterion built on them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			prof.Report(logger)
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Int64Var(&bound, "bound", params.DefaultBound, "primes strictly below this bound are used")
	pf.Int64Var(&auxPrime, "p", params.DefaultP, "auxiliary odd prime")
	pf.IntVar(&prec, "prec", params.DefaultPrec, "absolute p-adic precision of the coefficients")
	pf.StringVar(&configPath, "config", "", "parameter file (.json, .yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&jsonOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(decomposeCmd)
	rootCmd.AddCommand(coefficientsCmd)
	rootCmd.AddCommand(criterionCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(plotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runParams merges the parameter file with the flags; flags set on the command line win.
func runParams(cmd *cobra.Command) (params.RunParams, error) {
	var rp params.RunParams
	if configPath != "" {
		var err error
		rp, err = params.Load(configPath)
		if err != nil {
			return rp, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("bound") || rp.Bound == 0 {
		rp.Bound = bound
	}
	if flags.Changed("p") || rp.P == 0 {
		rp.P = auxPrime
	}
	if flags.Changed("prec") || rp.Prec == 0 {
		rp.Prec = prec
	}
	if f := flags.Lookup("workers"); f != nil && (f.Changed || rp.Workers == 0) {
		rp.Workers = workers
	}
	if f := flags.Lookup("samples"); f != nil && (f.Changed || rp.Samples == 0) {
		rp.Samples = samples
	}
	if f := flags.Lookup("seed"); f != nil && (f.Changed || rp.Seed == "") {
		rp.Seed = seed
	}
	if f := flags.Lookup("l"); f != nil && (f.Changed || rp.L == 0) {
		rp.L = lPrime
	}
	rp.ApplyDefaults()
	if err := rp.Validate(); err != nil {
		return rp, err
	}
	logger.Debug("run parameters",
		zap.Int64("bound", rp.Bound), zap.Int64("p", rp.P), zap.Int("prec", rp.Prec),
		zap.Int64("l", rp.L), zap.Int("workers", rp.Workers), zap.Int("samples", rp.Samples))
	return rp, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
