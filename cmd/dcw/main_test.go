package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTestCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	logger = zap.NewNop()
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}

func setGlobals(t *testing.T, b int64, p int64, pr int) {
	t.Helper()
	oldB, oldP, oldPrec, oldJSON := bound, auxPrime, prec, jsonOut
	bound, auxPrime, prec = b, p, pr
	t.Cleanup(func() {
		bound, auxPrime, prec, jsonOut = oldB, oldP, oldPrec, oldJSON
		configPath = ""
		generic = false
	})
}

func TestDecomposeCmd(t *testing.T) {
	cmd, out := newTestCmd(t)
	setGlobals(t, 10, 3, 12)

	if err := runDecompose(cmd, nil); err != nil {
		t.Fatalf("runDecompose failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "basis (3): -4 -5/2 1/8") {
		t.Fatalf("unexpected basis line:\n%s", text)
	}
	if !strings.Contains(text, "fingerprint ") {
		t.Errorf("fingerprint missing:\n%s", text)
	}
}

func TestDecomposeCmdJSON(t *testing.T) {
	cmd, out := newTestCmd(t)
	setGlobals(t, 10, 3, 12)
	jsonOut = true

	if err := runDecompose(cmd, nil); err != nil {
		t.Fatalf("runDecompose failed: %v", err)
	}
	var got decomposeOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bound != 10 || len(got.Basis) != 3 {
		t.Fatalf("got %+v", got)
	}
	if c := got.Decompositions["(2,5)"]["-4"]; c != "1/2" {
		t.Errorf("(2,5) coefficient of -4 = %q, want 1/2", c)
	}
}

func TestCoefficientsCmd(t *testing.T) {
	cmd, out := newTestCmd(t)
	setGlobals(t, 10, 3, 12)

	if err := runCoefficients(cmd, nil); err != nil {
		t.Fatalf("runCoefficients failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 9 {
		t.Fatalf("got %d coefficients, want 9:\n%s", len(lines), out.String())
	}
	if !strings.Contains(out.String(), "a(2,5) = 428580 + O(3^12)") {
		t.Errorf("a(2,5) missing or wrong:\n%s", out.String())
	}

	out.Reset()
	generic = true
	if err := runCoefficients(cmd, nil); err != nil {
		t.Fatalf("runCoefficients --generic failed: %v", err)
	}
	if !strings.Contains(out.String(), "a(2,5) = 428580 + O(3^12)") {
		t.Errorf("generic path disagrees:\n%s", out.String())
	}
}

func TestCriterionCmdFromConfig(t *testing.T) {
	cmd, out := newTestCmd(t)
	setGlobals(t, 10, 3, 12)
	jsonOut = true

	cfg := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(cfg, []byte("bound: 20\nprecision: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	configPath = cfg

	if err := runCriterion(cmd, nil); err != nil {
		t.Fatalf("runCriterion failed: %v", err)
	}
	var got struct {
		L    int64 `json:"l"`
		Rows []struct {
			Q        int64  `json:"q"`
			VA       int    `json:"va"`
			VB       int    `json:"vb"`
			Expected int    `json:"expected"`
			Verdict  string `json:"verdict"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.L != 2 || len(got.Rows) != 6 {
		t.Fatalf("l=%d rows=%d, want l=2 and 6 rows", got.L, len(got.Rows))
	}
	last := got.Rows[len(got.Rows)-1]
	if last.Q != 19 || last.VA != 1 || last.VB != 1 || last.Expected != 3 || last.Verdict != "noextrapoint" {
		t.Errorf("row for 19 = %+v", last)
	}
}

func TestVerifyCmd(t *testing.T) {
	cmd, out := newTestCmd(t)
	setGlobals(t, 20, 3, 12)

	if err := runVerify(cmd, nil); err != nil {
		t.Fatalf("runVerify failed: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "checked 31 triples, 0 violations") {
		t.Errorf("unexpected summary:\n%s", out.String())
	}
}

func TestPlotCmd(t *testing.T) {
	cmd, _ := newTestCmd(t)
	setGlobals(t, 20, 3, 12)
	plotOut = filepath.Join(t.TempDir(), "criterion.html")

	if err := runPlot(cmd, nil); err != nil {
		t.Fatalf("runPlot failed: %v", err)
	}
	data, err := os.ReadFile(plotOut)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.Contains(data, []byte("DCW valuations")) {
		t.Error("chart title missing from HTML")
	}
}

func TestRunParamsRejectsBadPrime(t *testing.T) {
	cmd, _ := newTestCmd(t)
	setGlobals(t, 20, 9, 12)

	if _, err := runParams(cmd); err == nil {
		t.Fatal("expected error for p=9")
	}
}
