package params

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSONLenientKeys(t *testing.T) {
	path := write(t, "run.json", `{"Bound": 30, "prime": "5", "precision": 8, "seed": "abc"}`)
	rp, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if rp.Bound != 30 || rp.P != 5 || rp.Prec != 8 || rp.Seed != "abc" {
		t.Fatalf("unexpected params %+v", rp)
	}
	rp.ApplyDefaults()
	if rp.L != DefaultL || rp.Workers != DefaultWorkers {
		t.Fatalf("defaults not applied: %+v", rp)
	}
	if err := rp.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "run.yaml", "bound: 0x20\np: 3\nprec: 14\nworkers: 2\nsamples: 10\n")
	rp, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if rp.Bound != 32 || rp.P != 3 || rp.Prec != 14 || rp.Workers != 2 || rp.Samples != 10 {
		t.Fatalf("unexpected params %+v", rp)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(write(t, "bad.json", `{"bound": "twenty"}`)); err == nil {
		t.Fatal("expected error for non-numeric bound")
	}
	if _, err := Load(write(t, "bad.json", `{"prec": 1.5}`)); err == nil {
		t.Fatal("expected error for fractional precision")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []RunParams{
		{Bound: 20, P: 9, Prec: 12, L: 2, Workers: 1},
		{Bound: 2, P: 3, Prec: 12, L: 2, Workers: 1},
		{Bound: 20, P: 3, Prec: 0, L: 2, Workers: 1},
		{Bound: 20, P: 3, Prec: 12, L: 3, Workers: 1},
		{Bound: 20, P: 3, Prec: 12, L: 2, Workers: 0},
	}
	for i, rp := range cases {
		if err := rp.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, rp)
		}
	}
}
