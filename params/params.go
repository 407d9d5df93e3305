// Package params loads run parameters (bound, auxiliary prime, precision, sampling) from
// a JSON or YAML file. Keys are matched leniently so hand-written files keep working.
package params

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tuneinsight/lattigo/v4/ring"
	"gopkg.in/yaml.v3"
)

// RunParams is the set of knobs shared by every dcw subcommand.
type RunParams struct {
	Bound   int64  `json:"bound" yaml:"bound"`
	P       int64  `json:"p" yaml:"p"`
	Prec    int    `json:"prec" yaml:"prec"`
	L       int64  `json:"l" yaml:"l"`
	Workers int    `json:"workers" yaml:"workers"`
	Samples int    `json:"samples" yaml:"samples"`
	Seed    string `json:"seed" yaml:"seed"`
}

// Defaults reproduce the bound-20 criterion run.
const (
	DefaultBound   = 20
	DefaultP       = 3
	DefaultPrec    = 12
	DefaultL       = 2
	DefaultWorkers = 4
)

// ApplyDefaults fills zero fields.
func (rp *RunParams) ApplyDefaults() {
	if rp.Bound == 0 {
		rp.Bound = DefaultBound
	}
	if rp.P == 0 {
		rp.P = DefaultP
	}
	if rp.Prec == 0 {
		rp.Prec = DefaultPrec
	}
	if rp.L == 0 {
		rp.L = DefaultL
	}
	if rp.Workers == 0 {
		rp.Workers = DefaultWorkers
	}
}

// Validate checks the parameters describe a computation that can run.
func (rp RunParams) Validate() error {
	if rp.P < 3 || !ring.IsPrime(uint64(rp.P)) {
		return fmt.Errorf("params: p must be an odd prime, got %d", rp.P)
	}
	if rp.Bound < 3 {
		return fmt.Errorf("params: bound must be at least 3, got %d", rp.Bound)
	}
	if rp.Prec < 1 {
		return fmt.Errorf("params: prec must be positive, got %d", rp.Prec)
	}
	if rp.L == rp.P || rp.L >= rp.Bound || !ring.IsPrime(uint64(rp.L)) {
		return fmt.Errorf("params: l=%d must be a prime below bound %d other than p", rp.L, rp.Bound)
	}
	if rp.Workers < 1 || rp.Samples < 0 {
		return fmt.Errorf("params: workers=%d samples=%d", rp.Workers, rp.Samples)
	}
	return nil
}

// aliases lists the accepted spellings of each key, first match wins.
var aliases = map[string][]string{
	"bound":   {"bound", "Bound", "B", "N"},
	"p":       {"p", "P", "prime"},
	"prec":    {"prec", "Prec", "precision"},
	"l":       {"l", "L"},
	"workers": {"workers", "Workers", "jobs"},
	"samples": {"samples", "Samples"},
	"seed":    {"seed", "Seed"},
}

// Load reads path (.json, .yaml or .yml) into RunParams. Missing keys stay zero;
// call ApplyDefaults and Validate afterwards.
func Load(path string) (RunParams, error) {
	var rp RunParams
	data, err := os.ReadFile(path)
	if err != nil {
		return rp, err
	}
	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return rp, fmt.Errorf("params: %s: %w", path, err)
	}
	ints := []struct {
		key string
		dst *int64
	}{{"bound", &rp.Bound}, {"p", &rp.P}, {"l", &rp.L}}
	for _, f := range ints {
		if v, ok := lookup(raw, f.key); ok {
			n, err := toInt(v)
			if err != nil {
				return rp, fmt.Errorf("params: %s: %w", f.key, err)
			}
			*f.dst = n
		}
	}
	small := []struct {
		key string
		dst *int
	}{{"prec", &rp.Prec}, {"workers", &rp.Workers}, {"samples", &rp.Samples}}
	for _, f := range small {
		if v, ok := lookup(raw, f.key); ok {
			n, err := toInt(v)
			if err != nil {
				return rp, fmt.Errorf("params: %s: %w", f.key, err)
			}
			*f.dst = int(n)
		}
	}
	if v, ok := lookup(raw, "seed"); ok {
		rp.Seed = fmt.Sprint(v)
	}
	return rp, nil
}

func lookup(raw map[string]any, key string) (any, bool) {
	for _, k := range aliases[key] {
		if v, ok := raw[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// toInt accepts JSON numbers, YAML integers and decimal or 0x-hex strings.
func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case uint64:
		return int64(t), nil
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int64(t), nil
	case string:
		return parseIntString(t)
	}
	return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
}

func parseIntString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		b, err := hex.DecodeString(s[2:])
		if err != nil || len(b) > 8 {
			return 0, fmt.Errorf("invalid hex integer %q", s)
		}
		var n int64
		for _, x := range b {
			n = n<<8 | int64(x)
		}
		return n, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}
