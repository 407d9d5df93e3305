// Package prof collects stage timings. Call sites use
//
//	defer prof.Track(time.Now(), "stage")
//
// and the CLI reports the totals through zap when it exits.
package prof

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry represents a single timing measurement.
type Entry struct {
	Label string
	Dur   time.Duration
}

// Stat aggregates the entries sharing a label.
type Stat struct {
	Label string
	Count int
	Total time.Duration
}

var (
	mu     sync.Mutex
	record []Entry
)

// Track records the duration since start under name.
func Track(start time.Time, name string) {
	elapsed := time.Since(start)
	mu.Lock()
	record = append(record, Entry{Label: name, Dur: elapsed})
	mu.Unlock()
}

// SnapshotAndReset returns the collected timing entries and clears them.
func SnapshotAndReset() []Entry {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Entry, len(record))
	copy(out, record)
	record = nil
	return out
}

// Summarize groups entries by label, largest total first.
func Summarize(entries []Entry) []Stat {
	idx := make(map[string]int)
	var out []Stat
	for _, e := range entries {
		i, ok := idx[e.Label]
		if !ok {
			i = len(out)
			idx[e.Label] = i
			out = append(out, Stat{Label: e.Label})
		}
		out[i].Count++
		out[i].Total += e.Dur
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// Report drains the recorded entries and logs one line per label at debug level.
func Report(log *zap.Logger) {
	for _, s := range Summarize(SnapshotAndReset()) {
		log.Debug("timing",
			zap.String("stage", s.Label),
			zap.Int("calls", s.Count),
			zap.Duration("total", s.Total))
	}
}
