package prof

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSummarizeGroupsByLabel(t *testing.T) {
	got := Summarize([]Entry{
		{"build", 3 * time.Millisecond},
		{"tables", 10 * time.Millisecond},
		{"build", 4 * time.Millisecond},
	})
	if len(got) != 2 {
		t.Fatalf("got %d stats, want 2", len(got))
	}
	if got[0].Label != "tables" || got[1].Label != "build" {
		t.Fatalf("order = %v", got)
	}
	if got[1].Count != 2 || got[1].Total != 7*time.Millisecond {
		t.Fatalf("build stat = %+v", got[1])
	}
}

func TestTrackAndReport(t *testing.T) {
	SnapshotAndReset()
	Track(time.Now(), "stage")
	Report(zap.NewNop())
	if rest := SnapshotAndReset(); len(rest) != 0 {
		t.Fatalf("Report left %d entries", len(rest))
	}
}
