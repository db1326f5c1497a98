package audit

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
)

func TestTrailBoundedAfterOverflow(t *testing.T) {
	trail := NewTrail(zap.NewNop())

	for i := 1; i <= 55; i++ {
		trail.Append(fmt.Sprintf("entry %d", i))
	}

	if got := trail.Len(); got != DefaultLimit {
		t.Fatalf("expected trail capped at %d entries, got %d", DefaultLimit, got)
	}

	snapshot := trail.Snapshot(20)
	if len(snapshot) != 20 {
		t.Fatalf("expected snapshot of 20 entries, got %d", len(snapshot))
	}
	for i, entry := range snapshot {
		want := fmt.Sprintf("entry %d", 36+i)
		if entry.Message != want {
			t.Fatalf("snapshot[%d]: expected %q, got %q", i, want, entry.Message)
		}
	}
}

func TestTrailSnapshotLargerThanLog(t *testing.T) {
	trail := NewTrail(zap.NewNop())
	trail.Append("only entry")

	snapshot := trail.Snapshot(20)
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(snapshot))
	}
	if snapshot[0].Message != "only entry" {
		t.Fatalf("unexpected message %q", snapshot[0].Message)
	}
	if snapshot[0].Timestamp == "" {
		t.Fatalf("expected entry timestamp to be set")
	}
}

func TestTrailSnapshotDoesNotMutate(t *testing.T) {
	trail := NewTrail(zap.NewNop())
	trail.Append("a")
	trail.Append("b")

	snapshot := trail.Snapshot(2)
	snapshot[0].Message = "mutated"

	again := trail.Snapshot(2)
	if again[0].Message != "a" {
		t.Fatalf("snapshot mutation leaked into the trail: %q", again[0].Message)
	}
	if got := trail.Len(); got != 2 {
		t.Fatalf("expected Len 2, got %d", got)
	}
}

func TestTrailSnapshotZero(t *testing.T) {
	trail := NewTrail(zap.NewNop())
	trail.Append("a")

	if got := trail.Snapshot(0); len(got) != 0 {
		t.Fatalf("expected empty snapshot for n=0, got %d entries", len(got))
	}
}
