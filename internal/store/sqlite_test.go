package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(id string, started time.Time, stage model.Stage) model.Run {
	return model.Run{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Stage:      stage,
		Fetched:    12,
		Normalized: 12,
	}
}

func TestRecordRunThenRecentRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run := sampleRun("run-1", started, model.StageDone)
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := s.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != "run-1" || got.Stage != model.StageDone || !got.OK() {
		t.Errorf("got %+v", got)
	}
	if !got.StartedAt.Equal(started) || !got.FinishedAt.Equal(started.Add(3*time.Second)) {
		t.Errorf("times = %v / %v", got.StartedAt, got.FinishedAt)
	}
	if got.Fetched != 12 || got.Normalized != 12 {
		t.Errorf("counts = %d / %d", got.Fetched, got.Normalized)
	}
}

func TestRecentRuns_NewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.RecordRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute), model.StageDone)); err != nil {
			t.Fatalf("RecordRun %s: %v", id, err)
		}
	}

	runs, err := s.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("got %v, want [c b]", []string{runs[0].ID, runs[1].ID})
	}
}

func TestRecordRun_FailedRunKeepsStageAndError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-f", time.Now(), model.StageRefining)
	run.Err = "refining: completion returned an empty response"
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := s.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if runs[0].Stage != model.StageRefining || runs[0].OK() {
		t.Errorf("Stage = %v, want refining and not ok", runs[0].Stage)
	}
	if runs[0].Err != run.Err {
		t.Errorf("Err = %q, want %q", runs[0].Err, run.Err)
	}
}

func TestRecordRun_SameIDReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	started := time.Now()

	if err := s.RecordRun(ctx, sampleRun("dup", started, model.StageFetching)); err != nil {
		t.Fatalf("first RecordRun: %v", err)
	}
	if err := s.RecordRun(ctx, sampleRun("dup", started, model.StageDone)); err != nil {
		t.Fatalf("second RecordRun: %v", err)
	}

	runs, err := s.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Stage != model.StageDone {
		t.Errorf("got %+v, want single done run", runs)
	}
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RecordRun(ctx, sampleRun("old", time.Now().Add(-48*time.Hour), model.StageDone)); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordRun(ctx, sampleRun("new", time.Now(), model.StageDone)); err != nil {
		t.Fatal(err)
	}

	n, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}

	runs, err := s.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "new" {
		t.Errorf("remaining runs = %+v", runs)
	}
}

func TestNopStore(t *testing.T) {
	var s model.RunStore = NewNopStore()
	if err := s.RecordRun(context.Background(), sampleRun("x", time.Now(), model.StageDone)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	runs, err := s.RecentRuns(context.Background(), 5)
	if err != nil || len(runs) != 0 {
		t.Errorf("RecentRuns = %v, %v", runs, err)
	}
}
