package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/autocorrect/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_GetCorrection_Miss(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.GetCorrection(context.Background(), "Das ist ein Test.", "de")
	if err != nil {
		t.Fatalf("GetCorrection failed: %v", err)
	}
	if found {
		t.Error("expected miss on empty store")
	}
}

func TestStore_GetCorrection_Hit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveCorrection(ctx, "run-1", "Das ist ein Tset.", "de", "Das ist ein Test."); err != nil {
		t.Fatalf("SaveCorrection failed: %v", err)
	}

	// Surrounding whitespace does not change the key.
	text, found, err := s.GetCorrection(ctx, "  Das ist ein Tset.\n", "de")
	if err != nil {
		t.Fatalf("GetCorrection failed: %v", err)
	}
	if !found || text != "Das ist ein Test." {
		t.Errorf("expected hit with corrected text, got found=%v text=%q", found, text)
	}
}

func TestStore_GetCorrection_NFC(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// "Müll" precomposed vs. decomposed.
	if err := s.SaveCorrection(ctx, "r", "Müll", "de", "Müll."); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.GetCorrection(ctx, "Mu\u0308ll", "de"); !found {
		t.Error("decomposed form should hit the precomposed entry")
	}
}

func TestStore_GetCorrection_Invalidated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveCorrection(ctx, "r", "Text", "de", "Text."); err != nil {
		t.Fatal(err)
	}
	entries, err := s.ListCorrections(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListCorrections: %v, %d entries", err, len(entries))
	}
	if err := s.InvalidateCorrection(ctx, entries[0].ID); err != nil {
		t.Fatalf("InvalidateCorrection failed: %v", err)
	}

	if _, found, _ := s.GetCorrection(ctx, "Text", "de"); found {
		t.Error("invalidated entry must not be returned")
	}
}

func TestStore_SaveCorrection_Replaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveCorrection(ctx, "r1", "Satz", "de", "erste")
	s.SaveCorrection(ctx, "r2", "Satz", "de", "zweite")

	text, _, _ := s.GetCorrection(ctx, "Satz", "de")
	if text != "zweite" {
		t.Errorf("expected latest correction, got %q", text)
	}
	entries, _ := s.ListCorrections(ctx)
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after replace, got %d", len(entries))
	}
}

func TestStore_LanguagesAreSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveCorrection(ctx, "r", "Hallo", "de", "Hallo!")
	s.SaveCorrection(ctx, "r", "Hallo", "en", "Hello!")

	if text, found, _ := s.GetCorrection(ctx, "Hallo", "de"); !found || text != "Hallo!" {
		t.Errorf("de: got found=%v %q", found, text)
	}
	if text, found, _ := s.GetCorrection(ctx, "Hallo", "en"); !found || text != "Hello!" {
		t.Errorf("en: got found=%v %q", found, text)
	}
	if _, found, _ := s.GetCorrection(ctx, "Hallo", "fr"); found {
		t.Error("fr: expected not found")
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveCorrection(ctx, "r", "a", "de", "A")
	s.SaveCorrection(ctx, "r", "b", "de", "B")
	s.GetCorrection(ctx, "a", "de")
	s.StartRun(ctx, internal.Run{ID: "r", InputFile: "in.tex", OutputFile: "out.tex", Language: "de", StartedAt: time.Now()})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 || stats.ActiveEntries != 2 || stats.InvalidEntries != 0 {
		t.Errorf("unexpected entry counts: %+v", stats)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("expected total usage 3, got %d", stats.TotalUsage)
	}
	if stats.Runs != 1 {
		t.Errorf("expected 1 run, got %d", stats.Runs)
	}
}

func TestStore_DeleteCorrection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveCorrection(ctx, "r", "a", "de", "A")
	entries, _ := s.ListCorrections(ctx)

	deleted, err := s.DeleteCorrection(ctx, entries[0].ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteCorrection = %v, %v", deleted, err)
	}
	deleted, err = s.DeleteCorrection(ctx, entries[0].ID)
	if err != nil || deleted {
		t.Errorf("second delete should report nothing deleted, got %v, %v", deleted, err)
	}
}

func TestStore_ClearCorrections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveCorrection(ctx, "r", "a", "de", "A")
	s.SaveCorrection(ctx, "r", "b", "de", "B")

	n, err := s.ClearCorrections(ctx)
	if err != nil {
		t.Fatalf("ClearCorrections failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows removed, got %d", n)
	}
	entries, _ := s.ListCorrections(ctx)
	if len(entries) != 0 {
		t.Errorf("expected empty memory, got %d entries", len(entries))
	}
}

func TestStore_RunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := internal.Run{ID: "run-42", InputFile: "paper.tex", OutputFile: "corrected.tex", Language: "de", StartedAt: time.Now()}
	if err := s.StartRun(ctx, run); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	rec, err := s.GetRun(ctx, "run-42")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if rec.Status != internal.RunRunning || rec.FinishedAt != nil {
		t.Errorf("unexpected running record: %+v", rec)
	}

	stats := internal.RunStats{Chunks: 3, Batches: 5, Cached: 2, Corrected: 3}
	if err := s.FinishRun(ctx, "run-42", stats, nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	rec, err = s.GetRun(ctx, "run-42")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if rec.Status != internal.RunCompleted || rec.RunStats != stats || rec.FinishedAt == nil {
		t.Errorf("unexpected finished record: %+v", rec)
	}
}

func TestStore_FinishRun_Failed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.StartRun(ctx, internal.Run{ID: "r", InputFile: "a", OutputFile: "b", Language: "de", StartedAt: time.Now()})
	if err := s.FinishRun(ctx, "r", internal.RunStats{}, errors.New("confirmation aborted")); err != nil {
		t.Fatal(err)
	}

	rec, _ := s.GetRun(ctx, "r")
	if rec.Status != internal.RunFailed || rec.Error != "confirmation aborted" {
		t.Errorf("unexpected failed record: %+v", rec)
	}
}

func TestStore_GetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRun(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Hallo  ", "Hallo"},
		{"Mu\u0308ll", "Müll"},
		{"\t\nHallo\t\n", "Hallo"},
		{"", ""},
	}

	for _, tt := range tests {
		result := normalizeText(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
