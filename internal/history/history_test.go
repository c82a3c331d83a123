package history

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openSQLite(t *testing.T) Repository {
	t.Helper()
	repo, err := Open(context.Background(), DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleRun(scene string, at time.Time) *Run {
	run := NewRun(scene, "8/8/8/8/8/8/8/8 w - - 0 1")
	run.EPD = "8/8/8/8/8/8/8/8 w - -"
	run.BoardFEN = "8/8/8/8/8/8/8/8"
	run.Compressed = "8/8/8/8/8/8/8/8"
	run.Nodes, run.Steps = 7, 13
	run.OutputPath = "out/fen.yaml"
	run.CreatedAt = at
	return run
}

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	older := sampleRun("fen", base)
	newer := sampleRun("dots", base.Add(time.Minute))
	for _, r := range []*Run{older, newer} {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	older.Cached = true
	older.DeliveredTo = "http"
	if err := repo.Save(ctx, older); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.Get(ctx, older.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Cached || got.DeliveredTo != "http" || !got.CreatedAt.Equal(base) || got.Nodes != 7 {
		t.Fatalf("upsert not applied: %+v", got)
	}

	recent, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != newer.ID || recent[1].ID != older.ID {
		t.Fatalf("Recent order wrong: %+v", recent)
	}
	if one, _ := repo.Recent(ctx, 1); len(one) != 1 {
		t.Fatalf("limit ignored: %d", len(one))
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func exerciseDefaultLimit(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultRecentLimit+2; i++ {
		if err := repo.Save(ctx, sampleRun("ranks", base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	runs, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != DefaultRecentLimit {
		t.Fatalf("Recent(0) = %d runs, want %d", len(runs), DefaultRecentLimit)
	}
}

func TestRecentDefaultLimit(t *testing.T) {
	exerciseDefaultLimit(t, openSQLite(t))
	exerciseDefaultLimit(t, NewMemoryRepository())
}

func TestSQLiteRepository(t *testing.T) {
	exerciseRepository(t, openSQLite(t))
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "x"); !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
	if _, err := Open(context.Background(), DriverPostgres, ""); err == nil {
		t.Fatalf("postgres without dsn should fail")
	}
}

func TestRebind(t *testing.T) {
	pg := NewRepository(nil, DriverPostgres)
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("rebind = %q", got)
	}
	lite := NewRepository(nil, DriverSQLite)
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite query changed: %q", got)
	}
}
