package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/woozymasta/mcstatus/internal/models"
)

func newRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestInsertAndListQueries(t *testing.T) {
	repo := newRepository(t)
	now := time.Now()

	records := []models.QueryRecord{
		{Host: "old.example.com", Port: 25565, Outcome: models.OutcomeOK, QueriedAt: now.Add(-time.Hour)},
		{Host: "mc.example.com", Port: 25565, Outcome: "timeout", Error: "no data", QueriedAt: now.Add(-time.Minute)},
		{Host: "new.example.com", Port: 25566, Outcome: models.OutcomeNoInformation, LatencyMS: 12, PayloadSize: 28, QueriedAt: now},
	}
	for _, r := range records {
		if _, err := repo.InsertQuery(r); err != nil {
			t.Fatalf("InsertQuery: %v", err)
		}
	}

	list, err := repo.ListQueries(2)
	if err != nil {
		t.Fatalf("ListQueries: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListQueries returned %d records, want 2", len(list))
	}
	if list[0].Host != "new.example.com" || list[1].Host != "mc.example.com" {
		t.Errorf("unexpected order: %s, %s", list[0].Host, list[1].Host)
	}
	if list[0].Port != 25566 || list[0].LatencyMS != 12 || list[0].PayloadSize != 28 {
		t.Errorf("fields not round-tripped: %+v", list[0])
	}
	if list[1].Error != "no data" {
		t.Errorf("Error = %q", list[1].Error)
	}

	count, err := repo.CountQueries()
	if err != nil {
		t.Fatalf("CountQueries: %v", err)
	}
	if count != 3 {
		t.Errorf("CountQueries = %d, want 3", count)
	}
}

func TestPruneQueries(t *testing.T) {
	repo := newRepository(t)
	now := time.Now()

	for _, age := range []time.Duration{48 * time.Hour, 25 * time.Hour, time.Hour, 0} {
		if _, err := repo.InsertQuery(models.QueryRecord{
			Host: "mc.example.com", Port: 25565, Outcome: models.OutcomeOK, QueriedAt: now.Add(-age),
		}); err != nil {
			t.Fatalf("InsertQuery: %v", err)
		}
	}

	deleted, err := repo.PruneQueries(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PruneQueries: %v", err)
	}
	if deleted != 2 {
		t.Errorf("PruneQueries deleted %d, want 2", deleted)
	}

	count, _ := repo.CountQueries()
	if count != 2 {
		t.Errorf("CountQueries = %d, want 2", count)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	for i := 0; i < 2; i++ {
		repo, err := New(path)
		if err != nil {
			t.Fatalf("New #%d: %v", i+1, err)
		}
		_ = repo.Close()
	}
}
