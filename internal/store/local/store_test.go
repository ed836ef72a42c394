package local

import (
	"context"
	"path/filepath"
	"testing"

	"tempo/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateCustomerPersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateCustomer(ctx, core.NewCustomer{Name: "Acme Inc", Email: "contact@acme.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected non-empty id")
	}
	if created.CreatedAt == "" {
		t.Fatalf("expected created_at to be assigned")
	}

	all, err := s.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].ID != created.ID || all[0].Name != "Acme Inc" {
		t.Fatalf("unexpected collection: %+v", all)
	}
}

func TestCreateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tempo.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.CreateCustomer(ctx, core.NewCustomer{Name: "Globex"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	all, err := s2.ListCustomers(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected 1 customer after reopen, got %v (%v)", all, err)
	}
}

func TestProjectsFilterByCustomerInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Deliberately not alphabetical: the local store keeps insertion
	// order, whereas the remote store would order by name.
	for _, name := range []string{"Zeta", "Alpha"} {
		if _, err := s.CreateProject(ctx, core.NewProject{Name: name, CustomerID: "c1", Active: true}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := s.CreateProject(ctx, core.NewProject{Name: "Other", CustomerID: "c2", Active: true}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	got, err := s.ListProjectsByCustomer(ctx, "c1")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Zeta" || got[1].Name != "Alpha" {
		t.Fatalf("unexpected filtered projects: %+v", got)
	}
}

func TestTimeEntryUpdateMergesFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTimeEntry(ctx, core.NewTimeEntry{
		Description: "draft",
		ProjectID:   "p1",
		CustomerID:  "c1",
		StartTime:   "2026-08-28T09:00:00Z",
		EndTime:     "2026-08-28T10:00:00Z",
		Duration:    3600,
		Billable:    true,
		UserID:      "u1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	desc := "final"
	updated, err := s.UpdateTimeEntry(ctx, created.ID, core.TimeEntryUpdate{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != "final" || updated.Duration != 3600 || !updated.Billable {
		t.Fatalf("merge broke fields: %+v", updated)
	}

	missing, err := s.UpdateTimeEntry(ctx, "nope", core.TimeEntryUpdate{Description: &desc})
	if err != nil || missing != nil {
		t.Fatalf("missing id: want nil, nil; got %+v, %v", missing, err)
	}
}

func TestDeleteTimeEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, err := s.CreateTimeEntry(ctx, core.NewTimeEntry{
		Description: "x", ProjectID: "p1", CustomerID: "c1", UserID: "u1",
		StartTime: "2026-08-28T09:00:00Z", EndTime: "2026-08-28T09:01:00Z", Duration: 60,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteTimeEntry(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, err := s.ListTimeEntries(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("expected empty after delete, got %v (%v)", all, err)
	}
	// Deleting an absent id is a no-op, not an error.
	if err := s.DeleteTimeEntry(ctx, "nope"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestCorruptCollectionReadsAsEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (key, value) VALUES (?, ?)`,
		keyCustomers, `{not json`); err != nil {
		t.Fatalf("inject corruption: %v", err)
	}

	all, err := s.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("corrupt read must not error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("corrupt read must be empty, got %+v", all)
	}
}

func TestSeedingIsIdempotentAndSkipsNonEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	demo := []core.Customer{{ID: "c1", Name: "Acme Inc"}}
	if err := s.SeedCustomers(ctx, demo); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.SeedCustomers(ctx, []core.Customer{{ID: "c9", Name: "Other"}}); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	all, _ := s.ListCustomers(ctx)
	if len(all) != 1 || all[0].ID != "c1" {
		t.Fatalf("seed not idempotent: %+v", all)
	}
}

func TestNewIDShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newID()
		if len(id) != 7 {
			t.Fatalf("id %q has length %d", id, len(id))
		}
		for _, r := range id {
			if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
				t.Fatalf("id %q contains %q", id, r)
			}
		}
		seen[id] = true
	}
	// Uniqueness is probabilistic, not guaranteed; 100 draws colliding
	// down to a handful would still indicate a broken generator.
	if len(seen) < 95 {
		t.Fatalf("suspicious collision rate: %d distinct of 100", len(seen))
	}
}
