// Package local implements store.Store as a durable key-value cache in
// SQLite: one row per collection, holding the whole collection as a JSON
// array. Every mutation rewrites its collection synchronously, so reads
// within the process always observe the latest write. Concurrent writers
// in separate processes race last-write-wins; that limitation is accepted
// for a single-user fallback cache.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tempo/internal/core"

	_ "modernc.org/sqlite"
)

// Collection keys, stable across releases: persisted data survives
// upgrades only if these never change.
const (
	keyCustomers   = "timetracker_customers"
	keyProjects    = "timetracker_projects"
	keyTimeEntries = "timetracker_time_entries"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes read-modify-write cycles in this process
}

// New opens (or creates) the fallback database at dbPath and runs the
// embedded migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Customers

func (s *Store) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return readCollection[core.Customer](ctx, s, keyCustomers)
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*core.Customer, error) {
	customers, err := s.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		if customers[i].ID == id {
			return &customers[i], nil
		}
	}
	return nil, nil
}

func (s *Store) CreateCustomer(ctx context.Context, nc core.NewCustomer) (*core.Customer, error) {
	if err := nc.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := readCollection[core.Customer](ctx, s, keyCustomers)
	if err != nil {
		return nil, err
	}
	customer := core.Customer{
		ID:        newID(),
		Name:      nc.Name,
		Email:     nc.Email,
		Company:   nc.Company,
		CreatedAt: nowStamp(),
	}
	customers = append(customers, customer)
	if err := writeCollection(ctx, s, keyCustomers, customers); err != nil {
		return nil, err
	}
	return &customer, nil
}

// Projects

func (s *Store) ListProjects(ctx context.Context) ([]core.Project, error) {
	return readCollection[core.Project](ctx, s, keyProjects)
}

// ListProjectsByCustomer filters the full collection in memory; order is
// insertion order, unlike the remote store's name ordering.
func (s *Store) ListProjectsByCustomer(ctx context.Context, customerID string) ([]core.Project, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Project
	for _, p := range projects {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*core.Project, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i], nil
		}
	}
	return nil, nil
}

func (s *Store) CreateProject(ctx context.Context, np core.NewProject) (*core.Project, error) {
	if err := np.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := readCollection[core.Project](ctx, s, keyProjects)
	if err != nil {
		return nil, err
	}
	project := core.Project{
		ID:         newID(),
		Name:       np.Name,
		CustomerID: np.CustomerID,
		Active:     np.Active,
		CreatedAt:  nowStamp(),
	}
	projects = append(projects, project)
	if err := writeCollection(ctx, s, keyProjects, projects); err != nil {
		return nil, err
	}
	return &project, nil
}

// Time entries

func (s *Store) ListTimeEntries(ctx context.Context) ([]core.TimeEntry, error) {
	return readCollection[core.TimeEntry](ctx, s, keyTimeEntries)
}

func (s *Store) ListTimeEntriesByUser(ctx context.Context, userID string) ([]core.TimeEntry, error) {
	return s.filterEntries(ctx, func(e core.TimeEntry) bool { return e.UserID == userID })
}

func (s *Store) ListTimeEntriesByCustomer(ctx context.Context, customerID string) ([]core.TimeEntry, error) {
	return s.filterEntries(ctx, func(e core.TimeEntry) bool { return e.CustomerID == customerID })
}

func (s *Store) ListTimeEntriesByProject(ctx context.Context, projectID string) ([]core.TimeEntry, error) {
	return s.filterEntries(ctx, func(e core.TimeEntry) bool { return e.ProjectID == projectID })
}

func (s *Store) filterEntries(ctx context.Context, keep func(core.TimeEntry) bool) ([]core.TimeEntry, error) {
	entries, err := s.ListTimeEntries(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.TimeEntry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) CreateTimeEntry(ctx context.Context, ne core.NewTimeEntry) (*core.TimeEntry, error) {
	if err := ne.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readCollection[core.TimeEntry](ctx, s, keyTimeEntries)
	if err != nil {
		return nil, err
	}
	entry := core.TimeEntry{
		ID:          newID(),
		Description: ne.Description,
		ProjectID:   ne.ProjectID,
		CustomerID:  ne.CustomerID,
		StartTime:   ne.StartTime,
		EndTime:     ne.EndTime,
		Duration:    ne.Duration,
		Billable:    ne.Billable,
		UserID:      ne.UserID,
		CreatedAt:   nowStamp(),
	}
	entries = append(entries, entry)
	if err := writeCollection(ctx, s, keyTimeEntries, entries); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateTimeEntry merges the non-nil update fields into the stored entry
// and rewrites the collection. A missing id yields (nil, nil).
func (s *Store) UpdateTimeEntry(ctx context.Context, id string, u core.TimeEntryUpdate) (*core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readCollection[core.TimeEntry](ctx, s, keyTimeEntries)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		u.Apply(&entries[i])
		if err := writeCollection(ctx, s, keyTimeEntries, entries); err != nil {
			return nil, err
		}
		entry := entries[i]
		return &entry, nil
	}
	return nil, nil
}

func (s *Store) DeleteTimeEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readCollection[core.TimeEntry](ctx, s, keyTimeEntries)
	if err != nil {
		return err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return writeCollection(ctx, s, keyTimeEntries, out)
}

// Seeding, used once at startup by the initialization routine.

// SeedCustomers writes the demo customers only when the collection is
// empty. Existing data is never touched.
func (s *Store) SeedCustomers(ctx context.Context, customers []core.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := readCollection[core.Customer](ctx, s, keyCustomers)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return writeCollection(ctx, s, keyCustomers, customers)
}

// SeedProjects is the project counterpart of SeedCustomers. Time entries
// have no seeding: they are exclusively user-generated.
func (s *Store) SeedProjects(ctx context.Context, projects []core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := readCollection[core.Project](ctx, s, keyProjects)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return writeCollection(ctx, s, keyProjects, projects)
}

// readCollection loads and decodes one whole collection. A missing row is
// an empty collection; an unparseable value is logged and likewise
// treated as empty rather than surfaced as an error.
func readCollection[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", key, err)
	}

	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.WarnContext(ctx, "Discarding corrupt collection", "key", key, "error", err)
		return nil, nil
	}
	return out, nil
}

func writeCollection[T any](ctx context.Context, s *Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal collection %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collections (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), nowStamp(),
	)
	if err != nil {
		return fmt.Errorf("write collection %s: %w", key, err)
	}
	return nil
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newID returns a short random base-36 identifier. Uniqueness is
// probabilistic, which is acceptable for a single-user local cache.
func newID() string {
	b := make([]byte, 7)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
