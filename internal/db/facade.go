// Package db is the data access facade consumed by the HTTP layer. It
// presents one contract per entity regardless of which physical store
// services a call, and decides per call between the remote backend and
// the local fallback store.
//
// The decision policy, applied independently on every call:
//
//  1. Remote not configured: always the local store.
//  2. Remote call answers with an explicit server error: log it and
//     return the sentinel (empty slice, nil, or false). The server
//     executed the query, so its verdict is trusted: no fallback, not
//     even for writes.
//  3. Remote call fails without a server answer (transport, timeout,
//     decode): log it and redirect this single call to the local store.
//     There is no sticky mode; the next call probes the remote again.
//
// Facade methods never return errors. The sentinel values are the whole
// failure surface; callers translate them into user-facing notices.
package db

import (
	"context"
	"errors"
	"log/slog"

	"tempo/internal/amqp"
	"tempo/internal/core"
	"tempo/internal/store"
	"tempo/internal/store/local"
	"tempo/internal/store/remote"
)

// SyncPublisher queues a locally persisted record for background replay
// to the remote backend. Implemented by *amqp.Client.
type SyncPublisher interface {
	PublishRecordSync(ctx context.Context, kind string, record any) error
}

// DB aggregates the per-entity facades. Construct it once at startup and
// share it; it is never reassigned afterwards.
type DB struct {
	Customers   *Customers
	Projects    *Projects
	TimeEntries *TimeEntries

	remote store.RemoteStore // nil when the remote backend is not configured
	local  *local.Store
	sync   SyncPublisher // nil when AMQP is not configured
}

// New wires the facade. Pass remote as a literal nil (not a nil concrete
// pointer) when the backend is unconfigured.
func New(remoteStore store.RemoteStore, localStore *local.Store, sync SyncPublisher) *DB {
	d := &DB{remote: remoteStore, local: localStore, sync: sync}
	d.Customers = &Customers{db: d}
	d.Projects = &Projects{db: d}
	d.TimeEntries = &TimeEntries{db: d}
	return d
}

type Customers struct{ db *DB }

func (c *Customers) GetAll(ctx context.Context) []core.Customer {
	return listOp(ctx, c.db, "customers.getAll",
		func(r store.RemoteStore) ([]core.Customer, error) { return r.ListCustomers(ctx) },
		func(l *local.Store) ([]core.Customer, error) { return l.ListCustomers(ctx) },
	)
}

func (c *Customers) GetByID(ctx context.Context, id string) *core.Customer {
	return getOp(ctx, c.db, "customers.getById",
		func(r store.RemoteStore) (*core.Customer, error) { return r.GetCustomer(ctx, id) },
		func(l *local.Store) (*core.Customer, error) { return l.GetCustomer(ctx, id) },
	)
}

func (c *Customers) Create(ctx context.Context, nc core.NewCustomer) *core.Customer {
	return createOp(ctx, c.db, "customers.create", amqp.KindCustomer,
		func(r store.RemoteStore) (*core.Customer, error) { return r.CreateCustomer(ctx, nc) },
		func(l *local.Store) (*core.Customer, error) { return l.CreateCustomer(ctx, nc) },
	)
}

type Projects struct{ db *DB }

func (p *Projects) GetAll(ctx context.Context) []core.Project {
	return listOp(ctx, p.db, "projects.getAll",
		func(r store.RemoteStore) ([]core.Project, error) { return r.ListProjects(ctx) },
		func(l *local.Store) ([]core.Project, error) { return l.ListProjects(ctx) },
	)
}

func (p *Projects) GetByCustomerID(ctx context.Context, customerID string) []core.Project {
	return listOp(ctx, p.db, "projects.getByCustomerId",
		func(r store.RemoteStore) ([]core.Project, error) { return r.ListProjectsByCustomer(ctx, customerID) },
		func(l *local.Store) ([]core.Project, error) { return l.ListProjectsByCustomer(ctx, customerID) },
	)
}

func (p *Projects) GetByID(ctx context.Context, id string) *core.Project {
	return getOp(ctx, p.db, "projects.getById",
		func(r store.RemoteStore) (*core.Project, error) { return r.GetProject(ctx, id) },
		func(l *local.Store) (*core.Project, error) { return l.GetProject(ctx, id) },
	)
}

func (p *Projects) Create(ctx context.Context, np core.NewProject) *core.Project {
	return createOp(ctx, p.db, "projects.create", amqp.KindProject,
		func(r store.RemoteStore) (*core.Project, error) { return r.CreateProject(ctx, np) },
		func(l *local.Store) (*core.Project, error) { return l.CreateProject(ctx, np) },
	)
}

type TimeEntries struct{ db *DB }

func (t *TimeEntries) GetAll(ctx context.Context) []core.TimeEntry {
	return listOp(ctx, t.db, "timeEntries.getAll",
		func(r store.RemoteStore) ([]core.TimeEntry, error) { return r.ListTimeEntries(ctx) },
		func(l *local.Store) ([]core.TimeEntry, error) { return l.ListTimeEntries(ctx) },
	)
}

func (t *TimeEntries) GetByUserID(ctx context.Context, userID string) []core.TimeEntry {
	return listOp(ctx, t.db, "timeEntries.getByUserId",
		func(r store.RemoteStore) ([]core.TimeEntry, error) { return r.ListTimeEntriesByUser(ctx, userID) },
		func(l *local.Store) ([]core.TimeEntry, error) { return l.ListTimeEntriesByUser(ctx, userID) },
	)
}

func (t *TimeEntries) GetByCustomerID(ctx context.Context, customerID string) []core.TimeEntry {
	return listOp(ctx, t.db, "timeEntries.getByCustomerId",
		func(r store.RemoteStore) ([]core.TimeEntry, error) { return r.ListTimeEntriesByCustomer(ctx, customerID) },
		func(l *local.Store) ([]core.TimeEntry, error) { return l.ListTimeEntriesByCustomer(ctx, customerID) },
	)
}

func (t *TimeEntries) GetByProjectID(ctx context.Context, projectID string) []core.TimeEntry {
	return listOp(ctx, t.db, "timeEntries.getByProjectId",
		func(r store.RemoteStore) ([]core.TimeEntry, error) { return r.ListTimeEntriesByProject(ctx, projectID) },
		func(l *local.Store) ([]core.TimeEntry, error) { return l.ListTimeEntriesByProject(ctx, projectID) },
	)
}

func (t *TimeEntries) Create(ctx context.Context, ne core.NewTimeEntry) *core.TimeEntry {
	return createOp(ctx, t.db, "timeEntries.create", amqp.KindTimeEntry,
		func(r store.RemoteStore) (*core.TimeEntry, error) { return r.CreateTimeEntry(ctx, ne) },
		func(l *local.Store) (*core.TimeEntry, error) { return l.CreateTimeEntry(ctx, ne) },
	)
}

func (t *TimeEntries) Update(ctx context.Context, id string, u core.TimeEntryUpdate) *core.TimeEntry {
	d := t.db
	const op = "timeEntries.update"
	if d.remote == nil {
		out, err := d.local.UpdateTimeEntry(ctx, id, u)
		if err != nil {
			slog.ErrorContext(ctx, "Local update failed", "op", op, "id", id, "error", err)
			return nil
		}
		return out
	}
	out, err := d.remote.UpdateTimeEntry(ctx, id, u)
	if err != nil {
		if isServerError(err) {
			slog.ErrorContext(ctx, "Remote update rejected", "op", op, "id", id, "error", err)
			return nil
		}
		slog.WarnContext(ctx, "Remote unreachable, updating locally", "op", op, "id", id, "error", err)
		lout, lerr := d.local.UpdateTimeEntry(ctx, id, u)
		if lerr != nil {
			slog.ErrorContext(ctx, "Local fallback update failed", "op", op, "id", id, "error", lerr)
			return nil
		}
		if lout != nil {
			d.publishSync(ctx, amqp.KindTimeEntry, lout)
		}
		return lout
	}
	return out
}

// Delete reports success as true and any failure as false; a
// server-rejected delete stays false without touching local data.
func (t *TimeEntries) Delete(ctx context.Context, id string) bool {
	d := t.db
	const op = "timeEntries.delete"
	if d.remote == nil {
		if err := d.local.DeleteTimeEntry(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Local delete failed", "op", op, "id", id, "error", err)
			return false
		}
		return true
	}
	if err := d.remote.DeleteTimeEntry(ctx, id); err != nil {
		if isServerError(err) {
			slog.ErrorContext(ctx, "Remote delete rejected", "op", op, "id", id, "error", err)
			return false
		}
		slog.WarnContext(ctx, "Remote unreachable, deleting locally", "op", op, "id", id, "error", err)
		if lerr := d.local.DeleteTimeEntry(ctx, id); lerr != nil {
			slog.ErrorContext(ctx, "Local fallback delete failed", "op", op, "id", id, "error", lerr)
			return false
		}
		return true
	}
	return true
}

// Shared policy helpers. The three shapes differ only in their sentinel:
// empty slice, nil pointer, nil pointer with sync publication.

func listOp[T any](ctx context.Context, d *DB, op string,
	remoteFn func(store.RemoteStore) ([]T, error),
	localFn func(*local.Store) ([]T, error),
) []T {
	if d.remote == nil {
		out, err := localFn(d.local)
		if err != nil {
			slog.ErrorContext(ctx, "Local query failed", "op", op, "error", err)
			return []T{}
		}
		return nonNil(out)
	}
	out, err := remoteFn(d.remote)
	if err != nil {
		if isServerError(err) {
			slog.ErrorContext(ctx, "Remote query failed", "op", op, "error", err)
			return []T{}
		}
		slog.WarnContext(ctx, "Remote unreachable, using local fallback", "op", op, "error", err)
		lout, lerr := localFn(d.local)
		if lerr != nil {
			slog.ErrorContext(ctx, "Local fallback query failed", "op", op, "error", lerr)
			return []T{}
		}
		return nonNil(lout)
	}
	return nonNil(out)
}

func getOp[T any](ctx context.Context, d *DB, op string,
	remoteFn func(store.RemoteStore) (*T, error),
	localFn func(*local.Store) (*T, error),
) *T {
	if d.remote == nil {
		out, err := localFn(d.local)
		if err != nil {
			slog.ErrorContext(ctx, "Local lookup failed", "op", op, "error", err)
			return nil
		}
		return out
	}
	out, err := remoteFn(d.remote)
	if err != nil {
		if isServerError(err) {
			slog.ErrorContext(ctx, "Remote lookup failed", "op", op, "error", err)
			return nil
		}
		slog.WarnContext(ctx, "Remote unreachable, using local fallback", "op", op, "error", err)
		lout, lerr := localFn(d.local)
		if lerr != nil {
			slog.ErrorContext(ctx, "Local fallback lookup failed", "op", op, "error", lerr)
			return nil
		}
		return lout
	}
	return out
}

func createOp[T any](ctx context.Context, d *DB, op, kind string,
	remoteFn func(store.RemoteStore) (*T, error),
	localFn func(*local.Store) (*T, error),
) *T {
	if d.remote == nil {
		out, err := localFn(d.local)
		if err != nil {
			slog.ErrorContext(ctx, "Local create failed", "op", op, "error", err)
			return nil
		}
		return out
	}
	out, err := remoteFn(d.remote)
	if err != nil {
		if isServerError(err) {
			slog.ErrorContext(ctx, "Remote create rejected", "op", op, "error", err)
			return nil
		}
		slog.WarnContext(ctx, "Remote unreachable, persisting locally", "op", op, "error", err)
		lout, lerr := localFn(d.local)
		if lerr != nil {
			slog.ErrorContext(ctx, "Local fallback create failed", "op", op, "error", lerr)
			return nil
		}
		if lout != nil {
			d.publishSync(ctx, kind, lout)
		}
		return lout
	}
	return out
}

// publishSync is best-effort: a record that only made it to the local
// store is queued for background replay when AMQP is configured.
func (d *DB) publishSync(ctx context.Context, kind string, record any) {
	if d.sync == nil {
		return
	}
	if err := d.sync.PublishRecordSync(ctx, kind, record); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "kind", kind, "error", err)
	}
}

func isServerError(err error) bool {
	var serr *remote.ServerError
	return errors.As(err, &serr)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
