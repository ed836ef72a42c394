package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tempo/internal/amqp"
	"tempo/internal/core"
	"tempo/internal/store/remote"
)

// recordingRemote captures create calls; err, when set, is returned by all
// of them.
type recordingRemote struct {
	err       error
	customers []core.NewCustomer
	projects  []core.NewProject
	entries   []core.NewTimeEntry
}

func (r *recordingRemote) Ping(ctx context.Context) error { return r.err }

func (r *recordingRemote) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return nil, r.err
}

func (r *recordingRemote) GetCustomer(ctx context.Context, id string) (*core.Customer, error) {
	return nil, r.err
}

func (r *recordingRemote) CreateCustomer(ctx context.Context, nc core.NewCustomer) (*core.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.customers = append(r.customers, nc)
	return &core.Customer{ID: "remote-id", Name: nc.Name}, nil
}

func (r *recordingRemote) ListProjects(ctx context.Context) ([]core.Project, error) {
	return nil, r.err
}

func (r *recordingRemote) ListProjectsByCustomer(ctx context.Context, customerID string) ([]core.Project, error) {
	return nil, r.err
}

func (r *recordingRemote) GetProject(ctx context.Context, id string) (*core.Project, error) {
	return nil, r.err
}

func (r *recordingRemote) CreateProject(ctx context.Context, np core.NewProject) (*core.Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.projects = append(r.projects, np)
	return &core.Project{ID: "remote-id", Name: np.Name}, nil
}

func (r *recordingRemote) ListTimeEntries(ctx context.Context) ([]core.TimeEntry, error) {
	return nil, r.err
}

func (r *recordingRemote) ListTimeEntriesByUser(ctx context.Context, userID string) ([]core.TimeEntry, error) {
	return nil, r.err
}

func (r *recordingRemote) ListTimeEntriesByCustomer(ctx context.Context, customerID string) ([]core.TimeEntry, error) {
	return nil, r.err
}

func (r *recordingRemote) ListTimeEntriesByProject(ctx context.Context, projectID string) ([]core.TimeEntry, error) {
	return nil, r.err
}

func (r *recordingRemote) CreateTimeEntry(ctx context.Context, ne core.NewTimeEntry) (*core.TimeEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.entries = append(r.entries, ne)
	return &core.TimeEntry{ID: "remote-id"}, nil
}

func (r *recordingRemote) UpdateTimeEntry(ctx context.Context, id string, u core.TimeEntryUpdate) (*core.TimeEntry, error) {
	return nil, r.err
}

func (r *recordingRemote) DeleteTimeEntry(ctx context.Context, id string) error {
	return r.err
}

func mustMessage(t *testing.T, kind string, record any) *amqp.RecordSyncMessage {
	t.Helper()
	msg, err := amqp.NewRecordSyncMessage(kind, record)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	return msg
}

func TestHandleSyncMessageReplaysTimeEntry(t *testing.T) {
	r := &recordingRemote{}
	w := NewSyncWorker(r)

	entry := core.TimeEntry{
		ID:          "abc1234",
		Description: "debugging",
		ProjectID:   "p1",
		CustomerID:  "c1",
		StartTime:   "2026-08-28T09:00:00Z",
		EndTime:     "2026-08-28T10:00:00Z",
		Duration:    3600,
		Billable:    true,
		UserID:      "u1",
	}
	if err := w.HandleSyncMessage(context.Background(), mustMessage(t, amqp.KindTimeEntry, entry)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(r.entries) != 1 {
		t.Fatalf("expected one replayed entry, got %d", len(r.entries))
	}
	got := r.entries[0]
	if got.Description != "debugging" || got.Duration != 3600 || !got.Billable || got.UserID != "u1" {
		t.Fatalf("replayed entry lost fields: %+v", got)
	}
}

func TestHandleSyncMessageReplaysCustomerAndProject(t *testing.T) {
	r := &recordingRemote{}
	w := NewSyncWorker(r)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, mustMessage(t, amqp.KindCustomer,
		core.Customer{ID: "c9", Name: "Acme Inc", Email: "contact@acme.com"})); err != nil {
		t.Fatalf("customer: %v", err)
	}
	if err := w.HandleSyncMessage(ctx, mustMessage(t, amqp.KindProject,
		core.Project{ID: "p9", Name: "Website Redesign", CustomerID: "c9", Active: true})); err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(r.customers) != 1 || r.customers[0].Name != "Acme Inc" {
		t.Fatalf("customer not replayed: %+v", r.customers)
	}
	if len(r.projects) != 1 || !r.projects[0].Active {
		t.Fatalf("project not replayed: %+v", r.projects)
	}
}

func TestHandleSyncMessageTransportErrorRequeues(t *testing.T) {
	r := &recordingRemote{err: errors.New("dial tcp: connection refused")}
	w := NewSyncWorker(r)

	err := w.HandleSyncMessage(context.Background(), mustMessage(t, amqp.KindCustomer,
		core.Customer{ID: "c1", Name: "Acme Inc"}))
	if err == nil {
		t.Fatal("transport failure must surface so the delivery is requeued")
	}
}

func TestHandleSyncMessageServerRejectionDrops(t *testing.T) {
	r := &recordingRemote{err: &remote.ServerError{Status: 409, Code: "23505", Message: "duplicate key"}}
	w := NewSyncWorker(r)

	err := w.HandleSyncMessage(context.Background(), mustMessage(t, amqp.KindCustomer,
		core.Customer{ID: "c1", Name: "Acme Inc"}))
	if err != nil {
		t.Fatalf("server rejection must be dropped, not requeued: %v", err)
	}
}

func TestHandleSyncMessageUnknownKindDrops(t *testing.T) {
	w := NewSyncWorker(&recordingRemote{})
	msg := &amqp.RecordSyncMessage{Kind: "invoice", Payload: json.RawMessage(`{}`)}

	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("unknown kind must be dropped: %v", err)
	}
}
