// Package worker replays records that were persisted locally while the
// remote backend was unreachable.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"tempo/internal/amqp"
	"tempo/internal/core"
	"tempo/internal/store"
	"tempo/internal/store/remote"
)

// SyncWorker pushes queued records to the remote backend.
type SyncWorker struct {
	remote store.RemoteStore
}

func NewSyncWorker(remoteStore store.RemoteStore) *SyncWorker {
	return &SyncWorker{remote: remoteStore}
}

// HandleSyncMessage processes a single record sync message. A transport
// failure is returned so the delivery gets requeued; a server rejection is
// final and the message is dropped after logging, since retrying a query
// the server already refused cannot succeed.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	err := w.replay(ctx, msg)
	if err == nil {
		return nil
	}
	var serr *remote.ServerError
	if errors.As(err, &serr) {
		slog.ErrorContext(ctx, "Remote rejected replayed record, dropping",
			"kind", msg.Kind,
			"status", serr.Status,
			"error", serr)
		return nil
	}
	return err
}

func (w *SyncWorker) replay(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	switch msg.Kind {
	case amqp.KindCustomer:
		var c core.Customer
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return fmt.Errorf("decode customer payload: %w", err)
		}
		_, err := w.remote.CreateCustomer(ctx, core.NewCustomer{
			Name:    c.Name,
			Email:   c.Email,
			Company: c.Company,
		})
		if err != nil {
			return fmt.Errorf("replay customer: %w", err)
		}
		slog.InfoContext(ctx, "Replayed customer to remote backend", "local_id", c.ID, "name", c.Name)
		return nil

	case amqp.KindProject:
		var p core.Project
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode project payload: %w", err)
		}
		_, err := w.remote.CreateProject(ctx, core.NewProject{
			Name:       p.Name,
			CustomerID: p.CustomerID,
			Active:     p.Active,
		})
		if err != nil {
			return fmt.Errorf("replay project: %w", err)
		}
		slog.InfoContext(ctx, "Replayed project to remote backend", "local_id", p.ID, "name", p.Name)
		return nil

	case amqp.KindTimeEntry:
		var e core.TimeEntry
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			return fmt.Errorf("decode time entry payload: %w", err)
		}
		_, err := w.remote.CreateTimeEntry(ctx, core.NewTimeEntry{
			Description: e.Description,
			ProjectID:   e.ProjectID,
			CustomerID:  e.CustomerID,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			Duration:    e.Duration,
			Billable:    e.Billable,
			UserID:      e.UserID,
		})
		if err != nil {
			return fmt.Errorf("replay time entry: %w", err)
		}
		slog.InfoContext(ctx, "Replayed time entry to remote backend", "local_id", e.ID)
		return nil

	default:
		// Unknown kinds are dropped rather than requeued forever.
		slog.WarnContext(ctx, "Dropping sync message of unknown kind", "kind", msg.Kind)
		return nil
	}
}
