// Package store defines the capability contracts shared by the remote
// backend adapter and the local fallback store. The facade in internal/db
// composes the two implementations; nothing below the facade decides
// which store services a call.
package store

import (
	"context"

	"tempo/internal/core"
)

type (
	// CustomerStore covers the customer operations. Customers cannot be
	// updated or deleted once created.
	CustomerStore interface {
		ListCustomers(ctx context.Context) ([]core.Customer, error)
		GetCustomer(ctx context.Context, id string) (*core.Customer, error)
		CreateCustomer(ctx context.Context, c core.NewCustomer) (*core.Customer, error)
	}

	ProjectStore interface {
		ListProjects(ctx context.Context) ([]core.Project, error)
		// ListProjectsByCustomer returns the projects whose customer_id
		// equals customerID. The remote store orders by name, the local
		// store by insertion.
		ListProjectsByCustomer(ctx context.Context, customerID string) ([]core.Project, error)
		GetProject(ctx context.Context, id string) (*core.Project, error)
		CreateProject(ctx context.Context, p core.NewProject) (*core.Project, error)
	}

	TimeEntryStore interface {
		ListTimeEntries(ctx context.Context) ([]core.TimeEntry, error)
		ListTimeEntriesByUser(ctx context.Context, userID string) ([]core.TimeEntry, error)
		ListTimeEntriesByCustomer(ctx context.Context, customerID string) ([]core.TimeEntry, error)
		ListTimeEntriesByProject(ctx context.Context, projectID string) ([]core.TimeEntry, error)
		CreateTimeEntry(ctx context.Context, e core.NewTimeEntry) (*core.TimeEntry, error)
		UpdateTimeEntry(ctx context.Context, id string, u core.TimeEntryUpdate) (*core.TimeEntry, error)
		DeleteTimeEntry(ctx context.Context, id string) error
	}

	// Store is the full per-entity contract implemented by both backends.
	Store interface {
		CustomerStore
		ProjectStore
		TimeEntryStore
	}

	// RemoteStore adds the connectivity probe used by the startup
	// initialization routine.
	RemoteStore interface {
		Store
		Ping(ctx context.Context) error
	}
)
