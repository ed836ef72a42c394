package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tempo/internal/core"
)

// Initialize probes the remote backend and, when the app will run against
// the local store, seeds it with demo customers and projects so a fresh
// install is not an empty screen. Time entries are never seeded.
//
// Initialization is idempotent and best-effort: a failed probe or seed
// leaves the app fully usable through the per-call fallback policy.
func (d *DB) Initialize(ctx context.Context) error {
	if d.remote != nil {
		if err := d.remote.Ping(ctx); err == nil {
			slog.InfoContext(ctx, "Connected to remote backend")
			return nil
		} else {
			slog.WarnContext(ctx, "Remote backend unreachable at startup, preparing local store", "error", err)
		}
	} else {
		slog.InfoContext(ctx, "Remote backend not configured, using local store")
	}

	if err := d.seedDemoData(ctx); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	return nil
}

func (d *DB) seedDemoData(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)

	customers := []core.Customer{
		{ID: "c1", Name: "Acme Inc", Email: "contact@acme.com", Company: "Acme", CreatedAt: now},
		{ID: "c2", Name: "Globex", Email: "info@globex.com", Company: "Globex Corp", CreatedAt: now},
		{ID: "c3", Name: "Umbrella Corp", Email: "hello@umbrella.com", Company: "Umbrella", CreatedAt: now},
	}
	projects := []core.Project{
		{ID: "p1", Name: "Website Redesign", CustomerID: "c1", Active: true, CreatedAt: now},
		{ID: "p2", Name: "Mobile App", CustomerID: "c1", Active: true, CreatedAt: now},
		{ID: "p3", Name: "Marketing Campaign", CustomerID: "c2", Active: true, CreatedAt: now},
		{ID: "p4", Name: "Internal Tools", CustomerID: "c3", Active: true, CreatedAt: now},
	}

	if err := d.local.SeedCustomers(ctx, customers); err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}
	if err := d.local.SeedProjects(ctx, projects); err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}

	slog.InfoContext(ctx, "Local store ready", "demo_customers", len(customers), "demo_projects", len(projects))
	return nil
}
