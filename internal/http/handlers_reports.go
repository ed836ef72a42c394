package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"tempo/internal/core"
)

type CustomerSummary struct {
	CustomerID     string  `json:"customer_id"`
	CustomerName   string  `json:"customer_name"`
	TotalHours     float64 `json:"total_hours"`
	BillableAmount float64 `json:"billable_amount"`
	Entries        int     `json:"entries"`
}

type ProjectSummary struct {
	ProjectID    string  `json:"project_id"`
	ProjectName  string  `json:"project_name"`
	CustomerID   string  `json:"customer_id,omitempty"`
	TotalHours   float64 `json:"total_hours"`
	TotalTracked string  `json:"total_tracked"`
	Entries      int     `json:"entries"`
}

type SummaryReport struct {
	TotalHours     float64           `json:"total_hours"`
	BillableAmount float64           `json:"billable_amount"`
	HourlyRate     float64           `json:"hourly_rate"`
	TotalEntries   int               `json:"total_entries"`
	ByCustomer     []CustomerSummary `json:"by_customer"`
	ByProject      []ProjectSummary  `json:"by_project"`
	GeneratedAt    string            `json:"generated_at"`
}

// handleSummaryReport aggregates tracked time and billable value across
// all entries, grouped by customer and by project. An optional ?rate=
// query overrides the configured hourly rate; ?user_id= or ?project_id=
// narrows the report to matching entries.
func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	rate := s.hourlyRate
	if v := q.Get("rate"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid rate")
			return
		}
		rate = parsed
	}
	userID := q.Get("user_id")
	projectID := q.Get("project_id")

	key := fmt.Sprintf("summary:%s:%s:%g", userID, projectID, rate)
	if cached, ok := s.summaryCache.Get(key); ok {
		slog.DebugContext(ctx, "Summary cache hit", "key", key)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	var (
		customers []core.Customer
		projects  []core.Project
		entries   []core.TimeEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customers = s.data.Customers.GetAll(gctx)
		return nil
	})
	g.Go(func() error {
		projects = s.data.Projects.GetAll(gctx)
		return nil
	})
	g.Go(func() error {
		switch {
		case userID != "":
			entries = s.data.TimeEntries.GetByUserID(gctx, userID)
		case projectID != "":
			entries = s.data.TimeEntries.GetByProjectID(gctx, projectID)
		default:
			entries = s.data.TimeEntries.GetAll(gctx)
		}
		return nil
	})
	// Facade calls surface failures as empty results, never as errors.
	_ = g.Wait()

	report := buildSummary(customers, projects, entries, rate)
	s.summaryCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func buildSummary(customers []core.Customer, projects []core.Project, entries []core.TimeEntry, rate float64) SummaryReport {
	customerNames := make(map[string]string, len(customers))
	for _, c := range customers {
		customerNames[c.ID] = c.Name
	}
	projectNames := make(map[string]string, len(projects))
	projectCustomer := make(map[string]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
		projectCustomer[p.ID] = p.CustomerID
	}

	byCustomer := make(map[string]*CustomerSummary)
	byProject := make(map[string]*ProjectSummary)
	var customerOrder, projectOrder []string
	var projectSeconds = make(map[string]int64)

	for _, e := range entries {
		cs, ok := byCustomer[e.CustomerID]
		if !ok {
			cs = &CustomerSummary{CustomerID: e.CustomerID, CustomerName: customerNames[e.CustomerID]}
			byCustomer[e.CustomerID] = cs
			customerOrder = append(customerOrder, e.CustomerID)
		}
		cs.TotalHours += float64(e.Duration) / 3600
		if e.Billable {
			cs.BillableAmount += float64(e.Duration) / 3600 * rate
		}
		cs.Entries++

		ps, ok := byProject[e.ProjectID]
		if !ok {
			ps = &ProjectSummary{
				ProjectID:   e.ProjectID,
				ProjectName: projectNames[e.ProjectID],
				CustomerID:  projectCustomer[e.ProjectID],
			}
			byProject[e.ProjectID] = ps
			projectOrder = append(projectOrder, e.ProjectID)
		}
		ps.TotalHours += float64(e.Duration) / 3600
		ps.Entries++
		projectSeconds[e.ProjectID] += e.Duration
	}

	report := SummaryReport{
		TotalHours:     round1(core.TotalHours(entries)),
		BillableAmount: round2(core.BillableAmount(entries, rate)),
		HourlyRate:     rate,
		TotalEntries:   len(entries),
		ByCustomer:     []CustomerSummary{},
		ByProject:      []ProjectSummary{},
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	for _, id := range customerOrder {
		cs := *byCustomer[id]
		cs.TotalHours = round1(cs.TotalHours)
		cs.BillableAmount = round2(cs.BillableAmount)
		report.ByCustomer = append(report.ByCustomer, cs)
	}
	for _, id := range projectOrder {
		ps := *byProject[id]
		ps.TotalHours = round1(ps.TotalHours)
		ps.TotalTracked = core.FormatDurationShort(projectSeconds[id])
		report.ByProject = append(report.ByProject, ps)
	}
	return report
}
