package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Customer is a billable party. Customers are immutable once created:
	// the stores expose no update or delete for them.
	Customer struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email,omitempty"`
		Company   string `json:"company,omitempty"`
		CreatedAt string `json:"created_at,omitempty"`
	}

	// Project groups time entries. CustomerID may be empty for internal
	// projects.
	Project struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		CustomerID string `json:"customer_id,omitempty"`
		Active     bool   `json:"active"`
		CreatedAt  string `json:"created_at,omitempty"`
	}

	// TimeEntry is a tracked span of work. Duration is whole seconds and
	// equals end minus start by construction at every entry point; it is
	// not re-validated afterwards.
	TimeEntry struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		ProjectID   string `json:"project_id"`
		CustomerID  string `json:"customer_id"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
		Duration    int64  `json:"duration"`
		Billable    bool   `json:"billable"`
		UserID      string `json:"user_id"`
		CreatedAt   string `json:"created_at,omitempty"`
	}

	// NewCustomer is the creation payload: a Customer minus the
	// store-assigned id and created_at.
	NewCustomer struct {
		Name    string `json:"name"`
		Email   string `json:"email,omitempty"`
		Company string `json:"company,omitempty"`
	}

	NewProject struct {
		Name       string `json:"name"`
		CustomerID string `json:"customer_id,omitempty"`
		Active     bool   `json:"active"`
	}

	NewTimeEntry struct {
		Description string `json:"description"`
		ProjectID   string `json:"project_id"`
		CustomerID  string `json:"customer_id"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
		Duration    int64  `json:"duration"`
		Billable    bool   `json:"billable"`
		UserID      string `json:"user_id"`
	}

	// TimeEntryUpdate carries a partial update; nil fields are left
	// untouched by the stores.
	TimeEntryUpdate struct {
		Description *string `json:"description,omitempty"`
		ProjectID   *string `json:"project_id,omitempty"`
		CustomerID  *string `json:"customer_id,omitempty"`
		StartTime   *string `json:"start_time,omitempty"`
		EndTime     *string `json:"end_time,omitempty"`
		Duration    *int64  `json:"duration,omitempty"`
		Billable    *bool   `json:"billable,omitempty"`
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingProject   = errors.New("missing project id")
	ErrMissingCustomer  = errors.New("missing customer id")
	ErrMissingUser      = errors.New("missing user id")
	ErrInvalidDuration  = errors.New("invalid duration")
)

func (c NewCustomer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (p NewProject) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (e NewTimeEntry) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.ProjectID == "" {
		return ErrMissingProject
	}
	if e.CustomerID == "" {
		return ErrMissingCustomer
	}
	if e.UserID == "" {
		return ErrMissingUser
	}
	if e.Duration < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Apply merges the non-nil fields of the update into the entry.
func (u TimeEntryUpdate) Apply(e *TimeEntry) {
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.ProjectID != nil {
		e.ProjectID = *u.ProjectID
	}
	if u.CustomerID != nil {
		e.CustomerID = *u.CustomerID
	}
	if u.StartTime != nil {
		e.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		e.EndTime = *u.EndTime
	}
	if u.Duration != nil {
		e.Duration = *u.Duration
	}
	if u.Billable != nil {
		e.Billable = *u.Billable
	}
}

// EntryFromTimer builds the creation payload for a timer that ran for
// elapsed seconds and was stopped at stoppedAt. The start time is derived
// backwards from the stop instant so that duration == end - start holds
// exactly.
func EntryFromTimer(stoppedAt time.Time, elapsed int64, description, projectID, customerID, userID string, billable bool) NewTimeEntry {
	stop := stoppedAt.UTC().Truncate(time.Second)
	start := stop.Add(-time.Duration(elapsed) * time.Second)
	return NewTimeEntry{
		Description: description,
		ProjectID:   projectID,
		CustomerID:  customerID,
		StartTime:   start.Format(time.RFC3339),
		EndTime:     stop.Format(time.RFC3339),
		Duration:    elapsed,
		Billable:    billable,
		UserID:      userID,
	}
}
