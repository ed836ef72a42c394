// Package core holds the domain entities and the derived aggregation
// helpers consumed by dashboards and reports.
//
// This file contains the pure duration arithmetic: integer seconds in,
// floating-point hours out. No rounding is applied here; display rounding
// (one decimal for hour totals, two for currency) is the presentation
// layer's job.
package core

import "fmt"

// FormatDuration renders a second count as zero-padded HH:MM:SS. Hours
// are not wrapped at 24, so long durations keep growing the hour field.
//
// Examples:
//
//	FormatDuration(125)  -> "00:02:05"
//	FormatDuration(8100) -> "02:15:00"
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatDurationShort renders a second count in the loose "<H>h <M>m"
// display form, truncating partial minutes.
func FormatDurationShort(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", h, m)
}

// TotalHours sums the duration of every entry and converts to hours. The
// billable flag is deliberately ignored; billable filtering belongs to
// BillableAmount.
func TotalHours(entries []TimeEntry) float64 {
	var total int64
	for _, e := range entries {
		total += e.Duration
	}
	return float64(total) / 3600
}

// BillableAmount sums hours * hourlyRate over the billable entries only.
func BillableAmount(entries []TimeEntry, hourlyRate float64) float64 {
	var amount float64
	for _, e := range entries {
		if !e.Billable {
			continue
		}
		amount += float64(e.Duration) / 3600 * hourlyRate
	}
	return amount
}
