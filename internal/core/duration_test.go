package core

import (
	"fmt"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{125, "00:02:05"},
		{3600, "01:00:00"},
		{8100, "02:15:00"},
		{360000, "100:00:00"}, // hours field grows, no 24h wrap
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

// Decomposing the formatted H:M:S back into seconds must reconstruct the
// input exactly for any non-negative duration.
func TestFormatDurationRoundTrip(t *testing.T) {
	for _, seconds := range []int64{0, 1, 59, 60, 61, 3599, 3600, 3661, 86399, 86400, 123456} {
		var h, m, s int64
		if _, err := fmt.Sscanf(FormatDuration(seconds), "%d:%d:%d", &h, &m, &s); err != nil {
			t.Fatalf("parse %q: %v", FormatDuration(seconds), err)
		}
		if got := h*3600 + m*60 + s; got != seconds {
			t.Errorf("round trip of %d gave %d", seconds, got)
		}
	}
}

func TestFormatDurationShort(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{8100, "2h 15m"},
		{3600, "1h 0m"},
		{3659, "1h 0m"}, // partial minute truncated
		{90, "0h 1m"},
	}
	for _, tc := range cases {
		if got := FormatDurationShort(tc.seconds); got != tc.want {
			t.Errorf("FormatDurationShort(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestTotalHours(t *testing.T) {
	entries := []TimeEntry{{Duration: 3600}, {Duration: 1800}}
	if got := TotalHours(entries); got != 1.5 {
		t.Fatalf("TotalHours = %v, want 1.5", got)
	}
	// Billable flag must not filter anything.
	entries[0].Billable = true
	if got := TotalHours(entries); got != 1.5 {
		t.Fatalf("TotalHours with billable mix = %v, want 1.5", got)
	}
	if got := TotalHours(nil); got != 0 {
		t.Fatalf("TotalHours(nil) = %v, want 0", got)
	}
}

func TestBillableAmount(t *testing.T) {
	entries := []TimeEntry{
		{Duration: 3600, Billable: true},
		{Duration: 3600, Billable: false},
	}
	if got := BillableAmount(entries, 100); got != 100 {
		t.Fatalf("BillableAmount = %v, want 100", got)
	}
	if got := BillableAmount(entries, 0); got != 0 {
		t.Fatalf("BillableAmount rate 0 = %v, want 0", got)
	}
	half := []TimeEntry{{Duration: 1800, Billable: true}}
	if got := BillableAmount(half, 50); got != 25 {
		t.Fatalf("BillableAmount half hour = %v, want 25", got)
	}
}
