package cron_test

import (
	"testing"
	"time"

	"github.com/xraph/tempo/cron"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		ok   bool
	}{
		{"*/5 * * * *", true},
		{"0 3 * * *", true},
		{"30 2 1 * *", true},
		{"*/10 * * * * *", true}, // 6-field with seconds
		{"@every 30s", true},
		{"@hourly", true},
		{"", false},
		{"not a cron", false},
		{"61 * * * *", false},
	}

	for _, tt := range tests {
		_, err := cron.Parse(tt.expr)
		if tt.ok && err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.expr, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("Parse(%q) expected error", tt.expr)
		}
	}
}

func TestShorthand_ProducesCanonicalForm(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"EverySeconds", cron.EverySeconds(30), "@every 30s"},
		{"EveryMinutes", cron.EveryMinutes(5), "*/5 * * * *"},
		{"HourlyAt", cron.HourlyAt(15), "15 * * * *"},
		{"DailyAt", cron.DailyAt(3, 30), "30 3 * * *"},
		{"WeeklyOn", cron.WeeklyOn(time.Monday, 9, 0), "0 9 * * 1"},
		{"MonthlyOn", cron.MonthlyOn(1, 2, 30), "30 2 1 * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
			if _, err := cron.Parse(tt.got); err != nil {
				t.Errorf("shorthand %q does not parse: %v", tt.got, err)
			}
		})
	}
}

func TestShorthand_SameDueResultAsCanonical(t *testing.T) {
	short := cron.MustParse(cron.DailyAt(3, 0))
	canon := cron.MustParse("0 3 * * *")

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 3, 0, 30, 0, time.UTC)
	grace := time.Minute

	a := cron.Due(short, from, now, grace, false)
	b := cron.Due(canon, from, now, grace, false)

	if len(a) != 1 || len(b) != 1 || !a[0].Equal(b[0]) {
		t.Errorf("shorthand due %v != canonical due %v", a, b)
	}
}

func TestDue_SingleFireWithinGrace(t *testing.T) {
	sched := cron.MustParse("0 * * * *") // top of every hour
	from := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 10, 0, 10, 0, time.UTC)

	due := cron.Due(sched, from, now, time.Minute, false)
	if len(due) != 1 {
		t.Fatalf("len(due) = %d, want 1", len(due))
	}
	want := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	if !due[0].Equal(want) {
		t.Errorf("due[0] = %v, want %v", due[0], want)
	}
}

func TestDue_MisfireBeyondGraceDropped(t *testing.T) {
	sched := cron.MustParse("0 * * * *")
	from := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	// Two minutes past the fire with a one-minute grace.
	now := time.Date(2026, 1, 1, 10, 2, 0, 0, time.UTC)

	due := cron.Due(sched, from, now, time.Minute, false)
	if len(due) != 0 {
		t.Errorf("len(due) = %d, want 0 (misfire)", len(due))
	}
}

func TestDue_CoalesceCollapsesBacklog(t *testing.T) {
	sched := cron.MustParse("*/5 * * * *") // every 5 minutes
	from := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 9, 20, 0, 0, time.UTC)
	grace := time.Hour // everything survives the grace filter

	all := cron.Due(sched, from, now, grace, false)
	if len(all) != 4 { // 9:05, 9:10, 9:15, 9:20
		t.Fatalf("len(all) = %d, want 4", len(all))
	}

	coalesced := cron.Due(sched, from, now, grace, true)
	if len(coalesced) != 1 {
		t.Fatalf("len(coalesced) = %d, want 1", len(coalesced))
	}
	want := time.Date(2026, 1, 1, 9, 20, 0, 0, time.UTC)
	if !coalesced[0].Equal(want) {
		t.Errorf("coalesced fire = %v, want most recent %v", coalesced[0], want)
	}
}

func TestDue_NothingBeforeFirstFire(t *testing.T) {
	sched := cron.MustParse("0 3 * * *")
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	if due := cron.Due(sched, from, now, time.Minute, false); len(due) != 0 {
		t.Errorf("len(due) = %d, want 0", len(due))
	}
}

func TestDue_FromNotBeforeNow(t *testing.T) {
	sched := cron.MustParse("* * * * *")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if due := cron.Due(sched, now, now, time.Minute, false); due != nil {
		t.Errorf("due = %v, want nil", due)
	}
}
