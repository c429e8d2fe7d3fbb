package service

import (
	"testing"
	"time"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// Monday 2026-03-02 09:30 UTC.
var mondayMorning = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func dailySite(last *time.Time) *models.Site {
	return &models.Site{
		ID:                1,
		PostFrequency:     models.FrequencyDaily,
		DailyPostTime:     "09:00",
		LastAutoPublishAt: last,
	}
}

func TestEvaluateCadenceHourGate(t *testing.T) {
	site := dailySite(nil)

	skip, err := evaluateCadence(site, mondayMorning)
	if err != nil {
		t.Fatal(err)
	}
	if skip != "" {
		t.Errorf("due site skipped: %q", skip)
	}

	afternoon := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	skip, err = evaluateCadence(site, afternoon)
	if err != nil {
		t.Fatal(err)
	}
	if skip != "Not scheduled for this hour" {
		t.Errorf("skip = %q, want hour gate", skip)
	}
}

func TestEvaluateCadenceInvalidPostTime(t *testing.T) {
	site := dailySite(nil)
	site.DailyPostTime = "morning"

	if _, err := evaluateCadence(site, mondayMorning); err == nil {
		t.Error("invalid daily post time should error")
	}
}

func TestEvaluateCadenceDailyAlreadyPublished(t *testing.T) {
	site := dailySite(nil)

	skip, err := evaluateCadence(site, mondayMorning)
	if err != nil || skip != "" {
		t.Fatalf("first evaluation: skip=%q err=%v", skip, err)
	}

	// Record the publish and evaluate again within the same hour.
	published := mondayMorning
	site.LastAutoPublishAt = &published

	skip, err = evaluateCadence(site, mondayMorning.Add(10*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if skip != "Already published today" {
		t.Errorf("skip = %q, want already-published gate", skip)
	}

	// The next day at the same hour the site is due again.
	skip, err = evaluateCadence(site, mondayMorning.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if skip != "" {
		t.Errorf("next-day evaluation skipped: %q", skip)
	}
}

func TestEvaluateCadenceWeekly(t *testing.T) {
	site := dailySite(nil)
	site.PostFrequency = models.FrequencyWeekly

	skip, err := evaluateCadence(site, mondayMorning)
	if err != nil || skip != "" {
		t.Fatalf("Monday evaluation: skip=%q err=%v", skip, err)
	}

	tuesday := mondayMorning.AddDate(0, 0, 1)
	skip, _ = evaluateCadence(site, tuesday)
	if skip != "Weekly posts are published on Monday" {
		t.Errorf("Tuesday skip = %q", skip)
	}

	// Published this Monday, still gated the same Monday and allowed the
	// next one.
	published := mondayMorning
	site.LastAutoPublishAt = &published

	skip, _ = evaluateCadence(site, mondayMorning.Add(20*time.Minute))
	if skip != "Already published this week" {
		t.Errorf("same-week skip = %q", skip)
	}

	nextMonday := mondayMorning.AddDate(0, 0, 7)
	skip, _ = evaluateCadence(site, nextMonday)
	if skip != "" {
		t.Errorf("next Monday skipped: %q", skip)
	}
}

func TestEvaluateCadenceMonthly(t *testing.T) {
	site := dailySite(nil)
	site.PostFrequency = models.FrequencyMonthly

	firstOfMonth := time.Date(2026, 4, 1, 9, 15, 0, 0, time.UTC)
	skip, err := evaluateCadence(site, firstOfMonth)
	if err != nil || skip != "" {
		t.Fatalf("1st evaluation: skip=%q err=%v", skip, err)
	}

	second := firstOfMonth.AddDate(0, 0, 1)
	skip, _ = evaluateCadence(site, second)
	if skip != "Monthly posts are published on the 1st" {
		t.Errorf("2nd-of-month skip = %q", skip)
	}

	published := firstOfMonth
	site.LastAutoPublishAt = &published

	skip, _ = evaluateCadence(site, firstOfMonth.Add(30*time.Minute))
	if skip != "Already published this month" {
		t.Errorf("same-month skip = %q", skip)
	}

	nextMonth := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	skip, _ = evaluateCadence(site, nextMonth)
	if skip != "" {
		t.Errorf("next month skipped: %q", skip)
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
	}{
		{"monday itself", mondayMorning},
		{"midweek", mondayMorning.AddDate(0, 0, 2)},
		{"sunday", mondayMorning.AddDate(0, 0, 6)},
	}
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := startOfWeek(tt.now); !got.Equal(want) {
				t.Errorf("startOfWeek(%v) = %v, want %v", tt.now, got, want)
			}
		})
	}
}

func TestParsePostHour(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 9, false},
		{"23:30", 23, false},
		{"0:15", 0, false},
		{"24:00", 0, true},
		{"-1:00", 0, true},
		{"0900", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parsePostHour(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePostHour(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parsePostHour(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
