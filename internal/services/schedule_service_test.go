package services

import (
	"testing"
	"time"

	"healthmate/internal/models"
)

func testSchedule(title string, active bool) models.Schedule {
	return models.Schedule{
		Title:       title,
		Description: "take medication",
		Active:      active,
		EndsOn:      "mon/11/2025",
		CalendarData: []models.CalendarEntry{
			{Day: "mon", Time: "12:00pm", RemindMe: true},
		},
	}
}

func TestAddAndList(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	schedules := NewScheduleService(db)

	created, err := schedules.Add("u1", testSchedule("Morning pills", true))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected generated schedule id")
	}

	listed, err := schedules.List("u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 schedule, got %d", len(listed))
	}
	if listed[0].Title != "Morning pills" {
		t.Errorf("expected title Morning pills, got %q", listed[0].Title)
	}
	if len(listed[0].CalendarData) != 1 || listed[0].CalendarData[0].Day != "mon" {
		t.Errorf("calendar data did not round-trip: %+v", listed[0].CalendarData)
	}
}

func TestUpdateAllTouchesEverySchedule(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	schedules := NewScheduleService(db)

	for _, title := range []string{"one", "two", "three"} {
		if _, err := schedules.Add("u1", testSchedule(title, true)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	// Another user's schedule must stay untouched
	if _, err := schedules.Add("u2", testSchedule("other", true)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	inactive := false
	updated, err := schedules.UpdateAll("u1", &inactive, nil)
	if err != nil {
		t.Fatalf("UpdateAll failed: %v", err)
	}
	if updated != 3 {
		t.Errorf("expected 3 schedules updated, got %d", updated)
	}

	// Every one of the user's schedules is now inactive
	listed, err := schedules.List("u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, sched := range listed {
		if sched.Active {
			t.Errorf("schedule %q still active after bulk deactivate", sched.Title)
		}
	}

	other, err := schedules.List("u2")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !other[0].Active {
		t.Error("other user's schedule must not be touched")
	}
}

func TestUpdateAllEndDateOnly(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	schedules := NewScheduleService(db)

	if _, err := schedules.Add("u1", testSchedule("one", true)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	endsOn := "fri/25/2026"
	if _, err := schedules.UpdateAll("u1", nil, &endsOn); err != nil {
		t.Fatalf("UpdateAll failed: %v", err)
	}

	listed, _ := schedules.List("u1")
	if listed[0].EndsOn != "fri/25/2026" {
		t.Errorf("expected ends_on updated, got %q", listed[0].EndsOn)
	}
	if !listed[0].Active {
		t.Error("active flag must stay untouched when not provided")
	}
}

func TestDueReminders(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	schedules := NewScheduleService(db)

	// Monday 2026-01-05 at 12:00
	now := time.Date(2026, 1, 5, 12, 0, 30, 0, time.UTC)

	sched := models.Schedule{
		Title:  "Midday dose",
		Active: true,
		EndsOn: "fri/25/2026",
		CalendarData: []models.CalendarEntry{
			{Day: "mon", Time: "12:00pm", RemindMe: true},
			{Day: "tue", Time: "12:00pm", RemindMe: true},
		},
	}
	if _, err := schedules.Add("u1", sched); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	due, err := schedules.DueReminders("u1", now)
	if err != nil {
		t.Fatalf("DueReminders failed: %v", err)
	}
	if len(due) != 1 || due[0].Title != "Midday dose" {
		t.Fatalf("expected Midday dose to be due, got %+v", due)
	}

	// Wrong minute: nothing fires
	due, _ = schedules.DueReminders("u1", now.Add(time.Minute))
	if len(due) != 0 {
		t.Errorf("expected nothing due at 12:01pm, got %d", len(due))
	}

	// Wrong day: nothing fires
	due, _ = schedules.DueReminders("u1", now.AddDate(0, 0, 2))
	if len(due) != 0 {
		t.Errorf("expected nothing due on Wednesday, got %d", len(due))
	}
}

func TestDueRemindersSkipsInactiveAndEnded(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	schedules := NewScheduleService(db)
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	inactive := testSchedule("Inactive", false)
	inactive.EndsOn = "fri/25/2026"
	if _, err := schedules.Add("u1", inactive); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ended := testSchedule("Ended", true)
	ended.EndsOn = "thu/01/2026"
	if _, err := schedules.Add("u1", ended); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	noRemind := testSchedule("Muted", true)
	noRemind.EndsOn = "fri/25/2026"
	noRemind.CalendarData[0].RemindMe = false
	if _, err := schedules.Add("u1", noRemind); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	due, err := schedules.DueReminders("u1", now)
	if err != nil {
		t.Fatalf("DueReminders failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected no reminders, got %+v", due)
	}
}

func TestDueRemindersToleratesTimeFormats(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	schedules := NewScheduleService(db)

	sched := models.Schedule{
		Title:  "Morning dose",
		Active: true,
		EndsOn: "fri/25/2026",
		CalendarData: []models.CalendarEntry{
			// Zero-padded hour, as the scheduling UI submits it
			{Day: "monday", Time: "09:00am", RemindMe: true},
			// Space before the meridiem
			{Day: "monday", Time: "12:00 pm", RemindMe: true},
		},
	}
	if _, err := schedules.Add("u1", sched); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Monday 2026-01-05
	morning := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	due, err := schedules.DueReminders("u1", morning)
	if err != nil {
		t.Fatalf("DueReminders failed: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected zero-padded 09:00am reminder to fire at 9:00, got %d due", len(due))
	}

	noon := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	due, err = schedules.DueReminders("u1", noon)
	if err != nil {
		t.Fatalf("DueReminders failed: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected spaced 12:00 pm reminder to fire at 12:00, got %d due", len(due))
	}
}

func TestParseReminderTime(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		hour   int
		minute int
		ok     bool
	}{
		{"plain", "9:00am", 9, 0, true},
		{"zero padded", "09:00am", 9, 0, true},
		{"spaced meridiem", "12:00 pm", 12, 0, true},
		{"uppercase", "9:30PM", 21, 30, true},
		{"noon", "12:00pm", 12, 0, true},
		{"midnight", "12:00am", 0, 0, true},
		{"garbage", "soonish", 0, 0, false},
		{"empty", "", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, ok := parseReminderTime(tt.value)
			if ok != tt.ok {
				t.Fatalf("parseReminderTime(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && (hour != tt.hour || minute != tt.minute) {
				t.Errorf("parseReminderTime(%q) = %d:%02d, want %d:%02d", tt.value, hour, minute, tt.hour, tt.minute)
			}
		})
	}
}

func TestScheduleEnded(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		endsOn string
		want   bool
	}{
		{"future date", "fri/25/2026", false},
		{"past date", "thu/01/2026", true},
		{"same day still live", "mon/05/2026", false},
		{"empty never ends", "", false},
		{"garbage never ends", "not-a-date", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scheduleEnded(tt.endsOn, now); got != tt.want {
				t.Errorf("scheduleEnded(%q) = %v, want %v", tt.endsOn, got, tt.want)
			}
		})
	}
}
