package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"healthmate/internal/database"
	"healthmate/internal/models"
)

// endsOnLayout is the wire format for schedule end dates, e.g. "mon/11/2025".
// Parsing is case-insensitive and the weekday token is not validated against
// the date, matching how clients have always sent it.
const endsOnLayout = "Mon/02/2006"

// reminderTimeLayout is the minute-granularity reminder time, e.g. "12:00pm"
const reminderTimeLayout = "3:04pm"

// ScheduleService handles reminder schedules
type ScheduleService struct {
	db *database.DB
}

// NewScheduleService creates a new schedule service
func NewScheduleService(db *database.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// Add inserts a schedule for the user and returns it with its generated id
func (s *ScheduleService) Add(userID string, sched models.Schedule) (*models.Schedule, error) {
	if sched.CalendarData == nil {
		sched.CalendarData = []models.CalendarEntry{}
	}
	calendarJSON, err := json.Marshal(sched.CalendarData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode calendar data: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO schedules (user_id, title, description, active, ends_on, calendar_data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, sched.Title, sched.Description, sched.Active, sched.EndsOn, string(calendarJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule id: %w", err)
	}
	sched.ID = id

	log.Printf("📅 Schedule created for %s: %s", userID, sched.Title)
	return &sched, nil
}

// List returns every schedule owned by the user
func (s *ScheduleService) List(userID string) ([]models.Schedule, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, active, ends_on, calendar_data
		 FROM schedules WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	schedules := []models.Schedule{}
	for rows.Next() {
		var sched models.Schedule
		var calendarJSON string
		if err := rows.Scan(&sched.ID, &sched.Title, &sched.Description,
			&sched.Active, &sched.EndsOn, &calendarJSON); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		if err := json.Unmarshal([]byte(calendarJSON), &sched.CalendarData); err != nil {
			sched.CalendarData = []models.CalendarEntry{}
		}
		schedules = append(schedules, sched)
	}

	return schedules, rows.Err()
}

// UpdateAll applies the given values to EVERY schedule the user owns. The
// update endpoint has always worked on the whole set, not a single schedule,
// and clients depend on that. Nil fields are left untouched.
func (s *ScheduleService) UpdateAll(userID string, active *bool, endsOn *string) (int64, error) {
	setClauses := []string{}
	args := []any{}
	if active != nil {
		setClauses = append(setClauses, "active = ?")
		args = append(args, *active)
	}
	if endsOn != nil {
		setClauses = append(setClauses, "ends_on = ?")
		args = append(args, *endsOn)
	}
	if len(setClauses) == 0 {
		return 0, nil
	}
	args = append(args, userID)

	result, err := s.db.Exec(
		"UPDATE schedules SET "+strings.Join(setClauses, ", ")+" WHERE user_id = ?", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update schedules: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read update count: %w", err)
	}
	return affected, nil
}

// DueReminders returns the schedules that should fire a reminder at the given
// instant: active, not past their end date, with a calendar entry matching
// the current weekday and minute with remind_me set.
func (s *ScheduleService) DueReminders(userID string, now time.Time) ([]models.Schedule, error) {
	schedules, err := s.List(userID)
	if err != nil {
		return nil, err
	}

	// Clients send either "mon" or "monday"; accept both
	weekdayFull := strings.ToLower(now.Format("Monday"))
	weekdayAbbr := strings.ToLower(now.Format("Mon"))

	due := []models.Schedule{}
	for _, sched := range schedules {
		if !sched.Active || scheduleEnded(sched.EndsOn, now) {
			continue
		}
		for _, entry := range sched.CalendarData {
			if !entry.RemindMe {
				continue
			}
			day := strings.ToLower(strings.TrimSpace(entry.Day))
			if day != weekdayFull && day != weekdayAbbr {
				continue
			}
			hour, minute, ok := parseReminderTime(entry.Time)
			if ok && hour == now.Hour() && minute == now.Minute() {
				due = append(due, sched)
				break
			}
		}
	}

	return due, nil
}

// parseReminderTime parses a calendar entry time into clock values. Clients
// send both padded ("09:00am") and unpadded ("9:00am") hours, sometimes with
// a space before the meridiem; all of those must match.
func parseReminderTime(value string) (hour, minute int, ok bool) {
	cleaned := strings.ToLower(strings.ReplaceAll(value, " ", ""))
	parsed, err := time.Parse(reminderTimeLayout, cleaned)
	if err != nil {
		return 0, 0, false
	}
	return parsed.Hour(), parsed.Minute(), true
}

// scheduleEnded reports whether the end date has passed. An unparseable or
// empty end date never expires the schedule.
func scheduleEnded(endsOn string, now time.Time) bool {
	if endsOn == "" {
		return false
	}
	end, err := time.ParseInLocation(endsOnLayout, endsOn, now.Location())
	if err != nil {
		return false
	}
	// The schedule stays live through its end date
	return now.After(end.AddDate(0, 0, 1))
}
