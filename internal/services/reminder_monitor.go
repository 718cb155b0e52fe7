package services

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/patrickmn/go-cache"

	"healthmate/internal/models"
)

// ReminderMonitor polls schedules for connected users and pushes
// schedule_alert messages when a reminder is due. Reminder times have minute
// granularity while the poll runs every second, so a TTL cache de-duplicates
// per (user, schedule, minute).
type ReminderMonitor struct {
	schedules *ScheduleService
	conns     *ConnectionManager
	scheduler gocron.Scheduler
	fired     *cache.Cache
}

// NewReminderMonitor creates the monitor
func NewReminderMonitor(schedules *ScheduleService, conns *ConnectionManager) (*ReminderMonitor, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &ReminderMonitor{
		schedules: schedules,
		conns:     conns,
		scheduler: scheduler,
		// Entries only need to outlive the minute they guard
		fired: cache.New(2*time.Minute, 5*time.Minute),
	}, nil
}

// Start begins the polling loop
func (m *ReminderMonitor) Start() error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Second),
		gocron.NewTask(m.tick),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	m.scheduler.Start()
	log.Println("⏰ Reminder monitor started")
	return nil
}

// Stop shuts the scheduler down
func (m *ReminderMonitor) Stop() error {
	return m.scheduler.Shutdown()
}

func (m *ReminderMonitor) tick() {
	now := time.Now()
	wsConnectionsActive.Set(float64(m.conns.Count()))

	for _, userID := range m.conns.UserIDs() {
		due, err := m.schedules.DueReminders(userID, now)
		if err != nil {
			log.Printf("❌ Reminder check failed for %s: %v", userID, err)
			continue
		}

		for _, sched := range due {
			key := fmt.Sprintf("%s|%d|%s", userID, sched.ID, now.Format("2006-01-02 3:04pm"))
			if err := m.fired.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
				// Already fired this minute
				continue
			}

			delivered := m.conns.SendToUser(userID, models.ServerMessage{
				Type:          "schedule_alert",
				ReminderTitle: sched.Title,
				Message:       fmt.Sprintf("Reminder: %s", sched.Title),
			})
			if delivered {
				remindersFired.Inc()
				log.Printf("🔔 Reminder fired for %s: %s", userID, sched.Title)
			}
		}
	}
}
