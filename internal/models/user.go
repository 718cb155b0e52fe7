package models

import "time"

// User represents a registered user. The password hash is never exposed in API
// responses; the schedule list is embedded the way clients expect it.
type User struct {
	UserID       string     `json:"user_id"`
	Username     string     `json:"username"`
	Gender       string     `json:"gender"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Argon2id hash
	Phone        string     `json:"phone"`
	Age          string     `json:"age"`
	Location     string     `json:"location"`
	ProfileImage string     `json:"profile_image"`
	Schedule     []Schedule `json:"schedule"`
	CreatedAt    time.Time  `json:"-"`
}

// ProfileResponse is the sanitized profile returned by GET /user/v1/profile/.
// It omits password and schedule.
type ProfileResponse struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Gender       string `json:"gender"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Age          string `json:"age"`
	Location     string `json:"location"`
	ProfileImage string `json:"profile_image"`
}

// ToProfileResponse strips the fields the profile endpoint must not expose
func (u *User) ToProfileResponse() ProfileResponse {
	return ProfileResponse{
		UserID:       u.UserID,
		Username:     u.Username,
		Gender:       u.Gender,
		Email:        u.Email,
		Phone:        u.Phone,
		Age:          u.Age,
		Location:     u.Location,
		ProfileImage: u.ProfileImage,
	}
}

// Schedule is a reminder definition owned by exactly one user.
// Wire field names (shedule_title, calender_data) are kept as clients send them.
type Schedule struct {
	ID           int64           `json:"_id"`
	Title        string          `json:"shedule_title"`
	Description  string          `json:"description"`
	Active       bool            `json:"active"`
	EndsOn       string          `json:"ends_on"` // e.g. "Mon/02/2006"
	CalendarData []CalendarEntry `json:"calender_data"`
}

// CalendarEntry flags one weekday with an optional reminder time ("3:04pm")
type CalendarEntry struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	RemindMe bool   `json:"remind_me"`
}

// Message is one entry in a user's append-only conversation log
type Message struct {
	Role          string `json:"role"` // "user" or "ai"
	Content       string `json:"content"`
	Time          string `json:"time"` // RFC3339
	CreatedReport string `json:"created_report,omitempty"`
	UploadedFile  string `json:"uploaded_file,omitempty"`
}

// Dashboard aggregates the user's activity for GET /user/v1/dashboard/:user_id
type Dashboard struct {
	LatestTime        string         `json:"latest_time"`
	TotalCharts       int            `json:"total_charts"`
	Location          string         `json:"location"`
	HealthTipOfTheDay map[string]any `json:"health_tip_of_the_day"`
	NumberOfSchedules int            `json:"number_of_schedules"`
	Username          string         `json:"username,omitempty"`
}
