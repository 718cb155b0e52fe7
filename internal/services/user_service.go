package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"healthmate/internal/database"
	"healthmate/internal/models"
	"healthmate/pkg/auth"
)

var (
	// ErrEmailTaken is returned when registration hits an existing email
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound is returned when a lookup misses
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// RegisterRequest carries the validated registration form fields
type RegisterRequest struct {
	Username     string
	Gender       string
	Email        string
	Password     string
	Phone        string
	Age          string
	Location     string
	ProfileImage string
}

// UserService handles account lifecycle and profile access
type UserService struct {
	db *database.DB
}

// NewUserService creates a new user service
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a new account. Email uniqueness is enforced here so the
// handler can map the failure to a conflict response.
func (s *UserService) Register(req RegisterRequest) (*models.User, error) {
	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", req.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UserID:       uuid.New().String(),
		Username:     req.Username,
		Gender:       req.Gender,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Age:          req.Age,
		Location:     req.Location,
		ProfileImage: req.ProfileImage,
		Schedule:     []models.Schedule{},
	}

	_, err = s.db.Exec(
		`INSERT INTO users (user_id, username, gender, email, password_hash, phone, age, location, profile_image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.UserID, user.Username, user.Gender, user.Email, user.PasswordHash,
		user.Phone, user.Age, user.Location, user.ProfileImage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("👤 User registered: %s (%s)", user.Username, user.UserID)
	return user, nil
}

// Authenticate verifies email and password and returns the matching user
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.getByColumn("email", email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID loads a user with their schedule list embedded
func (s *UserService) GetByID(userID string) (*models.User, error) {
	return s.getByColumn("user_id", userID)
}

func (s *UserService) getByColumn(column, value string) (*models.User, error) {
	row := s.db.QueryRow(
		fmt.Sprintf(`SELECT user_id, username, gender, email, password_hash, phone, age, location, profile_image, created_at
		 FROM users WHERE %s = ?`, column), value)

	var user models.User
	err := row.Scan(&user.UserID, &user.Username, &user.Gender, &user.Email,
		&user.PasswordHash, &user.Phone, &user.Age, &user.Location,
		&user.ProfileImage, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	schedules, err := s.loadSchedules(user.UserID)
	if err != nil {
		return nil, err
	}
	user.Schedule = schedules

	return &user, nil
}

func (s *UserService) loadSchedules(userID string) ([]models.Schedule, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, active, ends_on, calendar_data
		 FROM schedules WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
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

// profileColumns is the closed set of fields the profile endpoint may change.
// Password, schedule and user_id are never editable through it.
var profileColumns = map[string]string{
	"username":      "username",
	"gender":        "gender",
	"email":         "email",
	"phone":         "phone",
	"age":           "age",
	"location":      "location",
	"profile_image": "profile_image",
}

// UpdateProfile applies whitelisted field updates to a user
func (s *UserService) UpdateProfile(userID string, updates map[string]string) (*models.User, error) {
	setClauses := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for field, value := range updates {
		column, ok := profileColumns[field]
		if !ok {
			continue
		}
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}

	if len(setClauses) > 0 {
		args = append(args, userID)
		result, err := s.db.Exec(
			"UPDATE users SET "+strings.Join(setClauses, ", ")+" WHERE user_id = ?", args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return nil, ErrUserNotFound
		}
	}

	return s.GetByID(userID)
}

// RenderProfile formats a user's profile for prompt injection
func (s *UserService) RenderProfile(userID string) string {
	user, err := s.GetByID(userID)
	if err != nil {
		return "User not found"
	}

	lines := []string{
		"username: " + user.Username,
		"gender: " + user.Gender,
		"age: " + user.Age,
		"location: " + user.Location,
	}
	if user.Username == "" && user.Gender == "" && user.Age == "" && user.Location == "" {
		return "No profile set."
	}

	return strings.Join(lines, "\n")
}

// Dashboard aggregates activity for the dashboard endpoint. The health tip is
// supplied by the caller so the reference service stays decoupled.
func (s *UserService) Dashboard(userID string, tip map[string]any) (*models.Dashboard, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	var totalCharts int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages WHERE user_id = ?", userID).Scan(&totalCharts); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	latestTime := "N/A"
	var latest sql.NullString
	err = s.db.QueryRow(
		"SELECT created_at FROM messages WHERE user_id = ? ORDER BY id DESC LIMIT 1", userID).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load latest message time: %w", err)
	}
	if latest.Valid && latest.String != "" {
		latestTime = latest.String
	}

	location := user.Location
	if location == "" {
		location = "Unknown"
	}

	return &models.Dashboard{
		LatestTime:        latestTime,
		TotalCharts:       totalCharts,
		Location:          location,
		HealthTipOfTheDay: tip,
		NumberOfSchedules: len(user.Schedule),
		Username:          user.Username,
	}, nil
}
