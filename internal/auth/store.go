package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kipesa/kipesa-api/internal/chatbot"
	"github.com/kipesa/kipesa-api/internal/db"
)

var (
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for a bad email/password pair.
	// Unknown email and wrong password are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")
)

// Store persists user accounts.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create registers a new user with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, req RegisterRequest) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:          uuid.New().String(),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		AgeGroup:    req.AgeGroup,
		Gender:      req.Gender,
		Location:    req.Location,
		Language:    req.Language,
		CreatedAt:   time.Now().UTC(),
	}
	if user.Language == "" {
		user.Language = "en"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, hashed_password, full_name, phone_number, age_group, gender, location, language, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, string(hashed), user.FullName, nullable(user.PhoneNumber),
		nullable(user.AgeGroup), nullable(user.Gender), nullable(user.Location),
		user.Language, user.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		var serr *sqlite.Error
		if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return user, nil
}

// Authenticate verifies an email/password pair and returns the user.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, full_name, phone_number, age_group, gender, location, language, created_at
		FROM users WHERE email = ?`, email)

	user, hashed, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID retrieves one user, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, full_name, phone_number, age_group, gender, location, language, created_at
		FROM users WHERE id = ?`, id)

	user, _, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return user, nil
}

// Profile returns the personalization projection for a user, or nil when
// the user does not exist.
func (s *Store) Profile(ctx context.Context, userID string) (*chatbot.Profile, error) {
	user, err := s.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chatbot.Profile{
		AgeGroup: user.AgeGroup,
		Location: user.Location,
		Language: user.Language,
	}, nil
}

func scanUser(row *sql.Row) (*User, string, error) {
	var (
		user      User
		hashed    string
		phone     sql.NullString
		ageGroup  sql.NullString
		gender    sql.NullString
		location  sql.NullString
		createdAt string
	)
	err := row.Scan(&user.ID, &user.Email, &hashed, &user.FullName, &phone,
		&ageGroup, &gender, &location, &user.Language, &createdAt)
	if err != nil {
		return nil, "", err
	}
	user.PhoneNumber = phone.String
	user.AgeGroup = ageGroup.String
	user.Gender = gender.String
	user.Location = location.String
	if t, err := time.Parse(time.DateTime, createdAt); err == nil {
		user.CreatedAt = t
	}
	return &user, hashed, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
