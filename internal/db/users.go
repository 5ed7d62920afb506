package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"guardian-service/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when an insert loses the race against a
// concurrent registration of the same username.
var ErrUsernameTaken = errors.New("username taken")

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateUser inserts a new unverified user and returns its id.
func (d *DB) CreateUser(ctx context.Context, username, email, passwordHash, tacticalID string, createdAt int64) (int64, error) {
	var id int64
	err := d.Pool.QueryRow(ctx, `
	INSERT INTO users (username, email, password_hash, verified, tactical_id, created_at)
	VALUES ($1, $2, $3, false, $4, $5)
	RETURNING id`,
		username, email, passwordHash, tacticalID, createdAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUserByUsername fetches a user by its lowercased username.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	var fullName, bloodType, emergencyNote *string
	err := d.Pool.QueryRow(ctx, `
	SELECT id, username, email, password_hash, verified, tactical_id, full_name, blood_type, emergency_note, created_at
	FROM users
	WHERE username = $1
	LIMIT 1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Verified, &u.TacticalID,
		&fullName, &bloodType, &emergencyNote, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if bloodType != nil {
		u.BloodType = *bloodType
	}
	if emergencyNote != nil {
		u.EmergencyNote = *emergencyNote
	}
	return u, nil
}

// MarkUserVerified flips the verified flag after a successful code check.
func (d *DB) MarkUserVerified(ctx context.Context, userID int64) error {
	_, err := d.Pool.Exec(ctx, `UPDATE users SET verified = true WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user %d verified: %w", userID, err)
	}
	return nil
}

// UpdateUserPassword replaces the stored password hash.
func (d *DB) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := d.Pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password for user %d: %w", userID, err)
	}
	return nil
}

// UpdateUserProfile updates the medical/identity fields shown to responders.
func (d *DB) UpdateUserProfile(ctx context.Context, userID int64, fullName, bloodType, emergencyNote string) error {
	_, err := d.Pool.Exec(ctx, `
	UPDATE users SET full_name = $1, blood_type = $2, emergency_note = $3 WHERE id = $4`,
		fullName, bloodType, emergencyNote, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile for user %d: %w", userID, err)
	}
	return nil
}
