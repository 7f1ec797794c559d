package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/authd-dev/authd/internal/domain"
	internal_errors "github.com/authd-dev/authd/internal/errors"
)

// pq error code for unique constraint violations.
const uniqueViolation = "23505"

// =========================================================================
// Public Methods (satisfy the service.UserDirectory interface)
// =========================================================================

// SaveUser creates a new inactive, unbanned user. A duplicate email is
// reported as a 409; uniqueness is enforced by the users_email_key
// constraint, not by a read-then-write race.
func (s *Storage) SaveUser(email domain.Email, passHash string) (domain.UserId, error) {
	ctx, cancel := s.timeoutCtx()
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(tx, email, passHash)
		return err
	})
	return id, err
}

// UserByEmail fetches a user by email, narrowed by the activation/ban filter.
func (s *Storage) UserByEmail(email domain.Email, filter domain.LookupFilter) (domain.User, error) {
	return s.user(s.db, "email = $1", strings.ToLower(email), filter)
}

// UserById fetches a user by id, narrowed by the activation/ban filter.
func (s *Storage) UserById(id domain.UserId, filter domain.LookupFilter) (domain.User, error) {
	return s.user(s.db, "id = $1", id, filter)
}

// ActivateUser sets the activation timestamp.
func (s *Storage) ActivateUser(id domain.UserId, at time.Time) error {
	return s.setTimestamp(id, "activated_at", &at)
}

// DeactivateUser clears the activation timestamp.
func (s *Storage) DeactivateUser(id domain.UserId) error {
	return s.setTimestamp(id, "activated_at", nil)
}

// BanUser sets the ban timestamp.
func (s *Storage) BanUser(id domain.UserId, at time.Time) error {
	return s.setTimestamp(id, "banned_at", &at)
}

// UnbanUser clears the ban timestamp.
func (s *Storage) UnbanUser(id domain.UserId) error {
	return s.setTimestamp(id, "banned_at", nil)
}

// UpdatePassword replaces the stored password hash.
func (s *Storage) UpdatePassword(id domain.UserId, passHash string) error {
	ctx, cancel := s.timeoutCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updatePassword(tx, id, passHash)
	})
}

// =========================================================================
// Internal Methods (Core Database Logic)
// These methods accept a Querier and are transaction-agnostic.
// =========================================================================

func (s *Storage) saveUser(q Querier, email domain.Email, passHash string) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRow("INSERT INTO users(email, password_hash) VALUES($1, $2) RETURNING id",
		strings.ToLower(email), passHash).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return -1, &internal_errors.ErrorWithStatusCode{Message: "Email already registered", StatusCode: http.StatusConflict}
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// user fetches a single user matching the where clause plus the tri-state
// activation/ban filter. The filter mirrors the directory contract: nil
// means any state, true means timestamp set, false means timestamp absent.
func (s *Storage) user(q Querier, where string, arg any, filter domain.LookupFilter) (domain.User, error) {
	query := "SELECT id, email, password_hash, activated_at, banned_at FROM users WHERE " + where
	if filter.Active != nil {
		if *filter.Active {
			query += " AND activated_at IS NOT NULL"
		} else {
			query += " AND activated_at IS NULL"
		}
	}
	if filter.Banned != nil {
		if *filter.Banned {
			query += " AND banned_at IS NOT NULL"
		} else {
			query += " AND banned_at IS NULL"
		}
	}

	var user domain.User
	err := q.QueryRow(query, arg).Scan(&user.Id, &user.Email, &user.PassHash, &user.ActivatedAt, &user.BannedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *Storage) updatePassword(q Querier, id domain.UserId, passHash string) error {
	result, err := q.Exec("UPDATE users SET password_hash = $1 WHERE id = $2", passHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for password update: %w", err)
	}
	if rowsAffected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "User not found for password update", StatusCode: http.StatusNotFound}
	}
	return nil
}

// setTimestamp sets or clears one of the lifecycle timestamp columns.
// column is always a compile-time constant, never user input.
func (s *Storage) setTimestamp(id domain.UserId, column string, at *time.Time) error {
	ctx, cancel := s.timeoutCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(fmt.Sprintf("UPDATE users SET %s = $1 WHERE id = $2", column), at, id)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", column, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for %s update: %w", column, err)
		}
		if rowsAffected == 0 {
			return &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return nil
	})
}
