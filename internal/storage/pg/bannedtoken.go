package pg

import (
	"database/sql"
	"fmt"
)

// =========================================================================
// Public Methods (satisfy the service.RevocationStore interface)
// =========================================================================

// SaveBannedToken records a token string in the denylist. The denylist is
// append-only; re-recording the same token is a no-op.
func (s *Storage) SaveBannedToken(token string) error {
	ctx, cancel := s.timeoutCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.saveBannedToken(tx, token)
	})
}

// IsTokenBanned reports whether the exact token string has been recorded.
// An absent token is false, never an error; a failed lookup is an error,
// never "not banned".
func (s *Storage) IsTokenBanned(token string) (bool, error) {
	return s.isTokenBanned(s.db, token)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) saveBannedToken(q Querier, token string) error {
	_, err := q.Exec(`
		INSERT INTO banned_tokens (token, recorded_at)
		VALUES ($1, NOW() AT TIME ZONE 'utc')
		ON CONFLICT (token) DO NOTHING`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to record banned token: %w", err)
	}
	return nil
}

func (s *Storage) isTokenBanned(q Querier, token string) (bool, error) {
	var exists bool
	err := q.QueryRow("SELECT EXISTS(SELECT 1 FROM banned_tokens WHERE token = $1)", token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check token ban status: %w", err)
	}
	return exists, nil
}
