package postgres

import (
	"context"
	"fmt"

	"github.com/gocraft/dbr/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolveSession maps a bearer token to the user it belongs to. The session
// table is owned by the identity provider; this is a read-only lookup.
// Returns (uuid.Nil, nil) for unknown or expired tokens.
func (s *Store) ResolveSession(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT user_id FROM sessions
		WHERE token = $1 AND expires_at > NOW()
	`

	var userID uuid.UUID

	err := s.sess.
		SelectBySql(query, token).
		LoadOneContext(ctx, &userID)

	if err == dbr.ErrNotFound {
		return uuid.Nil, nil
	}

	if err != nil {
		s.logger.Error("failed to resolve session", zap.Error(err))
		return uuid.Nil, fmt.Errorf("resolve session: %w", err)
	}

	return userID, nil
}
