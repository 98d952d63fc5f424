package service

import (
	"context"
	"slices"

	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/repo"
	"github.com/Skotchmaster/book_api/internal/revocation"
	"github.com/Skotchmaster/book_api/internal/tokens"
)

// Guard resolves the user behind an access token and checks role membership.
type Guard struct {
	Repo    *repo.GormRepo
	Codec   *tokens.Codec
	Revoked revocation.Store
}

// Authorize runs the checks in order: decode, token type, blacklist,
// revoke-all cutoff, active user, role set. Only the last one yields
// ErrForbidden. An empty role set accepts any authenticated user.
func (g *Guard) Authorize(ctx context.Context, raw string, roles ...models.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "guard")

	if raw == "" {
		return nil, ErrUnauthorized
	}

	claims, err := g.Codec.Decode(raw)
	if err != nil {
		l.Debug("authorize_failed", "reason", "decode", "error", err)
		return nil, ErrUnauthorized
	}
	if claims.Type != tokens.TypeAccess {
		l.Warn("authorize_failed", "reason", "not an access token", "user", claims.Subject)
		return nil, ErrUnauthorized
	}
	if err := checkRevoked(ctx, g.Revoked, claims); err != nil {
		l.Warn("authorize_failed", "reason", "revocation", "user", claims.Subject, "error", err)
		return nil, err
	}

	user, err := activeSubject(ctx, g.Repo, claims.Subject)
	if err != nil {
		l.Warn("authorize_failed", "reason", "subject", "user", claims.Subject, "error", err)
		return nil, err
	}

	if len(roles) > 0 && !slices.Contains(roles, user.Role) {
		l.Warn("authorize_failed", "reason", "role", "user", user.UUID, "role", user.Role)
		return nil, ErrForbidden
	}
	return user, nil
}
