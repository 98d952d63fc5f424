package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/book_api/internal/hash"
	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/mykafka"
	"github.com/Skotchmaster/book_api/internal/repo"
	"github.com/Skotchmaster/book_api/internal/revocation"
	"github.com/Skotchmaster/book_api/internal/tokens"
)

const TokenTypeBearer = "bearer"

// TokenCodec signs and verifies JWTs; *tokens.Codec is the production one.
type TokenCodec interface {
	Issue(subject string, typ tokens.Type, ttl time.Duration) (tokens.Issued, error)
	Decode(raw string) (*tokens.Claims, error)
}

type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ClockSkew  time.Duration
}

// MaxTTL is the longest a token of either type can stay acceptable.
func (c TokenConfig) MaxTTL() time.Duration {
	ttl := c.AccessTTL
	if c.RefreshTTL > ttl {
		ttl = c.RefreshTTL
	}
	return ttl + c.ClockSkew
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	ExpiresIn        int64     `json:"expires_in"`
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthService struct {
	Repo    *repo.GormRepo
	Hasher  *hash.Hasher
	Codec   TokenCodec
	Revoked revocation.Store
	Events  mykafka.Publisher
	Tokens  TokenConfig
	Now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	user, err := createUser(ctx, s.Repo, s.Hasher, in, models.RoleUser, true)
	if err != nil {
		l.Warn("register_failed", "reason", err.Error())
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, user.UUID.String(), "user_registered", map[string]any{
		"uuid":     user.UUID,
		"username": user.Username,
		"email":    user.Email,
	})
	l.Info("register_success", "user", user.UUID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// keep the timing of unknown emails close to a failed password check
			s.Hasher.CheckPassword(s.placeholderHash(), password)
			l.Warn("login_failed", "reason", "unknown email")
			return nil, ErrUnauthorized
		}
		return nil, unavailable("auth.login", err)
	}

	if !s.Hasher.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password", "user", user.UUID)
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		l.Warn("login_failed", "reason", "inactive", "user", user.UUID)
		return nil, ErrUnauthorized
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, unavailable("auth.login", err)
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, user.UUID.String(), "user_logged_in", map[string]any{
		"uuid": user.UUID,
	})
	l.Info("login_success", "user", user.UUID)
	return pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Codec.Decode(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "reason", "decode", "error", err)
		return nil, ErrUnauthorized
	}
	if claims.Type != tokens.TypeRefresh {
		l.Warn("refresh_failed", "reason", "not a refresh token")
		return nil, ErrUnauthorized
	}
	if err := checkRevoked(ctx, s.Revoked, claims); err != nil {
		l.Warn("refresh_failed", "reason", "revoked", "error", err)
		return nil, err
	}

	user, err := activeSubject(ctx, s.Repo, claims.Subject)
	if err != nil {
		l.Warn("refresh_failed", "reason", "subject", "error", err)
		return nil, err
	}

	// The old jti is claimed before the new pair exists; a concurrent replay loses the claim.
	claimed, err := s.Revoked.ClaimToken(ctx, claims.JTI(), claims.Remaining(s.now())+s.Tokens.ClockSkew)
	if err != nil {
		return nil, unavailable("auth.refresh", err)
	}
	if !claimed {
		l.Warn("refresh_failed", "reason", "refresh token reused", "user", user.UUID)
		return nil, ErrUnauthorized
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, unavailable("auth.refresh", err)
	}
	l.Info("refresh_success", "user", user.UUID)
	return pair, nil
}

// Logout blacklists the presented token and, when given, the refresh token of the
// same subject. Expired or already revoked tokens count as logged out.
func (s *AuthService) Logout(ctx context.Context, token, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Codec.Decode(token)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			return nil
		}
		l.Warn("logout_failed", "reason", "decode", "error", err)
		return ErrUnauthorized
	}

	if err := s.blacklist(ctx, claims); err != nil {
		return err
	}

	if refreshToken != "" {
		rc, err := s.Codec.Decode(refreshToken)
		switch {
		case err != nil:
			l.Debug("logout_refresh_skipped", "reason", "decode", "error", err)
		case rc.Subject != claims.Subject:
			l.Warn("logout_refresh_skipped", "reason", "subject mismatch")
		default:
			if err := s.blacklist(ctx, rc); err != nil {
				return err
			}
		}
	}

	l.Info("logout_success", "user", claims.Subject)
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, user *models.User) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout_all")

	if err := s.Revoked.RevokeAllForUser(ctx, user.UUID.String(), s.now(), s.Tokens.MaxTTL()); err != nil {
		return unavailable("auth.logout_all", err)
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, user.UUID.String(), "user_logged_out_all", map[string]any{
		"uuid": user.UUID,
	})
	l.Info("logout_all_success", "user", user.UUID)
	return nil
}

// ChangePassword replaces the password hash. Issued tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	if !s.Hasher.CheckPassword(user.PasswordHash, oldPassword) {
		l.Warn("change_password_failed", "reason", "old password mismatch", "user", user.UUID)
		return ErrUnauthorized
	}

	pwHash, err := s.Hasher.HashPassword(newPassword)
	if err != nil {
		return unavailable("auth.change_password", err)
	}
	user.PasswordHash = pwHash
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return storeErr("auth.change_password", err)
	}

	l.Info("change_password_success", "user", user.UUID)
	return nil
}

func (s *AuthService) blacklist(ctx context.Context, claims *tokens.Claims) error {
	ttl := claims.Remaining(s.now()) + s.Tokens.ClockSkew
	if err := s.Revoked.BlacklistToken(ctx, claims.JTI(), ttl); err != nil {
		return unavailable("auth.blacklist", err)
	}
	return nil
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	subject := user.UUID.String()

	access, err := s.Codec.Issue(subject, tokens.TypeAccess, s.Tokens.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Codec.Issue(subject, tokens.TypeRefresh, s.Tokens.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		TokenType:        TokenTypeBearer,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
		ExpiresIn:        int64(s.Tokens.AccessTTL / time.Second),
	}, nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.HashPassword(uuid.NewString())
	})
	return s.dummyHash
}

// checkRevoked rejects blacklisted tokens and tokens issued before the
// subject's revoke-all cutoff. Store failures are reported as ErrUnavailable.
func checkRevoked(ctx context.Context, store revocation.Store, claims *tokens.Claims) error {
	blacklisted, err := store.IsTokenBlacklisted(ctx, claims.JTI())
	if err != nil {
		return unavailable("revocation.blacklist", err)
	}
	if blacklisted {
		return fmt.Errorf("token blacklisted: %w", ErrUnauthorized)
	}

	cutoff, found, err := store.RevokeAllTimestamp(ctx, claims.Subject)
	if err != nil {
		return unavailable("revocation.cutoff", err)
	}
	if found && claims.IssuedAtTime().Before(cutoff) {
		return fmt.Errorf("token issued before revoke-all: %w", ErrUnauthorized)
	}
	return nil
}

// activeSubject loads the user named by a token subject. Unknown or inactive
// users are ErrUnauthorized.
func activeSubject(ctx context.Context, r *repo.GormRepo, subject string) (*models.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("malformed subject: %w", ErrUnauthorized)
	}
	user, err := r.GetUserByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("unknown subject: %w", ErrUnauthorized)
		}
		return nil, unavailable("auth.subject", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("inactive subject: %w", ErrUnauthorized)
	}
	return user, nil
}
