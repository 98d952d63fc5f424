package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/book_api/internal/es"
	"github.com/Skotchmaster/book_api/internal/hash"
	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/mykafka"
	"github.com/Skotchmaster/book_api/internal/repo"
)

type UpdateUserInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}

type AdminCreateUserInput struct {
	RegisterInput
	Role     models.Role
	IsActive *bool
}

type AdminUpdateUserInput struct {
	UpdateUserInput
	Role     *models.Role
	IsActive *bool
}

type UserPage struct {
	Total int64
	Items []models.User
}

type UserService struct {
	Repo   *repo.GormRepo
	Hasher *hash.Hasher
	Events mykafka.Publisher
	// Index is optional; books of deleted users are removed from it.
	Index es.Index
}

func (s *UserService) Me(ctx context.Context, user *models.User) (*models.User, error) {
	return s.Get(ctx, user.UUID)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserWithBooks(ctx, id)
	if err != nil {
		return nil, storeErr("user.get", err)
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("user.get_by_email", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int) (*UserPage, error) {
	total, items, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return nil, unavailable("user.list", err)
	}
	return &UserPage{Total: total, Items: items}, nil
}

// Update changes the profile of id. Only the user themself or an admin may do it.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.update")

	target, err := s.Repo.GetUserByUUID(ctx, id)
	if err != nil {
		return nil, storeErr("user.update", err)
	}
	if actor.Role != models.RoleAdmin && actor.ID != target.ID {
		l.Warn("update_failed", "reason", "not own profile", "actor", actor.UUID, "target", target.UUID)
		return nil, ErrForbidden
	}

	if err := s.applyProfile(ctx, target, in); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveUser(ctx, target); err != nil {
		return nil, storeErr("user.update", err)
	}
	return target, nil
}

// Delete removes id with everything it owns. Only the user themself or an admin may do it.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	target, err := s.Repo.GetUserByUUID(ctx, id)
	if err != nil {
		return storeErr("user.delete", err)
	}
	if actor.Role != models.RoleAdmin && actor.ID != target.ID {
		return ErrForbidden
	}
	return s.delete(ctx, target)
}

func (s *UserService) AdminCreate(ctx context.Context, in AdminCreateUserInput) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, ErrValidation)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	user, err := createUser(ctx, s.Repo, s.Hasher, in.RegisterInput, role, active)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, mykafka.TopicUserEvents, user.UUID.String(), "user_registered", map[string]any{
		"uuid":     user.UUID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
	return user, nil
}

func (s *UserService) AdminUpdate(ctx context.Context, id uuid.UUID, in AdminUpdateUserInput) (*models.User, error) {
	target, err := s.Repo.GetUserByUUID(ctx, id)
	if err != nil {
		return nil, storeErr("admin.update", err)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("role %q: %w", *in.Role, ErrValidation)
		}
		target.Role = *in.Role
	}
	if in.IsActive != nil {
		target.IsActive = *in.IsActive
	}
	if err := s.applyProfile(ctx, target, in.UpdateUserInput); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveUser(ctx, target); err != nil {
		return nil, storeErr("admin.update", err)
	}
	return target, nil
}

func (s *UserService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	target, err := s.Repo.GetUserByUUID(ctx, id)
	if err != nil {
		return storeErr("admin.delete", err)
	}
	return s.delete(ctx, target)
}

func (s *UserService) ChangeRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	return s.AdminUpdate(ctx, id, AdminUpdateUserInput{Role: &role})
}

// SetActive toggles the account flag. Deactivated users are rejected by the
// Guard on their next request; their tokens are not revoked.
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	return s.AdminUpdate(ctx, id, AdminUpdateUserInput{IsActive: &active})
}

type AdminOutcome string

const (
	AdminCreated   AdminOutcome = "created"
	AdminPromoted  AdminOutcome = "promoted"
	AdminUnchanged AdminOutcome = "unchanged"
)

// EnsureAdmin creates an admin account for in.Email. An existing account is
// promoted only when promote is set; otherwise it is ErrConflict unless it is
// already an admin.
func (s *UserService) EnsureAdmin(ctx context.Context, in RegisterInput, promote bool) (*models.User, AdminOutcome, error) {
	existing, err := s.Repo.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			return existing, AdminUnchanged, nil
		}
		if !promote {
			return existing, AdminUnchanged, fmt.Errorf("user %s has role %s: %w", existing.Email, existing.Role, ErrConflict)
		}
		user, err := s.ChangeRole(ctx, existing.UUID, models.RoleAdmin)
		if err != nil {
			return nil, "", err
		}
		return user, AdminPromoted, nil
	case !repo.IsNotFound(err):
		return nil, "", unavailable("admin.ensure", err)
	}

	user, err := s.AdminCreate(ctx, AdminCreateUserInput{RegisterInput: in, Role: models.RoleAdmin})
	if err != nil {
		return nil, "", err
	}
	return user, AdminCreated, nil
}

// delete removes target together with its books and reviews. The books are
// then dropped from the search index and announced as deleted.
func (s *UserService) delete(ctx context.Context, target *models.User) error {
	books, err := s.Repo.ListBooksByOwner(ctx, target.ID)
	if err != nil {
		return unavailable("user.delete", err)
	}
	if err := s.Repo.DeleteUser(ctx, target); err != nil {
		return storeErr("user.delete", err)
	}

	for i := range books {
		book := &books[i]
		unindex(ctx, s.Index, book.UUID)
		publish(ctx, s.Events, mykafka.TopicBookEvents, target.UUID.String(), "book_deleted", map[string]any{
			"uuid":   book.UUID,
			"title":  book.Title,
			"actor":  target.UUID,
			"reason": "owner_deleted",
		})
	}
	logging.FromContext(ctx).Info("user_deleted", "user", target.UUID, "books", len(books))
	return nil
}

func (s *UserService) applyProfile(ctx context.Context, target *models.User, in UpdateUserInput) error {
	var username, email string
	if in.Username != nil && *in.Username != target.Username {
		username = *in.Username
	}
	if in.Email != nil && *in.Email != target.Email {
		email = *in.Email
	}
	if err := ensureFree(ctx, s.Repo, username, email, target.ID); err != nil {
		return err
	}

	if username != "" {
		target.Username = username
	}
	if email != "" {
		target.Email = email
	}
	if in.FirstName != nil {
		target.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		target.LastName = *in.LastName
	}
	return nil
}

func ensureFree(ctx context.Context, r *repo.GormRepo, username, email string, exclude uint) error {
	usernameTaken, emailTaken, err := r.UserTaken(ctx, username, email, exclude)
	if err != nil {
		return unavailable("user.uniqueness", err)
	}
	if emailTaken {
		return fmt.Errorf("email already registered: %w", ErrConflict)
	}
	if usernameTaken {
		return fmt.Errorf("username already taken: %w", ErrConflict)
	}
	return nil
}

func createUser(ctx context.Context, r *repo.GormRepo, h *hash.Hasher, in RegisterInput, role models.Role, active bool) (*models.User, error) {
	if err := ensureFree(ctx, r, in.Username, in.Email, 0); err != nil {
		return nil, err
	}

	pwHash, err := h.HashPassword(in.Password)
	if err != nil {
		return nil, unavailable("user.create", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		PasswordHash: pwHash,
		IsActive:     true,
	}
	if err := r.CreateUser(ctx, user); err != nil {
		return nil, storeErr("user.create", err)
	}

	// is_active defaults to true in the schema, so false is written explicitly.
	if !active {
		user.IsActive = false
		if err := r.SaveUser(ctx, user); err != nil {
			return nil, storeErr("user.create", err)
		}
	}
	return user, nil
}

func publish(ctx context.Context, p mykafka.Publisher, topic, key, typ string, payload any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, mykafka.NewEvent(typ, payload)); err != nil {
		logging.FromContext(ctx).Error("publish_failed", "topic", topic, "event", typ, "error", err)
	}
}
