package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestUserService_UpdateOwnProfileOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.register(t)
	bob, _ := env.register(t)
	admin := env.registerWithRole(t, models.RoleAdmin)

	updated, err := env.users.Update(ctx, alice, alice.UUID, UpdateUserInput{FirstName: strPtr("Alicia")})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)

	_, err = env.users.Update(ctx, bob, alice.UUID, UpdateUserInput{FirstName: strPtr("Mallory")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.users.Update(ctx, admin, alice.UUID, UpdateUserInput{LastName: strPtr("Admin-set")})
	require.NoError(t, err)

	_, err = env.users.Update(ctx, alice, alice.UUID, UpdateUserInput{Email: strPtr(bob.Email)})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.users.Update(ctx, alice, newID(), UpdateUserInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.register(t)
	bob, _ := env.register(t)

	assert.ErrorIs(t, env.users.Delete(ctx, bob, alice.UUID), ErrForbidden)
	require.NoError(t, env.users.Delete(ctx, alice, alice.UUID))

	_, err := env.users.Get(ctx, alice.UUID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_AdminCreateWithRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fake := testutil.FakeUser()
	inactive := false

	user, err := env.users.AdminCreate(ctx, AdminCreateUserInput{
		RegisterInput: RegisterInput{
			Username:  fake.Username,
			Email:     fake.Email,
			Password:  testPassword,
			FirstName: fake.FirstName,
			LastName:  fake.LastName,
		},
		Role:     models.RoleModerator,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, user.Role)

	stored, err := env.repo.GetUserByUUID(ctx, user.UUID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, models.RoleModerator, stored.Role)

	_, err = env.users.AdminCreate(ctx, AdminCreateUserInput{
		RegisterInput: RegisterInput{Username: "x_" + fake.Username, Email: "x" + fake.Email, Password: testPassword},
		Role:          "superuser",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_ChangeRoleAndActivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.register(t)

	updated, err := env.users.ChangeRole(ctx, user.UUID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	_, err = env.users.ChangeRole(ctx, user.UUID, "root")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err = env.users.SetActive(ctx, user.UUID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = env.users.SetActive(ctx, newID(), true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_ListAndLookup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.register(t)
	env.register(t)
	env.register(t)

	page, err := env.users.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	byEmail, err := env.users.GetByEmail(ctx, alice.Email)
	require.NoError(t, err)
	assert.Equal(t, alice.UUID, byEmail.UUID)

	_, err = env.users.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.repo.CreateBook(ctx, testutil.FakeBook(alice.ID)))
	me, err := env.users.Me(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, me.Books, 1)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fake := testutil.FakeUser()
	in := RegisterInput{
		Username:  fake.Username,
		Email:     fake.Email,
		Password:  testPassword,
		FirstName: "Admin",
		LastName:  "User",
	}

	admin, outcome, err := env.users.EnsureAdmin(ctx, in, false)
	require.NoError(t, err)
	assert.Equal(t, AdminCreated, outcome)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, outcome, err = env.users.EnsureAdmin(ctx, in, false)
	require.NoError(t, err)
	assert.Equal(t, AdminUnchanged, outcome)

	plain, plainIn := env.register(t)
	_, _, err = env.users.EnsureAdmin(ctx, plainIn, false)
	assert.ErrorIs(t, err, ErrConflict)

	promoted, outcome, err := env.users.EnsureAdmin(ctx, plainIn, true)
	require.NoError(t, err)
	assert.Equal(t, AdminPromoted, outcome)
	assert.Equal(t, plain.UUID, promoted.UUID)
	assert.Equal(t, models.RoleAdmin, promoted.Role)
}

func TestUserService_DeleteDropsBooksFromIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	idx := newFakeIndex()
	env.books.Index = idx
	env.users.Index = idx

	owner, _ := env.register(t)
	admin := env.registerWithRole(t, models.RoleAdmin)
	first, err := env.books.Create(ctx, owner, sampleBook())
	require.NoError(t, err)
	second, err := env.books.Create(ctx, owner, sampleBook())
	require.NoError(t, err)
	kept, err := env.books.Create(ctx, admin, sampleBook())
	require.NoError(t, err)

	require.NoError(t, env.users.AdminDelete(ctx, owner.UUID))

	assert.ElementsMatch(t, []uuid.UUID{first.UUID, second.UUID}, idx.deleted)
	assert.NotContains(t, idx.deleted, kept.UUID)

	deleted := 0
	for _, typ := range env.events.types() {
		if typ == "book_deleted" {
			deleted++
		}
	}
	assert.Equal(t, 2, deleted)

	_, err = env.books.Get(ctx, first.UUID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_DeleteWithoutIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, _ := env.register(t)
	_, err := env.books.Create(ctx, owner, sampleBook())
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, owner, owner.UUID))
}
