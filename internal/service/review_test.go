package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/book_api/internal/models"
)

func TestReviewService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, _ := env.register(t)
	alice, _ := env.register(t)
	bob, _ := env.register(t)
	admin := env.registerWithRole(t, models.RoleAdmin)

	book, err := env.books.Create(ctx, owner, sampleBook())
	require.NoError(t, err)

	stats, err := env.reviews.Rating(ctx, book.UUID)
	require.NoError(t, err)
	assert.Nil(t, stats.AverageRating)
	assert.EqualValues(t, 0, stats.TotalReviews)

	rv, err := env.reviews.Create(ctx, alice, book.UUID, ReviewInput{Content: "Loved it", Rating: 5})
	require.NoError(t, err)
	require.NotNil(t, rv.Reviewer)
	assert.Equal(t, alice.Username, rv.Reviewer.Username)

	_, err = env.reviews.Create(ctx, alice, book.UUID, ReviewInput{Content: "Again", Rating: 4})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.reviews.Create(ctx, bob, book.UUID, ReviewInput{Content: "Too long", Rating: 2})
	require.NoError(t, err)

	_, err = env.reviews.Create(ctx, bob, newID(), ReviewInput{Content: "?", Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.reviews.Create(ctx, owner, book.UUID, ReviewInput{Content: "!", Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)

	stats, err = env.reviews.Rating(ctx, book.UUID)
	require.NoError(t, err)
	require.NotNil(t, stats.AverageRating)
	assert.InDelta(t, 3.5, *stats.AverageRating, 0.001)
	assert.EqualValues(t, 2, stats.TotalReviews)

	rating := 3
	_, err = env.reviews.Update(ctx, bob, rv.UUID, ReviewPatch{Rating: &rating})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := env.reviews.Update(ctx, alice, rv.UUID, ReviewPatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)
	assert.Equal(t, "Loved it", updated.Content)

	page, err := env.reviews.ForBook(ctx, book.UUID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	mine, err := env.reviews.Mine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Book)
	assert.Equal(t, book.UUID, mine[0].Book.UUID)

	assert.ErrorIs(t, env.reviews.Delete(ctx, bob, rv.UUID), ErrForbidden)
	require.NoError(t, env.reviews.Delete(ctx, admin, rv.UUID))

	_, err = env.reviews.Get(ctx, rv.UUID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewService_AllAndByUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, _ := env.register(t)
	alice, _ := env.register(t)
	bob, _ := env.register(t)

	first, err := env.books.Create(ctx, owner, sampleBook())
	require.NoError(t, err)
	second, err := env.books.Create(ctx, owner, sampleBook())
	require.NoError(t, err)

	_, err = env.reviews.Create(ctx, alice, first.UUID, ReviewInput{Content: "First", Rating: 4})
	require.NoError(t, err)
	_, err = env.reviews.Create(ctx, alice, second.UUID, ReviewInput{Content: "Second", Rating: 2})
	require.NoError(t, err)
	_, err = env.reviews.Create(ctx, bob, first.UUID, ReviewInput{Content: "Bob", Rating: 5})
	require.NoError(t, err)

	page, err := env.reviews.All(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 3)
	for _, rv := range page.Items {
		require.NotNil(t, rv.Reviewer)
		require.NotNil(t, rv.Book)
	}

	mine, err := env.reviews.ByUser(ctx, alice.UUID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "First", mine[0].Content)
	require.NotNil(t, mine[1].Book)
	assert.Equal(t, second.UUID, mine[1].Book.UUID)

	none, err := env.reviews.ByUser(ctx, owner.UUID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = env.reviews.ByUser(ctx, newID())
	assert.ErrorIs(t, err, ErrNotFound)
}
