package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/repo"
)

type ReviewInput struct {
	Content string
	Rating  int
}

type ReviewPatch struct {
	Content *string
	Rating  *int
}

type ReviewPage struct {
	Total int64
	Items []models.Review
}

type RatingStats struct {
	BookUUID      uuid.UUID `json:"book_uuid"`
	AverageRating *float64  `json:"average_rating"`
	TotalReviews  int64     `json:"total_reviews"`
}

type ReviewService struct {
	Repo *repo.GormRepo
}

func validRating(r int) bool { return r >= 1 && r <= 5 }

func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	rv, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return nil, storeErr("review.get", err)
	}
	return rv, nil
}

func (s *ReviewService) ForBook(ctx context.Context, bookID uuid.UUID, offset, limit int) (*ReviewPage, error) {
	book, err := s.Repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, storeErr("review.for_book", err)
	}
	total, items, err := s.Repo.ListReviewsByBook(ctx, book.ID, offset, limit)
	if err != nil {
		return nil, unavailable("review.for_book", err)
	}
	return &ReviewPage{Total: total, Items: items}, nil
}

func (s *ReviewService) Mine(ctx context.Context, user *models.User) ([]models.Review, error) {
	items, err := s.Repo.ListReviewsByUser(ctx, user.ID)
	if err != nil {
		return nil, unavailable("review.mine", err)
	}
	return items, nil
}

func (s *ReviewService) All(ctx context.Context, offset, limit int) (*ReviewPage, error) {
	total, items, err := s.Repo.ListReviews(ctx, offset, limit)
	if err != nil {
		return nil, unavailable("review.all", err)
	}
	return &ReviewPage{Total: total, Items: items}, nil
}

// ByUser lists the reviews written by userID. An unknown user is ErrNotFound.
func (s *ReviewService) ByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	user, err := s.Repo.GetUserByUUID(ctx, userID)
	if err != nil {
		return nil, storeErr("review.by_user", err)
	}
	return s.Mine(ctx, user)
}

// Create adds the author's review of a book. One review per user and book.
func (s *ReviewService) Create(ctx context.Context, author *models.User, bookID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if !validRating(in.Rating) {
		return nil, fmt.Errorf("rating %d: %w", in.Rating, ErrValidation)
	}
	book, err := s.Repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, storeErr("review.create", err)
	}

	exists, err := s.Repo.ReviewExists(ctx, author.ID, book.ID)
	if err != nil {
		return nil, unavailable("review.create", err)
	}
	if exists {
		return nil, fmt.Errorf("book already reviewed: %w", ErrConflict)
	}

	rv := &models.Review{
		Content: in.Content,
		Rating:  in.Rating,
		UserID:  author.ID,
		BookID:  book.ID,
	}
	if err := s.Repo.CreateReview(ctx, rv); err != nil {
		return nil, storeErr("review.create", err)
	}
	rv.Reviewer = author
	rv.Book = book

	logging.FromContext(ctx).Info("review_created", "review", rv.UUID, "book", book.UUID, "user", author.UUID)
	return rv, nil
}

// Update changes a review. Only its author or an admin may do it.
func (s *ReviewService) Update(ctx context.Context, actor *models.User, id uuid.UUID, patch ReviewPatch) (*models.Review, error) {
	rv, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Content != nil {
		rv.Content = *patch.Content
	}
	if patch.Rating != nil {
		if !validRating(*patch.Rating) {
			return nil, fmt.Errorf("rating %d: %w", *patch.Rating, ErrValidation)
		}
		rv.Rating = *patch.Rating
	}
	if err := s.Repo.SaveReview(ctx, rv); err != nil {
		return nil, storeErr("review.update", err)
	}
	return rv, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	rv, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteReview(ctx, rv); err != nil {
		return storeErr("review.delete", err)
	}
	return nil
}

func (s *ReviewService) Rating(ctx context.Context, bookID uuid.UUID) (*RatingStats, error) {
	book, err := s.Repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, storeErr("review.rating", err)
	}
	raw, err := s.Repo.BookRating(ctx, book.ID)
	if err != nil {
		return nil, unavailable("review.rating", err)
	}

	stats := &RatingStats{BookUUID: book.UUID, TotalReviews: raw.Count}
	if raw.Count > 0 {
		avg := math.Round(raw.Average*100) / 100
		stats.AverageRating = &avg
	}
	return stats, nil
}

func (s *ReviewService) owned(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Review, error) {
	rv, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return nil, storeErr("review.get", err)
	}
	if actor.Role != models.RoleAdmin && rv.UserID != actor.ID {
		logging.FromContext(ctx).Warn("review_access_denied", "actor", actor.UUID, "review", rv.UUID)
		return nil, ErrForbidden
	}
	return rv, nil
}
