package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/book_api/internal/models"
)

type RatingStats struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

func (r *GormRepo) CreateReview(ctx context.Context, rv *models.Review) error {
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Create(rv).Error)
}

func (r *GormRepo) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var rv models.Review
	if err := r.DB.WithContext(ctx).Preload("Reviewer").Preload("Book").Where("uuid = ?", id).First(&rv).Error; err != nil {
		return nil, translate(err)
	}
	return &rv, nil
}

func (r *GormRepo) ReviewExists(ctx context.Context, userID, bookID uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) ListReviewsByBook(ctx context.Context, bookID uint, offset, limit int) (int64, []models.Review, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Review{}).Where("book_id = ?", bookID).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Review
	if err := r.DB.WithContext(ctx).Preload("Reviewer").
		Where("book_id = ?", bookID).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ListReviews pages over every review with its reviewer and book.
func (r *GormRepo) ListReviews(ctx context.Context, offset, limit int) (int64, []models.Review, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Review{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Review
	if err := r.DB.WithContext(ctx).Preload("Reviewer").Preload("Book").
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListReviewsByUser(ctx context.Context, userID uint) ([]models.Review, error) {
	var items []models.Review
	if err := r.DB.WithContext(ctx).Preload("Book").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SaveReview(ctx context.Context, rv *models.Review) error {
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Save(rv).Error)
}

func (r *GormRepo) DeleteReview(ctx context.Context, rv *models.Review) error {
	res := r.DB.WithContext(ctx).Delete(&models.Review{}, rv.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) BookRating(ctx context.Context, bookID uint) (RatingStats, error) {
	var stats RatingStats
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Scan(&stats).Error
	return stats, err
}
