package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/book_api/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) GetUserByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("uuid = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserWithBooks(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("uuid = ?", id).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UserTaken reports whether the username or email already belongs to a user
// other than exclude.
func (r *GormRepo) UserTaken(ctx context.Context, username, email string, exclude uint) (usernameTaken, emailTaken bool, err error) {
	if username != "" {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&models.User{}).
			Where("username = ? AND id <> ?", username, exclude).
			Count(&n).Error; err != nil {
			return false, false, err
		}
		usernameTaken = n > 0
	}
	if email != "" {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&models.User{}).
			Where("email = ? AND id <> ?", email, exclude).
			Count(&n).Error; err != nil {
			return false, false, err
		}
		emailTaken = n > 0
	}
	return usernameTaken, emailTaken, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.User
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// SaveUser writes every column of u, including zero values.
func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Save(u).Error)
}

// DeleteUser removes the user together with their books and reviews.
func (r *GormRepo) DeleteUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookIDs := tx.Model(&models.Book{}).Select("id").Where("user_id = ?", u.ID)
		if err := tx.Where("user_id = ? OR book_id IN (?)", u.ID, bookIDs).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&models.Book{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, u.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
