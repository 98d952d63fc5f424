package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/book_api/internal/models"
)

func (r *GormRepo) CreateBook(ctx context.Context, b *models.Book) error {
	return translate(r.DB.WithContext(ctx).Create(b).Error)
}

func (r *GormRepo) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book := models.Book{}
	if err := r.DB.WithContext(ctx).Where("uuid = ?", id).First(&book).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (r *GormRepo) ListBooks(ctx context.Context, offset, limit int) (int64, []models.Book, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Book{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Book
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListBooksByOwner(ctx context.Context, userID uint) ([]models.Book, error) {
	var items []models.Book
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetBooksByUUIDs returns the books in the order of ids, skipping unknown ones.
func (r *GormRepo) GetBooksByUUIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	if len(ids) == 0 {
		return []models.Book{}, nil
	}
	var found []models.Book
	if err := r.DB.WithContext(ctx).Where("uuid IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Book, len(found))
	for _, b := range found {
		byID[b.UUID] = b
	}
	items := make([]models.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			items = append(items, b)
		}
	}
	return items, nil
}

func (r *GormRepo) SaveBook(ctx context.Context, b *models.Book) error {
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Save(b).Error)
}

func (r *GormRepo) DeleteBook(ctx context.Context, b *models.Book) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", b.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Book{}, b.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SearchBooks is a case-insensitive substring match over title, author and publisher.
func (r *GormRepo) SearchBooks(ctx context.Context, q string, offset, limit int) (int64, []models.Book, error) {
	pattern := "%" + escapeLike(q) + "%"
	where := "LOWER(title) LIKE LOWER(?) ESCAPE '\\' OR LOWER(author) LIKE LOWER(?) ESCAPE '\\' OR LOWER(publisher) LIKE LOWER(?) ESCAPE '\\'"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where(where, pattern, pattern, pattern).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Book, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where(where, pattern, pattern, pattern).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
