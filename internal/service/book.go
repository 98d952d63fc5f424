package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/book_api/internal/es"
	"github.com/Skotchmaster/book_api/internal/logging"
	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/mykafka"
	"github.com/Skotchmaster/book_api/internal/repo"
)

type BookInput struct {
	Title       string
	Author      string
	Publisher   string
	PublishDate string
	Pages       int
	Language    string
}

type BookPatch struct {
	Title       *string
	Author      *string
	Publisher   *string
	PublishDate *string
	Pages       *int
	Language    *string
}

type BookPage struct {
	Total int64
	Items []models.Book
}

type BookService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
	// Index is optional; without it search runs against the database.
	Index es.Index
}

func (s *BookService) List(ctx context.Context, offset, limit int) (*BookPage, error) {
	total, items, err := s.Repo.ListBooks(ctx, offset, limit)
	if err != nil {
		return nil, unavailable("book.list", err)
	}
	return &BookPage{Total: total, Items: items}, nil
}

func (s *BookService) Search(ctx context.Context, q string, offset, limit int) (*BookPage, error) {
	l := logging.FromContext(ctx).With("svc", "book.search")

	if s.Index != nil {
		total, ids, err := s.Index.SearchBooks(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.GetBooksByUUIDs(ctx, ids)
			if err != nil {
				return nil, unavailable("book.search", err)
			}
			return &BookPage{Total: total, Items: items}, nil
		}
		l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}

	total, items, err := s.Repo.SearchBooks(ctx, q, offset, limit)
	if err != nil {
		return nil, unavailable("book.search", err)
	}
	return &BookPage{Total: total, Items: items}, nil
}

func (s *BookService) Get(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.Repo.GetBook(ctx, id)
	if err != nil {
		return nil, storeErr("book.get", err)
	}
	return book, nil
}

func (s *BookService) MyBooks(ctx context.Context, user *models.User) ([]models.Book, error) {
	items, err := s.Repo.ListBooksByOwner(ctx, user.ID)
	if err != nil {
		return nil, unavailable("book.my_books", err)
	}
	return items, nil
}

func (s *BookService) Create(ctx context.Context, owner *models.User, in BookInput) (*models.Book, error) {
	if in.Pages <= 0 {
		return nil, fmt.Errorf("pages must be positive: %w", ErrValidation)
	}
	book := &models.Book{
		Title:       in.Title,
		Author:      in.Author,
		Publisher:   in.Publisher,
		PublishDate: in.PublishDate,
		Pages:       in.Pages,
		Language:    in.Language,
		UserID:      owner.ID,
	}
	if err := s.Repo.CreateBook(ctx, book); err != nil {
		return nil, storeErr("book.create", err)
	}

	s.sync(ctx, book)
	s.publish(ctx, owner, "book_created", book)
	return book, nil
}

// Update applies patch to the book. Non-admins may only change their own books.
func (s *BookService) Update(ctx context.Context, actor *models.User, id uuid.UUID, patch BookPatch) (*models.Book, error) {
	book, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.Publisher != nil {
		book.Publisher = *patch.Publisher
	}
	if patch.PublishDate != nil {
		book.PublishDate = *patch.PublishDate
	}
	if patch.Pages != nil {
		if *patch.Pages <= 0 {
			return nil, fmt.Errorf("pages must be positive: %w", ErrValidation)
		}
		book.Pages = *patch.Pages
	}
	if patch.Language != nil {
		book.Language = *patch.Language
	}

	if err := s.Repo.SaveBook(ctx, book); err != nil {
		return nil, storeErr("book.update", err)
	}

	s.sync(ctx, book)
	s.publish(ctx, actor, "book_updated", book)
	return book, nil
}

func (s *BookService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	book, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteBook(ctx, book); err != nil {
		return storeErr("book.delete", err)
	}

	unindex(ctx, s.Index, book.UUID)
	s.publish(ctx, actor, "book_deleted", book)
	return nil
}

func (s *BookService) owned(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Book, error) {
	book, err := s.Repo.GetBook(ctx, id)
	if err != nil {
		return nil, storeErr("book.get", err)
	}
	if actor.Role != models.RoleAdmin && book.UserID != actor.ID {
		logging.FromContext(ctx).Warn("book_access_denied", "actor", actor.UUID, "book", book.UUID)
		return nil, ErrForbidden
	}
	return book, nil
}

func (s *BookService) sync(ctx context.Context, book *models.Book) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexBook(ctx, book); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "book", book.UUID, "error", err)
	}
}

// unindex removes a book from the search index. Failures are only logged.
func unindex(ctx context.Context, idx es.Index, id uuid.UUID) {
	if idx == nil {
		return
	}
	if err := idx.DeleteBook(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("search_index_delete_failed", "book", id, "error", err)
	}
}

func (s *BookService) publish(ctx context.Context, actor *models.User, typ string, book *models.Book) {
	publish(ctx, s.Events, mykafka.TopicBookEvents, actor.UUID.String(), typ, map[string]any{
		"uuid":  book.UUID,
		"title": book.Title,
		"actor": actor.UUID,
	})
}
