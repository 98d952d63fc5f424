// Package testutil wires in-memory backends for package tests.
package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/book_api/internal/models"
	"github.com/Skotchmaster/book_api/internal/revocation"
	"github.com/Skotchmaster/book_api/pkg/db"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	gdb, err := db.OpenMemory(name)
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func InitTestRedis(t *testing.T) (*miniredis.Miniredis, *revocation.RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, revocation.NewRedisStore(client, time.Second)
}

// Clock is a settable time source shared by the codec and services under test.
type Clock struct {
	t time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{t: t} }

func (c *Clock) Now() time.Time          { return c.t }
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func FakeUser() *models.User {
	return &models.User{
		Username:  "u_" + strings.ToLower(gofakeit.LetterN(10)),
		Email:     strings.ToLower(gofakeit.LetterN(10)) + "@example.com",
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Role:      models.RoleUser,
		IsActive:  true,
	}
}

func FakeBook(owner uint) *models.Book {
	return &models.Book{
		Title:       gofakeit.BookTitle(),
		Author:      gofakeit.BookAuthor(),
		Publisher:   gofakeit.Company(),
		PublishDate: gofakeit.Date().Format("2006-01-02"),
		Pages:       gofakeit.Number(50, 900),
		Language:    gofakeit.Language(),
		UserID:      owner,
	}
}
