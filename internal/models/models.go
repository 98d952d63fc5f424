package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// AnyRole is the role set accepted by endpoints open to every signed-in user.
var AnyRole = []Role{RoleUser, RoleModerator, RoleAdmin}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"    json:"uuid"`
	Username     string    `gorm:"size:50;uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"     json:"email"`
	FirstName    string    `gorm:"size:100;not null"                 json:"first_name"`
	LastName     string    `gorm:"size:100;not null"                 json:"last_name"`
	Role         Role      `gorm:"size:20;not null;default:user"     json:"role"`
	PasswordHash string    `gorm:"not null"                          json:"-"`
	IsActive     bool      `gorm:"not null;default:true"             json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Books []Book `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"books,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

type Book struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"  json:"uuid"`
	Title       string    `gorm:"size:255;not null"               json:"title"`
	Author      string    `gorm:"size:255;not null"               json:"author"`
	Publisher   string    `gorm:"size:255;not null"               json:"publisher"`
	PublishDate string    `gorm:"size:10;not null"                json:"publish_date"`
	Pages       int       `gorm:"not null"                        json:"pages"`
	Language    string    `gorm:"size:50;not null"                json:"language"`
	UserID      uint      `gorm:"index;not null"                  json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	return nil
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                  json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"            json:"uuid"`
	Content   string    `gorm:"size:1000;not null"                        json:"content"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_user_book" json:"user_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_review_user_book;index" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reviewer *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"reviewer,omitempty"`
	Book     *Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	return nil
}

// All lists the tables managed by gorm AutoMigrate.
func All() []any {
	return []any{&User{}, &Book{}, &Review{}}
}
