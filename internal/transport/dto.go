package transport

import "github.com/Skotchmaster/book_api/internal/util"

type RegisterRequest struct {
	Username  string `json:"username"   validate:"required,min=3,max=50"`
	Email     string `json:"email"      validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name"  validate:"required,min=1,max=100"`
	Password  string `json:"password"   validate:"required,min=8,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=100"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username"   validate:"omitempty,min=3,max=50"`
	Email     *string `json:"email"      validate:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name"  validate:"omitempty,min=1,max=100"`
}

type AdminCreateUserRequest struct {
	RegisterRequest
	Role     string `json:"role"      validate:"omitempty,oneof=user moderator admin"`
	IsActive *bool  `json:"is_active"`
}

type AdminUpdateUserRequest struct {
	UpdateUserRequest
	Role     *string `json:"role"      validate:"omitempty,oneof=user moderator admin"`
	IsActive *bool   `json:"is_active"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user moderator admin"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type CreateBookRequest struct {
	Title       string `json:"title"        validate:"required,max=255"`
	Author      string `json:"author"       validate:"required,max=255"`
	Publisher   string `json:"publisher"    validate:"required,max=255"`
	PublishDate string `json:"publish_date" validate:"required,datetime=2006-01-02"`
	Pages       int    `json:"pages"        validate:"required,gt=0"`
	Language    string `json:"language"     validate:"required,max=50"`
}

type PatchBookRequest struct {
	Title       *string `json:"title"        validate:"omitempty,min=1,max=255"`
	Author      *string `json:"author"       validate:"omitempty,min=1,max=255"`
	Publisher   *string `json:"publisher"    validate:"omitempty,min=1,max=255"`
	PublishDate *string `json:"publish_date" validate:"omitempty,datetime=2006-01-02"`
	Pages       *int    `json:"pages"        validate:"omitempty,gt=0"`
	Language    *string `json:"language"     validate:"omitempty,min=1,max=50"`
}

type CreateReviewRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
}

type PatchReviewRequest struct {
	Content *string `json:"content" validate:"omitempty,min=1,max=1000"`
	Rating  *int    `json:"rating"  validate:"omitempty,min=1,max=5"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type PageResponse[T any] struct {
	Data []T       `json:"data"`
	Meta util.Meta `json:"meta"`
}
