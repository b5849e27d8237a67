package transport

import "contacts_backend/internal/auth/identity"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest binds the OAuth2 password-grant form fields.
type LoginRequest struct {
	Username string `form:"username" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type RequestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type UserResponse struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Verified  bool    `json:"is_verified"`
	AvatarURL *string `json:"avatar_url"`
	Role      string  `json:"roles"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// NewUserResponse maps a principal to its API representation.
func NewUserResponse(principal identity.Principal) UserResponse {
	return UserResponse{
		ID:        principal.ID,
		Email:     principal.Email,
		Verified:  principal.Verified,
		AvatarURL: principal.AvatarURL,
		Role:      string(principal.Role),
	}
}
