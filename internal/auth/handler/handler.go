// Package handler exposes the users API over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contacts_backend/internal/auth/identity"
	"contacts_backend/internal/auth/service"
	"contacts_backend/internal/auth/transport"
	"contacts_backend/platform/httpkit"
	"contacts_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the users API.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new users handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Register creates a new user account.
// POST /api/users/register
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	principal, err := h.svc.Register(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.NewUserResponse(principal))
}

// Login exchanges OAuth2 password-grant form credentials for an access token.
// POST /api/users/login
func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	accessToken, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.TokenResponse{AccessToken: accessToken, TokenType: "bearer"})
}

// RequestEmail re-sends the verification email.
// POST /api/users/request_email
func (h *Handler) RequestEmail(c *gin.Context) {
	var req transport.RequestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.RequestVerificationEmail(c.Request.Context(), req.Email)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.MessageResponse{Message: "Verification email sent successfully"})
}

// VerifyEmail confirms the address carried by the token query parameter.
// GET /api/users/verify?token=...
func (h *Handler) VerifyEmail(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	already, err := h.svc.VerifyEmail(c.Request.Context(), rawToken)
	if httpkit.HandleError(c, err) {
		return
	}
	if already {
		httpkit.OK(c, transport.MessageResponse{Message: "Email already verified"})
		return
	}
	httpkit.OK(c, transport.MessageResponse{Message: "Email verified successfully"})
}

// Me returns the authenticated user.
// GET /api/users/me
func (h *Handler) Me(c *gin.Context) {
	principal, ok := identity.FromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "could not validate credentials", nil)
		return
	}
	httpkit.OK(c, transport.NewUserResponse(principal))
}

// UpdateAvatar replaces the authenticated user's avatar with an uploaded file.
// PATCH /api/users/me/avatar
func (h *Handler) UpdateAvatar(c *gin.Context) {
	principal, ok := identity.FromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "could not validate credentials", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "missing file upload", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable file upload", nil)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	updated, err := h.svc.UpdateAvatar(c.Request.Context(), principal.Email, file, fileHeader.Size, contentType)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewUserResponse(updated))
}

// RequestPasswordReset starts the reset flow for the authenticated user.
// The requested email must match the caller's own address.
// POST /api/users/password-reset/request
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	principal, ok := identity.FromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "could not validate credentials", nil)
		return
	}

	var req transport.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if req.Email != principal.Email {
		httpkit.Error(c, http.StatusForbidden, "Can only request password reset for your own email", nil)
		return
	}

	err := h.svc.RequestPasswordReset(c.Request.Context(), principal.Email)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.MessageResponse{Message: "Password reset email sent"})
}

// ResetPassword consumes a reset token and sets the new password.
// POST /api/users/password-reset/confirm
func (h *Handler) ResetPassword(c *gin.Context) {
	var req transport.PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.MessageResponse{Message: "Password reset successfully"})
}
