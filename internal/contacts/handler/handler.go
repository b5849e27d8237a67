// Package handler exposes the contacts API over HTTP.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"contacts_backend/internal/auth/identity"
	"contacts_backend/internal/contacts/service"
	"contacts_backend/internal/contacts/transport"
	"contacts_backend/platform/httpkit"
	"contacts_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid contact id"
)

// Handler handles HTTP requests for contacts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new contacts handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create creates a new contact.
// POST /api/contacts
func (h *Handler) Create(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req transport.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.Create(c.Request.Context(), principal.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.NewContactResponse(contact))
}

// List returns a page of the caller's contacts.
// GET /api/contacts?skip=0&limit=10
func (h *Handler) List(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req transport.ListContactsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contacts, err := h.svc.List(c.Request.Context(), principal.ID, req.Skip, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewContactListResponse(contacts))
}

// Get returns one contact by id.
// GET /api/contacts/:id
func (h *Handler) Get(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	contact, err := h.svc.Get(c.Request.Context(), contactID, principal.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewContactResponse(contact))
}

// Search matches contacts against a free-text query.
// GET /api/contacts/search?query=...
func (h *Handler) Search(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	query := c.Query("query")
	if query == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing query parameter", nil)
		return
	}

	contacts, err := h.svc.Search(c.Request.Context(), principal.ID, query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewContactListResponse(contacts))
}

// Update applies a partial update to a contact.
// PUT /api/contacts/:id
func (h *Handler) Update(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.Update(c.Request.Context(), contactID, principal.ID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewContactResponse(contact))
}

// Delete removes a contact.
// DELETE /api/contacts/:id
func (h *Handler) Delete(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), contactID, principal.ID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// UpcomingBirthdays lists contacts with a birthday in the coming window.
// GET /api/contacts/birthdays?days=7&start_date=2026-01-01
func (h *Handler) UpcomingBirthdays(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid days parameter", nil)
			return
		}
		days = parsed
	}

	var start time.Time
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := transport.ParseDate(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid start_date parameter", nil)
			return
		}
		start = parsed
	}

	messages, err := h.svc.UpcomingBirthdays(c.Request.Context(), principal.ID, days, start)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, messages)
}

func mustPrincipal(c *gin.Context) (identity.Principal, bool) {
	principal, ok := identity.FromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "could not validate credentials", nil)
		return identity.Principal{}, false
	}
	return principal, true
}
