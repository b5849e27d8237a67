// Package contacts provides the contacts bounded context module.
package contacts

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"contacts_backend/internal/auth/identity"
	"contacts_backend/internal/contacts/handler"
	"contacts_backend/internal/contacts/repository"
	"contacts_backend/internal/contacts/service"
	apphttp "contacts_backend/internal/http"
	"contacts_backend/platform/logger"
	"contacts_backend/platform/validator"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the contacts module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// RegisterRoutes mounts the contacts API under /api/contacts. Every route
// requires an authenticated principal with a known role.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	anyUser := identity.RequireRoles(identity.NewRoleGate(identity.RoleAdmin, identity.RoleUser))

	group := ctx.API.Group("/contacts")
	group.Use(ctx.AuthMiddleware, anyUser)

	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/search", m.handler.Search)
	group.GET("/birthdays", m.handler.UpcomingBirthdays)
	group.GET("/:id", m.handler.Get)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)
}
