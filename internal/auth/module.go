// Package auth provides the users bounded context: accounts, credentials,
// tokens, role-gated access and the password-reset flow.
package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	authcache "contacts_backend/internal/auth/cache"
	"contacts_backend/internal/auth/handler"
	"contacts_backend/internal/auth/identity"
	"contacts_backend/internal/auth/repository"
	"contacts_backend/internal/auth/service"
	"contacts_backend/internal/auth/token"
	"contacts_backend/internal/email"
	apphttp "contacts_backend/internal/http"
	"contacts_backend/internal/storage"
	"contacts_backend/platform/config"
	"contacts_backend/platform/logger"
	"contacts_backend/platform/validator"
)

// Module is the users bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the users module.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, cfg config.AuthServiceConfig, mail email.Sender, uploader storage.Uploader, val *validator.Validator, log *logger.Logger) (*Module, error) {
	codec, err := token.NewCodec(cfg)
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	userCache := authcache.New(rdb, log)
	svc := service.New(cfg, codec, repo, userCache, mail, uploader, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "users"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Middleware returns the bearer-token authentication middleware backed by
// this module's resolver. The composition root shares it with every module
// mounting protected routes.
func (m *Module) Middleware() gin.HandlerFunc {
	return identity.CurrentUser(m.service)
}

// RegisterRoutes mounts the users API under /api/users.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	anyUser := identity.RequireRoles(identity.NewRoleGate(identity.RoleAdmin, identity.RoleUser))
	adminOnly := identity.RequireRoles(identity.NewRoleGate(identity.RoleAdmin))

	users := ctx.API.Group("/users")

	users.POST("/register", ctx.AuthRateLimiter.RateLimit(), m.handler.Register)
	users.POST("/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)
	users.POST("/request_email", ctx.AuthRateLimiter.RateLimit(), m.handler.RequestEmail)
	users.GET("/verify", m.handler.VerifyEmail)
	users.POST("/password-reset/confirm", ctx.AuthRateLimiter.RateLimit(), m.handler.ResetPassword)

	me := users.Group("")
	me.Use(ctx.AuthMiddleware)
	me.GET("/me", anyUser, ctx.AuthRateLimiter.RateLimit(), m.handler.Me)
	me.PATCH("/me/avatar", adminOnly, ctx.AuthRateLimiter.RateLimit(), m.handler.UpdateAvatar)
	me.POST("/password-reset/request", anyUser, m.handler.RequestPasswordReset)
}
