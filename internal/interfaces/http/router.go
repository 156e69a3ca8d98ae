package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/application/invitation"
	"github.com/jhoicas/seedor-api/internal/application/membership"
	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/application/tenant"
	"github.com/jhoicas/seedor-api/internal/infrastructure/metrics"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Tenants     *tenant.Service
	Invitations *invitation.Service
	Members     *membership.Service
	Identity    ports.IdentityProvider
	// Metrics opcional: nil deshabilita el middleware y /metrics.
	Metrics *metrics.Collector
	// SignupLimiter limita las rutas públicas de registro; nil = sin límite.
	SignupLimiter *RateLimiter
	Logger        *logger.Logger
}

// NewApp crea la app Fiber con el manejador de errores JSON del servicio.
func NewApp(name string, log *logger.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    1 << 20,
		ErrorHandler: fiberErrorHandler(log),
	})
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("http")

	app.Use(recover.New())
	app.Use(requestid.New())
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}
	app.Use(AccessLog(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok"})
	})

	signup := func(c *fiber.Ctx) error { return c.Next() }
	if deps.SignupLimiter != nil {
		signup = deps.SignupLimiter.Middleware()
	}
	requireAuth := AuthMiddleware(deps.Identity)

	tenantHandler := NewTenantHandler(deps.Tenants, log)
	invitationHandler := NewInvitationHandler(deps.Invitations, log)
	memberHandler := NewMemberHandler(deps.Members, log)

	api := app.Group("/api")

	// Registro y catálogo (público)
	api.Post("/tenant/create", signup, tenantHandler.Create)
	api.Get("/plans", tenantHandler.Plans)
	api.Get("/auth/check-email", signup, tenantHandler.CheckEmail)

	// Rutas protegidas (requieren Bearer Token)
	api.Get("/tenant/:id/limits", requireAuth, tenantHandler.Limits)

	// /auth mezcla rutas públicas y protegidas: el middleware va por ruta
	api.Post("/auth/invite-admin", requireAuth, invitationHandler.InviteAdmin)
	api.Post("/auth/invite-module-user", requireAuth, invitationHandler.InviteModuleUser)
	api.Delete("/auth/invitations/:id", requireAuth, invitationHandler.Revoke)

	admin := api.Group("/admin", requireAuth)
	admin.Get("/users", memberHandler.List)
	admin.Put("/users", memberHandler.Update)
	admin.Delete("/users", memberHandler.Deactivate)
	admin.Post("/create-worker", memberHandler.CreateWorker)
}
