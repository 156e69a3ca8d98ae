package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/application/tenant"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

// TenantHandler alta self-service de empresas, límites y catálogo de planes.
type TenantHandler struct {
	svc *tenant.Service
	log *logger.Logger
}

// NewTenantHandler construye el handler inyectando el servicio.
func NewTenantHandler(svc *tenant.Service, log *logger.Logger) *TenantHandler {
	return &TenantHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Crear empresa (registro self-service)
// @Description  Crea la identidad del propietario, la empresa, su membresía owner y los módulos del plan.
// @Description  Email o identificador repetidos responden 200 con success=false.
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTenantRequest  true  "Datos de la empresa y del propietario"
// @Success      200   {object}  dto.CreateTenantResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/tenant/create [post]
func (h *TenantHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTenantRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.svc.Provision(c.UserContext(), in)
	if err != nil {
		// duplicados: el formulario de registro espera 200 con success=false
		if domain.KindOf(err) == domain.KindConflict {
			return c.Status(fiber.StatusOK).JSON(errorBody(domain.AsError(err)))
		}
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.CreateTenantResponse{Success: true, Tenant: out})
}

// Limits godoc
// @Summary      Límites de usuarios de la empresa
// @Description  Ante un error del store responde los límites del plan básico.
// @Tags         tenants
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la empresa"
// @Success      200  {object}  dto.TenantLimitsResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/tenant/{id}/limits [get]
func (h *TenantHandler) Limits(c *fiber.Ctx) error {
	return c.JSON(h.svc.Limits(c.UserContext(), c.Params("id")))
}

// Plans godoc
// @Summary      Catálogo de planes
// @Tags         tenants
// @Produce      json
// @Success      200  {object}  dto.PlanListResponse
// @Router       /api/plans [get]
func (h *TenantHandler) Plans(c *fiber.Ctx) error {
	return c.JSON(h.svc.Plans(c.UserContext()))
}

// CheckEmail godoc
// @Summary      Verificar si un correo ya está registrado
// @Description  Ante cualquier error responde exists=true.
// @Tags         auth
// @Produce      json
// @Param        email  query  string  true  "Correo a verificar"
// @Success      200    {object}  dto.CheckEmailResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/auth/check-email [get]
func (h *TenantHandler) CheckEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return respondError(c, h.log, domain.Validation("El parámetro email es obligatorio"))
	}
	return c.JSON(dto.CheckEmailResponse{Exists: h.svc.CheckEmail(c.UserContext(), email)})
}
