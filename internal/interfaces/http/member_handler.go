package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/application/membership"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

// MemberHandler administración de usuarios y trabajadores de la empresa.
type MemberHandler struct {
	svc *membership.Service
	log *logger.Logger
}

func NewMemberHandler(svc *membership.Service, log *logger.Logger) *MemberHandler {
	return &MemberHandler{svc: svc, log: log}
}

// List godoc
// @Summary      Listar usuarios de la empresa del administrador
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.MemberListResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/admin/users [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.ListUsers(c.UserContext(), GetIdentity(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Cambiar rol o estado de un trabajador
// @Description  role y status son independientes; cambiar uno no toca el otro.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.UpdateMemberRequest  true  "Trabajador y cambios"
// @Success      200   {object}  dto.SuccessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/admin/users [put]
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateMemberRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.svc.UpdateUser(c.UserContext(), GetIdentity(c), in); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

// Deactivate godoc
// @Summary      Desactivar un trabajador (baja lógica)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   query  string  true  "ID del trabajador"
// @Success      200  {object}  dto.SuccessResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/admin/users [delete]
func (h *MemberHandler) Deactivate(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return respondError(c, h.log, domain.Validation("El parámetro id es obligatorio"))
	}
	if err := h.svc.DeactivateUser(c.UserContext(), GetIdentity(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

// CreateWorker godoc
// @Summary      Registrar un trabajador
// @Description  Con password crea además la identidad y una membresía activa con el rol del área.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateWorkerRequest  true  "Datos del trabajador"
// @Success      200   {object}  dto.WorkerEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/admin/create-worker [post]
func (h *MemberHandler) CreateWorker(c *fiber.Ctx) error {
	var in dto.CreateWorkerRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.svc.CreateWorker(c.UserContext(), GetIdentity(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.WorkerEnvelope{Success: true, Data: out})
}
