package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/application/invitation"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

// InvitationHandler emisión y revocación de invitaciones.
type InvitationHandler struct {
	svc *invitation.Service
	log *logger.Logger
}

func NewInvitationHandler(svc *invitation.Service, log *logger.Logger) *InvitationHandler {
	return &InvitationHandler{svc: svc, log: log}
}

// InviteAdmin godoc
// @Summary      Invitar al administrador de la empresa
// @Description  Solo el owner. Falla si ya hay un admin activo o una invitación pendiente para el correo.
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.InviteAdminRequest  true  "Empresa y correo del administrador"
// @Success      200   {object}  dto.InvitationEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/auth/invite-admin [post]
func (h *InvitationHandler) InviteAdmin(c *fiber.Ctx) error {
	var in dto.InviteAdminRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.svc.IssueAdmin(c.UserContext(), GetIdentity(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.InvitationEnvelope{Success: true, Data: out})
}

// InviteModuleUser godoc
// @Summary      Invitar a un usuario de módulo
// @Description  Owner o admin. El rol debe ser un rol operativo (campo, empaque, finanzas, inventario, contactos).
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.InviteModuleUserRequest  true  "Empresa, correo y rol"
// @Success      200   {object}  dto.InvitationEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/auth/invite-module-user [post]
func (h *InvitationHandler) InviteModuleUser(c *fiber.Ctx) error {
	var in dto.InviteModuleUserRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.svc.IssueModule(c.UserContext(), GetIdentity(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.InvitationEnvelope{Success: true, Data: out})
}

// Revoke godoc
// @Summary      Revocar una invitación pendiente
// @Tags         invitations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la invitación"
// @Success      200  {object}  dto.InvitationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/auth/invitations/{id} [delete]
func (h *InvitationHandler) Revoke(c *fiber.Ctx) error {
	out, err := h.svc.Revoke(c.UserContext(), GetIdentity(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
