package dto

import "time"

// InviteAdminRequest invitación del administrador de un tenant. InvitedBy se acepta por
// compatibilidad pero se ignora: el invitador es siempre el dueño del token.
type InviteAdminRequest struct {
	TenantID   string `json:"tenantId" validate:"required"`
	AdminEmail string `json:"adminEmail" validate:"required,email"`
	InvitedBy  string `json:"invitedBy"`
}

// InviteModuleUserRequest invitación de un usuario operativo con rol de módulo.
type InviteModuleUserRequest struct {
	TenantID  string `json:"tenantId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	RoleCode  string `json:"roleCode" validate:"required"`
	InvitedBy string `json:"invitedBy"`
}

// InvitationResponse invitación emitida. TokenHash es el secreto del enlace.
type InvitationResponse struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	Email      string     `json:"email"`
	RoleCode   string     `json:"role_code"`
	TokenHash  string     `json:"token_hash"`
	InvitedBy  string     `json:"invited_by"`
	Status     string     `json:"status"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// InvitationResult invitación y enlace de aceptación.
type InvitationResult struct {
	Invitation InvitationResponse `json:"invitation"`
	InviteURL  string             `json:"inviteUrl"`
}

// InvitationEnvelope respuesta de los endpoints de invitación.
type InvitationEnvelope struct {
	Success bool              `json:"success"`
	Data    *InvitationResult `json:"data"`
}
