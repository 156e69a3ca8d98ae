package dto

import (
	"strings"
	"time"
)

// UpdateMemberRequest cambio de rol y/o estado de un trabajador. Ambos opcionales
// pero al menos uno requerido.
type UpdateMemberRequest struct {
	WorkerID string  `json:"workerId" validate:"required"`
	Role     *string `json:"role" validate:"omitempty,max=30"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// Normalize pasa el estado a minúsculas antes de validar ("Inactive" -> "inactive").
func (r *UpdateMemberRequest) Normalize() {
	if r.Status != nil {
		s := strings.ToLower(strings.TrimSpace(*r.Status))
		r.Status = &s
	}
}

// CreateWorkerRequest alta de un trabajador; con Password también se crea su login.
type CreateWorkerRequest struct {
	TenantID   string `json:"tenantId" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	FullName   string `json:"fullName" validate:"required,min=2,max=120"`
	DocumentID string `json:"documentId" validate:"required,max=30"`
	AreaModule string `json:"areaModule" validate:"required,max=30"`
	Phone      string `json:"phone" validate:"omitempty,max=30"`
	Password   string `json:"password" validate:"omitempty,min=8,max=72"`
}

// WorkerResponse salida de un trabajador.
type WorkerResponse struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	MembershipID *string   `json:"membership_id"`
	FullName     string    `json:"full_name"`
	DocumentID   string    `json:"document_id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	AreaModule   string    `json:"area_module"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MembershipResponse salida de una membresía.
type MembershipResponse struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	UserID     string     `json:"user_id"`
	RoleCode   string     `json:"role_code"`
	Status     string     `json:"status"`
	InvitedBy  *string    `json:"invited_by"`
	AcceptedAt *time.Time `json:"accepted_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// MemberRow fila del listado de usuarios: trabajador más su membresía (nil si no tiene login).
type MemberRow struct {
	WorkerResponse
	Membership *MembershipResponse `json:"membership"`
}

// MemberListResponse respuesta de GET /admin/users.
type MemberListResponse struct {
	Users  []MemberRow     `json:"users"`
	Tenant *TenantResponse `json:"tenant"`
}

// WorkerEnvelope respuesta de create-worker.
type WorkerEnvelope struct {
	Success bool            `json:"success"`
	Data    *WorkerResponse `json:"data"`
}
