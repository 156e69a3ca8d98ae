package dto

import (
	"time"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// NewTenantResponse convierte la entidad; modules puede ser nil.
func NewTenantResponse(t *entity.Tenant, modules []string) *TenantResponse {
	if t == nil {
		return nil
	}
	return &TenantResponse{
		ID:           t.ID,
		Name:         t.Name,
		Slug:         t.Slug,
		Plan:         t.Plan.String(),
		PrimaryCrop:  t.PrimaryCrop,
		ContactEmail: t.ContactEmail,
		CreatedBy:    t.CreatedBy,
		CurrentUsers: t.CurrentUsers,
		MaxUsers:     t.MaxUsers,
		Status:       t.Status,
		Modules:      modules,
		CreatedAt:    t.CreatedAt,
	}
}

// NewInvitationResponse convierte la invitación con su estado en el instante now.
func NewInvitationResponse(inv *entity.Invitation, now time.Time) InvitationResponse {
	return InvitationResponse{
		ID:         inv.ID,
		TenantID:   inv.TenantID,
		Email:      inv.Email,
		RoleCode:   inv.RoleCode.String(),
		TokenHash:  inv.TokenHash,
		InvitedBy:  inv.InvitedBy,
		Status:     string(inv.State(now)),
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
		RevokedAt:  inv.RevokedAt,
		CreatedAt:  inv.CreatedAt,
	}
}

func NewWorkerResponse(w *entity.Worker) *WorkerResponse {
	if w == nil {
		return nil
	}
	return &WorkerResponse{
		ID:           w.ID,
		TenantID:     w.TenantID,
		MembershipID: w.MembershipID,
		FullName:     w.FullName,
		DocumentID:   w.DocumentID,
		Email:        w.Email,
		Phone:        w.Phone,
		AreaModule:   w.AreaModule,
		Status:       w.Status,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

func NewMembershipResponse(m *entity.Membership) *MembershipResponse {
	if m == nil {
		return nil
	}
	return &MembershipResponse{
		ID:         m.ID,
		TenantID:   m.TenantID,
		UserID:     m.UserID,
		RoleCode:   m.RoleCode.String(),
		Status:     m.Status,
		InvitedBy:  m.InvitedBy,
		AcceptedAt: m.AcceptedAt,
		CreatedAt:  m.CreatedAt,
	}
}

// NewPlanResponse fila del catálogo.
func NewPlanResponse(p entity.PlanSpec) PlanResponse {
	modules := make([]string, len(p.Modules))
	copy(modules, p.Modules)
	return PlanResponse{
		Code:         p.Code.String(),
		Name:         p.Name,
		MaxUsers:     p.MaxUsers,
		Modules:      modules,
		MonthlyPrice: p.MonthlyPrice,
	}
}
