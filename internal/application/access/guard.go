// Package access resuelve al llamador y exige un rol sobre un tenant. Es el único punto
// de autorización de los flujos de tenant, invitaciones y administración de usuarios.
package access

import (
	"context"

	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
)

// Guard consulta membresías y trabajadores para autorizar al llamador.
type Guard struct {
	memberships repository.MembershipRepository
	workers     repository.WorkerRepository
}

// NewGuard construye el guard.
func NewGuard(memberships repository.MembershipRepository, workers repository.WorkerRepository) *Guard {
	return &Guard{memberships: memberships, workers: workers}
}

// RequireTenantRole exige que caller tenga en tenantID una membresía activa con alguno de roles.
func (g *Guard) RequireTenantRole(ctx context.Context, caller *entity.Identity, tenantID string, roles ...entity.Role) (*entity.Membership, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	m, err := g.memberships.GetByTenantAndUser(ctx, tenantID, caller.ID)
	if err != nil {
		return nil, domain.Upstream("MEMBERSHIP_LOOKUP", "Error al verificar permisos", err)
	}
	if !m.HasRole(roles...) {
		return nil, domain.ErrForbidden
	}
	return m, nil
}

// ResolveAdmin cadena identidad -> trabajador por email -> membresía; exige admin activo.
// Solo cuentan trabajadores vinculados a una membresía del propio llamador: un homónimo
// dado de alta en otro tenant no altera la resolución.
// Devuelve el trabajador del llamador, cuyo TenantID acota todas las operaciones de administración.
func (g *Guard) ResolveAdmin(ctx context.Context, caller *entity.Identity) (*entity.Worker, *entity.Membership, error) {
	if caller == nil {
		return nil, nil, domain.ErrUnauthorized
	}
	w, err := g.workers.GetByEmailForUser(ctx, entity.NormalizeEmail(caller.Email), caller.ID)
	if err != nil {
		return nil, nil, domain.Upstream("WORKER_LOOKUP", "Error al verificar permisos", err)
	}
	if w == nil || w.MembershipID == nil {
		return nil, nil, domain.ErrForbidden
	}
	m, err := g.memberships.GetByID(ctx, *w.MembershipID)
	if err != nil {
		return nil, nil, domain.Upstream("MEMBERSHIP_LOOKUP", "Error al verificar permisos", err)
	}
	if !m.HasRole(entity.RoleAdmin) || m.UserID != caller.ID || m.TenantID != w.TenantID {
		return nil, nil, domain.ErrForbidden
	}
	return w, m, nil
}
