package repository

import (
	"context"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// MembershipRepository define el puerto de persistencia para tenant_memberships.
type MembershipRepository interface {
	Create(ctx context.Context, m *entity.Membership) error
	GetByID(ctx context.Context, id string) (*entity.Membership, error)
	GetByTenantAndUser(ctx context.Context, tenantID, userID string) (*entity.Membership, error)
	// GetActiveByUser membresía activa "actual" del usuario (la más reciente).
	GetActiveByUser(ctx context.Context, userID string) (*entity.Membership, error)
	// HasActiveRole informa si el tenant ya tiene una membresía activa con ese rol.
	HasActiveRole(ctx context.Context, tenantID string, role entity.Role) (bool, error)
	UpdateRole(ctx context.Context, id string, role entity.Role) error
	UpdateStatus(ctx context.Context, id, status string) error
	// Delete borra una membresía recién creada (compensación del alta de trabajador).
	Delete(ctx context.Context, id string) error
	DeleteByTenant(ctx context.Context, tenantID string) error
}
