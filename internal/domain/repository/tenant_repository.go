package repository

import (
	"context"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// TenantRepository define el puerto de persistencia para Tenant y sus módulos (DIP).
// La implementación vive en infrastructure. Get* devuelven (nil, nil) si no existe.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)
	// AdjustUsers suma delta a current_users sin bajar de 0.
	AdjustUsers(ctx context.Context, tenantID string, delta int) error
	Delete(ctx context.Context, id string) error

	EnableModules(ctx context.Context, tenantID string, modules []string) error
	ListModules(ctx context.Context, tenantID string) ([]*entity.TenantModule, error)
	DeleteModules(ctx context.Context, tenantID string) error
}
