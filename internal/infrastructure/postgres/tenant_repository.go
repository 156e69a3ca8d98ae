package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
)

// Asegura que TenantRepo implementa repository.TenantRepository.
var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementación del puerto TenantRepository sobre PostgreSQL.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador. Acepta pool o tx (Querier).
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

const tenantColumns = `id, name, slug, plan, primary_crop, contact_email, created_by,
	current_users, max_users, status, created_at, updated_at`

// Create persiste un nuevo tenant. Slug repetido -> domain.ErrSlugTaken.
func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Name, t.Slug, string(t.Plan), t.PrimaryCrop, t.ContactEmail, t.CreatedBy,
		t.CurrentUsers, t.MaxUsers, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUnique(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *TenantRepo) get(ctx context.Context, where string, arg any) (*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE ` + where
	var (
		t    entity.Tenant
		plan string
	)
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.Name, &t.Slug, &plan, &t.PrimaryCrop, &t.ContactEmail, &t.CreatedBy,
		&t.CurrentUsers, &t.MaxUsers, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	t.Plan = entity.Plan(plan)
	return &t, nil
}

// GetByID obtiene un tenant por ID.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.get(ctx, "id = $1", id)
}

// GetBySlug obtiene un tenant por slug.
func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	return r.get(ctx, "slug = $1", slug)
}

// AdjustUsers suma delta al contador sin bajar de 0.
func (r *TenantRepo) AdjustUsers(ctx context.Context, tenantID string, delta int) error {
	_, err := r.q.Exec(ctx, `
		UPDATE tenants
		SET current_users = GREATEST(current_users + $2, 0), updated_at = now()
		WHERE id = $1`, tenantID, delta)
	if err != nil {
		return fmt.Errorf("adjust tenant users: %w", err)
	}
	return nil
}

// Delete borra el tenant (solo lo usa la compensación del alta).
func (r *TenantRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return nil
}

// EnableModules inserta los módulos habilitados; los ya existentes se reactivan.
func (r *TenantRepo) EnableModules(ctx context.Context, tenantID string, modules []string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tenant_modules (tenant_id, module_code, enabled)
		SELECT $1, unnest($2::text[]), true
		ON CONFLICT (tenant_id, module_code) DO UPDATE SET enabled = true`,
		tenantID, modules)
	if err != nil {
		return fmt.Errorf("enable tenant modules: %w", err)
	}
	return nil
}

// ListModules módulos del tenant por código.
func (r *TenantRepo) ListModules(ctx context.Context, tenantID string) ([]*entity.TenantModule, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, tenant_id, module_code, enabled, created_at
		FROM tenant_modules WHERE tenant_id = $1 ORDER BY module_code`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tenant modules: %w", err)
	}
	defer rows.Close()
	var list []*entity.TenantModule
	for rows.Next() {
		var m entity.TenantModule
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ModuleCode, &m.Enabled, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant module: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// DeleteModules borra los módulos del tenant (compensación del alta).
func (r *TenantRepo) DeleteModules(ctx context.Context, tenantID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM tenant_modules WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("delete tenant modules: %w", err)
	}
	return nil
}
