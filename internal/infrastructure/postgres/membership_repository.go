package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
)

var _ repository.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo implementación del puerto MembershipRepository sobre PostgreSQL.
type MembershipRepo struct {
	q Querier
}

// NewMembershipRepository construye el adaptador. Acepta pool o tx (Querier).
func NewMembershipRepository(q Querier) *MembershipRepo {
	return &MembershipRepo{q: q}
}

const membershipColumns = `id, tenant_id, user_id, role_code, status, invited_by, accepted_at, created_at, updated_at`

func scanMembership(row interface{ Scan(...any) error }) (*entity.Membership, error) {
	var (
		m    entity.Membership
		role string
	)
	if err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &role, &m.Status, &m.InvitedBy,
		&m.AcceptedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.RoleCode = entity.Role(role)
	return &m, nil
}

// Create persiste una membresía. Un segundo admin activo -> domain.ErrAdminExists.
func (r *MembershipRepo) Create(ctx context.Context, m *entity.Membership) error {
	query := `
		INSERT INTO tenant_memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, m.UserID, string(m.RoleCode), m.Status, m.InvitedBy,
		m.AcceptedAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUnique(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (r *MembershipRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Membership, error) {
	m, err := scanMembership(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

// GetByID obtiene una membresía por ID.
func (r *MembershipRepo) GetByID(ctx context.Context, id string) (*entity.Membership, error) {
	return r.getOne(ctx, `SELECT `+membershipColumns+` FROM tenant_memberships WHERE id = $1`, id)
}

// GetByTenantAndUser membresía del usuario en el tenant (cualquier estado).
func (r *MembershipRepo) GetByTenantAndUser(ctx context.Context, tenantID, userID string) (*entity.Membership, error) {
	return r.getOne(ctx, `
		SELECT `+membershipColumns+`
		FROM tenant_memberships WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
}

// GetActiveByUser membresía activa más reciente del usuario.
func (r *MembershipRepo) GetActiveByUser(ctx context.Context, userID string) (*entity.Membership, error) {
	return r.getOne(ctx, `
		SELECT `+membershipColumns+`
		FROM tenant_memberships
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`, userID)
}

// HasActiveRole informa si el tenant tiene una membresía activa con el rol.
func (r *MembershipRepo) HasActiveRole(ctx context.Context, tenantID string, role entity.Role) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tenant_memberships
			WHERE tenant_id = $1 AND role_code = $2 AND status = 'active'
		)`, tenantID, string(role)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active role: %w", err)
	}
	return exists, nil
}

func (r *MembershipRepo) update(ctx context.Context, query, id string, value any) error {
	tag, err := r.q.Exec(ctx, query, id, value)
	if err != nil {
		if mapped := mapUnique(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateRole cambia el rol. Promover a admin con otro admin activo -> domain.ErrAdminExists.
func (r *MembershipRepo) UpdateRole(ctx context.Context, id string, role entity.Role) error {
	return r.update(ctx, `UPDATE tenant_memberships SET role_code = $2, updated_at = now() WHERE id = $1`, id, string(role))
}

// UpdateStatus cambia el estado.
func (r *MembershipRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.update(ctx, `UPDATE tenant_memberships SET status = $2, updated_at = now() WHERE id = $1`, id, status)
}

// Delete borra una membresía por ID. Inexistente no es error.
func (r *MembershipRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM tenant_memberships WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// DeleteByTenant borra las membresías del tenant (compensación del alta).
func (r *MembershipRepo) DeleteByTenant(ctx context.Context, tenantID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM tenant_memberships WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	return nil
}
