package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
)

var (
	_ repository.ProfileRepository  = (*ProfileRepo)(nil)
	_ repository.AuditLogRepository = (*AuditLogRepo)(nil)
)

// ProfileRepo implementación del puerto ProfileRepository sobre PostgreSQL.
type ProfileRepo struct {
	q Querier
}

// NewProfileRepository construye el adaptador. Acepta pool o tx (Querier).
func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

const profileColumns = `user_id, email, full_name, phone, default_tenant_id, created_at, updated_at`

// Upsert crea el perfil o actualiza sus datos de presentación.
func (r *ProfileRepo) Upsert(ctx context.Context, p *entity.Profile) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO profiles (user_id, email, full_name, phone, default_tenant_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			default_tenant_id = COALESCE(EXCLUDED.default_tenant_id, profiles.default_tenant_id),
			updated_at = now()
		RETURNING created_at, updated_at`,
		p.UserID, p.Email, p.FullName, p.Phone, p.DefaultTenantID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if mapped := mapUnique(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) getOne(ctx context.Context, where string, arg any) (*entity.Profile, error) {
	var p entity.Profile
	err := r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE `+where, arg).Scan(
		&p.UserID, &p.Email, &p.FullName, &p.Phone, &p.DefaultTenantID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// GetByUserID perfil de la identidad.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	return r.getOne(ctx, "user_id = $1", userID)
}

// GetByEmail índice local email -> identidad.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	return r.getOne(ctx, "email = $1", email)
}

// Delete borra el perfil.
func (r *ProfileRepo) Delete(ctx context.Context, userID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// AuditLogRepo sumidero de auditoría sobre PostgreSQL.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Append inserta una entrada; details se guarda como JSONB.
func (r *AuditLogRepo) Append(ctx context.Context, e *entity.AuditLogEntry) error {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO audit_logs (tenant_id, actor_user_id, action, entity, entity_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		e.TenantID, e.ActorUserID, e.Action, e.Entity, e.EntityID, details,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
