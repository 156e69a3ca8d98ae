package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
)

var _ repository.InvitationRepository = (*InvitationRepo)(nil)

// InvitationRepo implementación del puerto InvitationRepository sobre PostgreSQL.
type InvitationRepo struct {
	q Querier
}

// NewInvitationRepository construye el adaptador. Acepta pool o tx (Querier).
func NewInvitationRepository(q Querier) *InvitationRepo {
	return &InvitationRepo{q: q}
}

const invitationColumns = `id, tenant_id, email, role_code, token_hash, invited_by,
	expires_at, accepted_at, revoked_at, created_at`

func scanInvitation(row interface{ Scan(...any) error }) (*entity.Invitation, error) {
	var (
		inv  entity.Invitation
		role string
	)
	if err := row.Scan(&inv.ID, &inv.TenantID, &inv.Email, &role, &inv.TokenHash, &inv.InvitedBy,
		&inv.ExpiresAt, &inv.AcceptedAt, &inv.RevokedAt, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.RoleCode = entity.Role(role)
	return &inv, nil
}

// Create persiste una invitación.
func (r *InvitationRepo) Create(ctx context.Context, inv *entity.Invitation) error {
	query := `
		INSERT INTO invitations (` + invitationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.TenantID, inv.Email, string(inv.RoleCode), inv.TokenHash, inv.InvitedBy,
		inv.ExpiresAt, inv.AcceptedAt, inv.RevokedAt, inv.CreatedAt,
	)
	if err != nil {
		if mapped := mapUnique(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// GetByID obtiene una invitación por ID.
func (r *InvitationRepo) GetByID(ctx context.Context, id string) (*entity.Invitation, error) {
	inv, err := scanInvitation(r.q.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// FindPending invitación abierta y vigente en now para el triple. El vencimiento se
// evalúa contra el reloj de la aplicación, no contra now() de la base.
func (r *InvitationRepo) FindPending(ctx context.Context, tenantID, email string, role entity.Role, now time.Time) (*entity.Invitation, error) {
	inv, err := scanInvitation(r.q.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE tenant_id = $1 AND email = $2 AND role_code = $3
		  AND accepted_at IS NULL AND revoked_at IS NULL
		  AND expires_at > $4
		ORDER BY created_at DESC
		LIMIT 1`, tenantID, email, string(role), now))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending invitation: %w", err)
	}
	return inv, nil
}

// MarkRevoked fija revoked_at solo si la invitación sigue abierta.
func (r *InvitationRepo) MarkRevoked(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invitations SET revoked_at = $2
		WHERE id = $1 AND accepted_at IS NULL AND revoked_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("revoke invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvitationClosed
	}
	return nil
}

// Delete borra la invitación (compensación cuando falla el envío del correo).
func (r *InvitationRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invitations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}
