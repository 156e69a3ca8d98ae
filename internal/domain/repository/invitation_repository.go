package repository

import (
	"context"
	"time"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// InvitationRepository define el puerto de persistencia para invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *entity.Invitation) error
	GetByID(ctx context.Context, id string) (*entity.Invitation, error)
	// FindPending invitación pendiente (sin aceptar, sin revocar y expires_at > now) del triple.
	FindPending(ctx context.Context, tenantID, email string, role entity.Role, now time.Time) (*entity.Invitation, error)
	MarkRevoked(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
