package repository

import (
	"context"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// ProfileRepository define el puerto de persistencia para profiles.
type ProfileRepository interface {
	// Upsert crea o actualiza el perfil de la identidad.
	Upsert(ctx context.Context, p *entity.Profile) error
	GetByUserID(ctx context.Context, userID string) (*entity.Profile, error)
	GetByEmail(ctx context.Context, email string) (*entity.Profile, error)
	Delete(ctx context.Context, userID string) error
}

// AuditLogRepository sumidero append-only de auditoría.
type AuditLogRepository interface {
	Append(ctx context.Context, e *entity.AuditLogEntry) error
}
