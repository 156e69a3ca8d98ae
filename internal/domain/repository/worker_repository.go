package repository

import (
	"context"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// WorkerRepository define el puerto de persistencia para workers. No expone borrado físico.
type WorkerRepository interface {
	Create(ctx context.Context, w *entity.Worker) error
	GetByID(ctx context.Context, id string) (*entity.Worker, error)
	// GetByEmailForUser trabajador con ese email vinculado a una membresía activa de userID.
	// Prefiere la membresía admin y, a igualdad, el trabajador más reciente.
	GetByEmailForUser(ctx context.Context, email, userID string) (*entity.Worker, error)
	GetByDocument(ctx context.Context, tenantID, documentID string) (*entity.Worker, error)
	// ListWithMembership trabajadores del tenant con su membresía, más recientes primero.
	ListWithMembership(ctx context.Context, tenantID string) ([]*entity.WorkerWithMembership, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateAreaModule(ctx context.Context, id, areaModule string) error
}
