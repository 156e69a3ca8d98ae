package repository

import (
	"context"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// PlanRepository lectura de la tabla plans.
type PlanRepository interface {
	// List planes en orden ascendente de precio.
	List(ctx context.Context) ([]entity.PlanSpec, error)
}
