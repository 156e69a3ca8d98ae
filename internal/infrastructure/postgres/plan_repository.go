package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

// PlanRepo lee el catálogo de planes. monthly_price (NUMERIC) se escanea a decimal.Decimal
// con el codec registrado en el pool.
type PlanRepo struct {
	q Querier
}

// NewPlanRepository construye el adaptador.
func NewPlanRepository(q Querier) *PlanRepo {
	return &PlanRepo{q: q}
}

// List planes ordenados por precio.
func (r *PlanRepo) List(ctx context.Context) ([]entity.PlanSpec, error) {
	rows, err := r.q.Query(ctx, `
		SELECT code, name, max_users, modules, monthly_price
		FROM plans
		ORDER BY monthly_price, code`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var specs []entity.PlanSpec
	for rows.Next() {
		var (
			p    entity.PlanSpec
			code string
		)
		if err := rows.Scan(&code, &p.Name, &p.MaxUsers, &p.Modules, &p.MonthlyPrice); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.Code = entity.Plan(code)
		specs = append(specs, p)
	}
	return specs, rows.Err()
}
