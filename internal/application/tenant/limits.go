package tenant

import (
	"context"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// defaultLimits límites del plan básico sin usuarios; respuesta cuando el tenant no se puede leer.
func defaultLimits() *dto.TenantLimitsResponse {
	return &dto.TenantLimitsResponse{
		CurrentUsers: 0,
		MaxUsers:     entity.PlanBasic.MaxUsers(),
		Plan:         entity.PlanBasic.String(),
		CanAddMore:   true,
	}
}

// Limits devuelve el contador y el tope del plan. Ante cualquier error de lectura (o tenant
// inexistente) responde con los límites por defecto en lugar de fallar.
func (s *Service) Limits(ctx context.Context, tenantID string) *dto.TenantLimitsResponse {
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		s.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("límites: usando valores por defecto")
		return defaultLimits()
	}
	if t == nil {
		return defaultLimits()
	}
	return &dto.TenantLimitsResponse{
		CurrentUsers: t.CurrentUsers,
		MaxUsers:     t.MaxUsers,
		Plan:         t.Plan.String(),
		CanAddMore:   t.CanAddUser(),
	}
}

// planSpecs catálogo vigente: la tabla plans y, si no responde o está vacía, el catálogo fijo.
func (s *Service) planSpecs(ctx context.Context) []entity.PlanSpec {
	if s.plans == nil {
		return entity.Plans()
	}
	specs, err := s.plans.List(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("planes: usando el catálogo fijo")
		return entity.Plans()
	}
	if len(specs) == 0 {
		return entity.Plans()
	}
	return specs
}

// planSpec fila del plan; un código ausente de la tabla usa la del catálogo fijo.
func (s *Service) planSpec(ctx context.Context, code entity.Plan) entity.PlanSpec {
	for _, p := range s.planSpecs(ctx) {
		if p.Code == code {
			return p
		}
	}
	return code.Spec()
}

// Plans catálogo de planes.
func (s *Service) Plans(ctx context.Context) *dto.PlanListResponse {
	specs := s.planSpecs(ctx)
	out := &dto.PlanListResponse{Plans: make([]dto.PlanResponse, 0, len(specs))}
	for _, p := range specs {
		out.Plans = append(out.Plans, dto.NewPlanResponse(p))
	}
	return out
}

// CheckEmail informa si el email ya tiene cuenta. Falla cerrado: ante cualquier error
// responde true para no habilitar un alta duplicada.
func (s *Service) CheckEmail(ctx context.Context, email string) bool {
	email = entity.NormalizeEmail(email)
	exists, err := s.emailRegistered(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Msg("check-email: fallo al consultar, se asume existente")
		return true
	}
	return exists
}
