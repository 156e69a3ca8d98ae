package entity

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/seedor-api/pkg/slug"
)

// Plan nivel comercial de un tenant; acota usuarios y módulos.
type Plan string

const (
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// UnlimitedUsers valor de MaxUsers para planes sin tope.
const UnlimitedUsers = -1

// PlanSpec fila del catálogo de planes (tabla plans; planCatalog es el respaldo).
// Modules es la oferta comercial que muestra el catálogo: el alta no la aplica y activa
// siempre DefaultModules.
type PlanSpec struct {
	Code         Plan
	Name         string
	MaxUsers     int
	Modules      []string
	MonthlyPrice decimal.Decimal // USD
}

var planCatalog = []PlanSpec{
	{
		Code:         PlanBasic,
		Name:         "Básico",
		MaxUsers:     3,
		Modules:      []string{ModuleCampo, ModuleEmpaque},
		MonthlyPrice: decimal.Zero,
	},
	{
		Code:         PlanPro,
		Name:         "Pro",
		MaxUsers:     10,
		Modules:      []string{ModuleCampo, ModuleEmpaque, ModuleFinanzas, ModuleInventario},
		MonthlyPrice: decimal.RequireFromString("49.00"),
	},
	{
		Code:         PlanEnterprise,
		Name:         "Enterprise",
		MaxUsers:     UnlimitedUsers,
		Modules:      []string{ModuleCampo, ModuleEmpaque, ModuleFinanzas, ModuleInventario, ModuleContactos},
		MonthlyPrice: decimal.RequireFromString("199.00"),
	},
}

var planAliases = map[string]Plan{
	"basic":        PlanBasic,
	"basico":       PlanBasic,
	"free":         PlanBasic,
	"starter":      PlanBasic,
	"pro":          PlanPro,
	"profesional":  PlanPro,
	"professional": PlanPro,
	"enterprise":   PlanEnterprise,
	"empresa":      PlanEnterprise,
	"empresarial":  PlanEnterprise,
}

// ParsePlan resuelve un plan sin distinguir mayúsculas ni tildes ("Básico", "PRO").
func ParsePlan(s string) (Plan, bool) {
	p, ok := planAliases[slug.Key(s)]
	return p, ok
}

// Spec devuelve la fila del catálogo del plan. Un plan desconocido cae en basic.
func (p Plan) Spec() PlanSpec {
	for _, s := range planCatalog {
		if s.Code == p {
			return s
		}
	}
	return planCatalog[0]
}

// MaxUsers tope de usuarios del plan (UnlimitedUsers = sin tope).
func (p Plan) MaxUsers() int {
	return p.Spec().MaxUsers
}

func (p Plan) String() string { return string(p) }

// Plans devuelve una copia del catálogo en orden ascendente de nivel.
func Plans() []PlanSpec {
	out := make([]PlanSpec, len(planCatalog))
	copy(out, planCatalog)
	return out
}
