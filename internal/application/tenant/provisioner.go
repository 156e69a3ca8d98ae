// Package tenant casos de uso del alta de empresas: aprovisionamiento con compensación,
// límites de plan y verificación de email.
package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/application/saga"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
	"github.com/jhoicas/seedor-api/pkg/logger"
	"github.com/jhoicas/seedor-api/pkg/slug"
)

const workflowProvision = "provision_tenant"

// minPasswordLength mínimo aceptado para la contraseña del dueño.
const minPasswordLength = 8

// TxRunner ejecuta fn con repositorios atados a una misma transacción del store.
type TxRunner interface {
	RunTenant(ctx context.Context, fn func(tenants repository.TenantRepository, memberships repository.MembershipRepository) error) error
}

// Deps dependencias de los casos de uso de tenant. Tx es opcional: sin él la limpieza
// de la compensación corre sentencia a sentencia. Sin Plans se usa el catálogo fijo.
type Deps struct {
	Tenants     repository.TenantRepository
	Memberships repository.MembershipRepository
	Plans       repository.PlanRepository
	Tx          TxRunner
	Profiles    repository.ProfileRepository
	Identity    ports.IdentityProvider
	Locker      ports.KeyLocker
	Metrics     ports.WorkflowMetrics
	Logger      *logger.Logger
	Clock       ports.Clock
	LockTTL     time.Duration
}

// Service alta de tenants, límites, catálogo y verificación de email.
type Service struct {
	tenants     repository.TenantRepository
	memberships repository.MembershipRepository
	plans       repository.PlanRepository
	tx          TxRunner
	profiles    repository.ProfileRepository
	identity    ports.IdentityProvider
	locker      ports.KeyLocker
	metrics     ports.WorkflowMetrics
	log         *logger.Logger
	now         ports.Clock
	lockTTL     time.Duration
}

// NewService construye el servicio. Clock, Metrics y Logger tienen valores por defecto.
func NewService(d Deps) *Service {
	s := &Service{
		tenants:     d.Tenants,
		memberships: d.Memberships,
		plans:       d.Plans,
		tx:          d.Tx,
		profiles:    d.Profiles,
		identity:    d.Identity,
		locker:      d.Locker,
		metrics:     d.Metrics,
		log:         d.Logger,
		now:         d.Clock,
		lockTTL:     d.LockTTL,
	}
	if s.metrics == nil {
		s.metrics = ports.NopMetrics{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.WithComponent("tenant")
	if s.now == nil {
		s.now = time.Now
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 15 * time.Second
	}
	return s
}

type provisionInput struct {
	name         string
	slug         string
	plan         entity.Plan
	primaryCrop  string
	contactEmail string
	fullName     string
	email        string
	password     string
	phone        string
}

func normalizeProvision(in dto.CreateTenantRequest) (provisionInput, error) {
	p := provisionInput{
		name:        strings.TrimSpace(in.TenantName),
		slug:        strings.ToLower(strings.TrimSpace(in.Slug)),
		plan:        entity.PlanBasic,
		primaryCrop: strings.TrimSpace(in.PrimaryCrop),
		fullName:    strings.TrimSpace(in.AdminFullName),
		email:       entity.NormalizeEmail(in.AdminEmail),
		password:    in.AdminPassword,
		phone:       strings.TrimSpace(in.AdminPhone),
	}
	if p.name == "" {
		return p, domain.Validation("El nombre de la empresa es obligatorio")
	}
	if p.slug == "" {
		p.slug = slug.Make(p.name)
	}
	if !slug.Valid(p.slug) {
		return p, domain.ErrInvalidSlug
	}
	if strings.TrimSpace(in.Plan) != "" {
		plan, ok := entity.ParsePlan(in.Plan)
		if !ok {
			return p, domain.ErrInvalidPlan
		}
		p.plan = plan
	}
	if p.fullName == "" {
		return p, domain.Validation("El nombre del administrador es obligatorio")
	}
	if p.email == "" || !strings.Contains(p.email, "@") {
		return p, domain.Validation("El correo del administrador no es válido")
	}
	if len(p.password) < minPasswordLength {
		return p, domain.ErrWeakPassword
	}
	p.contactEmail = entity.NormalizeEmail(in.ContactEmail)
	if p.contactEmail == "" {
		p.contactEmail = p.email
	}
	return p, nil
}

// Provision crea identidad del dueño, tenant, membresía owner y módulos por defecto.
// Si un paso posterior a la identidad falla se borra todo lo creado (módulos, membresías,
// tenant y por último la identidad) y se devuelve el error del paso.
//
// Precondiciones, en orden: slug libre y email sin registrar. El slug va primero para
// que un alta repetida informe la colisión de identificador.
func (s *Service) Provision(ctx context.Context, in dto.CreateTenantRequest) (*dto.TenantResponse, error) {
	p, err := normalizeProvision(in)
	if err != nil {
		return nil, err
	}

	releaseSlug, err := s.locker.Acquire(ctx, ports.TenantSlugKey(p.slug), s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer releaseSlug()
	releaseEmail, err := s.locker.Acquire(ctx, ports.IdentityEmailKey(p.email), s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer releaseEmail()

	existing, err := s.tenants.GetBySlug(ctx, p.slug)
	if err != nil {
		return nil, domain.Upstream("TENANT_LOOKUP", "Error al verificar el identificador de la empresa", err)
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}
	registered, err := s.emailRegistered(ctx, p.email)
	if err != nil {
		return nil, domain.Upstream("IDENTITY_LOOKUP", "Error al verificar el correo electrónico", err)
	}
	if registered {
		return nil, domain.ErrEmailAlreadyExists
	}

	plan := s.planSpec(ctx, p.plan)
	now := s.now().UTC()
	var (
		owner  *entity.Identity
		tenant *entity.Tenant
	)
	flow := saga.New(workflowProvision, s.log, s.metrics).
		Add(saga.Step{
			Name: "identity",
			Do: func(ctx context.Context) error {
				id, err := s.identity.CreateUser(ctx, ports.CreateIdentityInput{
					Email:        p.email,
					Password:     p.password,
					EmailConfirm: true,
					Metadata:     map[string]any{"full_name": p.fullName},
				})
				if errors.Is(err, domain.ErrIdentityExists) {
					return domain.ErrEmailAlreadyExists
				}
				if err != nil {
					return domain.Upstream("IDENTITY_CREATE", "No se pudo crear el usuario administrador", err)
				}
				owner = id
				return nil
			},
			Undo: func(ctx context.Context) error {
				return s.identity.DeleteUser(ctx, owner.ID)
			},
		}).
		Add(saga.Step{
			Name: "tenant",
			Do: func(ctx context.Context) error {
				t := &entity.Tenant{
					ID:           uuid.New().String(),
					Name:         p.name,
					Slug:         p.slug,
					Plan:         p.plan,
					PrimaryCrop:  p.primaryCrop,
					ContactEmail: p.contactEmail,
					CreatedBy:    owner.ID,
					CurrentUsers: 1,
					MaxUsers:     plan.MaxUsers,
					Status:       entity.TenantStatusActive,
					CreatedAt:    now,
					UpdatedAt:    now,
				}
				if err := s.tenants.Create(ctx, t); err != nil {
					if errors.Is(err, domain.ErrSlugTaken) {
						return err
					}
					return domain.Upstream("TENANT_CREATE", "Error al crear la empresa", err)
				}
				tenant = t
				return nil
			},
			Undo: func(ctx context.Context) error {
				return s.purge(ctx, tenant.ID)
			},
		}).
		Add(saga.Step{
			Name: "owner_membership",
			Do: func(ctx context.Context) error {
				accepted := now
				m := &entity.Membership{
					ID:         uuid.New().String(),
					TenantID:   tenant.ID,
					UserID:     owner.ID,
					RoleCode:   entity.RoleOwner,
					Status:     entity.MembershipActive,
					AcceptedAt: &accepted,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := s.memberships.Create(ctx, m); err != nil {
					return domain.Upstream("MEMBERSHIP_CREATE", "Error al crear la membresía del administrador", err)
				}
				return nil
			},
		}).
		Add(saga.Step{
			Name: "default_modules",
			Do: func(ctx context.Context) error {
				if err := s.tenants.EnableModules(ctx, tenant.ID, entity.DefaultModules); err != nil {
					return domain.Upstream("MODULES_CREATE", "Error al activar los módulos de la empresa", err)
				}
				return nil
			},
		})

	if err := flow.Run(ctx); err != nil {
		return nil, err
	}

	defaultTenant := tenant.ID
	if err := s.profiles.Upsert(ctx, &entity.Profile{
		UserID:          owner.ID,
		Email:           p.email,
		FullName:        p.fullName,
		Phone:           p.phone,
		DefaultTenantID: &defaultTenant,
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", owner.ID).Msg("no se pudo crear el perfil del dueño")
	}

	s.log.Info().
		Str("tenant_id", tenant.ID).
		Str("slug", tenant.Slug).
		Str("plan", tenant.Plan.String()).
		Msg("tenant aprovisionado")

	modules := make([]string, len(entity.DefaultModules))
	copy(modules, entity.DefaultModules)
	return dto.NewTenantResponse(tenant, modules), nil
}

// purge borra lo creado para el tenant en orden de dependencias: módulos, membresías, tenant.
func (s *Service) purge(ctx context.Context, tenantID string) error {
	if s.tx != nil {
		return s.tx.RunTenant(ctx, func(tenants repository.TenantRepository, memberships repository.MembershipRepository) error {
			return purgeTenant(ctx, tenants, memberships, tenantID)
		})
	}
	return purgeTenant(ctx, s.tenants, s.memberships, tenantID)
}

// purgeTenant sigue ante errores para dejar la menor cantidad posible de huérfanos
// cuando no hay transacción.
func purgeTenant(ctx context.Context, tenants repository.TenantRepository, memberships repository.MembershipRepository, tenantID string) error {
	var errs error
	if err := tenants.DeleteModules(ctx, tenantID); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := memberships.DeleteByTenant(ctx, tenantID); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := tenants.Delete(ctx, tenantID); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// emailRegistered consulta primero el índice local (profiles) y después el proveedor.
func (s *Service) emailRegistered(ctx context.Context, email string) (bool, error) {
	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if p != nil {
		return true, nil
	}
	id, err := s.identity.FindUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return id != nil, nil
}
