// Package membership administración de usuarios y trabajadores de un tenant.
package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/seedor-api/internal/application/access"
	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/application/saga"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

const (
	workflowCreateWorker = "create_worker"
	minPasswordLength    = 8
)

// Deps dependencias del servicio.
type Deps struct {
	Tenants     repository.TenantRepository
	Memberships repository.MembershipRepository
	Workers     repository.WorkerRepository
	Profiles    repository.ProfileRepository
	Audit       repository.AuditLogRepository
	Identity    ports.IdentityProvider
	Guard       *access.Guard
	Locker      ports.KeyLocker
	Metrics     ports.WorkflowMetrics
	Logger      *logger.Logger
	Clock       ports.Clock
	LockTTL     time.Duration
}

// Service operaciones de administración. Listar, actualizar y desactivar exigen admin
// (resuelto por la cadena token -> trabajador -> membresía); crear trabajador exige
// owner o admin del tenant indicado.
type Service struct {
	Deps
	log *logger.Logger
}

// NewService construye el servicio aplicando valores por defecto.
func NewService(d Deps) *Service {
	if d.Metrics == nil {
		d.Metrics = ports.NopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 15 * time.Second
	}
	return &Service{Deps: d, log: d.Logger.WithComponent("members")}
}

// ListUsers trabajadores del tenant del admin con su membresía, más recientes primero.
func (s *Service) ListUsers(ctx context.Context, caller *entity.Identity) (*dto.MemberListResponse, error) {
	adminWorker, _, err := s.Guard.ResolveAdmin(ctx, caller)
	if err != nil {
		return nil, err
	}
	tenant, err := s.Tenants.GetByID(ctx, adminWorker.TenantID)
	if err != nil {
		return nil, domain.Upstream("TENANT_LOOKUP", "Error al consultar la empresa", err)
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	rows, err := s.Workers.ListWithMembership(ctx, tenant.ID)
	if err != nil {
		return nil, domain.Upstream("WORKER_LIST", "Error al listar los usuarios", err)
	}
	out := &dto.MemberListResponse{
		Users:  make([]dto.MemberRow, 0, len(rows)),
		Tenant: dto.NewTenantResponse(tenant, nil),
	}
	for _, r := range rows {
		out.Users = append(out.Users, dto.MemberRow{
			WorkerResponse: *dto.NewWorkerResponse(&r.Worker),
			Membership:     dto.NewMembershipResponse(r.Membership),
		})
	}
	return out, nil
}

// targetWorker trabajador del mismo tenant que el admin; otro tenant se informa como inexistente.
func (s *Service) targetWorker(ctx context.Context, tenantID, workerID string) (*entity.Worker, error) {
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, domain.Validation("El trabajador es obligatorio")
	}
	w, err := s.Workers.GetByID(ctx, workerID)
	if err != nil {
		return nil, domain.Upstream("WORKER_LOOKUP", "Error al consultar el trabajador", err)
	}
	if w == nil || w.TenantID != tenantID {
		return nil, domain.ErrWorkerNotFound
	}
	return w, nil
}

func (s *Service) linkedMembership(ctx context.Context, w *entity.Worker) (*entity.Membership, error) {
	if w.MembershipID == nil {
		return nil, nil
	}
	m, err := s.Memberships.GetByID(ctx, *w.MembershipID)
	if err != nil {
		return nil, domain.Upstream("MEMBERSHIP_LOOKUP", "Error al consultar la membresía", err)
	}
	return m, nil
}

// UpdateUser cambia estado y/o rol de un trabajador; cada campo se aplica de forma
// independiente. El rol se copia también en area_module.
func (s *Service) UpdateUser(ctx context.Context, caller *entity.Identity, in dto.UpdateMemberRequest) error {
	if in.Role == nil && in.Status == nil {
		return domain.Validation("Debe indicar el rol o el estado a actualizar")
	}
	var role entity.Role
	if in.Role != nil {
		r, ok := entity.ParseRole(*in.Role)
		if !ok || r == entity.RoleOwner {
			return domain.ErrInvalidRole
		}
		role = r
	}
	var status string
	if in.Status != nil {
		status = strings.ToLower(strings.TrimSpace(*in.Status))
		if !entity.ValidWorkerStatus(status) {
			return domain.ErrInvalidStatus
		}
	}

	adminWorker, _, err := s.Guard.ResolveAdmin(ctx, caller)
	if err != nil {
		return err
	}
	target, err := s.targetWorker(ctx, adminWorker.TenantID, in.WorkerID)
	if err != nil {
		return err
	}
	if status == entity.WorkerInactive && target.ID == adminWorker.ID {
		return domain.ErrSelfDeactivation
	}

	if status != "" {
		if err := s.Workers.UpdateStatus(ctx, target.ID, status); err != nil {
			return domain.Upstream("WORKER_UPDATE", "Error al actualizar el estado del trabajador", err)
		}
	}
	if role != "" {
		if err := s.assignRole(ctx, target, role); err != nil {
			return err
		}
	}

	details := map[string]any{}
	if status != "" {
		details["status"] = status
	}
	if role != "" {
		details["role_code"] = role.String()
	}
	s.appendAudit(ctx, &entity.AuditLogEntry{
		TenantID:    target.TenantID,
		ActorUserID: caller.ID,
		Action:      entity.AuditWorkerUpdated,
		Entity:      "worker",
		EntityID:    target.ID,
		Details:     details,
	})
	return nil
}

func (s *Service) assignRole(ctx context.Context, target *entity.Worker, role entity.Role) error {
	m, err := s.linkedMembership(ctx, target)
	if err != nil {
		return err
	}
	if m != nil {
		if m.RoleCode == entity.RoleOwner {
			return domain.Validation("No se puede cambiar el rol del propietario de la empresa")
		}
		if role == entity.RoleAdmin && m.RoleCode != entity.RoleAdmin && m.IsActive() {
			release, err := s.Locker.Acquire(ctx, ports.TenantAdminKey(target.TenantID), s.LockTTL)
			if err != nil {
				return err
			}
			defer release()
			hasAdmin, err := s.Memberships.HasActiveRole(ctx, target.TenantID, entity.RoleAdmin)
			if err != nil {
				return domain.Upstream("MEMBERSHIP_LOOKUP", "Error al verificar el administrador actual", err)
			}
			if hasAdmin {
				return domain.ErrAdminExists
			}
		}
		if err := s.Memberships.UpdateRole(ctx, m.ID, role); err != nil {
			if errors.Is(err, domain.ErrAdminExists) {
				return err
			}
			return domain.Upstream("MEMBERSHIP_UPDATE", "Error al actualizar el rol", err)
		}
	}
	if err := s.Workers.UpdateAreaModule(ctx, target.ID, role.String()); err != nil {
		return domain.Upstream("WORKER_UPDATE", "Error al actualizar el área del trabajador", err)
	}
	return nil
}

// DeactivateUser baja lógica: trabajador y membresía pasan a inactive, nunca se borran.
func (s *Service) DeactivateUser(ctx context.Context, caller *entity.Identity, workerID string) error {
	adminWorker, _, err := s.Guard.ResolveAdmin(ctx, caller)
	if err != nil {
		return err
	}
	target, err := s.targetWorker(ctx, adminWorker.TenantID, workerID)
	if err != nil {
		return err
	}
	if target.ID == adminWorker.ID {
		return domain.ErrSelfDeactivation
	}
	m, err := s.linkedMembership(ctx, target)
	if err != nil {
		return err
	}
	if m != nil && m.RoleCode == entity.RoleOwner {
		return domain.ErrForbidden
	}

	if err := s.Workers.UpdateStatus(ctx, target.ID, entity.WorkerInactive); err != nil {
		return domain.Upstream("WORKER_UPDATE", "Error al desactivar el trabajador", err)
	}
	if m.IsActive() {
		if err := s.Memberships.UpdateStatus(ctx, m.ID, entity.MembershipInactive); err != nil {
			return domain.Upstream("MEMBERSHIP_UPDATE", "Error al desactivar el acceso del usuario", err)
		}
		s.adjustUsers(ctx, target.TenantID, -1)
	}

	s.appendAudit(ctx, &entity.AuditLogEntry{
		TenantID:    target.TenantID,
		ActorUserID: caller.ID,
		Action:      entity.AuditWorkerDeactivate,
		Entity:      "worker",
		EntityID:    target.ID,
	})
	return nil
}

type workerInput struct {
	tenantID   string
	email      string
	fullName   string
	documentID string
	areaModule string
	phone      string
	password   string
}

func normalizeWorker(in dto.CreateWorkerRequest) (workerInput, error) {
	w := workerInput{
		tenantID:   strings.TrimSpace(in.TenantID),
		email:      entity.NormalizeEmail(in.Email),
		fullName:   strings.TrimSpace(in.FullName),
		documentID: strings.TrimSpace(in.DocumentID),
		areaModule: strings.TrimSpace(in.AreaModule),
		phone:      strings.TrimSpace(in.Phone),
		password:   in.Password,
	}
	var missing []string
	if w.tenantID == "" {
		missing = append(missing, "tenantId")
	}
	if w.email == "" {
		missing = append(missing, "email")
	}
	if w.fullName == "" {
		missing = append(missing, "fullName")
	}
	if w.documentID == "" {
		missing = append(missing, "documentId")
	}
	if w.areaModule == "" {
		missing = append(missing, "areaModule")
	}
	if len(missing) > 0 {
		return w, domain.Validation("Faltan campos obligatorios: " + strings.Join(missing, ", "))
	}
	if !strings.Contains(w.email, "@") {
		return w, domain.Validation("El correo electrónico no es válido")
	}
	if w.password != "" && len(w.password) < minPasswordLength {
		return w, domain.ErrWeakPassword
	}
	return w, nil
}

// CreateWorker da de alta un trabajador. Con contraseña también crea (o reutiliza) su
// identidad y perfil, y si el área es un rol conocido, su membresía activa. El fallo de
// la identidad no impide el alta del trabajador.
func (s *Service) CreateWorker(ctx context.Context, caller *entity.Identity, in dto.CreateWorkerRequest) (*dto.WorkerResponse, error) {
	w, err := normalizeWorker(in)
	if err != nil {
		return nil, err
	}
	role, isRole := entity.ParseRole(w.areaModule)
	if isRole {
		if role == entity.RoleOwner {
			return nil, domain.ErrInvalidRole
		}
		w.areaModule = role.String()
	}

	tenant, err := s.Tenants.GetByID(ctx, w.tenantID)
	if err != nil {
		return nil, domain.Upstream("TENANT_LOOKUP", "Error al consultar la empresa", err)
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	if _, err := s.Guard.RequireTenantRole(ctx, caller, tenant.ID, entity.RoleOwner, entity.RoleAdmin); err != nil {
		return nil, err
	}

	release, err := s.Locker.Acquire(ctx, ports.WorkerDocumentKey(tenant.ID, w.documentID), s.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()
	dup, err := s.Workers.GetByDocument(ctx, tenant.ID, w.documentID)
	if err != nil {
		return nil, domain.Upstream("WORKER_LOOKUP", "Error al verificar el documento", err)
	}
	if dup != nil {
		return nil, domain.ErrDuplicateDocument
	}

	wantsLogin := w.password != ""
	if wantsLogin && !tenant.CanAddUser() {
		return nil, domain.ErrUserLimitReached
	}
	if wantsLogin && isRole && role == entity.RoleAdmin {
		releaseAdmin, err := s.Locker.Acquire(ctx, ports.TenantAdminKey(tenant.ID), s.LockTTL)
		if err != nil {
			return nil, err
		}
		defer releaseAdmin()
		hasAdmin, err := s.Memberships.HasActiveRole(ctx, tenant.ID, entity.RoleAdmin)
		if err != nil {
			return nil, domain.Upstream("MEMBERSHIP_LOOKUP", "Error al verificar el administrador actual", err)
		}
		if hasAdmin {
			return nil, domain.ErrAdminExists
		}
	}

	var identity *entity.Identity
	if wantsLogin {
		identity = s.provisionLogin(ctx, w, tenant.ID)
	}

	now := s.Clock().UTC()
	worker := &entity.Worker{
		ID:         uuid.New().String(),
		TenantID:   tenant.ID,
		FullName:   w.fullName,
		DocumentID: w.documentID,
		Email:      w.email,
		Phone:      w.phone,
		AreaModule: w.areaModule,
		Status:     entity.WorkerActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	flow := saga.New(workflowCreateWorker, s.log, s.Metrics)
	if identity != nil && isRole {
		var undo func(context.Context) error
		flow.Add(saga.Step{
			Name: "membership",
			Do: func(ctx context.Context) error {
				m, restore, err := s.ensureMembership(ctx, tenant.ID, identity.ID, role, caller.ID, now)
				if err != nil {
					// El alta sigue sin login; el trabajador queda sin membresía.
					s.log.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("membresía del trabajador no creada")
					return nil
				}
				worker.MembershipID = &m.ID
				undo = restore
				return nil
			},
			Undo: func(ctx context.Context) error {
				if undo == nil {
					return nil
				}
				return undo(ctx)
			},
		})
	}
	flow.Add(saga.Step{
		Name: "worker",
		Do: func(ctx context.Context) error {
			if err := s.Workers.Create(ctx, worker); err != nil {
				if errors.Is(err, domain.ErrDuplicateDocument) {
					return err
				}
				return domain.Upstream("WORKER_CREATE", "Error al crear el trabajador", err)
			}
			return nil
		},
	})
	if err := flow.Run(ctx); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &entity.AuditLogEntry{
		TenantID:    tenant.ID,
		ActorUserID: caller.ID,
		Action:      entity.AuditWorkerCreated,
		Entity:      "worker",
		EntityID:    worker.ID,
		Details: map[string]any{
			"document_id": worker.DocumentID,
			"area_module": worker.AreaModule,
			"with_login":  worker.MembershipID != nil,
		},
	})
	s.log.Info().Str("tenant_id", tenant.ID).Str("worker_id", worker.ID).Msg("trabajador creado")
	return dto.NewWorkerResponse(worker), nil
}

// provisionLogin crea la identidad del trabajador o reutiliza la existente, y su perfil.
// Devuelve nil si no pudo resolverla; el llamador continúa sin login.
func (s *Service) provisionLogin(ctx context.Context, w workerInput, tenantID string) *entity.Identity {
	id, err := s.Identity.CreateUser(ctx, ports.CreateIdentityInput{
		Email:        w.email,
		Password:     w.password,
		EmailConfirm: true,
		Metadata:     map[string]any{"full_name": w.fullName},
	})
	if errors.Is(err, domain.ErrIdentityExists) {
		id, err = s.Identity.FindUserByEmail(ctx, w.email)
	}
	if err != nil || id == nil {
		s.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("identidad del trabajador no creada")
		return nil
	}

	existing, err := s.Profiles.GetByUserID(ctx, id.ID)
	if err == nil && existing == nil {
		defaultTenant := tenantID
		err = s.Profiles.Upsert(ctx, &entity.Profile{
			UserID:          id.ID,
			Email:           w.email,
			FullName:        w.fullName,
			Phone:           w.phone,
			DefaultTenantID: &defaultTenant,
		})
	}
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", id.ID).Msg("perfil del trabajador no creado")
	}
	return id
}

// ensureMembership deja al usuario con una membresía activa en el tenant. Crea una nueva o
// reactiva la inactiva con el rol pedido; en ambos casos suma al contador de usuarios y
// devuelve cómo deshacerlo. Una membresía ya activa se reutiliza sin cambios (undo nil).
// Cupo del plan y admin único se verifican antes, bajo el lock del tenant.
func (s *Service) ensureMembership(ctx context.Context, tenantID, userID string, role entity.Role, invitedBy string, now time.Time) (*entity.Membership, func(context.Context) error, error) {
	existing, err := s.Memberships.GetByTenantAndUser(ctx, tenantID, userID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		if existing.IsActive() {
			return existing, nil, nil
		}
		return s.reactivateMembership(ctx, existing, role)
	}

	accepted := now
	inviter := invitedBy
	m := &entity.Membership{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		UserID:     userID,
		RoleCode:   role,
		Status:     entity.MembershipActive,
		InvitedBy:  &inviter,
		AcceptedAt: &accepted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Memberships.Create(ctx, m); err != nil {
		return nil, nil, err
	}
	s.adjustUsers(ctx, tenantID, 1)
	undo := func(ctx context.Context) error {
		if err := s.Memberships.Delete(ctx, m.ID); err != nil {
			return err
		}
		return s.Tenants.AdjustUsers(ctx, tenantID, -1)
	}
	return m, undo, nil
}

func (s *Service) reactivateMembership(ctx context.Context, m *entity.Membership, role entity.Role) (*entity.Membership, func(context.Context) error, error) {
	prevRole := m.RoleCode
	if prevRole != role {
		if err := s.Memberships.UpdateRole(ctx, m.ID, role); err != nil {
			return nil, nil, err
		}
	}
	if err := s.Memberships.UpdateStatus(ctx, m.ID, entity.MembershipActive); err != nil {
		if prevRole != role {
			if rerr := s.Memberships.UpdateRole(ctx, m.ID, prevRole); rerr != nil {
				s.log.Warn().Err(rerr).Str("membership_id", m.ID).Msg("no se pudo restaurar el rol de la membresía")
			}
		}
		return nil, nil, err
	}
	s.adjustUsers(ctx, m.TenantID, 1)
	s.log.Info().Str("tenant_id", m.TenantID).Str("membership_id", m.ID).Msg("membresía reactivada")

	undo := func(ctx context.Context) error {
		if err := s.Memberships.UpdateStatus(ctx, m.ID, entity.MembershipInactive); err != nil {
			return err
		}
		if prevRole != role {
			if err := s.Memberships.UpdateRole(ctx, m.ID, prevRole); err != nil {
				return err
			}
		}
		return s.Tenants.AdjustUsers(ctx, m.TenantID, -1)
	}
	m.RoleCode = role
	m.Status = entity.MembershipActive
	return m, undo, nil
}

func (s *Service) adjustUsers(ctx context.Context, tenantID string, delta int) {
	if err := s.Tenants.AdjustUsers(ctx, tenantID, delta); err != nil {
		s.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("no se pudo actualizar el contador de usuarios")
	}
}

func (s *Service) appendAudit(ctx context.Context, e *entity.AuditLogEntry) {
	if err := s.Audit.Append(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("action", e.Action).Msg("no se pudo registrar auditoría")
	}
}
