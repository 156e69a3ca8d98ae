// Package invitation emisión y revocación de invitaciones con token y vencimiento.
package invitation

import (
	"context"
	"errors"
	"net/url"
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
	workflowIssue = "issue_invitation"

	adminSetupPath = "admin-setup"
	userSetupPath  = "user-setup"
)

// Deps dependencias del emisor.
type Deps struct {
	Tenants     repository.TenantRepository
	Memberships repository.MembershipRepository
	Invitations repository.InvitationRepository
	Profiles    repository.ProfileRepository
	Audit       repository.AuditLogRepository
	Identity    ports.IdentityProvider
	Guard       *access.Guard
	Locker      ports.KeyLocker
	Metrics     ports.WorkflowMetrics
	Logger      *logger.Logger
	Clock       ports.Clock
	Tokens      ports.TokenGenerator
	BaseURL     string // URL pública del frontend, sin barra final
	TTL         time.Duration
	LockTTL     time.Duration
}

// Service emisor de invitaciones.
type Service struct {
	Deps
	log *logger.Logger
}

// NewService construye el emisor aplicando valores por defecto.
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
	if d.Tokens == nil {
		d.Tokens = NewToken
	}
	if d.TTL <= 0 {
		d.TTL = entity.DefaultInvitationTTL
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 15 * time.Second
	}
	d.BaseURL = strings.TrimRight(d.BaseURL, "/")
	return &Service{Deps: d, log: d.Logger.WithComponent("invitations")}
}

// issueParams diferencias entre la vía de administrador y la de usuarios de módulo.
type issueParams struct {
	tenantID    string
	email       string
	role        entity.Role
	callerRoles []entity.Role
	setupPath   string
	oneAdmin    bool // exige que no haya admin activo
	checkLimit  bool // exige cupo de usuarios en el plan
	profile     bool // crea el perfil del invitado (best-effort)
	audit       bool
}

// IssueAdmin invita al administrador del tenant. Solo el dueño puede hacerlo y solo si
// no hay ya un admin activo.
func (s *Service) IssueAdmin(ctx context.Context, caller *entity.Identity, in dto.InviteAdminRequest) (*dto.InvitationResult, error) {
	return s.issue(ctx, caller, issueParams{
		tenantID:    strings.TrimSpace(in.TenantID),
		email:       entity.NormalizeEmail(in.AdminEmail),
		role:        entity.RoleAdmin,
		callerRoles: []entity.Role{entity.RoleOwner},
		setupPath:   adminSetupPath,
		oneAdmin:    true,
		audit:       true,
	})
}

// IssueModule invita a un usuario operativo (campo, empaque...). Requiere owner o admin
// y cupo en el plan.
func (s *Service) IssueModule(ctx context.Context, caller *entity.Identity, in dto.InviteModuleUserRequest) (*dto.InvitationResult, error) {
	role, ok := entity.ParseRole(in.RoleCode)
	if !ok || !role.IsModuleRole() {
		return nil, domain.ErrInvalidRole
	}
	return s.issue(ctx, caller, issueParams{
		tenantID:    strings.TrimSpace(in.TenantID),
		email:       entity.NormalizeEmail(in.Email),
		role:        role,
		callerRoles: []entity.Role{entity.RoleOwner, entity.RoleAdmin},
		setupPath:   userSetupPath,
		checkLimit:  true,
		profile:     true,
	})
}

func (s *Service) issue(ctx context.Context, caller *entity.Identity, p issueParams) (*dto.InvitationResult, error) {
	if p.tenantID == "" {
		return nil, domain.Validation("El tenant es obligatorio")
	}
	if p.email == "" || !strings.Contains(p.email, "@") {
		return nil, domain.Validation("El correo electrónico no es válido")
	}

	tenant, err := s.Tenants.GetByID(ctx, p.tenantID)
	if err != nil {
		return nil, domain.Upstream("TENANT_LOOKUP", "Error al consultar la empresa", err)
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	if _, err := s.Guard.RequireTenantRole(ctx, caller, tenant.ID, p.callerRoles...); err != nil {
		return nil, err
	}

	if p.oneAdmin {
		release, err := s.Locker.Acquire(ctx, ports.TenantAdminKey(tenant.ID), s.LockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
		hasAdmin, err := s.Memberships.HasActiveRole(ctx, tenant.ID, entity.RoleAdmin)
		if err != nil {
			return nil, domain.Upstream("MEMBERSHIP_LOOKUP", "Error al verificar el administrador actual", err)
		}
		if hasAdmin {
			return nil, domain.ErrAdminExists
		}
	}

	release, err := s.Locker.Acquire(ctx, ports.InvitationKey(tenant.ID, p.email, p.role.String()), s.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.Clock().UTC()
	pending, err := s.Invitations.FindPending(ctx, tenant.ID, p.email, p.role, now)
	if err != nil {
		return nil, domain.Upstream("INVITATION_LOOKUP", "Error al verificar invitaciones pendientes", err)
	}
	if pending != nil {
		return nil, domain.ErrPendingInvitation
	}
	if p.checkLimit && !tenant.CanAddUser() {
		return nil, domain.ErrUserLimitReached
	}

	token, err := s.Tokens()
	if err != nil {
		return nil, domain.Internalf("token: %w", err)
	}
	inv := &entity.Invitation{
		ID:        uuid.New().String(),
		TenantID:  tenant.ID,
		Email:     p.email,
		RoleCode:  p.role,
		TokenHash: token,
		InvitedBy: caller.ID,
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}
	inviteURL := s.inviteURL(p.setupPath, token)
	var invited *entity.Identity

	flow := saga.New(workflowIssue, s.log, s.Metrics).
		Add(saga.Step{
			Name: "insert",
			Do: func(ctx context.Context) error {
				if err := s.Invitations.Create(ctx, inv); err != nil {
					return domain.Upstream("INVITATION_CREATE", "Error al crear la invitación", err)
				}
				return nil
			},
			Undo: func(ctx context.Context) error {
				return s.Invitations.Delete(ctx, inv.ID)
			},
		}).
		Add(saga.Step{
			Name: "deliver",
			Do: func(ctx context.Context) error {
				id, err := s.deliver(ctx, tenant, inv, inviteURL)
				if err != nil {
					return domain.Upstream("INVITATION_DELIVERY", "No se pudo enviar el correo de invitación", err)
				}
				invited = id
				return nil
			},
		})
	if err := flow.Run(ctx); err != nil {
		return nil, err
	}

	if p.profile {
		s.ensureProfile(ctx, invited, inv.Email, tenant.ID)
	}
	if p.audit {
		s.appendAudit(ctx, &entity.AuditLogEntry{
			TenantID:    tenant.ID,
			ActorUserID: caller.ID,
			Action:      entity.AuditInvitationAdmin,
			Entity:      "invitation",
			EntityID:    inv.ID,
			Details:     map[string]any{"email": inv.Email, "role_code": inv.RoleCode.String()},
		})
	}

	s.log.Info().
		Str("tenant_id", tenant.ID).
		Str("invitation_id", inv.ID).
		Str("role", inv.RoleCode.String()).
		Msg("invitación emitida")

	return &dto.InvitationResult{
		Invitation: dto.NewInvitationResponse(inv, now),
		InviteURL:  inviteURL,
	}, nil
}

// deliver envía el correo de invitación. Si el email ya tiene identidad se envía en su lugar
// el correo de restablecimiento con el mismo enlace; en ese caso devuelve la identidad existente.
func (s *Service) deliver(ctx context.Context, tenant *entity.Tenant, inv *entity.Invitation, redirectTo string) (*entity.Identity, error) {
	data := map[string]any{
		"tenant_id":   tenant.ID,
		"tenant_name": tenant.Name,
		"role_code":   inv.RoleCode.String(),
		"invited_by":  inv.InvitedBy,
	}
	id, err := s.Identity.InviteUserByEmail(ctx, inv.Email, redirectTo, data)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domain.ErrIdentityExists) {
		return nil, err
	}
	if err := s.Identity.SendRecoveryEmail(ctx, inv.Email, redirectTo); err != nil {
		return nil, err
	}
	existing, err := s.Identity.FindUserByEmail(ctx, inv.Email)
	if err != nil {
		s.log.Warn().Err(err).Str("invitation_id", inv.ID).Msg("no se pudo resolver la identidad existente")
		return nil, nil
	}
	return existing, nil
}

// ensureProfile crea el perfil del invitado si aún no existe. Nunca falla la invitación.
func (s *Service) ensureProfile(ctx context.Context, id *entity.Identity, email, tenantID string) {
	if id == nil {
		s.log.Warn().Str("email", email).Msg("perfil no creado: identidad del invitado no encontrada")
		return
	}
	existing, err := s.Profiles.GetByUserID(ctx, id.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", id.ID).Msg("perfil no creado")
		return
	}
	if existing != nil {
		return
	}
	defaultTenant := tenantID
	if err := s.Profiles.Upsert(ctx, &entity.Profile{
		UserID:          id.ID,
		Email:           email,
		DefaultTenantID: &defaultTenant,
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", id.ID).Msg("perfil no creado")
	}
}

func (s *Service) appendAudit(ctx context.Context, e *entity.AuditLogEntry) {
	if err := s.Audit.Append(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("action", e.Action).Msg("no se pudo registrar auditoría")
	}
}

func (s *Service) inviteURL(path, token string) string {
	q := url.Values{"token": []string{token}}
	return s.BaseURL + "/" + path + "?" + q.Encode()
}

// Revoke pasa una invitación pendiente a revocada. Requiere owner o admin del tenant.
func (s *Service) Revoke(ctx context.Context, caller *entity.Identity, invitationID string) (*dto.InvitationResponse, error) {
	inv, err := s.Invitations.GetByID(ctx, strings.TrimSpace(invitationID))
	if err != nil {
		return nil, domain.Upstream("INVITATION_LOOKUP", "Error al consultar la invitación", err)
	}
	if inv == nil {
		return nil, domain.ErrInvitationNotFound
	}
	if _, err := s.Guard.RequireTenantRole(ctx, caller, inv.TenantID, entity.RoleOwner, entity.RoleAdmin); err != nil {
		return nil, err
	}

	now := s.Clock().UTC()
	if !inv.Revoke(now) {
		return nil, domain.ErrInvitationClosed
	}
	if err := s.Invitations.MarkRevoked(ctx, inv.ID, now); err != nil {
		if errors.Is(err, domain.ErrInvitationClosed) {
			return nil, err
		}
		return nil, domain.Upstream("INVITATION_REVOKE", "Error al revocar la invitación", err)
	}
	s.appendAudit(ctx, &entity.AuditLogEntry{
		TenantID:    inv.TenantID,
		ActorUserID: caller.ID,
		Action:      entity.AuditInvitationRevoke,
		Entity:      "invitation",
		EntityID:    inv.ID,
	})
	out := dto.NewInvitationResponse(inv, now)
	return &out, nil
}
