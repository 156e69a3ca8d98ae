package membership_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seedor-api/internal/application/access"
	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/application/membership"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/infrastructure/lock"
	"github.com/jhoicas/seedor-api/internal/testutil"
)

type fixture struct {
	store  *testutil.Store
	idp    *testutil.IdentityProvider
	svc    *membership.Service
	tenant *entity.Tenant
	owner  *entity.Identity
	admin  *entity.Identity

	// adminWorker y worker (campo, con login) del tenant.
	adminWorker *entity.Worker
	worker      *entity.Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := testutil.NewStore()
	idp := testutil.NewIdentityProvider()
	f := &fixture{store: store, idp: idp}

	f.owner, _ = idp.AddUser("owner@finca.com")
	f.tenant = &entity.Tenant{
		Name: "Finca X", Slug: "finca-x", Plan: entity.PlanPro, CreatedBy: f.owner.ID,
		CurrentUsers: 1, MaxUsers: 10, Status: entity.TenantStatusActive,
	}
	require.NoError(t, store.Tenants().Create(ctx, f.tenant))
	require.NoError(t, store.Memberships().Create(ctx, &entity.Membership{
		TenantID: f.tenant.ID, UserID: f.owner.ID, RoleCode: entity.RoleOwner, Status: entity.MembershipActive,
	}))

	f.admin, _ = idp.AddUser("admin@finca.com")
	f.adminWorker = f.seedWorker(t, f.admin, "100", entity.RoleAdmin)
	campo, _ := idp.AddUser("campo@finca.com")
	f.worker = f.seedWorker(t, campo, "200", entity.RoleCampo)
	require.NoError(t, store.Tenants().AdjustUsers(ctx, f.tenant.ID, 2))

	f.svc = membership.NewService(membership.Deps{
		Tenants:     store.Tenants(),
		Memberships: store.Memberships(),
		Workers:     store.Workers(),
		Profiles:    store.Profiles(),
		Audit:       store.AuditLog(),
		Identity:    idp,
		Guard:       access.NewGuard(store.Memberships(), store.Workers()),
		Locker:      lock.NewLocal(),
		Clock:       testutil.FixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	return f
}

func (f *fixture) seedWorker(t *testing.T, id *entity.Identity, doc string, role entity.Role) *entity.Worker {
	t.Helper()
	ctx := context.Background()
	m := &entity.Membership{TenantID: f.tenant.ID, UserID: id.ID, RoleCode: role, Status: entity.MembershipActive}
	require.NoError(t, f.store.Memberships().Create(ctx, m))
	w := &entity.Worker{
		TenantID: f.tenant.ID, MembershipID: &m.ID, FullName: id.Email, DocumentID: doc,
		Email: id.Email, AreaModule: role.String(), Status: entity.WorkerActive,
	}
	require.NoError(t, f.store.Workers().Create(ctx, w))
	return w
}

func strPtr(s string) *string { return &s }

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.ListUsers(context.Background(), f.admin)
	require.NoError(t, err)

	assert.Equal(t, f.tenant.ID, out.Tenant.ID)
	require.Len(t, out.Users, 2)
	assert.Equal(t, f.worker.ID, out.Users[0].ID, "más reciente primero")
	require.NotNil(t, out.Users[0].Membership)
	assert.Equal(t, "campo", out.Users[0].Membership.RoleCode)

	_, err = f.svc.ListUsers(context.Background(), f.owner)
	assert.ErrorIs(t, err, domain.ErrForbidden, "el dueño sin trabajador admin no pasa la cadena")
}

func TestUpdateUser_SoloEstadoNoTocaRol(t *testing.T) {
	f := newFixture(t)
	err := f.svc.UpdateUser(context.Background(), f.admin, dto.UpdateMemberRequest{
		WorkerID: f.worker.ID, Status: strPtr("inactive"),
	})
	require.NoError(t, err)

	w := f.store.Worker(f.worker.ID)
	assert.Equal(t, entity.WorkerInactive, w.Status)
	assert.Equal(t, "campo", w.AreaModule)
	assert.Equal(t, entity.RoleCampo, f.store.Membership(*w.MembershipID).RoleCode)
}

func TestUpdateUser_SoloRolNoTocaEstado(t *testing.T) {
	f := newFixture(t)
	err := f.svc.UpdateUser(context.Background(), f.admin, dto.UpdateMemberRequest{
		WorkerID: f.worker.ID, Role: strPtr("Empaque"),
	})
	require.NoError(t, err)

	w := f.store.Worker(f.worker.ID)
	assert.Equal(t, entity.WorkerActive, w.Status)
	assert.Equal(t, "empaque", w.AreaModule)
	m := f.store.Membership(*w.MembershipID)
	assert.Equal(t, entity.RoleEmpaque, m.RoleCode)
	assert.Equal(t, entity.MembershipActive, m.Status)

	audit := f.store.Audit()
	require.Len(t, audit, 1)
	assert.Equal(t, entity.AuditWorkerUpdated, audit[0].Action)
}

func TestUpdateUser_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.UpdateUser(ctx, f.admin, dto.UpdateMemberRequest{WorkerID: f.worker.ID})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	err = f.svc.UpdateUser(ctx, f.admin, dto.UpdateMemberRequest{WorkerID: f.worker.ID, Role: strPtr("gerente")})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	err = f.svc.UpdateUser(ctx, f.admin, dto.UpdateMemberRequest{WorkerID: f.worker.ID, Role: strPtr("owner")})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	err = f.svc.UpdateUser(ctx, f.admin, dto.UpdateMemberRequest{WorkerID: f.worker.ID, Status: strPtr("borrado")})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	err = f.svc.UpdateUser(ctx, f.admin, dto.UpdateMemberRequest{WorkerID: f.worker.ID, Role: strPtr("admin")})
	assert.ErrorIs(t, err, domain.ErrAdminExists)
	assert.Equal(t, entity.RoleCampo, f.store.Membership(*f.worker.MembershipID).RoleCode)

	err = f.svc.UpdateUser(ctx, f.admin, dto.UpdateMemberRequest{WorkerID: f.adminWorker.ID, Status: strPtr("inactive")})
	assert.ErrorIs(t, err, domain.ErrSelfDeactivation)
}

func TestUpdateUser_NoAdminNoCambiaNada(t *testing.T) {
	f := newFixture(t)
	campo, err := f.idp.FindUserByEmail(context.Background(), "campo@finca.com")
	require.NoError(t, err)

	err = f.svc.UpdateUser(context.Background(), campo, dto.UpdateMemberRequest{
		WorkerID: f.adminWorker.ID, Status: strPtr("inactive"),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, entity.WorkerActive, f.store.Worker(f.adminWorker.ID).Status)
}

func TestUpdateUser_TrabajadorDeOtroTenant(t *testing.T) {
	f := newFixture(t)
	other := &entity.Worker{TenantID: "otro", FullName: "X", DocumentID: "1", Email: "x@otro.com", Status: entity.WorkerActive}
	require.NoError(t, f.store.Workers().Create(context.Background(), other))

	err := f.svc.UpdateUser(context.Background(), f.admin, dto.UpdateMemberRequest{
		WorkerID: other.ID, Status: strPtr("inactive"),
	})
	assert.ErrorIs(t, err, domain.ErrWorkerNotFound)
	assert.Equal(t, entity.WorkerActive, f.store.Worker(other.ID).Status)
}

func TestDeactivateUser_BajaLogica(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.DeactivateUser(context.Background(), f.admin, f.worker.ID))

	w := f.store.Worker(f.worker.ID)
	require.NotNil(t, w, "el trabajador no se borra")
	assert.Equal(t, entity.WorkerInactive, w.Status)
	m := f.store.Membership(*w.MembershipID)
	require.NotNil(t, m, "la membresía no se borra")
	assert.Equal(t, entity.MembershipInactive, m.Status)

	tn := f.store.TenantBySlug("finca-x")
	assert.Equal(t, 2, tn.CurrentUsers)

	// Repetir no vuelve a descontar.
	require.NoError(t, f.svc.DeactivateUser(context.Background(), f.admin, f.worker.ID))
	assert.Equal(t, 2, f.store.TenantBySlug("finca-x").CurrentUsers)
}

func TestDeactivateUser_Propio(t *testing.T) {
	f := newFixture(t)
	err := f.svc.DeactivateUser(context.Background(), f.admin, f.adminWorker.ID)
	assert.ErrorIs(t, err, domain.ErrSelfDeactivation)
}

func workerReq(f *fixture) dto.CreateWorkerRequest {
	return dto.CreateWorkerRequest{
		TenantID:   f.tenant.ID,
		Email:      "Pedro@Finca.com",
		FullName:   "Pedro Pérez",
		DocumentID: "300",
		AreaModule: "Campo",
	}
}

func TestCreateWorker_SinLogin(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.CreateWorker(context.Background(), f.owner, workerReq(f))
	require.NoError(t, err)

	assert.Equal(t, "pedro@finca.com", out.Email)
	assert.Equal(t, "campo", out.AreaModule)
	assert.Nil(t, out.MembershipID)
	assert.Equal(t, 0, f.idp.CountByEmail("pedro@finca.com"))

	audit := f.store.Audit()
	require.Len(t, audit, 1)
	assert.Equal(t, entity.AuditWorkerCreated, audit[0].Action)
}

func TestCreateWorker_ConLogin(t *testing.T) {
	f := newFixture(t)
	req := workerReq(f)
	req.Password = "secreto123"

	out, err := f.svc.CreateWorker(context.Background(), f.admin, req)
	require.NoError(t, err)
	require.NotNil(t, out.MembershipID)

	m := f.store.Membership(*out.MembershipID)
	assert.Equal(t, entity.RoleCampo, m.RoleCode)
	assert.Equal(t, entity.MembershipActive, m.Status)
	assert.True(t, f.idp.CheckPassword(m.UserID, "secreto123"))
	assert.NotNil(t, f.store.Profile(m.UserID))
	assert.Equal(t, 4, f.store.TenantBySlug("finca-x").CurrentUsers)
}

func TestCreateWorker_IdentidadExistenteSeReutiliza(t *testing.T) {
	f := newFixture(t)
	existing, _ := f.idp.AddUser("pedro@finca.com")
	req := workerReq(f)
	req.Password = "secreto123"

	out, err := f.svc.CreateWorker(context.Background(), f.owner, req)
	require.NoError(t, err)
	require.NotNil(t, out.MembershipID)
	assert.Equal(t, existing.ID, f.store.Membership(*out.MembershipID).UserID)
	assert.Equal(t, 1, f.idp.CountByEmail("pedro@finca.com"))
}

func TestCreateWorker_FalloDeIdentidadNoImpideElAlta(t *testing.T) {
	f := newFixture(t)
	f.idp.FailOn("create", nil)
	req := workerReq(f)
	req.Password = "secreto123"

	out, err := f.svc.CreateWorker(context.Background(), f.owner, req)
	require.NoError(t, err)
	assert.Nil(t, out.MembershipID)
	assert.Equal(t, 3, f.store.TenantBySlug("finca-x").CurrentUsers)
}

func TestCreateWorker_Rechazos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dup := workerReq(f)
	dup.DocumentID = "200"
	_, err := f.svc.CreateWorker(ctx, f.owner, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateDocument)

	missing := workerReq(f)
	missing.FullName = ""
	missing.DocumentID = " "
	_, err = f.svc.CreateWorker(ctx, f.owner, missing)
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Contains(t, err.Error(), "fullName, documentId")

	campo, _ := f.idp.FindUserByEmail(ctx, "campo@finca.com")
	_, err = f.svc.CreateWorker(ctx, campo, workerReq(f))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin2 := workerReq(f)
	admin2.AreaModule = "administrador"
	admin2.Password = "secreto123"
	_, err = f.svc.CreateWorker(ctx, f.owner, admin2)
	assert.ErrorIs(t, err, domain.ErrAdminExists)

	unknown := workerReq(f)
	unknown.TenantID = "no-existe"
	_, err = f.svc.CreateWorker(ctx, f.owner, unknown)
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
}

func TestCreateWorker_LimiteDePlanSoloConLogin(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Tenants().AdjustUsers(context.Background(), f.tenant.ID, 7))

	withLogin := workerReq(f)
	withLogin.Password = "secreto123"
	_, err := f.svc.CreateWorker(context.Background(), f.owner, withLogin)
	assert.ErrorIs(t, err, domain.ErrUserLimitReached)

	_, err = f.svc.CreateWorker(context.Background(), f.owner, workerReq(f))
	assert.NoError(t, err, "un trabajador sin login no consume cupo")
}

func TestCreateWorker_FalloAlInsertarCompensaLaMembresia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.FailOn("workers.create", nil)
	req := workerReq(f)
	req.Password = "secreto123"

	_, err := f.svc.CreateWorker(ctx, f.owner, req)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

	pedro, err := f.idp.FindUserByEmail(ctx, "pedro@finca.com")
	require.NoError(t, err)
	m, err := f.store.Memberships().GetByTenantAndUser(ctx, f.tenant.ID, pedro.ID)
	require.NoError(t, err)
	assert.Nil(t, m, "la membresía recién creada se borra")
	assert.Equal(t, 3, f.store.TenantBySlug("finca-x").CurrentUsers)

	// El reintento deja trabajador y membresía activos.
	f.store.Reset()
	out, err := f.svc.CreateWorker(ctx, f.owner, req)
	require.NoError(t, err)
	require.NotNil(t, out.MembershipID)
	assert.Equal(t, entity.MembershipActive, f.store.Membership(*out.MembershipID).Status)
	assert.Equal(t, 4, f.store.TenantBySlug("finca-x").CurrentUsers)
}

func TestCreateWorker_RecontratarReactivaLaMembresia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.DeactivateUser(ctx, f.admin, f.worker.ID))
	require.Equal(t, 2, f.store.TenantBySlug("finca-x").CurrentUsers)

	req := workerReq(f)
	req.Email = "campo@finca.com"
	req.AreaModule = "empaque"
	req.Password = "secreto123"
	out, err := f.svc.CreateWorker(ctx, f.owner, req)
	require.NoError(t, err)

	require.NotNil(t, out.MembershipID)
	assert.Equal(t, *f.worker.MembershipID, *out.MembershipID, "se reutiliza la membresía existente")
	m := f.store.Membership(*out.MembershipID)
	assert.Equal(t, entity.MembershipActive, m.Status)
	assert.Equal(t, entity.RoleEmpaque, m.RoleCode)
	assert.Equal(t, entity.WorkerActive, f.store.Worker(out.ID).Status)
	assert.Equal(t, 3, f.store.TenantBySlug("finca-x").CurrentUsers)

	audit := f.store.Audit()
	assert.Equal(t, true, audit[len(audit)-1].Details["with_login"])
}

func TestCreateWorker_RecontratarRespetaCupoYAdminUnico(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.DeactivateUser(ctx, f.admin, f.worker.ID))

	asAdmin := workerReq(f)
	asAdmin.Email = "campo@finca.com"
	asAdmin.AreaModule = "admin"
	asAdmin.Password = "secreto123"
	_, err := f.svc.CreateWorker(ctx, f.owner, asAdmin)
	assert.ErrorIs(t, err, domain.ErrAdminExists)
	assert.Equal(t, entity.MembershipInactive, f.store.Membership(*f.worker.MembershipID).Status)

	require.NoError(t, f.store.Tenants().AdjustUsers(ctx, f.tenant.ID, 8))
	full := workerReq(f)
	full.Email = "campo@finca.com"
	full.Password = "secreto123"
	_, err = f.svc.CreateWorker(ctx, f.owner, full)
	assert.ErrorIs(t, err, domain.ErrUserLimitReached)
	assert.Equal(t, entity.MembershipInactive, f.store.Membership(*f.worker.MembershipID).Status)
}

func TestCreateWorker_FalloAlInsertarRestauraLaMembresiaReactivada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.DeactivateUser(ctx, f.admin, f.worker.ID))
	f.store.FailOn("workers.create", nil)

	req := workerReq(f)
	req.Email = "campo@finca.com"
	req.AreaModule = "empaque"
	req.Password = "secreto123"
	_, err := f.svc.CreateWorker(ctx, f.owner, req)
	require.Error(t, err)

	m := f.store.Membership(*f.worker.MembershipID)
	require.NotNil(t, m)
	assert.Equal(t, entity.MembershipInactive, m.Status)
	assert.Equal(t, entity.RoleCampo, m.RoleCode)
	assert.Equal(t, 2, f.store.TenantBySlug("finca-x").CurrentUsers)
}

func TestAdminDeOtroTenantConMismoEmailNoBloqueaAlAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.ListUsers(ctx, f.admin)
	require.NoError(t, err)

	ownerB, _ := f.idp.AddUser("owner@otra.com")
	tenantB := &entity.Tenant{
		Name: "Finca B", Slug: "finca-b", Plan: entity.PlanPro, CreatedBy: ownerB.ID,
		CurrentUsers: 1, MaxUsers: 10, Status: entity.TenantStatusActive,
	}
	require.NoError(t, f.store.Tenants().Create(ctx, tenantB))
	require.NoError(t, f.store.Memberships().Create(ctx, &entity.Membership{
		TenantID: tenantB.ID, UserID: ownerB.ID, RoleCode: entity.RoleOwner, Status: entity.MembershipActive,
	}))

	homonym := dto.CreateWorkerRequest{
		TenantID: tenantB.ID, Email: "admin@finca.com", FullName: "Homónimo", DocumentID: "999", AreaModule: "campo",
	}
	_, err = f.svc.CreateWorker(ctx, ownerB, homonym)
	require.NoError(t, err)

	out, err := f.svc.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, f.tenant.ID, out.Tenant.ID)

	// Con login la identidad del admin pasa a ser miembro campo de B; sigue resolviendo a A.
	homonym.DocumentID = "998"
	homonym.Password = "secreto123"
	_, err = f.svc.CreateWorker(ctx, ownerB, homonym)
	require.NoError(t, err)

	out, err = f.svc.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, f.tenant.ID, out.Tenant.ID)
}
