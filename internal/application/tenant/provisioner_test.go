package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/application/saga"
	"github.com/jhoicas/seedor-api/internal/application/tenant"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/infrastructure/lock"
	"github.com/jhoicas/seedor-api/internal/testutil"
)

type fixture struct {
	store *testutil.Store
	idp   *testutil.IdentityProvider
	svc   *tenant.Service
}

func newFixture() *fixture {
	store := testutil.NewStore()
	idp := testutil.NewIdentityProvider()
	svc := tenant.NewService(tenant.Deps{
		Tenants:     store.Tenants(),
		Memberships: store.Memberships(),
		Plans:       store.Plans(),
		Tx:          store,
		Profiles:    store.Profiles(),
		Identity:    idp,
		Locker:      lock.NewLocal(),
		Clock:       testutil.FixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	return &fixture{store: store, idp: idp, svc: svc}
}

func fincaX() dto.CreateTenantRequest {
	return dto.CreateTenantRequest{
		TenantName:    "Finca X",
		Slug:          "finca-x",
		Plan:          "pro",
		AdminFullName: "Ana",
		AdminEmail:    "ana@x.com",
		AdminPassword: "password1",
	}
}

func TestProvision_OK(t *testing.T) {
	f := newFixture()
	out, err := f.svc.Provision(context.Background(), fincaX())
	require.NoError(t, err)

	assert.Equal(t, "finca-x", out.Slug)
	assert.Equal(t, "pro", out.Plan)
	assert.Equal(t, 10, out.MaxUsers)
	assert.Equal(t, 1, out.CurrentUsers)
	assert.Equal(t, "ana@x.com", out.ContactEmail)
	assert.ElementsMatch(t, []string{"campo", "empaque", "finanzas", "inventario"}, out.Modules)

	assert.Equal(t, 4, f.store.ModuleCount(out.ID))
	members := f.store.MembershipsOf(out.ID)
	require.Len(t, members, 1)
	assert.Equal(t, entity.RoleOwner, members[0].RoleCode)
	assert.Equal(t, entity.MembershipActive, members[0].Status)
	assert.NotNil(t, members[0].AcceptedAt)
	assert.Equal(t, out.CreatedBy, members[0].UserID)

	assert.True(t, f.idp.CheckPassword(out.CreatedBy, "password1"))
	profile := f.store.Profile(out.CreatedBy)
	require.NotNil(t, profile)
	require.NotNil(t, profile.DefaultTenantID)
	assert.Equal(t, out.ID, *profile.DefaultTenantID)
}

func TestProvision_SlugRepetidoNoCreaSegundaIdentidad(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Provision(context.Background(), fincaX())
	require.NoError(t, err)

	_, err = f.svc.Provision(context.Background(), fincaX())
	require.ErrorIs(t, err, domain.ErrSlugTaken)
	assert.Contains(t, domain.AsError(err).Message, "identificador")
	assert.Equal(t, 1, f.idp.CountByEmail("ana@x.com"))
	assert.Equal(t, 1, f.store.TenantCount())
}

func TestProvision_EmailRegistrado(t *testing.T) {
	f := newFixture()
	f.idp.AddUser("ANA@x.com")

	_, err := f.svc.Provision(context.Background(), fincaX())
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.Equal(t, 0, f.store.TenantCount())
}

func TestProvision_Validaciones(t *testing.T) {
	cases := map[string]struct {
		mutate func(*dto.CreateTenantRequest)
		want   error
	}{
		"slug inválido":      {func(r *dto.CreateTenantRequest) { r.Slug = "Finca X!" }, domain.ErrInvalidSlug},
		"plan desconocido":   {func(r *dto.CreateTenantRequest) { r.Plan = "platinum" }, domain.ErrInvalidPlan},
		"contraseña corta":   {func(r *dto.CreateTenantRequest) { r.AdminPassword = "1234567" }, domain.ErrWeakPassword},
		"sin nombre empresa": {func(r *dto.CreateTenantRequest) { r.TenantName = "  " }, domain.ErrInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			req := fincaX()
			tc.mutate(&req)
			_, err := f.svc.Provision(context.Background(), req)
			if tc.want == domain.ErrInvalidInput {
				assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
			assert.Equal(t, 0, f.idp.Count())
		})
	}
}

func TestProvision_SlugDerivadoYAliasDePlan(t *testing.T) {
	f := newFixture()
	req := fincaX()
	req.Slug = ""
	req.TenantName = "Hacienda Él Níspero"
	req.Plan = "Básico"

	out, err := f.svc.Provision(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hacienda-el-nispero", out.Slug)
	assert.Equal(t, "basic", out.Plan)
	assert.Equal(t, 3, out.MaxUsers)
}

func TestProvision_CompensaSegunPasoFallido(t *testing.T) {
	for _, op := range []string{"tenants.create", "memberships.create", "modules.enable"} {
		t.Run(op, func(t *testing.T) {
			f := newFixture()
			f.store.FailOn(op, nil)

			_, err := f.svc.Provision(context.Background(), fincaX())
			require.Error(t, err)
			assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

			var stepErr *saga.StepError
			require.ErrorAs(t, err, &stepErr)
			assert.NoError(t, stepErr.CompensationErr)

			assert.Nil(t, f.store.TenantBySlug("finca-x"))
			assert.Equal(t, 0, f.store.TenantCount())
			assert.Equal(t, 0, f.idp.CountByEmail("ana@x.com"), "la identidad creada se borra")
			assert.Len(t, f.idp.Deleted, 1)
		})
	}
}

func TestProvision_FalloDeIdentidadNoCompensaNada(t *testing.T) {
	f := newFixture()
	f.idp.FailOn("create", nil)

	_, err := f.svc.Provision(context.Background(), fincaX())
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.Empty(t, f.idp.Deleted)
	assert.Equal(t, 0, f.store.TenantCount())
}

func TestProvision_FalloDeCompensacionNoOcultaElOriginal(t *testing.T) {
	f := newFixture()
	f.store.FailOn("modules.enable", nil)
	f.idp.FailOn("delete", nil)

	_, err := f.svc.Provision(context.Background(), fincaX())
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "MODULES_CREATE", de.Code)

	var stepErr *saga.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Error(t, stepErr.CompensationErr)
	// El tenant se borró aunque la identidad quedó huérfana.
	assert.Equal(t, 0, f.store.TenantCount())
	assert.Equal(t, 1, f.idp.CountByEmail("ana@x.com"))
}

func TestProvision_PerfilBestEffort(t *testing.T) {
	f := newFixture()
	f.store.FailOn("profiles.upsert", nil)

	out, err := f.svc.Provision(context.Background(), fincaX())
	require.NoError(t, err)
	assert.Nil(t, f.store.Profile(out.CreatedBy))
}

func TestProvision_ModulosPorDefectoEnCualquierPlan(t *testing.T) {
	f := newFixture()
	req := fincaX()
	req.Plan = "basic"

	out, err := f.svc.Provision(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 4, f.store.ModuleCount(out.ID))
	assert.ElementsMatch(t, entity.DefaultModules, out.Modules)
	// El catálogo del plan es informativo.
	assert.Len(t, entity.PlanBasic.Spec().Modules, 2)
}
