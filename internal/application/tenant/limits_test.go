package tenant_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

func TestLimits(t *testing.T) {
	f := newFixture()
	req := fincaX()
	req.Plan = "enterprise"
	out, err := f.svc.Provision(context.Background(), req)
	require.NoError(t, err)

	l := f.svc.Limits(context.Background(), out.ID)
	assert.Equal(t, 1, l.CurrentUsers)
	assert.Equal(t, entity.UnlimitedUsers, l.MaxUsers)
	assert.Equal(t, "enterprise", l.Plan)
	assert.True(t, l.CanAddMore)
}

func TestLimits_FallbackAnteErrorOInexistente(t *testing.T) {
	f := newFixture()
	l := f.svc.Limits(context.Background(), "no-existe")
	assert.Equal(t, "basic", l.Plan)
	assert.Equal(t, 3, l.MaxUsers)

	f.store.FailOn("tenants.get", nil)
	l = f.svc.Limits(context.Background(), "x")
	assert.Equal(t, 0, l.CurrentUsers)
	assert.True(t, l.CanAddMore)
}

func TestPlans(t *testing.T) {
	f := newFixture()
	plans := f.svc.Plans(context.Background()).Plans
	require.Len(t, plans, 3)
	assert.Equal(t, "basic", plans[0].Code)
	assert.Equal(t, "49", plans[1].MonthlyPrice.String())
	assert.Equal(t, -1, plans[2].MaxUsers)
}

func TestPlans_LaTablaMandaSobreElCatalogo(t *testing.T) {
	f := newFixture()
	specs := entity.Plans()
	specs[1].MaxUsers = 15
	specs[1].MonthlyPrice = decimal.RequireFromString("59.90")
	f.store.SetPlans(specs)

	plans := f.svc.Plans(context.Background()).Plans
	require.Len(t, plans, 3)
	assert.Equal(t, 15, plans[1].MaxUsers)
	assert.True(t, decimal.RequireFromString("59.9").Equal(plans[1].MonthlyPrice))

	out, err := f.svc.Provision(context.Background(), fincaX())
	require.NoError(t, err)
	assert.Equal(t, 15, out.MaxUsers)
	assert.Equal(t, 15, f.svc.Limits(context.Background(), out.ID).MaxUsers)
}

func TestPlans_FalloDeLaTablaUsaElCatalogo(t *testing.T) {
	f := newFixture()
	f.store.FailOn("plans.list", nil)

	plans := f.svc.Plans(context.Background()).Plans
	require.Len(t, plans, 3)
	assert.Equal(t, 3, plans[0].MaxUsers)

	out, err := f.svc.Provision(context.Background(), fincaX())
	require.NoError(t, err)
	assert.Equal(t, 10, out.MaxUsers)
}

func TestPlans_CodigoAusenteDeLaTabla(t *testing.T) {
	f := newFixture()
	f.store.SetPlans(entity.Plans()[:1])

	out, err := f.svc.Provision(context.Background(), fincaX())
	require.NoError(t, err)
	assert.Equal(t, 10, out.MaxUsers, "pro ausente de la tabla usa el catálogo fijo")
}

func TestCheckEmail(t *testing.T) {
	f := newFixture()
	f.idp.AddUser("luis@x.com")

	assert.True(t, f.svc.CheckEmail(context.Background(), " Luis@X.com "))
	assert.False(t, f.svc.CheckEmail(context.Background(), "otro@x.com"))

	f.idp.FailOn("find", nil)
	assert.True(t, f.svc.CheckEmail(context.Background(), "otro@x.com"), "falla cerrado")
}
