package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seedor-api/internal/application/access"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/testutil"
)

func seedMember(t *testing.T, store *testutil.Store, tenantID, userID string, role entity.Role, status string) *entity.Membership {
	t.Helper()
	m := &entity.Membership{TenantID: tenantID, UserID: userID, RoleCode: role, Status: status}
	require.NoError(t, store.Memberships().Create(context.Background(), m))
	return m
}

func TestRequireTenantRole(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	g := access.NewGuard(store.Memberships(), store.Workers())

	owner := &entity.Identity{ID: "u-owner", Email: "owner@x.com"}
	campo := &entity.Identity{ID: "u-campo", Email: "campo@x.com"}
	gone := &entity.Identity{ID: "u-gone", Email: "gone@x.com"}
	seedMember(t, store, "t1", owner.ID, entity.RoleOwner, entity.MembershipActive)
	seedMember(t, store, "t1", campo.ID, entity.RoleCampo, entity.MembershipActive)
	seedMember(t, store, "t1", gone.ID, entity.RoleOwner, entity.MembershipInactive)

	m, err := g.RequireTenantRole(ctx, owner, "t1", entity.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleOwner, m.RoleCode)

	_, err = g.RequireTenantRole(ctx, campo, "t1", entity.RoleOwner, entity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = g.RequireTenantRole(ctx, gone, "t1", entity.RoleOwner)
	assert.ErrorIs(t, err, domain.ErrForbidden, "membresía inactiva no autoriza")

	_, err = g.RequireTenantRole(ctx, owner, "otro-tenant", entity.RoleOwner)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = g.RequireTenantRole(ctx, nil, "t1", entity.RoleOwner)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRequireTenantRole_FalloDelStore(t *testing.T) {
	store := testutil.NewStore()
	store.FailOn("memberships.get", nil)
	g := access.NewGuard(store.Memberships(), store.Workers())

	_, err := g.RequireTenantRole(context.Background(), &entity.Identity{ID: "u"}, "t1", entity.RoleOwner)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestResolveAdmin(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	g := access.NewGuard(store.Memberships(), store.Workers())

	admin := &entity.Identity{ID: "u-admin", Email: "Admin@X.com"}
	m := seedMember(t, store, "t1", admin.ID, entity.RoleAdmin, entity.MembershipActive)
	require.NoError(t, store.Workers().Create(ctx, &entity.Worker{
		TenantID: "t1", MembershipID: &m.ID, FullName: "Admin", DocumentID: "1",
		Email: "admin@x.com", AreaModule: "admin", Status: entity.WorkerActive,
	}))

	w, got, err := g.ResolveAdmin(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "t1", w.TenantID)
	assert.Equal(t, m.ID, got.ID)

	t.Run("trabajador sin membresía", func(t *testing.T) {
		require.NoError(t, store.Workers().Create(ctx, &entity.Worker{
			TenantID: "t1", FullName: "Sin login", DocumentID: "2", Email: "nologin@x.com", Status: entity.WorkerActive,
		}))
		_, _, err := g.ResolveAdmin(ctx, &entity.Identity{ID: "u-x", Email: "nologin@x.com"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("rol distinto de admin", func(t *testing.T) {
		owner := &entity.Identity{ID: "u-owner", Email: "owner@x.com"}
		om := seedMember(t, store, "t1", owner.ID, entity.RoleOwner, entity.MembershipActive)
		require.NoError(t, store.Workers().Create(ctx, &entity.Worker{
			TenantID: "t1", MembershipID: &om.ID, FullName: "Owner", DocumentID: "3", Email: "owner@x.com", Status: entity.WorkerActive,
		}))
		_, _, err := g.ResolveAdmin(ctx, owner)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("email desconocido", func(t *testing.T) {
		_, _, err := g.ResolveAdmin(ctx, &entity.Identity{ID: "u-y", Email: "nadie@x.com"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("homónimo en otro tenant", func(t *testing.T) {
		require.NoError(t, store.Workers().Create(ctx, &entity.Worker{
			TenantID: "t2", FullName: "Otro", DocumentID: "9", Email: "admin@x.com", Status: entity.WorkerActive,
		}))
		w, _, err := g.ResolveAdmin(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, "t1", w.TenantID)
	})

	t.Run("membresía del homónimo pertenece a otro usuario", func(t *testing.T) {
		om := seedMember(t, store, "t3", "u-otro", entity.RoleAdmin, entity.MembershipActive)
		require.NoError(t, store.Workers().Create(ctx, &entity.Worker{
			TenantID: "t3", MembershipID: &om.ID, FullName: "Otro", DocumentID: "10", Email: "admin@x.com", Status: entity.WorkerActive,
		}))
		w, _, err := g.ResolveAdmin(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, "t1", w.TenantID)
	})
}
