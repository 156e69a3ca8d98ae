package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

func TestInvitation_State(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := &entity.Invitation{ExpiresAt: now.Add(time.Hour)}

	assert.Equal(t, entity.InvitationPending, inv.State(now))
	assert.Equal(t, entity.InvitationExpired, inv.State(now.Add(time.Hour)))
	assert.Equal(t, entity.InvitationExpired, inv.State(now.Add(2*time.Hour)))

	accepted := now
	inv.AcceptedAt = &accepted
	assert.Equal(t, entity.InvitationAccepted, inv.State(now.Add(2*time.Hour)))
}

func TestInvitation_Revoke(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := &entity.Invitation{ExpiresAt: now.Add(entity.DefaultInvitationTTL)}

	assert.True(t, inv.Revoke(now))
	assert.Equal(t, entity.InvitationRevoked, inv.State(now))
	assert.False(t, inv.Revoke(now), "revocar dos veces")

	expired := &entity.Invitation{ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, expired.Revoke(now))
	assert.Nil(t, expired.RevokedAt)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@finca.co", entity.NormalizeEmail("  Ana@FINCA.co "))
}
