package entity

import (
	"strings"
	"time"
)

// DefaultInvitationTTL vigencia de una invitación desde su emisión.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// InvitationState estado derivado de una invitación. EXPIRED nunca se persiste:
// se infiere comparando ExpiresAt con el reloj.
type InvitationState string

const (
	InvitationPending  InvitationState = "pending"
	InvitationAccepted InvitationState = "accepted"
	InvitationRevoked  InvitationState = "revoked"
	InvitationExpired  InvitationState = "expired"
)

// Invitation oferta con token y vencimiento para que un email se una a un tenant con un rol.
type Invitation struct {
	ID         string
	TenantID   string
	Email      string // minúsculas, sin espacios
	RoleCode   Role
	// TokenHash guarda el token aleatorio tal cual (no es un digest); el endpoint de
	// canje lo compara en claro.
	TokenHash  string
	InvitedBy  string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// NormalizeEmail minúsculas y sin espacios; es la forma canónica en todo el sistema.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// State devuelve el estado en el instante now. Aceptada y revocada son terminales y
// prevalecen sobre el vencimiento.
func (i *Invitation) State(now time.Time) InvitationState {
	switch {
	case i.AcceptedAt != nil:
		return InvitationAccepted
	case i.RevokedAt != nil:
		return InvitationRevoked
	case !now.Before(i.ExpiresAt):
		return InvitationExpired
	default:
		return InvitationPending
	}
}

// IsPending atajo de State(now) == InvitationPending.
func (i *Invitation) IsPending(now time.Time) bool {
	return i.State(now) == InvitationPending
}

// Revoke pasa PENDING -> REVOKED. Devuelve false si la invitación ya no estaba pendiente.
func (i *Invitation) Revoke(now time.Time) bool {
	if !i.IsPending(now) {
		return false
	}
	t := now
	i.RevokedAt = &t
	return true
}
