package entity

import "time"

// Estados de Membership.
const (
	MembershipPending  = "pending"
	MembershipActive   = "active"
	MembershipInactive = "inactive"
)

// Membership vincula una identidad con un tenant bajo un rol.
type Membership struct {
	ID         string
	TenantID   string
	UserID     string
	RoleCode   Role
	Status     string
	InvitedBy  *string
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive informa si la membresía está activa.
func (m *Membership) IsActive() bool {
	return m != nil && m.Status == MembershipActive
}

// HasRole membresía activa con alguno de los roles indicados.
func (m *Membership) HasRole(roles ...Role) bool {
	if !m.IsActive() {
		return false
	}
	for _, r := range roles {
		if m.RoleCode == r {
			return true
		}
	}
	return false
}
