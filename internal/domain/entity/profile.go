package entity

import "time"

// Profile datos de presentación de una identidad. Email funciona como índice local
// email -> identidad para no recorrer el listado completo del proveedor.
type Profile struct {
	UserID          string
	Email           string
	FullName        string
	Phone           string
	DefaultTenantID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AuditLogEntry registro append-only de acciones administrativas. La lógica del núcleo
// nunca lo relee.
type AuditLogEntry struct {
	ID          string
	TenantID    string
	ActorUserID string
	Action      string
	Entity      string
	EntityID    string
	Details     map[string]any
	CreatedAt   time.Time
}

// Acciones de auditoría.
const (
	AuditInvitationAdmin  = "invitation.admin_sent"
	AuditInvitationRevoke = "invitation.revoked"
	AuditWorkerCreated    = "worker.created"
	AuditWorkerUpdated    = "worker.updated"
	AuditWorkerDeactivate = "worker.deactivated"
)

// Identity identidad de login en el proveedor externo (Supabase Auth).
type Identity struct {
	ID             string
	Email          string
	EmailConfirmed bool
	UserMetadata   map[string]any
	CreatedAt      time.Time
}
