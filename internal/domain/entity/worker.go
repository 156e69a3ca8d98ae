package entity

import "time"

// Estados de Worker. No hay borrado físico: la baja es Status = inactive.
const (
	WorkerActive   = "active"
	WorkerInactive = "inactive"
)

// ValidWorkerStatus informa si s es un estado de trabajador conocido.
func ValidWorkerStatus(s string) bool {
	return s == WorkerActive || s == WorkerInactive
}

// Worker perfil operativo de un tenant; puede existir sin login (MembershipID nil).
type Worker struct {
	ID           string
	TenantID     string
	MembershipID *string
	FullName     string
	DocumentID   string // único dentro del tenant
	Email        string
	Phone        string
	AreaModule   string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkerWithMembership fila del listado de usuarios de un tenant.
type WorkerWithMembership struct {
	Worker     Worker
	Membership *Membership
}
