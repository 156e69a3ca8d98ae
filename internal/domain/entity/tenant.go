package entity

import "time"

// Tenant representa una cuenta/organización agrícola del sistema (multi-tenant).
type Tenant struct {
	ID           string
	Name         string
	Slug         string // único global
	Plan         Plan
	PrimaryCrop  string
	ContactEmail string
	CreatedBy    string // id de la identidad del dueño
	CurrentUsers int    // contador instantáneo, no un conteo en vivo
	MaxUsers     int    // derivado del plan; UnlimitedUsers = sin límite
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const TenantStatusActive = "active"

// CanAddUser informa si el plan admite un usuario más según el contador del tenant.
func (t *Tenant) CanAddUser() bool {
	return t.MaxUsers == UnlimitedUsers || t.CurrentUsers < t.MaxUsers
}

// Módulos operativos (deben coincidir con el CHECK de la tabla tenant_modules).
const (
	ModuleCampo      = "campo"
	ModuleEmpaque    = "empaque"
	ModuleFinanzas   = "finanzas"
	ModuleInventario = "inventario"
	ModuleContactos  = "contactos"
)

// DefaultModules módulos que se activan al crear un tenant, sea cual sea el plan.
var DefaultModules = []string{ModuleCampo, ModuleEmpaque, ModuleFinanzas, ModuleInventario}

// TenantModule activación de un módulo operativo en un tenant.
type TenantModule struct {
	ID         string
	TenantID   string
	ModuleCode string
	Enabled    bool
	CreatedAt  time.Time
}
