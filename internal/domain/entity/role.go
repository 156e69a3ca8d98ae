package entity

import "github.com/jhoicas/seedor-api/pkg/slug"

// Role código de rol dentro de un tenant. Conjunto cerrado: toda comparación pasa por ParseRole.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleCampo      Role = "campo"
	RoleEmpaque    Role = "empaque"
	RoleFinanzas   Role = "finanzas"
	RoleInventario Role = "inventario"
	RoleContactos  Role = "contactos"
)

var roleAliases = map[string]Role{
	"owner":         RoleOwner,
	"propietario":   RoleOwner,
	"dueno":         RoleOwner,
	"admin":         RoleAdmin,
	"administrador": RoleAdmin,
	"campo":         RoleCampo,
	"field":         RoleCampo,
	"empaque":       RoleEmpaque,
	"packing":       RoleEmpaque,
	"finanzas":      RoleFinanzas,
	"finance":       RoleFinanzas,
	"inventario":    RoleInventario,
	"inventory":     RoleInventario,
	"contactos":     RoleContactos,
	"contacts":      RoleContactos,
}

// ParseRole normaliza un código de rol (espacios, mayúsculas, tildes, alias en inglés).
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[slug.Key(s)]
	return r, ok
}

// Is compara contra un código libre aplicando la misma normalización.
func (r Role) Is(s string) bool {
	other, ok := ParseRole(s)
	return ok && other == r
}

// IsModuleRole roles operativos, invitables por la vía de usuarios de módulo.
func (r Role) IsModuleRole() bool {
	switch r {
	case RoleCampo, RoleEmpaque, RoleFinanzas, RoleInventario, RoleContactos:
		return true
	}
	return false
}

// CanManageMembers owner y admin pueden invitar y dar de alta trabajadores.
func (r Role) CanManageMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}

func (r Role) String() string { return string(r) }
