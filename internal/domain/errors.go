package domain

import (
	"errors"
	"fmt"
)

// Kind clasifica un error de dominio. La capa HTTP traduce Kind a status; los clientes
// distinguen casos por Code, nunca por el texto del mensaje.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindLimitReached
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindLimitReached:
		return "limit_reached"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error error de dominio con tipo, código estable y mensaje para el usuario final.
// Err conserva la causa técnica (para logs); nunca se expone al cliente.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is permite errors.Is contra los centinelas aunque el error venga envuelto con otra causa.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Recurso no encontrado"}
	ErrTenantNotFound     = &Error{Kind: KindNotFound, Code: "TENANT_NOT_FOUND", Message: "Empresa no encontrada"}
	ErrWorkerNotFound     = &Error{Kind: KindNotFound, Code: "WORKER_NOT_FOUND", Message: "Trabajador no encontrado"}
	ErrInvitationNotFound = &Error{Kind: KindNotFound, Code: "INVITATION_NOT_FOUND", Message: "Invitación no encontrada"}

	ErrInvalidInput  = &Error{Kind: KindValidation, Code: "VALIDATION", Message: "Entrada inválida"}
	ErrInvalidSlug   = &Error{Kind: KindValidation, Code: "INVALID_SLUG", Message: "El identificador solo puede contener minúsculas, números y guiones (3 a 50 caracteres)"}
	ErrInvalidPlan   = &Error{Kind: KindValidation, Code: "INVALID_PLAN", Message: "Plan no válido"}
	ErrInvalidRole   = &Error{Kind: KindValidation, Code: "INVALID_ROLE", Message: "Rol no válido"}
	ErrInvalidStatus = &Error{Kind: KindValidation, Code: "INVALID_STATUS", Message: "Estado no válido"}
	ErrWeakPassword  = &Error{Kind: KindValidation, Code: "WEAK_PASSWORD", Message: "La contraseña debe tener al menos 8 caracteres"}

	ErrUnauthorized = &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "No autorizado"}
	ErrForbidden    = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "No tiene permisos para realizar esta acción"}

	ErrEmailAlreadyExists = &Error{Kind: KindConflict, Code: "EMAIL_EXISTS", Message: "Ya existe una cuenta registrada con este correo electrónico"}
	ErrSlugTaken          = &Error{Kind: KindConflict, Code: "SLUG_TAKEN", Message: "El identificador de la empresa ya está en uso, elija otro"}
	ErrAdminExists        = &Error{Kind: KindConflict, Code: "ADMIN_EXISTS", Message: "La empresa ya tiene un administrador activo"}
	ErrPendingInvitation  = &Error{Kind: KindConflict, Code: "PENDING_INVITATION", Message: "Ya existe una invitación pendiente para este correo y rol"}
	ErrDuplicateDocument  = &Error{Kind: KindConflict, Code: "DUPLICATE_DOCUMENT", Message: "Ya existe un trabajador con este documento en la empresa"}
	ErrInvitationClosed   = &Error{Kind: KindConflict, Code: "INVITATION_CLOSED", Message: "La invitación ya no está pendiente"}
	ErrSelfDeactivation   = &Error{Kind: KindConflict, Code: "SELF_DEACTIVATION", Message: "No puede desactivar su propio usuario"}
	ErrBusy               = &Error{Kind: KindConflict, Code: "OPERATION_IN_PROGRESS", Message: "Hay otra operación en curso sobre este recurso, intente de nuevo"}
	ErrConflict           = &Error{Kind: KindConflict, Code: "CONFLICT", Message: "Conflicto con el estado actual"}

	ErrUserLimitReached = &Error{Kind: KindLimitReached, Code: "USER_LIMIT_REACHED", Message: "Se alcanzó el límite de usuarios de su plan"}

	ErrIdentityExists = &Error{Kind: KindConflict, Code: "IDENTITY_EXISTS", Message: "El usuario ya está registrado en el proveedor de identidad"}
)

// Validation crea un error de validación con un mensaje específico.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Code: "VALIDATION", Message: msg}
}

// Upstream envuelve un fallo del proveedor de identidad o del store.
// msg es lo que verá el usuario; err se conserva solo para logs.
func Upstream(code, msg string, err error) error {
	return &Error{Kind: KindUpstream, Code: code, Message: msg, Err: err}
}

// Wrap añade una causa técnica a un centinela sin perder su identidad para errors.Is.
func Wrap(sentinel *Error, err error) error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

// Internalf error inesperado (programación o infraestructura) con formato.
func Internalf(format string, args ...any) error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: "Error interno del servidor", Err: fmt.Errorf(format, args...)}
}

// KindOf devuelve el Kind del primer *Error en la cadena; KindInternal si no hay ninguno.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError devuelve el *Error de la cadena, o un error interno genérico que envuelve err.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: "Error interno del servidor", Err: err}
}
