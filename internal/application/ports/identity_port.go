package ports

import (
	"context"

	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// CreateIdentityInput alta de una identidad con contraseña.
type CreateIdentityInput struct {
	Email        string
	Password     string
	EmailConfirm bool // true = no se envía correo de confirmación
	Metadata     map[string]any
}

// IdentityProvider define el puerto de salida hacia el proveedor de identidad (Supabase Auth).
// La aplicación solo conoce este contrato; el adaptador HTTP vive en infrastructure/supabase.
//
// Errores: CreateUser e InviteUserByEmail devuelven domain.ErrIdentityExists si el email
// ya está registrado; FindUserByEmail devuelve (nil, nil) si no existe.
type IdentityProvider interface {
	// GetUserByToken valida un access token de sesión y devuelve su identidad.
	GetUserByToken(ctx context.Context, accessToken string) (*entity.Identity, error)
	FindUserByEmail(ctx context.Context, email string) (*entity.Identity, error)
	CreateUser(ctx context.Context, in CreateIdentityInput) (*entity.Identity, error)
	DeleteUser(ctx context.Context, userID string) error
	// InviteUserByEmail crea la identidad (si no existe) y envía el correo de invitación
	// con un enlace que redirige a redirectTo.
	InviteUserByEmail(ctx context.Context, email, redirectTo string, data map[string]any) (*entity.Identity, error)
	// SendRecoveryEmail envía el correo de restablecimiento a una identidad existente.
	SendRecoveryEmail(ctx context.Context, email, redirectTo string) error
}
