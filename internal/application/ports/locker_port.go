package ports

import (
	"context"
	"time"
)

// KeyLocker serializa secciones check-then-write sobre una clave lógica
// (slug de tenant, admin de un tenant, triple de invitación...).
//
// Acquire bloquea hasta obtener la clave o hasta que ctx venza; si no la obtiene devuelve
// domain.ErrBusy. release es idempotente y nunca falla para el llamador.
type KeyLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
