package ports

import "time"

// Clock fuente de tiempo inyectable (tests con reloj fijo).
type Clock func() time.Time

// TokenGenerator genera secretos opacos para los enlaces de invitación.
type TokenGenerator func() (string, error)
