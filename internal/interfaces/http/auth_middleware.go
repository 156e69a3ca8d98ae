package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

// LocalIdentity clave de c.Locals con la identidad autenticada (*entity.Identity).
const LocalIdentity = "identity"

// AuthMiddleware valida el Bearer token delegando en el proveedor de identidad y deja la
// identidad en c.Locals. Token ausente o inválido -> 401.
func AuthMiddleware(idp ports.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(errorBody(&domain.Error{
				Kind: domain.KindUnauthorized, Code: "MISSING_TOKEN", Message: "Token de autorización requerido",
			}))
		}
		id, err := idp.GetUserByToken(c.UserContext(), token)
		if err != nil || id == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(errorBody(&domain.Error{
				Kind: domain.KindUnauthorized, Code: "INVALID_TOKEN", Message: "Token inválido o expirado",
			}))
		}
		c.Locals(LocalIdentity, id)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetIdentity devuelve la identidad del contexto (después del middleware de auth).
func GetIdentity(c *fiber.Ctx) *entity.Identity {
	id, _ := c.Locals(LocalIdentity).(*entity.Identity)
	return id
}
