package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seedor-api/internal/infrastructure/supabase"
	apphttp "github.com/jhoicas/seedor-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/seedor-api/pkg/jwt"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "seedor-test"
	testExpMin    = 60
)

// buildTestApp app Fiber mínima con AuthMiddleware sobre el cliente de GoTrue en modo
// verificación local (no hace llamadas HTTP).
func buildTestApp() *fiber.App {
	idp := supabase.NewAuthClient("http://127.0.0.1:1", "service", testJWTSecret, time.Second, logger.Nop())
	app := fiber.New()
	app.Get("/protected", apphttp.AuthMiddleware(idp), func(c *fiber.Ctx) error {
		id := apphttp.GetIdentity(c)
		return c.JSON(fiber.Map{"user_id": id.ID, "email": id.Email})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp, body
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_TokenValido(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "Ana@Finca.co", testIssuer, testExpMin)
	require.NoError(t, err)

	resp, body := doRequest(t, buildTestApp(), "Bearer "+tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, "ana@finca.co", body["email"])
}

func TestAuthMiddleware_SinHeader(t *testing.T) {
	resp, body := doRequest(t, buildTestApp(), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", body["code"])
	assert.Equal(t, false, body["success"])
}

func TestAuthMiddleware_FormatoInvalido(t *testing.T) {
	for _, h := range []string{"Token abc", "Bearer", "Bearer    "} {
		resp, body := doRequest(t, buildTestApp(), h)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, h)
		assert.Equal(t, "MISSING_TOKEN", body["code"], h)
	}
}

func TestAuthMiddleware_FirmaIncorrecta(t *testing.T) {
	tok, err := pkgjwt.Generate("otro-secreto", testUserID, "ana@finca.co", testIssuer, testExpMin)
	require.NoError(t, err)

	resp, body := doRequest(t, buildTestApp(), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", body["code"])
}

func TestAuthMiddleware_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, "ana@finca.co", testIssuer, -1)
	require.NoError(t, err)

	resp, body := doRequest(t, buildTestApp(), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", body["code"])
}
