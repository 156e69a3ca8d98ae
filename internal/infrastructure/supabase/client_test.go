package supabase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/infrastructure/supabase"
	"github.com/jhoicas/seedor-api/pkg/jwt"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

const serviceKey = "service-key"

func newClient(t *testing.T, h http.HandlerFunc, secret string) *supabase.AuthClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return supabase.NewAuthClient(srv.URL, serviceKey, secret, 2*time.Second, logger.Nop())
}

func TestAuthClient_CreateUser_OK(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		assert.Equal(t, serviceKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+serviceKey, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"u-1","email":"ana@finca.co","email_confirmed_at":"2026-01-01T00:00:00Z"}`))
	}, "")

	id, err := c.CreateUser(context.Background(), ports.CreateIdentityInput{
		Email: " Ana@Finca.co ", Password: "secreto123", EmailConfirm: true,
		Metadata: map[string]any{"full_name": "Ana"},
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)
	assert.True(t, id.EmailConfirmed)
	assert.Equal(t, "ana@finca.co", got["email"])
	assert.Equal(t, true, got["email_confirm"])
	assert.NotNil(t, got["user_metadata"])
}

func TestAuthClient_CreateUser_EmailExists(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":422,"error_code":"email_exists","msg":"A user with this email address has already been registered"}`))
	}, "")

	_, err := c.CreateUser(context.Background(), ports.CreateIdentityInput{Email: "ana@finca.co", Password: "secreto123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIdentityExists)
}

func TestAuthClient_CreateUser_ServerError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}, "")

	_, err := c.CreateUser(context.Background(), ports.CreateIdentityInput{Email: "ana@finca.co", Password: "secreto123"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrIdentityExists)
	assert.Contains(t, err.Error(), "500")
}

func TestAuthClient_DeleteUser_NotFoundIsOK(t *testing.T) {
	calls := 0
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/auth/v1/admin/users/u-9", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"msg":"User not found"}`))
	}, "")

	require.NoError(t, c.DeleteUser(context.Background(), "u-9"))
	assert.Equal(t, 1, calls)
}

func TestAuthClient_FindUserByEmail(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"users":[{"id":"u-1","email":"otro@finca.co"},{"id":"u-2","email":"Ana@Finca.co"}]}`))
	}, "")

	id, err := c.FindUserByEmail(context.Background(), "ana@finca.co")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "u-2", id.ID)

	none, err := c.FindUserByEmail(context.Background(), "nadie@finca.co")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAuthClient_InviteAndRecovery(t *testing.T) {
	var paths, redirects []string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		redirects = append(redirects, r.URL.Query().Get("redirect_to"))
		if r.URL.Path == "/auth/v1/invite" {
			_, _ = w.Write([]byte(`{"id":"u-5","email":"luis@finca.co"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}, "")
	ctx := context.Background()

	id, err := c.InviteUserByEmail(ctx, "luis@finca.co", "https://app.seedor.co/admin-setup?token=abc", map[string]any{"role": "admin"})
	require.NoError(t, err)
	assert.Equal(t, "u-5", id.ID)
	require.NoError(t, c.SendRecoveryEmail(ctx, "luis@finca.co", "https://app.seedor.co/user-setup?token=def"))

	assert.Equal(t, []string{"/auth/v1/invite", "/auth/v1/recover"}, paths)
	assert.Equal(t, "https://app.seedor.co/admin-setup?token=abc", redirects[0])
	assert.Equal(t, "https://app.seedor.co/user-setup?token=def", redirects[1])
}

func TestAuthClient_GetUserByToken_Remote(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u-1","email":"ana@finca.co"}`))
	}, "")
	ctx := context.Background()

	id, err := c.GetUserByToken(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)

	_, err = c.GetUserByToken(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = c.GetUserByToken(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthClient_GetUserByToken_LocalJWT(t *testing.T) {
	const secret = "jwt-secret"
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no debería llamar a GoTrue: %s", r.URL.Path)
	}, secret)

	tok, err := jwt.Generate(secret, "u-7", "Ana@Finca.co", "test", 5)
	require.NoError(t, err)

	id, err := c.GetUserByToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u-7", id.ID)
	assert.Equal(t, "ana@finca.co", id.Email)

	forged, err := jwt.Generate("otro-secret", "u-7", "ana@finca.co", "test", 5)
	require.NoError(t, err)
	_, err = c.GetUserByToken(context.Background(), forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
