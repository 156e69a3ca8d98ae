// Package supabase adaptador del proveedor de identidad sobre la API REST de GoTrue
// (Supabase Auth). Usa la service role key para los endpoints /admin.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/pkg/jwt"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

var _ ports.IdentityProvider = (*AuthClient)(nil)

// listPageSize tamaño de página del listado de identidades (máximo aceptado por GoTrue).
const listPageSize = 1000

// AuthClient cliente de GoTrue. Si jwtSecret no está vacío los access tokens se validan
// localmente; si no, con GET /auth/v1/user.
type AuthClient struct {
	baseURL    string
	serviceKey string
	jwtSecret  string
	httpClient *http.Client
	log        *logger.Logger
}

// NewAuthClient construye el cliente. supabaseURL sin barra final.
func NewAuthClient(supabaseURL, serviceKey, jwtSecret string, timeout time.Duration, log *logger.Logger) *AuthClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AuthClient{
		baseURL:    strings.TrimRight(supabaseURL, "/") + "/auth/v1",
		serviceKey: serviceKey,
		jwtSecret:  jwtSecret,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithComponent("supabase-auth"),
	}
}

// apiError cuerpo de error de GoTrue (varía entre versiones).
type apiError struct {
	Status    int    `json:"-"`
	Code      any    `json:"code"`
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
	ErrorText string `json:"error"`
	ErrorDesc string `json:"error_description"`
}

func (e *apiError) Error() string {
	msg := e.Msg
	for _, alt := range []string{e.Message, e.ErrorDesc, e.ErrorText} {
		if msg == "" {
			msg = alt
		}
	}
	return fmt.Sprintf("gotrue %d %s: %s", e.Status, e.ErrorCode, msg)
}

// alreadyRegistered GoTrue responde 422 (o 400 en versiones viejas) con email_exists.
func (e *apiError) alreadyRegistered() bool {
	if e.ErrorCode == "email_exists" || e.ErrorCode == "user_already_exists" {
		return true
	}
	text := strings.ToLower(e.Msg + " " + e.Message + " " + e.ErrorDesc)
	return strings.Contains(text, "already been registered") || strings.Contains(text, "already registered")
}

// gotrueUser representación de un usuario en las respuestas de GoTrue.
type gotrueUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (u *gotrueUser) toEntity() *entity.Identity {
	return &entity.Identity{
		ID:             u.ID,
		Email:          entity.NormalizeEmail(u.Email),
		EmailConfirmed: u.EmailConfirmedAt != nil,
		UserMetadata:   u.UserMetadata,
		CreatedAt:      u.CreatedAt,
	}
}

// do ejecuta la request y decodifica la respuesta en out (si no es nil).
// bearer vacío = service role key.
func (c *AuthClient) do(ctx context.Context, method, path string, query url.Values, body, out any, bearer string) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if bearer == "" {
		bearer = c.serviceKey
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &apiError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil {
			apiErr.ErrorText = string(raw)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// GetUserByToken valida el access token de sesión del llamador.
func (c *AuthClient) GetUserByToken(ctx context.Context, accessToken string) (*entity.Identity, error) {
	if accessToken == "" {
		return nil, domain.ErrUnauthorized
	}
	if c.jwtSecret != "" {
		claims, err := jwt.Parse(c.jwtSecret, accessToken)
		if err != nil {
			return nil, domain.Wrap(domain.ErrUnauthorized, err)
		}
		return &entity.Identity{
			ID:           claims.Subject,
			Email:        entity.NormalizeEmail(claims.Email),
			UserMetadata: claims.UserMetadata,
		}, nil
	}

	var u gotrueUser
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, &u, accessToken); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, domain.Wrap(domain.ErrUnauthorized, err)
		}
		return nil, err
	}
	if u.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return u.toEntity(), nil
}

// FindUserByEmail recorre el listado paginado de identidades. GoTrue no expone búsqueda
// por email en la API admin; los llamadores consultan antes el índice local de perfiles.
func (c *AuthClient) FindUserByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	email = entity.NormalizeEmail(email)
	for page := 1; ; page++ {
		var resp struct {
			Users []gotrueUser `json:"users"`
		}
		q := url.Values{
			"page":     []string{strconv.Itoa(page)},
			"per_page": []string{strconv.Itoa(listPageSize)},
		}
		if err := c.do(ctx, http.MethodGet, "/admin/users", q, nil, &resp, ""); err != nil {
			return nil, err
		}
		for i := range resp.Users {
			if entity.NormalizeEmail(resp.Users[i].Email) == email {
				return resp.Users[i].toEntity(), nil
			}
		}
		if len(resp.Users) < listPageSize {
			return nil, nil
		}
	}
}

// CreateUser alta con contraseña. Email ya registrado -> domain.ErrIdentityExists.
func (c *AuthClient) CreateUser(ctx context.Context, in ports.CreateIdentityInput) (*entity.Identity, error) {
	body := map[string]any{
		"email":         entity.NormalizeEmail(in.Email),
		"password":      in.Password,
		"email_confirm": in.EmailConfirm,
	}
	if len(in.Metadata) > 0 {
		body["user_metadata"] = in.Metadata
	}
	var u gotrueUser
	if err := c.do(ctx, http.MethodPost, "/admin/users", nil, body, &u, ""); err != nil {
		return nil, c.mapExists(err)
	}
	c.log.Debug().Str("user_id", u.ID).Msg("identidad creada")
	return u.toEntity(), nil
}

// DeleteUser borra la identidad. Una identidad inexistente no es error.
func (c *AuthClient) DeleteUser(ctx context.Context, userID string) error {
	err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(userID), nil, nil, nil, "")
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

// InviteUserByEmail crea la identidad y envía el correo de invitación con redirectTo.
func (c *AuthClient) InviteUserByEmail(ctx context.Context, email, redirectTo string, data map[string]any) (*entity.Identity, error) {
	body := map[string]any{"email": entity.NormalizeEmail(email)}
	if len(data) > 0 {
		body["data"] = data
	}
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	var u gotrueUser
	if err := c.do(ctx, http.MethodPost, "/invite", q, body, &u, ""); err != nil {
		return nil, c.mapExists(err)
	}
	return u.toEntity(), nil
}

// SendRecoveryEmail envía el correo de restablecimiento de contraseña.
func (c *AuthClient) SendRecoveryEmail(ctx context.Context, email, redirectTo string) error {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.do(ctx, http.MethodPost, "/recover", q, map[string]any{"email": entity.NormalizeEmail(email)}, nil, "")
}

func (c *AuthClient) mapExists(err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.alreadyRegistered() {
		return domain.Wrap(domain.ErrIdentityExists, err)
	}
	return err
}
