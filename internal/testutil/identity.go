package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
)

var _ ports.IdentityProvider = (*IdentityProvider)(nil)

// SentEmail correo "enviado" por el proveedor falso.
type SentEmail struct {
	Email      string
	RedirectTo string
	Data       map[string]any
}

// IdentityProvider proveedor de identidad en memoria. Las contraseñas se guardan con bcrypt
// como haría GoTrue. Fail inyecta errores por operación: "create", "delete", "invite",
// "recovery", "find", "token".
type IdentityProvider struct {
	mu         sync.Mutex
	users      map[string]*entity.Identity
	passwords  map[string][]byte
	tokens     map[string]string
	fail       map[string]error
	Invites    []SentEmail
	Recoveries []SentEmail
	Deleted    []string
}

// NewIdentityProvider proveedor vacío.
func NewIdentityProvider() *IdentityProvider {
	return &IdentityProvider{
		users:     make(map[string]*entity.Identity),
		passwords: make(map[string][]byte),
		tokens:    make(map[string]string),
		fail:      make(map[string]error),
	}
}

// FailOn hace fallar la operación op con err (ErrInjected si es nil).
func (p *IdentityProvider) FailOn(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	p.fail[op] = err
}

// Reset quita los fallos inyectados.
func (p *IdentityProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = make(map[string]error)
}

// AddUser registra una identidad confirmada y devuelve un access token válido para ella.
func (p *IdentityProvider) AddUser(email string) (*entity.Identity, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.insert(entity.NormalizeEmail(email), true, nil)
	token := "tok-" + id.ID
	p.tokens[token] = id.ID
	c := *id
	return &c, token
}

// TokenFor emite un access token para una identidad existente.
func (p *IdentityProvider) TokenFor(userID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := "tok-" + userID
	p.tokens[token] = userID
	return token
}

// Count número de identidades registradas.
func (p *IdentityProvider) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}

// CountByEmail identidades con ese email (debe ser 0 o 1).
func (p *IdentityProvider) CountByEmail(email string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	email = entity.NormalizeEmail(email)
	n := 0
	for _, u := range p.users {
		if u.Email == email {
			n++
		}
	}
	return n
}

// CheckPassword compara la contraseña contra el hash guardado.
func (p *IdentityProvider) CheckPassword(userID, password string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	hash, ok := p.passwords[userID]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func (p *IdentityProvider) insert(email string, confirmed bool, meta map[string]any) *entity.Identity {
	id := &entity.Identity{
		ID:             uuid.New().String(),
		Email:          email,
		EmailConfirmed: confirmed,
		UserMetadata:   meta,
		CreatedAt:      time.Now().UTC(),
	}
	p.users[id.ID] = id
	return id
}

func (p *IdentityProvider) byEmail(email string) *entity.Identity {
	for _, u := range p.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (p *IdentityProvider) GetUserByToken(_ context.Context, accessToken string) (*entity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["token"]; err != nil {
		return nil, err
	}
	id, ok := p.tokens[accessToken]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	u, ok := p.users[id]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	c := *u
	return &c, nil
}

func (p *IdentityProvider) FindUserByEmail(_ context.Context, email string) (*entity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["find"]; err != nil {
		return nil, err
	}
	u := p.byEmail(entity.NormalizeEmail(email))
	if u == nil {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (p *IdentityProvider) CreateUser(_ context.Context, in ports.CreateIdentityInput) (*entity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["create"]; err != nil {
		return nil, err
	}
	email := entity.NormalizeEmail(in.Email)
	if p.byEmail(email) != nil {
		return nil, domain.ErrIdentityExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := p.insert(email, in.EmailConfirm, in.Metadata)
	p.passwords[u.ID] = hash
	c := *u
	return &c, nil
}

func (p *IdentityProvider) DeleteUser(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["delete"]; err != nil {
		return err
	}
	delete(p.users, userID)
	delete(p.passwords, userID)
	p.Deleted = append(p.Deleted, userID)
	return nil
}

func (p *IdentityProvider) InviteUserByEmail(_ context.Context, email, redirectTo string, data map[string]any) (*entity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["invite"]; err != nil {
		return nil, err
	}
	email = entity.NormalizeEmail(email)
	if p.byEmail(email) != nil {
		return nil, domain.ErrIdentityExists
	}
	u := p.insert(email, false, data)
	p.Invites = append(p.Invites, SentEmail{Email: email, RedirectTo: redirectTo, Data: data})
	c := *u
	return &c, nil
}

func (p *IdentityProvider) SendRecoveryEmail(_ context.Context, email, redirectTo string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail["recovery"]; err != nil {
		return err
	}
	p.Recoveries = append(p.Recoveries, SentEmail{Email: entity.NormalizeEmail(email), RedirectTo: redirectTo})
	return nil
}

// FixedClock reloj detenido en t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Clock reloj manual que avanza con Advance.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
