// Package testutil reúne dobles en memoria de los puertos de persistencia e identidad
// para tests de casos de uso y de handlers.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
)

// ErrInjected error por defecto de la inyección de fallos.
var ErrInjected = errors.New("testutil: fallo inyectado")

// Store base de datos en memoria con las mismas restricciones de unicidad que la migración.
// Fail permite inyectar un error por operación ("tenants.create", "modules.enable"...).
type Store struct {
	mu  sync.Mutex
	seq int

	tenants     map[string]*entity.Tenant
	modules     map[string][]*entity.TenantModule
	memberships map[string]*entity.Membership
	workers     map[string]*entity.Worker
	invitations map[string]*entity.Invitation
	profiles    map[string]*entity.Profile
	audit       []*entity.AuditLogEntry
	plans       []entity.PlanSpec

	order map[string]int // id -> orden de inserción, desempate de created_at
	fail  map[string]error
}

// NewStore store vacío.
func NewStore() *Store {
	return &Store{
		tenants:     make(map[string]*entity.Tenant),
		modules:     make(map[string][]*entity.TenantModule),
		memberships: make(map[string]*entity.Membership),
		workers:     make(map[string]*entity.Worker),
		invitations: make(map[string]*entity.Invitation),
		profiles:    make(map[string]*entity.Profile),
		plans:       entity.Plans(),
		order:       make(map[string]int),
		fail:        make(map[string]error),
	}
}

// FailOn hace que la operación op devuelva err (ErrInjected si es nil) hasta Reset.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	s.fail[op] = err
}

// Reset quita todos los fallos inyectados.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = make(map[string]error)
}

func (s *Store) check(op string) error {
	return s.fail[op]
}

func (s *Store) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) Tenants() repository.TenantRepository { return tenantRepo{s} }
func (s *Store) Memberships() repository.MembershipRepository { return membershipRepo{s} }
func (s *Store) Workers() repository.WorkerRepository { return workerRepo{s} }
func (s *Store) Invitations() repository.InvitationRepository { return invitationRepo{s} }
func (s *Store) Profiles() repository.ProfileRepository { return profileRepo{s} }
func (s *Store) AuditLog() repository.AuditLogRepository { return auditRepo{s} }
func (s *Store) Plans() repository.PlanRepository { return planRepo{s} }

// SetPlans reemplaza el contenido de la tabla plans (por defecto, el catálogo fijo).
func (s *Store) SetPlans(specs []entity.PlanSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append([]entity.PlanSpec(nil), specs...)
}

// Inspección directa (sin inyección de fallos).

func (s *Store) TenantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tenants)
}

func (s *Store) TenantBySlug(slug string) *entity.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			c := *t
			return &c
		}
	}
	return nil
}

func (s *Store) ModuleCount(tenantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.modules[tenantID])
}

func (s *Store) MembershipsOf(tenantID string) []entity.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Membership
	for _, m := range s.memberships {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out
}

func (s *Store) Membership(id string) *entity.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.memberships[id]; ok {
		c := *m
		return &c
	}
	return nil
}

func (s *Store) Worker(id string) *entity.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.workers[id]; ok {
		c := *w
		return &c
	}
	return nil
}

func (s *Store) InvitationsOf(tenantID string) []entity.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Invitation
	for _, inv := range s.invitations {
		if inv.TenantID == tenantID {
			out = append(out, *inv)
		}
	}
	return out
}

func (s *Store) Profile(userID string) *entity.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		c := *p
		return &c
	}
	return nil
}

func (s *Store) Audit() []entity.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.AuditLogEntry, 0, len(s.audit))
	for _, e := range s.audit {
		out = append(out, *e)
	}
	return out
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

// ---- tenants ----

type tenantRepo struct{ s *Store }

func (r tenantRepo) Create(_ context.Context, t *entity.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("tenants.create"); err != nil {
		return err
	}
	for _, existing := range r.s.tenants {
		if existing.Slug == t.Slug {
			return domain.ErrSlugTaken
		}
	}
	t.ID = newID(t.ID)
	stamp(&t.CreatedAt)
	t.UpdatedAt = t.CreatedAt
	c := *t
	r.s.tenants[t.ID] = &c
	r.s.track(t.ID)
	return nil
}

func (r tenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("tenants.get"); err != nil {
		return nil, err
	}
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r tenantRepo) GetBySlug(_ context.Context, slug string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("tenants.get"); err != nil {
		return nil, err
	}
	for _, t := range r.s.tenants {
		if t.Slug == slug {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (r tenantRepo) AdjustUsers(_ context.Context, tenantID string, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("tenants.adjust"); err != nil {
		return err
	}
	t, ok := r.s.tenants[tenantID]
	if !ok {
		return domain.ErrTenantNotFound
	}
	t.CurrentUsers += delta
	if t.CurrentUsers < 0 {
		t.CurrentUsers = 0
	}
	return nil
}

func (r tenantRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("tenants.delete"); err != nil {
		return err
	}
	delete(r.s.tenants, id)
	return nil
}

func (r tenantRepo) EnableModules(_ context.Context, tenantID string, modules []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("modules.enable"); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, code := range modules {
		r.s.modules[tenantID] = append(r.s.modules[tenantID], &entity.TenantModule{
			ID:         uuid.New().String(),
			TenantID:   tenantID,
			ModuleCode: code,
			Enabled:    true,
			CreatedAt:  now,
		})
	}
	return nil
}

func (r tenantRepo) ListModules(_ context.Context, tenantID string) ([]*entity.TenantModule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.TenantModule, 0, len(r.s.modules[tenantID]))
	for _, m := range r.s.modules[tenantID] {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

func (r tenantRepo) DeleteModules(_ context.Context, tenantID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("modules.delete"); err != nil {
		return err
	}
	delete(r.s.modules, tenantID)
	return nil
}

// ---- memberships ----

type membershipRepo struct{ s *Store }

func (r membershipRepo) Create(_ context.Context, m *entity.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.create"); err != nil {
		return err
	}
	for _, existing := range r.s.memberships {
		if existing.TenantID == m.TenantID && existing.UserID == m.UserID {
			return domain.ErrConflict
		}
		if m.Status == entity.MembershipActive && m.RoleCode == entity.RoleAdmin &&
			existing.TenantID == m.TenantID && existing.RoleCode == entity.RoleAdmin && existing.IsActive() {
			return domain.ErrAdminExists
		}
	}
	m.ID = newID(m.ID)
	stamp(&m.CreatedAt)
	m.UpdatedAt = m.CreatedAt
	c := *m
	r.s.memberships[m.ID] = &c
	r.s.track(m.ID)
	return nil
}

func (r membershipRepo) GetByID(_ context.Context, id string) (*entity.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.get"); err != nil {
		return nil, err
	}
	m, ok := r.s.memberships[id]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (r membershipRepo) GetByTenantAndUser(_ context.Context, tenantID, userID string) (*entity.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.get"); err != nil {
		return nil, err
	}
	for _, m := range r.s.memberships {
		if m.TenantID == tenantID && m.UserID == userID {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r membershipRepo) GetActiveByUser(_ context.Context, userID string) (*entity.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.get"); err != nil {
		return nil, err
	}
	var best *entity.Membership
	for _, m := range r.s.memberships {
		if m.UserID != userID || !m.IsActive() {
			continue
		}
		if best == nil || r.s.order[m.ID] > r.s.order[best.ID] {
			best = m
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

func (r membershipRepo) HasActiveRole(_ context.Context, tenantID string, role entity.Role) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.get"); err != nil {
		return false, err
	}
	for _, m := range r.s.memberships {
		if m.TenantID == tenantID && m.RoleCode == role && m.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r membershipRepo) UpdateRole(_ context.Context, id string, role entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.update"); err != nil {
		return err
	}
	m, ok := r.s.memberships[id]
	if !ok {
		return domain.ErrNotFound
	}
	if role == entity.RoleAdmin && m.IsActive() {
		for _, other := range r.s.memberships {
			if other.ID != id && other.TenantID == m.TenantID && other.RoleCode == entity.RoleAdmin && other.IsActive() {
				return domain.ErrAdminExists
			}
		}
	}
	m.RoleCode = role
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r membershipRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.update"); err != nil {
		return err
	}
	m, ok := r.s.memberships[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status = status
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r membershipRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.delete"); err != nil {
		return err
	}
	delete(r.s.memberships, id)
	return nil
}

func (r membershipRepo) DeleteByTenant(_ context.Context, tenantID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("memberships.delete"); err != nil {
		return err
	}
	for id, m := range r.s.memberships {
		if m.TenantID == tenantID {
			delete(r.s.memberships, id)
		}
	}
	return nil
}

// ---- workers ----

type workerRepo struct{ s *Store }

func (r workerRepo) Create(_ context.Context, w *entity.Worker) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("workers.create"); err != nil {
		return err
	}
	for _, existing := range r.s.workers {
		if existing.TenantID == w.TenantID && existing.DocumentID == w.DocumentID {
			return domain.ErrDuplicateDocument
		}
	}
	w.ID = newID(w.ID)
	stamp(&w.CreatedAt)
	w.UpdatedAt = w.CreatedAt
	c := *w
	r.s.workers[w.ID] = &c
	r.s.track(w.ID)
	return nil
}

func (r workerRepo) GetByID(_ context.Context, id string) (*entity.Worker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("workers.get"); err != nil {
		return nil, err
	}
	w, ok := r.s.workers[id]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (r workerRepo) GetByEmailForUser(_ context.Context, email, userID string) (*entity.Worker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("workers.get"); err != nil {
		return nil, err
	}
	var (
		best      *entity.Worker
		bestAdmin bool
	)
	for _, w := range r.s.workers {
		if w.Email != email || w.MembershipID == nil {
			continue
		}
		m, ok := r.s.memberships[*w.MembershipID]
		if !ok || m.UserID != userID || m.TenantID != w.TenantID || !m.IsActive() {
			continue
		}
		isAdmin := m.RoleCode == entity.RoleAdmin
		switch {
		case best == nil, isAdmin && !bestAdmin:
		case isAdmin == bestAdmin && r.s.order[w.ID] > r.s.order[best.ID]:
		default:
			continue
		}
		best, bestAdmin = w, isAdmin
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

func (r workerRepo) GetByDocument(_ context.Context, tenantID, documentID string) (*entity.Worker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("workers.get"); err != nil {
		return nil, err
	}
	for _, w := range r.s.workers {
		if w.TenantID == tenantID && w.DocumentID == documentID {
			c := *w
			return &c, nil
		}
	}
	return nil, nil
}

func (r workerRepo) ListWithMembership(_ context.Context, tenantID string) ([]*entity.WorkerWithMembership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("workers.list"); err != nil {
		return nil, err
	}
	var rows []*entity.WorkerWithMembership
	for _, w := range r.s.workers {
		if w.TenantID != tenantID {
			continue
		}
		row := &entity.WorkerWithMembership{Worker: *w}
		if w.MembershipID != nil {
			if m, ok := r.s.memberships[*w.MembershipID]; ok {
				c := *m
				row.Membership = &c
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Worker, rows[j].Worker
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.s.order[a.ID] > r.s.order[b.ID]
	})
	return rows, nil
}

func (r workerRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("workers.update"); err != nil {
		return err
	}
	w, ok := r.s.workers[id]
	if !ok {
		return domain.ErrWorkerNotFound
	}
	w.Status = status
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r workerRepo) UpdateAreaModule(_ context.Context, id, areaModule string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("workers.update"); err != nil {
		return err
	}
	w, ok := r.s.workers[id]
	if !ok {
		return domain.ErrWorkerNotFound
	}
	w.AreaModule = areaModule
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- invitations ----

type invitationRepo struct{ s *Store }

func (r invitationRepo) Create(_ context.Context, inv *entity.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("invitations.create"); err != nil {
		return err
	}
	for _, existing := range r.s.invitations {
		if existing.TokenHash == inv.TokenHash {
			return domain.ErrConflict
		}
	}
	inv.ID = newID(inv.ID)
	stamp(&inv.CreatedAt)
	c := *inv
	r.s.invitations[inv.ID] = &c
	r.s.track(inv.ID)
	return nil
}

func (r invitationRepo) GetByID(_ context.Context, id string) (*entity.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("invitations.get"); err != nil {
		return nil, err
	}
	inv, ok := r.s.invitations[id]
	if !ok {
		return nil, nil
	}
	c := *inv
	return &c, nil
}

func (r invitationRepo) FindPending(_ context.Context, tenantID, email string, role entity.Role, now time.Time) (*entity.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("invitations.get"); err != nil {
		return nil, err
	}
	for _, inv := range r.s.invitations {
		if inv.TenantID == tenantID && inv.Email == email && inv.RoleCode == role && inv.IsPending(now) {
			c := *inv
			return &c, nil
		}
	}
	return nil, nil
}

func (r invitationRepo) MarkRevoked(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("invitations.update"); err != nil {
		return err
	}
	inv, ok := r.s.invitations[id]
	if !ok {
		return domain.ErrInvitationNotFound
	}
	if inv.AcceptedAt != nil || inv.RevokedAt != nil {
		return domain.ErrInvitationClosed
	}
	t := at
	inv.RevokedAt = &t
	return nil
}

func (r invitationRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("invitations.delete"); err != nil {
		return err
	}
	delete(r.s.invitations, id)
	return nil
}

// ---- profiles / audit ----

type profileRepo struct{ s *Store }

func (r profileRepo) Upsert(_ context.Context, p *entity.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("profiles.upsert"); err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing, ok := r.s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	c := *p
	r.s.profiles[p.UserID] = &c
	return nil
}

func (r profileRepo) GetByUserID(_ context.Context, userID string) (*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("profiles.get"); err != nil {
		return nil, err
	}
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r profileRepo) GetByEmail(_ context.Context, email string) (*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("profiles.get"); err != nil {
		return nil, err
	}
	for _, p := range r.s.profiles {
		if p.Email == email {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r profileRepo) Delete(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.profiles, userID)
	return nil
}

type planRepo struct{ s *Store }

func (r planRepo) List(_ context.Context) ([]entity.PlanSpec, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("plans.list"); err != nil {
		return nil, err
	}
	return append([]entity.PlanSpec(nil), r.s.plans...), nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Append(_ context.Context, e *entity.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("audit.append"); err != nil {
		return err
	}
	e.ID = newID(e.ID)
	stamp(&e.CreatedAt)
	c := *e
	r.s.audit = append(r.s.audit, &c)
	return nil
}

// RunTenant ejecuta fn con los repos del store; en memoria no hay rollback.
func (s *Store) RunTenant(ctx context.Context, fn func(tenants repository.TenantRepository, memberships repository.MembershipRepository) error) error {
	return fn(s.Tenants(), s.Memberships())
}
