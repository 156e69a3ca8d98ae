package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/internal/domain/entity"
	"github.com/jhoicas/seedor-api/internal/domain/repository"
)

var _ repository.WorkerRepository = (*WorkerRepo)(nil)

// WorkerRepo implementación del puerto WorkerRepository sobre PostgreSQL.
type WorkerRepo struct {
	q Querier
}

// NewWorkerRepository construye el adaptador. Acepta pool o tx (Querier).
func NewWorkerRepository(q Querier) *WorkerRepo {
	return &WorkerRepo{q: q}
}

const workerColumns = `id, tenant_id, membership_id, full_name, document_id, email, phone,
	area_module, status, created_at, updated_at`

func scanWorker(row interface{ Scan(...any) error }) (*entity.Worker, error) {
	var w entity.Worker
	if err := row.Scan(&w.ID, &w.TenantID, &w.MembershipID, &w.FullName, &w.DocumentID,
		&w.Email, &w.Phone, &w.AreaModule, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// Create persiste un trabajador. Documento repetido en el tenant -> domain.ErrDuplicateDocument.
func (r *WorkerRepo) Create(ctx context.Context, w *entity.Worker) error {
	query := `
		INSERT INTO workers (` + workerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		w.ID, w.TenantID, w.MembershipID, w.FullName, w.DocumentID, w.Email, w.Phone,
		w.AreaModule, w.Status, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUnique(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

func (r *WorkerRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Worker, error) {
	w, err := scanWorker(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get worker: %w", err)
	}
	return w, nil
}

// GetByID obtiene un trabajador por ID.
func (r *WorkerRepo) GetByID(ctx context.Context, id string) (*entity.Worker, error) {
	return r.getOne(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, id)
}

// GetByEmailForUser trabajador con ese email cuya membresía activa pertenece a userID.
// Un trabajador de otro tenant con el mismo email no participa.
func (r *WorkerRepo) GetByEmailForUser(ctx context.Context, email, userID string) (*entity.Worker, error) {
	return r.getOne(ctx, `
		SELECT w.id, w.tenant_id, w.membership_id, w.full_name, w.document_id, w.email, w.phone,
		       w.area_module, w.status, w.created_at, w.updated_at
		FROM workers w
		JOIN tenant_memberships m ON m.id = w.membership_id AND m.tenant_id = w.tenant_id
		WHERE w.email = $1 AND m.user_id = $2 AND m.status = 'active'
		ORDER BY (m.role_code = 'admin') DESC, w.created_at DESC
		LIMIT 1`, email, userID)
}

// GetByDocument trabajador del tenant con ese documento.
func (r *WorkerRepo) GetByDocument(ctx context.Context, tenantID, documentID string) (*entity.Worker, error) {
	return r.getOne(ctx, `
		SELECT `+workerColumns+`
		FROM workers WHERE tenant_id = $1 AND document_id = $2`, tenantID, documentID)
}

// ListWithMembership trabajadores del tenant con su membresía, más recientes primero.
func (r *WorkerRepo) ListWithMembership(ctx context.Context, tenantID string) ([]*entity.WorkerWithMembership, error) {
	rows, err := r.q.Query(ctx, `
		SELECT w.id, w.tenant_id, w.membership_id, w.full_name, w.document_id, w.email, w.phone,
		       w.area_module, w.status, w.created_at, w.updated_at,
		       m.id, m.tenant_id, m.user_id, m.role_code, m.status, m.invited_by, m.accepted_at,
		       m.created_at, m.updated_at
		FROM workers w
		LEFT JOIN tenant_memberships m ON m.id = w.membership_id
		WHERE w.tenant_id = $1
		ORDER BY w.created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var list []*entity.WorkerWithMembership
	for rows.Next() {
		var (
			row                                 entity.WorkerWithMembership
			mID, mTenant, mUser, mRole, mStatus *string
			mInvitedBy                          *string
			mAccepted, mCreatedAt, mUpdatedAt   *time.Time
		)
		w := &row.Worker
		if err := rows.Scan(
			&w.ID, &w.TenantID, &w.MembershipID, &w.FullName, &w.DocumentID, &w.Email, &w.Phone,
			&w.AreaModule, &w.Status, &w.CreatedAt, &w.UpdatedAt,
			&mID, &mTenant, &mUser, &mRole, &mStatus, &mInvitedBy, &mAccepted,
			&mCreatedAt, &mUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		if mID != nil {
			row.Membership = &entity.Membership{
				ID:         *mID,
				TenantID:   deref(mTenant),
				UserID:     deref(mUser),
				RoleCode:   entity.Role(deref(mRole)),
				Status:     deref(mStatus),
				InvitedBy:  mInvitedBy,
				AcceptedAt: mAccepted,
				CreatedAt:  derefTime(mCreatedAt),
				UpdatedAt:  derefTime(mUpdatedAt),
			}
		}
		list = append(list, &row)
	}
	return list, rows.Err()
}

func (r *WorkerRepo) update(ctx context.Context, query, id, value string) error {
	tag, err := r.q.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("update worker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkerNotFound
	}
	return nil
}

// UpdateStatus cambia el estado (baja lógica).
func (r *WorkerRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.update(ctx, `UPDATE workers SET status = $2, updated_at = now() WHERE id = $1`, id, status)
}

// UpdateAreaModule cambia el área (espejo del rol).
func (r *WorkerRepo) UpdateAreaModule(ctx context.Context, id, areaModule string) error {
	return r.update(ctx, `UPDATE workers SET area_module = $2, updated_at = now() WHERE id = $1`, id, areaModule)
}
