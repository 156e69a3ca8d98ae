package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/seedor-api/internal/domain"
)

// Querier operaciones comunes de *pgxpool.Pool y pgx.Tx; los repos aceptan cualquiera de los dos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// uniqueConstraints constraint/índice único -> error de dominio (ver migrations/001_init.sql).
var uniqueConstraints = map[string]*domain.Error{
	"tenants_slug_key":                    domain.ErrSlugTaken,
	"tenant_memberships_tenant_user_key":  domain.ErrConflict,
	"tenant_memberships_one_active_admin": domain.ErrAdminExists,
	"workers_tenant_document_key":         domain.ErrDuplicateDocument,
	"invitations_token_hash_key":          domain.ErrConflict,
	"profiles_email_key":                  domain.ErrEmailAlreadyExists,
}

// mapUnique traduce una violación de unicidad al centinela de dominio; nil si err no lo es.
func mapUnique(err error) error {
	if err == nil || !isUniqueViolation(err) {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return domain.Wrap(sentinel, err)
		}
	}
	return domain.Wrap(domain.ErrConflict, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
