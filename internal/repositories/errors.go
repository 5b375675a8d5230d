package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
)

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps driver and gorm errors to domain errors. what names the
// record kind for messages, e.g. "pin".
func translate(err error, what string) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.NotFoundf("%s not found", what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.Wrapf(err, domainerrors.CodeConflict, "%s already exists", what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domainerrors.Wrapf(err, domainerrors.CodeConflict, "%s already exists", what).
				WithDetails(map[string]string{"constraint": pgErr.ConstraintName})
		case pgForeignKeyViolation:
			return domainerrors.Wrapf(err, domainerrors.CodeNotFound, "%s references a missing record", what)
		}
	}

	return domainerrors.Wrapf(err, domainerrors.CodeInternal, "%s query failed", what)
}
