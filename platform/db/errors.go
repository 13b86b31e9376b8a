package db

import (
	"errors"

	"estate_crm_backend/platform/apperr"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories translate into domain errors.
const (
	codeUniqueViolation       = "23505"
	codeForeignKeyViolation   = "23503"
	codeCheckViolation        = "23514"
	codeNotNullViolation      = "23502"
	codeInvalidTextRepr       = "22P02"
	codeInsufficientPrivilege = "42501"
)

// MapError translates driver errors into apperr kinds. Errors that carry no
// known SQLSTATE are returned unchanged.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return apperr.Wrap(apperr.KindConflict, entity+" already exists", err).
			WithDetails(map[string]string{"constraint": pgErr.ConstraintName})
	case codeForeignKeyViolation:
		return apperr.Wrap(apperr.KindInvalidReference, entity+" references a missing record", err).
			WithDetails(map[string]string{"constraint": pgErr.ConstraintName})
	case codeInsufficientPrivilege:
		return apperr.Wrap(apperr.KindForbidden, "not authorized to modify "+entity, err)
	case codeCheckViolation, codeNotNullViolation, codeInvalidTextRepr:
		return apperr.Wrap(apperr.KindValidation, "invalid "+entity, err).
			WithDetails(map[string]string{"constraint": pgErr.ConstraintName, "column": pgErr.ColumnName})
	default:
		return err
	}
}
