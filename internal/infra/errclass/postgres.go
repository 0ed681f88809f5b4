package errclass

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// FromPostgres maps PostgreSQL errors from either pgx or lib/pq by SQLSTATE.
func FromPostgres(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return CategoryNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code))
	}
	return ""
}

func fromSQLState(code string) string {
	switch code {
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return CategorySerialization
	case "57014": // query_canceled
		return CategoryTimeout
	case "23505": // unique_violation
		return CategoryConflict
	case "42501": // insufficient_privilege
		return CategoryAccessDenied
	case "42P01", "42883": // undefined_table, undefined_function
		return CategoryNotFound
	case "XX000", "XX001", "XX002":
		return CategoryInternalError
	}

	if len(code) < 2 {
		return ""
	}
	switch class := code[:2]; {
	case class == "53": // insufficient resources
		return CategoryThrottling
	case class == "08", class == "57":
		return CategoryServiceUnavailable
	case class == "28":
		return CategoryAccessDenied
	case class == "22", class == "23", class == "42":
		return CategoryValidationError
	case strings.HasPrefix(code, "XX"):
		return CategoryInternalError
	}
	return ""
}
