package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates a missing product, template or business.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates rejected input (bad price, unknown SKU format).
	ErrValidation = errors.New("validation failed")
	// ErrIntegrity indicates a state-protecting rule stopped the mutation,
	// e.g. removing a product's only barcode or losing a unique-index race.
	ErrIntegrity = errors.New("integrity violation")
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint failure,
// optionally restricted to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// UserSafeMessage maps an error to a message that can be shown to the
// caller without leaking internals.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record does not exist."
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrIntegrity):
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
