package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: "23505", ConstraintName: "product_barcodes_code_key"}

	assert.True(t, IsUniqueViolation(uniqueErr, ""))
	assert.True(t, IsUniqueViolation(uniqueErr, "product_barcodes_code_key"))
	assert.False(t, IsUniqueViolation(uniqueErr, "other_constraint"))

	wrapped := fmt.Errorf("insert barcode: %w", uniqueErr)
	assert.True(t, IsUniqueViolation(wrapped, ""))

	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestUserSafeMessage(t *testing.T) {
	assert.Empty(t, UserSafeMessage(nil))
	assert.Equal(t, "The requested record does not exist.", UserSafeMessage(fmt.Errorf("product 9: %w", ErrNotFound)))

	validation := fmt.Errorf("code required: %w", ErrValidation)
	assert.Equal(t, validation.Error(), UserSafeMessage(validation))

	integrity := fmt.Errorf("only barcode: %w", ErrIntegrity)
	assert.Equal(t, integrity.Error(), UserSafeMessage(integrity))

	assert.Equal(t, "Something went wrong. Please try again.", UserSafeMessage(errors.New("pq: disk full")))
}
