package persistence

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stockledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the store reacts to
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// translateError maps driver and GORM errors onto the domain taxonomy.
// resource and id name the row for NOT_FOUND messages.
func translateError(err error, resource string, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource, id)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("%s already exists", resource))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.NewDomainError(shared.CodeAlreadyExists,
				fmt.Sprintf("%s already exists (%s)", resource, pgErr.ConstraintName))
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s", shared.ErrConcurrencyConflict, pgErr.Message)
		}
	}
	return fmt.Errorf("%s %s: %w", resource, id, err)
}

// translateTxError surfaces lock and serialization failures raised at any
// point of a transaction, including COMMIT, as CONCURRENCY_CONFLICT.
func translateTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s", shared.ErrConcurrencyConflict, pgErr.Message)
		}
	}
	return err
}
