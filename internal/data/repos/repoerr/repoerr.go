// Package repoerr maps storage failures onto a small set of sentinels.
package repoerr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("unique conflict")
	ErrRetryable = errors.New("retryable storage failure")
)

// MapError wraps err with the matching sentinel. Unknown failures are wrapped with op only.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrRetryable) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return fmt.Errorf("%s: %w: %v", op, ErrConflict, err) // unique_violation
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%s: %w: %v", op, ErrRetryable, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint failed"):
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "deadlock"):
		return fmt.Errorf("%s: %w: %v", op, ErrRetryable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
