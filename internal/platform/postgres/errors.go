package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yayaysya/sixu-recall/internal/store"
)

// mapError translates driver-level errors into store sentinels so callers
// never depend on pgx error types.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrDeckNotFound, err)
	}

	return err
}
