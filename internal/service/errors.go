package service

import (
	"database/sql"
	"errors"
	"fmt"
)

// lookupErr turns a missing row into the given not-found error and adds context to anything else.
func lookupErr(err error, notFound error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
