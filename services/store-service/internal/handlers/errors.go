package handlers

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

func storageNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
