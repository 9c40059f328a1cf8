//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/tireline/tireline/libs/db"
	"github.com/tireline/tireline/services/store-service/internal/storage"
)

func startGrpcServer(_ context.Context, _ *slog.Logger, _ *db.Pool, _ *storage.Repository) error {
	return nil
}
