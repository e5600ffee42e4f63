package migrations

import (
	"context"

	"github.com/poibms/next-meal/internal/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*models.ProcessedEventDB)(nil)).
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*models.ProcessedEventDB)(nil)).
			IfExists().
			Exec(ctx)
		return err
	})
}
