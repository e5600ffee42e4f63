package migrations

import (
	"context"
	"fmt"

	"github.com/poibms/next-meal/internal/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().
			Model((*models.ProfileDB)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create profiles: %w", err)
		}
		_, err := db.NewCreateIndex().
			Model((*models.ProfileDB)(nil)).
			Index("idx_profiles_email").
			Column("email").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*models.ProfileDB)(nil)).
			IfExists().
			Exec(ctx)
		return err
	})
}
