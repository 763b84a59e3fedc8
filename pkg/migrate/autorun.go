package migrate

import (
	"context"
	"fmt"

	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/db"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot in dev environments when
// DOCUFLOW_DB_AUTO_MIGRATE is set. Production deploys run cmd/migrate
// explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || client == nil {
		return fmt.Errorf("config and db client are required")
	}
	if !cfg.DB.AutoMigrate {
		return nil
	}
	if !cfg.App.IsDev() {
		if logg != nil {
			logg.Warn(ctx, "auto-migrate requested outside dev, skipping")
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("get sql db handle: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "running dev auto-migrations")
	}
	return Run(ctx, sqlDB, DefaultDir, "up")
}
