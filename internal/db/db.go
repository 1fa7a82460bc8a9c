package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"facility-booking-backend/config"
	"facility-booking-backend/internal/model"
)

// Init opens the configured database, runs migrations and optionally seeds it.
func Init(ctx context.Context, cfg *config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Info().Str("driver", cfg.Driver).Msg("running database migrations")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.EnableExclusionConstraint {
		if cfg.Driver != "postgres" {
			log.Warn().Msg("exclusion constraint requires postgres; skipping")
		} else if err := applyExclusionConstraint(db); err != nil {
			log.Warn().Err(err).Msg("failed to apply booking exclusion constraint; relying on admission locks")
		}
	}

	if cfg.Seed {
		if err := Seed(ctx, db); err != nil {
			return nil, fmt.Errorf("seed failed: %w", err)
		}
		log.Info().Msg("seed data ensured")
	}

	log.Info().Msg("database initialization complete")
	return db, nil
}

// Dialector selects the gorm driver for cfg.Driver.
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite", "":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Facility{},
		&model.User{},
		&model.Booking{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// applyExclusionConstraint makes postgres itself reject overlapping live bookings
// for one facility. Statements are idempotent.
func applyExclusionConstraint(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"DO $$ BEGIN " +
			"ALTER TABLE bookings ADD CONSTRAINT bookings_window_valid CHECK (start_time < end_time); " +
			"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",

		"DO $$ BEGIN " +
			"ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap EXCLUDE USING GIST " +
			"(facility_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&) " +
			"WHERE (status NOT IN ('REJECTED', 'COMPLETED')); " +
			"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
