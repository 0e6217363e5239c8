// Package migration creates the ingestion schema on an empty database.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Member and share-token tables belong to the account service; they are
// created here only so a fresh database is usable on its own.
var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  user_id           BIGSERIAL   PRIMARY KEY,
  profile_image_url TEXT,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_token",
		SQL: `CREATE TABLE IF NOT EXISTS token (
  token      TEXT        PRIMARY KEY,
  user_id    BIGINT      NOT NULL REFERENCES users (user_id),
  expires_at TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_table_prescriptions",
		SQL: `CREATE TABLE IF NOT EXISTS prescriptions (
  id           BIGSERIAL   PRIMARY KEY,
  user_id      BIGINT      NOT NULL REFERENCES users (user_id),
  title        TEXT,
  department   TEXT,
  doctor_name  TEXT,
  visited_date TEXT,
  shared       BOOLEAN     NOT NULL DEFAULT FALSE,
  deleted      BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_prescription_images",
		SQL: `CREATE TABLE IF NOT EXISTS prescription_images (
  id              BIGSERIAL   PRIMARY KEY,
  prescription_id BIGINT      NOT NULL REFERENCES prescriptions (id),
  normalized_path TEXT        NOT NULL,
  thumbnail_path  TEXT        NOT NULL,
  fingerprint     TEXT,
  deleted         BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_reports",
		SQL: `CREATE TABLE IF NOT EXISTS reports (
  id              BIGSERIAL   PRIMARY KEY,
  user_id         BIGINT      NOT NULL REFERENCES users (user_id),
  prescription_id BIGINT      REFERENCES prescriptions (id),
  title           TEXT,
  test_name       TEXT,
  delivery_date   TEXT,
  normal_or_not   TEXT,
  shared          BOOLEAN     NOT NULL DEFAULT FALSE,
  deleted         BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_report_images",
		SQL: `CREATE TABLE IF NOT EXISTS report_images (
  id              BIGSERIAL   PRIMARY KEY,
  report_id       BIGINT      NOT NULL REFERENCES reports (id),
  normalized_path TEXT        NOT NULL,
  thumbnail_path  TEXT        NOT NULL,
  fingerprint     TEXT,
  deleted         BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_prescriptions_user_shared",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_prescriptions_user_shared ON prescriptions (user_id) WHERE shared AND NOT deleted;`,
	},
	{
		Name: "create_index_reports_user_shared",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reports_user_shared ON reports (user_id) WHERE shared AND NOT deleted;`,
	},
	{
		Name: "create_index_prescription_images_parent",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_prescription_images_parent ON prescription_images (prescription_id);`,
	},
	{
		Name: "create_index_report_images_parent",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_report_images_parent ON report_images (report_id);`,
	},
}

// sentinel is the last table the steps create. Its presence means the schema
// is complete.
const sentinel = "public.report_images"

// EnsureMigrated runs every step unless the sentinel table already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "database"))
	start := time.Now()

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinel).Scan(&exists)
	if err != nil {
		log.Error("migration check failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}
	if exists {
		log.Info("schema already exists, skipping migration")
		return nil
	}

	log.Info("migration started", zap.Int("steps", len(steps)))
	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Duration("took", time.Since(start)))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Debug("migration step applied",
			zap.String("migration_step", step.Name),
			zap.Duration("step_took", time.Since(stepStart)))
	}

	log.Info("migration finished", zap.Duration("took", time.Since(start)))
	return nil
}
