package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                TEXT        PRIMARY KEY,
  title             TEXT        NOT NULL,
  description       TEXT        NOT NULL,
  summary           TEXT        NOT NULL DEFAULT '',
  category          TEXT        NOT NULL,
  tags              JSONB       NOT NULL DEFAULT '[]',
  keywords          JSONB       NOT NULL DEFAULT '[]',
  priority          TEXT        NOT NULL DEFAULT 'normal',
  language          TEXT        NOT NULL DEFAULT 'fr',
  cme_credits       INTEGER     NOT NULL DEFAULT 0 CHECK (cme_credits >= 0),
  original_filename TEXT        NOT NULL,
  stored_filename   TEXT        NOT NULL,
  content_type      TEXT        NOT NULL,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  storage_path      TEXT        NOT NULL UNIQUE,
  download_url      TEXT        NOT NULL DEFAULT '',
  version           INTEGER     NOT NULL DEFAULT 1 CHECK (version >= 1),
  is_public         BOOLEAN     NOT NULL DEFAULT false,
  allowed_roles     JSONB       NOT NULL DEFAULT '[]',
  requires_approval BOOLEAN     NOT NULL DEFAULT true,
  embargo_until     TIMESTAMPTZ,
  expires_at        TIMESTAMPTZ,
  status            TEXT        NOT NULL DEFAULT 'draft',
  created_by        TEXT        NOT NULL,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_by        TEXT        NOT NULL DEFAULT '',
  updated_at        TIMESTAMPTZ,
  approved_by       TEXT        NOT NULL DEFAULT '',
  approved_at       TIMESTAMPTZ,
  view_count        BIGINT      NOT NULL DEFAULT 0 CHECK (view_count >= 0),
  download_count    BIGINT      NOT NULL DEFAULT 0 CHECK (download_count >= 0),
  rating_sum        BIGINT      NOT NULL DEFAULT 0 CHECK (rating_sum >= 0),
  rating_count      BIGINT      NOT NULL DEFAULT 0 CHECK (rating_count >= 0)
);`,
	},
	{
		Name: "create_index_documents_category",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_category ON documents (category);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_index_documents_created_by",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_by ON documents (created_by);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at DESC);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
