package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		// Create schema_version table first
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}

		// Create all application tables
		if err := createRunsTable(tx); err != nil {
			return err
		}
		if err := createFilesTable(tx); err != nil {
			return err
		}
		if err := createAxiomsTable(tx); err != nil {
			return err
		}
		if err := createCallsTable(tx); err != nil {
			return err
		}

		// Set initial schema version
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Cache schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})

		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Cache schema is up to date", map[string]interface{}{
			"version": version,
		})
		return nil
	}

	// A zero version means the tables were never created (for example an
	// empty database file left behind by an interrupted run).
	if version == 0 {
		return db.initializeSchema()
	}

	db.logger.Info("Running cache migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Run migrations sequentially as the schema evolves.
	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	// Check if schema_version table exists
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		// Table doesn't exist, this is a new database
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createRunsTable creates the runs table. One row per extraction run.
func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			tool_version TEXT NOT NULL,
			files_processed INTEGER NOT NULL DEFAULT 0,
			axioms_extracted INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// createFilesTable creates the files table. One row per source file; a
// re-extraction of the same path replaces the row.
func createFilesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			run_id TEXT NOT NULL,
			extracted_at TEXT NOT NULL,
			axiom_count INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_files_content_hash ON files(content_hash)",
		"CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createAxiomsTable creates the axioms table. Queryable columns are
// duplicated out of the record JSON; the JSON column holds the full wire
// record so query results round-trip exactly.
func createAxiomsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS axioms (
			axiom_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			function TEXT NOT NULL,
			header TEXT NOT NULL,
			axiom_type TEXT NOT NULL,
			source_type TEXT NOT NULL,
			confidence REAL NOT NULL CHECK(confidence >= 0.0 AND confidence <= 1.0),
			line INTEGER NOT NULL,
			record_json TEXT NOT NULL,
			FOREIGN KEY (file_path) REFERENCES files(path) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create axioms table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_axioms_file_path ON axioms(file_path)",
		"CREATE INDEX IF NOT EXISTS idx_axioms_function ON axioms(function)",
		"CREATE INDEX IF NOT EXISTS idx_axioms_axiom_type ON axioms(axiom_type)",
		"CREATE INDEX IF NOT EXISTS idx_axioms_header ON axioms(header)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createCallsTable creates the calls table holding call-graph edges.
func createCallsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS calls (
			file_path TEXT NOT NULL,
			caller TEXT NOT NULL,
			callee TEXT NOT NULL,
			callee_signature TEXT,
			line INTEGER NOT NULL,
			is_virtual INTEGER NOT NULL DEFAULT 0,
			record_json TEXT NOT NULL,
			FOREIGN KEY (file_path) REFERENCES files(path) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create calls table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_calls_file_path ON calls(file_path)",
		"CREATE INDEX IF NOT EXISTS idx_calls_caller ON calls(caller)",
		"CREATE INDEX IF NOT EXISTS idx_calls_callee ON calls(callee)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
