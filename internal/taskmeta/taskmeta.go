// Package taskmeta persists task metadata (assemblies and parameter
// lists) in a sqlite cache so completion and hover work without
// rescanning toolchain assemblies on every request.
package taskmeta

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = fmt.Errorf("task does not exist in cache")

const schemaVersion = 1

// TaskRecord describes one known task.
type TaskRecord struct {
	Name       string
	Assembly   string
	Parameters map[string]string // parameter name -> type name
	ScannedAt  int64
}

// Store is a sqlite-backed task metadata cache. The cache is
// disposable: a corrupt or stale file is deleted and rebuilt.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache at path. An unreadable cache is
// removed and recreated rather than reported as an error.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		// The cache holds nothing authoritative. Start over.
		os.Remove(path)
		db, err = openDB(path)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild task cache: %w", err)
		}
	}
	s := &Store{db: db, path: path}
	if err := s.seedBuiltins(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`
        PRAGMA foreign_keys = ON;
        PRAGMA journal_mode = WAL;
    `); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            name TEXT PRIMARY KEY COLLATE NOCASE,
            assembly TEXT NOT NULL,
            parameters TEXT NOT NULL,
            scanned_at INTEGER NOT NULL
        )`,
	}
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %q: %w", query, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return tx.Commit()
}

// Upsert inserts or replaces the record for its task name.
func (s *Store) Upsert(rec *TaskRecord) error {
	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	_, err = s.db.Exec(`
        INSERT INTO tasks (name, assembly, parameters, scanned_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            assembly = excluded.assembly,
            parameters = excluded.parameters,
            scanned_at = excluded.scanned_at
    `, rec.Name, rec.Assembly, string(params), rec.ScannedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

// Get looks a task up by name, case-insensitively.
func (s *Store) Get(name string) (*TaskRecord, error) {
	var rec TaskRecord
	var params string
	err := s.db.QueryRow(
		"SELECT name, assembly, parameters, scanned_at FROM tasks WHERE name = ?",
		name,
	).Scan(&rec.Name, &rec.Assembly, &params, &rec.ScannedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	if err := json.Unmarshal([]byte(params), &rec.Parameters); err != nil {
		return nil, fmt.Errorf("failed to decode parameters for %s: %w", rec.Name, err)
	}
	return &rec, nil
}

// All returns every cached task, ordered by name.
func (s *Store) All() ([]TaskRecord, error) {
	rows, err := s.db.Query(
		"SELECT name, assembly, parameters, scanned_at FROM tasks ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		var params string
		if err := rows.Scan(&rec.Name, &rec.Assembly, &params, &rec.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task record: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &rec.Parameters); err != nil {
			return nil, fmt.Errorf("failed to decode parameters for %s: %w", rec.Name, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task records: %w", err)
	}

	return records, nil
}

// Delete removes a task record. Deleting an unknown name is a no-op.
func (s *Store) Delete(name string) error {
	if _, err := s.db.Exec("DELETE FROM tasks WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// seedBuiltins makes sure the tasks shipped with the build engine are
// always present, so completion is useful before any assembly scan.
func (s *Store) seedBuiltins() error {
	for _, b := range builtinTasks {
		existing, err := s.Get(b.Name)
		if err == nil && existing.ScannedAt >= b.ScannedAt {
			continue
		}
		if err != nil && err != ErrNotFound {
			return err
		}
		if err := s.Upsert(&b); err != nil {
			return err
		}
	}
	return nil
}

var builtinTasks = []TaskRecord{
	{Name: "Copy", Assembly: "(builtin)", Parameters: map[string]string{
		"SourceFiles": "ITaskItem[]", "DestinationFolder": "ITaskItem", "DestinationFiles": "ITaskItem[]", "SkipUnchangedFiles": "bool",
	}},
	{Name: "Delete", Assembly: "(builtin)", Parameters: map[string]string{
		"Files": "ITaskItem[]", "TreatErrorsAsWarnings": "bool",
	}},
	{Name: "Exec", Assembly: "(builtin)", Parameters: map[string]string{
		"Command": "string", "WorkingDirectory": "string", "IgnoreExitCode": "bool",
	}},
	{Name: "MakeDir", Assembly: "(builtin)", Parameters: map[string]string{
		"Directories": "ITaskItem[]",
	}},
	{Name: "Message", Assembly: "(builtin)", Parameters: map[string]string{
		"Text": "string", "Importance": "string",
	}},
	{Name: "Error", Assembly: "(builtin)", Parameters: map[string]string{
		"Text": "string", "Code": "string",
	}},
	{Name: "Warning", Assembly: "(builtin)", Parameters: map[string]string{
		"Text": "string", "Code": "string",
	}},
	{Name: "RemoveDir", Assembly: "(builtin)", Parameters: map[string]string{
		"Directories": "ITaskItem[]",
	}},
	{Name: "Csc", Assembly: "(builtin)", Parameters: map[string]string{
		"Sources": "ITaskItem[]", "References": "ITaskItem[]", "OutputAssembly": "ITaskItem", "TargetType": "string",
	}},
	{Name: "MSBuild", Assembly: "(builtin)", Parameters: map[string]string{
		"Projects": "ITaskItem[]", "Targets": "string", "Properties": "string",
	}},
}
