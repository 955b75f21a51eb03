package session

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; a mismatched database must be removed before the project can run.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrPartitionNotFound indicates the requested partition label does not exist.
var ErrPartitionNotFound = errors.New("partition not found")

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database for a project.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure session directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

const partitionColumns = "id, label, enabled, start_index, end_index, camera_count, aligned_count, depth_built, model_built, face_count, texture_count, created_at, updated_at"

// AddPartition inserts a partition record and assigns its ID.
func (s *Store) AddPartition(ctx context.Context, p *Partition) error {
	if p == nil {
		return errors.New("partition required")
	}
	if p.Label == "" {
		return errors.New("partition label required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO partitions (
            label, enabled, start_index, end_index, camera_count,
            aligned_count, depth_built, model_built, face_count, texture_count,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Label,
		boolToInt(p.Enabled),
		p.StartIndex,
		p.EndIndex,
		p.CameraCount,
		p.AlignedCount,
		boolToInt(p.DepthBuilt),
		boolToInt(p.ModelBuilt),
		p.FaceCount,
		p.TextureCount,
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert partition %s: %w", p.Label, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// Update persists a partition's mutable fields. This is the checkpoint write
// every mutating stage performs before the pipeline advances.
func (s *Store) Update(ctx context.Context, p *Partition) error {
	if p == nil || p.ID == 0 {
		return errors.New("partition with assigned id required")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE partitions SET
            enabled = ?, start_index = ?, end_index = ?, camera_count = ?,
            aligned_count = ?, depth_built = ?, model_built = ?, face_count = ?,
            texture_count = ?, updated_at = ?
        WHERE id = ?`,
		boolToInt(p.Enabled),
		p.StartIndex,
		p.EndIndex,
		p.CameraCount,
		p.AlignedCount,
		boolToInt(p.DepthBuilt),
		boolToInt(p.ModelBuilt),
		p.FaceCount,
		p.TextureCount,
		now.Format(time.RFC3339Nano),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update partition %s: %w", p.Label, err)
	}
	p.UpdatedAt = now
	return nil
}

// Partitions returns every partition in insertion order.
func (s *Store) Partitions(ctx context.Context) ([]*Partition, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+partitionColumns+" FROM partitions ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("query partitions: %w", err)
	}
	defer rows.Close()

	var partitions []*Partition
	for rows.Next() {
		p, err := scanPartition(rows)
		if err != nil {
			return nil, err
		}
		partitions = append(partitions, p)
	}
	return partitions, rows.Err()
}

// PartitionByLabel fetches a single partition.
func (s *Store) PartitionByLabel(ctx context.Context, label string) (*Partition, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+partitionColumns+" FROM partitions WHERE label = ?", label)
	p, err := scanPartition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPartitionNotFound, label)
	}
	return p, err
}

// RemovePartition deletes a partition record, e.g. the pre-split source
// partition or a transient merged partition after export.
func (s *Store) RemovePartition(ctx context.Context, label string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM partitions WHERE label = ?", label)
	if err != nil {
		return fmt.Errorf("remove partition %s: %w", label, err)
	}
	return nil
}

// Count returns the number of recorded partitions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM partitions").Scan(&count); err != nil {
		return 0, fmt.Errorf("count partitions: %w", err)
	}
	return count, nil
}

func scanPartition(scanner interface{ Scan(dest ...any) error }) (*Partition, error) {
	var (
		p          Partition
		enabled    int64
		depthBuilt int64
		modelBuilt int64
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&p.ID,
		&p.Label,
		&enabled,
		&p.StartIndex,
		&p.EndIndex,
		&p.CameraCount,
		&p.AlignedCount,
		&depthBuilt,
		&modelBuilt,
		&p.FaceCount,
		&p.TextureCount,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan partition: %w", err)
	}
	p.Enabled = enabled != 0
	p.DepthBuilt = depthBuilt != 0
	p.ModelBuilt = modelBuilt != 0
	p.CreatedAt = parseTimestamp(createdRaw)
	p.UpdatedAt = parseTimestamp(updatedRaw)
	return &p, nil
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	return time.Time{}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
