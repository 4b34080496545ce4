package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing databases with a different version are rejected.
const schemaVersion = 1

// ErrNotFound reports that a requested record does not exist.
var ErrNotFound = errors.New("catalog: not found")

// ErrSchemaMismatch indicates the database was created by an incompatible
// version.
var ErrSchemaMismatch = errors.New("catalog: schema version mismatch")

// Store provides catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var (
	_ SceneStore   = (*Store)(nil)
	_ ProfileStore = (*Store)(nil)
	_ EntityStore  = (*Store)(nil)
)

// Open connects to the catalog database at path, creating it and its
// parent directory when missing, and verifies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
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

	store := &Store{db: db, path: path}
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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// UpsertEntity inserts or replaces a tracked entity.
func (s *Store) UpsertEntity(ctx context.Context, entity Entity) error {
	aliases, err := json.Marshal(entity.Aliases)
	if err != nil {
		return fmt.Errorf("marshal aliases: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (id, type, name, aliases_json) VALUES (?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET type=excluded.type, name=excluded.name, aliases_json=excluded.aliases_json`,
		entity.ID, entity.Type, entity.Name, string(aliases))
	if err != nil {
		return fmt.Errorf("upsert entity %s: %w", entity.ID, err)
	}
	return nil
}

// Entity loads a tracked entity by ID.
func (s *Store) Entity(ctx context.Context, id string) (*Entity, error) {
	var entity Entity
	var aliasesJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, type, name, aliases_json FROM entities WHERE id = ?", id,
	).Scan(&entity.ID, &entity.Type, &entity.Name, &aliasesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load entity %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(aliasesJSON), &entity.Aliases); err != nil {
		return nil, fmt.Errorf("decode aliases for entity %s: %w", id, err)
	}
	return &entity, nil
}

// SaveScene inserts or replaces a scene and links it to the given
// entities, replacing any previous links.
func (s *Store) SaveScene(ctx context.Context, scene Scene, entityRefs ...Entity) error {
	performerIDs, err := json.Marshal(scene.PerformerIDs)
	if err != nil {
		return fmt.Errorf("marshal performer ids: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scene tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scenes (id, title, release_date, studio_id, performer_ids_json) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET title=excluded.title, release_date=excluded.release_date,
             studio_id=excluded.studio_id, performer_ids_json=excluded.performer_ids_json`,
		scene.ID, scene.Title, nullableString(scene.Date), nullableString(scene.StudioID), string(performerIDs))
	if err != nil {
		return fmt.Errorf("upsert scene %s: %w", scene.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM scene_entities WHERE scene_id = ?", scene.ID); err != nil {
		return fmt.Errorf("clear scene links %s: %w", scene.ID, err)
	}
	for _, ref := range entityRefs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO scene_entities (scene_id, entity_type, entity_id) VALUES (?, ?, ?)",
			scene.ID, ref.Type, ref.ID)
		if err != nil {
			return fmt.Errorf("link scene %s to %s/%s: %w", scene.ID, ref.Type, ref.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scene tx: %w", err)
	}
	return nil
}

// KnownScenes returns one page of scenes linked to the entity, ordered by
// scene ID for reproducible runs.
func (s *Store) KnownScenes(ctx context.Context, entityType, entityID string, limit, offset int) ([]Scene, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sc.id, sc.title, COALESCE(sc.release_date, ''), COALESCE(sc.studio_id, ''), sc.performer_ids_json
         FROM scenes sc
         JOIN scene_entities se ON se.scene_id = sc.id
         WHERE se.entity_type = ? AND se.entity_id = ?
         ORDER BY sc.id
         LIMIT ? OFFSET ?`,
		entityType, entityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query known scenes for %s/%s: %w", entityType, entityID, err)
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		var scene Scene
		var performersJSON string
		if err := rows.Scan(&scene.ID, &scene.Title, &scene.Date, &scene.StudioID, &performersJSON); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		if err := json.Unmarshal([]byte(performersJSON), &scene.PerformerIDs); err != nil {
			return nil, fmt.Errorf("decode performer ids for scene %s: %w", scene.ID, err)
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate known scenes: %w", err)
	}
	return scenes, nil
}

// SaveProfile inserts or replaces a quality profile and its ordered items.
func (s *Store) SaveProfile(ctx context.Context, profile QualityProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quality_profiles (id, name) VALUES (?, ?)
         ON CONFLICT(id) DO UPDATE SET name=excluded.name`,
		profile.ID, profile.Name)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", profile.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM quality_profile_items WHERE profile_id = ?", profile.ID); err != nil {
		return fmt.Errorf("clear profile items %s: %w", profile.ID, err)
	}
	for position, item := range profile.Items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quality_profile_items (profile_id, position, quality, source, min_seeders, max_size_gb)
             VALUES (?, ?, ?, ?, ?, ?)`,
			profile.ID, position, item.Quality, item.Source, item.MinSeeders, item.MaxSizeGB)
		if err != nil {
			return fmt.Errorf("insert profile item %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile tx: %w", err)
	}
	return nil
}

// Profile loads a quality profile and its items in preference order.
// Returns ErrNotFound when the profile does not exist.
func (s *Store) Profile(ctx context.Context, id string) (*QualityProfile, error) {
	var profile QualityProfile
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM quality_profiles WHERE id = ?", id,
	).Scan(&profile.ID, &profile.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT quality, source, min_seeders, max_size_gb
         FROM quality_profile_items WHERE profile_id = ? ORDER BY position`,
		id)
	if err != nil {
		return nil, fmt.Errorf("query profile items %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item QualityProfileItem
		if err := rows.Scan(&item.Quality, &item.Source, &item.MinSeeders, &item.MaxSizeGB); err != nil {
			return nil, fmt.Errorf("scan profile item: %w", err)
		}
		profile.Items = append(profile.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile items: %w", err)
	}
	return &profile, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
