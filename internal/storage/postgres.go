package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shivankMERNPro/MediaSense-AI/internal/vecmath"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// PostgresMigrations contains the PostgreSQL migrations in order
var PostgresMigrations = []Migration{
	{
		Version: "1.0.0",
		Up: `
CREATE TABLE IF NOT EXISTS media (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    original_name TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    file_type TEXT NOT NULL CHECK (file_type IN ('image', 'video', 'document')),
    file_size BIGINT NOT NULL DEFAULT 0,
    file_path TEXT NOT NULL DEFAULT '',
    file_url TEXT NOT NULL DEFAULT '',
    thumbnail_path TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    tags TEXT[] NOT NULL DEFAULT '{}',
    topics TEXT[] NOT NULL DEFAULT '{}',
    embedding DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    status TEXT NOT NULL DEFAULT 'uploading',
    processing_error TEXT NOT NULL DEFAULT '',
    uploaded_at TIMESTAMPTZ NOT NULL,
    analyzed_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_media_owner_uploaded ON media(owner_id, uploaded_at DESC);
`,
		Down: `DROP TABLE IF EXISTS media;`,
	},
	{
		Version: "1.1.0",
		Up: `
CREATE INDEX IF NOT EXISTS idx_media_owner_status ON media(owner_id, status);
CREATE INDEX IF NOT EXISTS idx_media_status ON media(status);
CREATE INDEX IF NOT EXISTS idx_media_tags ON media USING GIN (tags);
CREATE INDEX IF NOT EXISTS idx_media_topics ON media USING GIN (topics);
`,
		Down: `
DROP INDEX IF EXISTS idx_media_topics;
DROP INDEX IF EXISTS idx_media_tags;
DROP INDEX IF EXISTS idx_media_status;
DROP INDEX IF EXISTS idx_media_owner_status;
`,
	},
}

// PostgresStorage implements Storage using PostgreSQL
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to dbURL and migrates the schema
func NewPostgresStorage(ctx context.Context, dbURL string) (*PostgresStorage, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	s := &PostgresStorage{pool: pool}
	if err := s.applyMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return s, nil
}

func (s *PostgresStorage) applyMigrations(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return fmt.Errorf("failed to read schema_version: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to read schema_version: %w", err)
	}

	pending, err := pendingMigrations(applied, PostgresMigrations)
	if err != nil {
		return err
	}

	for _, m := range pending {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, m.Up); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.Version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

const pgMediaColumns = `id, owner_id, filename, original_name, mime_type, file_type, file_size,
	file_path, file_url, thumbnail_path, description, tags, topics, embedding,
	status, processing_error, uploaded_at, analyzed_at, created_at, updated_at`

// pgArgs numbers positional parameters as they are added
type pgArgs []any

func (a *pgArgs) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func scanPgMedia(row pgx.Row) (*types.Media, error) {
	var (
		m                types.Media
		fileType, status string
		embedding        []float64
		analyzedAt       *time.Time
	)

	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Filename, &m.OriginalName, &m.MimeType, &fileType, &m.FileSize,
		&m.FilePath, &m.FileURL, &m.ThumbnailPath, &m.Description, &m.Tags, &m.Topics, &embedding,
		&status, &m.ProcessingError, &m.UploadedAt, &analyzedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.FileType = types.FileType(fileType)
	m.Status = types.Status(status)
	m.Tags = nonNil(m.Tags)
	m.Topics = nonNil(m.Topics)
	m.Embedding = vecmath.Coerce(embedding)
	m.UploadedAt = m.UploadedAt.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	if analyzedAt != nil {
		t := analyzedAt.UTC()
		m.AnalyzedAt = &t
	}
	return &m, nil
}

func (s *PostgresStorage) queryMedia(ctx context.Context, query string, args ...any) ([]*types.Media, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Media
	for rows.Next() {
		m, err := scanPgMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) queryOne(ctx context.Context, query string, args ...any) (*types.Media, error) {
	m, err := scanPgMedia(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// Media operations

func (s *PostgresStorage) CreateMedia(ctx context.Context, m *types.Media) error {
	prepareNew(m, time.Now().UTC())
	if err := m.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `INSERT INTO media (`+pgMediaColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		m.ID, m.OwnerID, m.Filename, m.OriginalName, m.MimeType, string(m.FileType), m.FileSize,
		m.FilePath, m.FileURL, m.ThumbnailPath, m.Description, nonNil(m.Tags), nonNil(m.Topics),
		vecmath.Coerce(m.Embedding), string(m.Status), m.ProcessingError, m.UploadedAt, m.AnalyzedAt,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetMedia(ctx context.Context, ownerID, id string) (*types.Media, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	m, err := s.queryOne(ctx, `SELECT `+pgMediaColumns+` FROM media WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return m, err
}

func (s *PostgresStorage) GetMediaByID(ctx context.Context, id string) (*types.Media, error) {
	m, err := s.queryOne(ctx, `SELECT `+pgMediaColumns+` FROM media WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return m, err
}

func pgListWhere(ownerID string, f ListFilter, args *pgArgs) string {
	where := []string{"owner_id = " + args.add(ownerID)}

	if f.FileType != "" {
		where = append(where, "file_type = "+args.add(string(f.FileType)))
	}
	if len(f.Tags) > 0 {
		where = append(where, "tags && "+args.add(f.Tags)+"::text[]")
	}
	if len(f.Topics) > 0 {
		where = append(where, "topics && "+args.add(f.Topics)+"::text[]")
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		p := args.add(q)
		where = append(where, `(strpos(lower(original_name), `+p+`) > 0
			OR strpos(lower(description), `+p+`) > 0
			OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE strpos(lower(t), `+p+`) > 0)
			OR EXISTS (SELECT 1 FROM unnest(topics) t WHERE strpos(lower(t), `+p+`) > 0))`)
	}
	return strings.Join(where, " AND ")
}

func (s *PostgresStorage) ListMedia(ctx context.Context, ownerID string, filter ListFilter) (*ListResult, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	f := filter.Normalize()

	var args pgArgs
	where := pgListWhere(ownerID, f, &args)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count media: %w", err)
	}

	query := `SELECT ` + pgMediaColumns + ` FROM media WHERE ` + where +
		` ORDER BY uploaded_at DESC, id LIMIT ` + args.add(f.Limit) + ` OFFSET ` + args.add(f.Offset())
	items, err := s.queryMedia(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	return &ListResult{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *PostgresStorage) UpdateMetadata(ctx context.Context, ownerID, id string, update MetadataUpdate) (*types.Media, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	if update.Empty() {
		return s.GetMedia(ctx, ownerID, id)
	}

	var args pgArgs
	var sets []string
	if update.OriginalName != nil {
		sets = append(sets, "original_name = "+args.add(*update.OriginalName))
	}
	if update.Description != nil {
		sets = append(sets, "description = "+args.add(*update.Description))
	}
	if update.Tags != nil {
		sets = append(sets, "tags = "+args.add(nonNil(*update.Tags)))
	}
	if update.Topics != nil {
		sets = append(sets, "topics = "+args.add(nonNil(*update.Topics)))
	}
	sets = append(sets, "updated_at = "+args.add(time.Now().UTC()))

	query := `UPDATE media SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + args.add(id) + ` AND owner_id = ` + args.add(ownerID) +
		` RETURNING ` + pgMediaColumns
	m, err := s.queryOne(ctx, query, args...)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to update media: %w", err)
	}
	return m, err
}

func (s *PostgresStorage) DeleteMedia(ctx context.Context, ownerID, id string) (*types.Media, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	m, err := s.queryOne(ctx,
		`DELETE FROM media WHERE id = $1 AND owner_id = $2 RETURNING `+pgMediaColumns, id, ownerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to delete media: %w", err)
	}
	return m, err
}

// Processing operations

func (s *PostgresStorage) SetStatus(ctx context.Context, id string, status types.Status, processingErr string) error {
	if !status.Valid() {
		return types.ErrInvalidStatus
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE media SET status = $1, processing_error = $2, updated_at = $3 WHERE id = $4`,
		string(status), processingErr, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) SaveAnalysis(ctx context.Context, id string, a Analysis) error {
	if !a.Status.Valid() {
		return types.ErrInvalidStatus
	}
	analyzedAt := a.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE media
		SET description = $1, tags = $2, topics = $3, embedding = $4, status = $5,
		    processing_error = $6, analyzed_at = $7, updated_at = $8
		WHERE id = $9`,
		a.Description, nonNil(a.Tags), nonNil(a.Topics), vecmath.Coerce(a.Embedding), string(a.Status),
		a.ProcessingError, analyzedAt.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) ListByStatus(ctx context.Context, status types.Status, limit int) ([]*types.Media, error) {
	query := `SELECT ` + pgMediaColumns + ` FROM media WHERE status = $1 ORDER BY created_at, id`
	args := []any{string(status)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	items, err := s.queryMedia(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media by status: %w", err)
	}
	return items, nil
}

// Candidate operations

func (s *PostgresStorage) ListReady(ctx context.Context, ownerID string) ([]*types.Media, error) {
	items, err := s.queryMedia(ctx,
		`SELECT `+pgMediaColumns+` FROM media WHERE owner_id = $1 AND status = $2 ORDER BY created_at DESC, id`,
		ownerID, string(types.StatusReady))
	if err != nil {
		return nil, fmt.Errorf("failed to list ready media: %w", err)
	}
	return items, nil
}

func (s *PostgresStorage) KeywordSearch(ctx context.Context, ownerID, query string, limit int) ([]*types.Media, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*types.Media{}, nil
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	items, err := s.queryMedia(ctx, `
		SELECT `+pgMediaColumns+` FROM media
		WHERE owner_id = $1 AND status = $2
		  AND (strpos(lower(description), $3) > 0
		       OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE strpos(lower(t), $3) > 0)
		       OR EXISTS (SELECT 1 FROM unnest(topics) t WHERE strpos(lower(t), $3) > 0))
		ORDER BY created_at DESC, id
		LIMIT $4`,
		ownerID, string(types.StatusReady), q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}
	return items, nil
}

// Status operations

func (s *PostgresStorage) GetStatus(ctx context.Context, ownerID string) (*LibraryStatus, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM media WHERE owner_id = $1 GROUP BY status`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count media by status: %w", err)
	}

	counts := make(map[types.Status]int)
	var status string
	var n int
	_, err = pgx.ForEachRow(rows, []any{&status, &n}, func() error {
		counts[types.Status(status)] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}

	ready, err := s.ListReady(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return buildLibraryStatus(ownerID, counts, ready), nil
}
