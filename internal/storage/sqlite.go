package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/shivankMERNPro/MediaSense-AI/internal/vecmath"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// ErrNotFound is returned when a requested media item doesn't exist or
// belongs to another owner
var ErrNotFound = types.ErrNotFound

// SQLiteStorage implements Storage using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single connection: one writer, and ":memory:" stays one database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens (or creates) the database at dbPath and migrates it
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const sqliteMediaColumns = `id, owner_id, filename, original_name, mime_type, file_type, file_size,
	file_path, file_url, thumbnail_path, description, tags, topics, embedding,
	status, processing_error, uploaded_at, analyzed_at, created_at, updated_at`

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func encodeStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeStrings tolerates malformed column values by returning an empty list
func decodeStrings(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func scanSQLiteMedia(row rowScanner) (*types.Media, error) {
	var (
		m                                types.Media
		fileType, status                 string
		tags, topics, embedding          string
		uploadedAt, createdAt, updatedAt int64
		analyzedAt                       sql.NullInt64
	)

	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Filename, &m.OriginalName, &m.MimeType, &fileType, &m.FileSize,
		&m.FilePath, &m.FileURL, &m.ThumbnailPath, &m.Description, &tags, &topics, &embedding,
		&status, &m.ProcessingError, &uploadedAt, &analyzedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.FileType = types.FileType(fileType)
	m.Status = types.Status(status)
	m.Tags = decodeStrings(tags)
	m.Topics = decodeStrings(topics)
	m.Embedding = vecmath.ParseJSON([]byte(embedding))
	m.UploadedAt = fromNanos(uploadedAt)
	m.CreatedAt = fromNanos(createdAt)
	m.UpdatedAt = fromNanos(updatedAt)
	if analyzedAt.Valid {
		t := fromNanos(analyzedAt.Int64)
		m.AnalyzedAt = &t
	}
	return &m, nil
}

func scanSQLiteMediaRows(rows *sql.Rows) ([]*types.Media, error) {
	defer func() {
		_ = rows.Close()
	}()

	var out []*types.Media
	for rows.Next() {
		m, err := scanSQLiteMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// prepareNew fills defaults on a record about to be inserted
func prepareNew(m *types.Media, now time.Time) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = types.StatusUploading
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = now
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Topics == nil {
		m.Topics = []string{}
	}
}

// Media operations

func (s *SQLiteStorage) CreateMedia(ctx context.Context, m *types.Media) error {
	prepareNew(m, time.Now().UTC())
	if err := m.Validate(); err != nil {
		return err
	}

	tags, err := encodeStrings(m.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	topics, err := encodeStrings(m.Topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}
	embedding, err := vecmath.MarshalJSON(m.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	var analyzedAt sql.NullInt64
	if m.AnalyzedAt != nil {
		analyzedAt = sql.NullInt64{Int64: toNanos(*m.AnalyzedAt), Valid: true}
	}

	query := `INSERT INTO media (` + sqliteMediaColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Filename, m.OriginalName, m.MimeType, string(m.FileType), m.FileSize,
		m.FilePath, m.FileURL, m.ThumbnailPath, m.Description, tags, topics, string(embedding),
		string(m.Status), m.ProcessingError, toNanos(m.UploadedAt), analyzedAt,
		toNanos(m.CreatedAt), toNanos(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

// getMediaWithQuerier loads one record; ownerID "" skips the owner check
func (s *SQLiteStorage) getMediaWithQuerier(ctx context.Context, q querier, ownerID, id string) (*types.Media, error) {
	query := `SELECT ` + sqliteMediaColumns + ` FROM media WHERE id = ?`
	args := []any{id}
	if ownerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, ownerID)
	}

	m, err := scanSQLiteMedia(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return m, nil
}

func (s *SQLiteStorage) GetMedia(ctx context.Context, ownerID, id string) (*types.Media, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	return s.getMediaWithQuerier(ctx, s.db, ownerID, id)
}

func (s *SQLiteStorage) GetMediaByID(ctx context.Context, id string) (*types.Media, error) {
	return s.getMediaWithQuerier(ctx, s.db, "", id)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// sqliteListWhere builds the WHERE clause shared by ListMedia's count and page queries
func sqliteListWhere(ownerID string, f ListFilter) (string, []any) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}

	if f.FileType != "" {
		where = append(where, "file_type = ?")
		args = append(args, string(f.FileType))
	}
	if len(f.Tags) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(media.tags) WHERE json_each.value IN ("+placeholders(len(f.Tags))+"))")
		for _, t := range f.Tags {
			args = append(args, t)
		}
	}
	if len(f.Topics) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(media.topics) WHERE json_each.value IN ("+placeholders(len(f.Topics))+"))")
		for _, t := range f.Topics {
			args = append(args, t)
		}
	}

	return strings.Join(where, " AND "), args
}

func (s *SQLiteStorage) ListMedia(ctx context.Context, ownerID string, filter ListFilter) (*ListResult, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	f := filter.Normalize()
	where, args := sqliteListWhere(ownerID, f)

	// SQLite's lower() folds ASCII only, so text queries are matched in Go
	if q := foldQuery(f.Query); q != "" {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+sqliteMediaColumns+` FROM media WHERE `+where+` ORDER BY uploaded_at DESC, id`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to list media: %w", err)
		}
		items, err := scanSQLiteMediaRows(rows)
		if err != nil {
			return nil, err
		}
		return pageOf(filterMedia(items, q, matchesListQuery), f), nil
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count media: %w", err)
	}

	query := `SELECT ` + sqliteMediaColumns + ` FROM media WHERE ` + where +
		` ORDER BY uploaded_at DESC, id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	items, err := scanSQLiteMediaRows(rows)
	if err != nil {
		return nil, err
	}

	return &ListResult{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *SQLiteStorage) UpdateMetadata(ctx context.Context, ownerID, id string, update MetadataUpdate) (*types.Media, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	if update.Empty() {
		return s.GetMedia(ctx, ownerID, id)
	}

	var sets []string
	var args []any
	if update.OriginalName != nil {
		sets = append(sets, "original_name = ?")
		args = append(args, *update.OriginalName)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Tags != nil {
		enc, err := encodeStrings(*update.Tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}
		sets = append(sets, "tags = ?")
		args = append(args, enc)
	}
	if update.Topics != nil {
		enc, err := encodeStrings(*update.Topics)
		if err != nil {
			return nil, fmt.Errorf("failed to encode topics: %w", err)
		}
		sets = append(sets, "topics = ?")
		args = append(args, enc)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toNanos(time.Now()), id, ownerID)

	query := `UPDATE media SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND owner_id = ?`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update media: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	return s.GetMedia(ctx, ownerID, id)
}

func (s *SQLiteStorage) DeleteMedia(ctx context.Context, ownerID, id string) (*types.Media, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	m, err := s.getMediaWithQuerier(ctx, tx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM media WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return nil, fmt.Errorf("failed to delete media: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return m, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Processing operations

func (s *SQLiteStorage) SetStatus(ctx context.Context, id string, status types.Status, processingErr string) error {
	if !status.Valid() {
		return types.ErrInvalidStatus
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE media SET status = ?, processing_error = ?, updated_at = ? WHERE id = ?`,
		string(status), processingErr, toNanos(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, id string, a Analysis) error {
	if !a.Status.Valid() {
		return types.ErrInvalidStatus
	}

	tags, err := encodeStrings(a.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	topics, err := encodeStrings(a.Topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}
	embedding, err := vecmath.MarshalJSON(a.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	analyzedAt := a.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE media
		SET description = ?, tags = ?, topics = ?, embedding = ?, status = ?,
		    processing_error = ?, analyzed_at = ?, updated_at = ?
		WHERE id = ?`,
		a.Description, tags, topics, string(embedding), string(a.Status),
		a.ProcessingError, toNanos(analyzedAt), toNanos(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStorage) ListByStatus(ctx context.Context, status types.Status, limit int) ([]*types.Media, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteMediaColumns+` FROM media WHERE status = ? ORDER BY created_at, id LIMIT ?`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list media by status: %w", err)
	}
	return scanSQLiteMediaRows(rows)
}

// Candidate operations

func (s *SQLiteStorage) ListReady(ctx context.Context, ownerID string) ([]*types.Media, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteMediaColumns+` FROM media WHERE owner_id = ? AND status = ? ORDER BY created_at DESC, id`,
		ownerID, string(types.StatusReady))
	if err != nil {
		return nil, fmt.Errorf("failed to list ready media: %w", err)
	}
	return scanSQLiteMediaRows(rows)
}

func (s *SQLiteStorage) KeywordSearch(ctx context.Context, ownerID, query string, limit int) ([]*types.Media, error) {
	q := foldQuery(query)
	if q == "" {
		return []*types.Media{}, nil
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	// ListReady is newest first; matching happens in Go for Unicode case folding
	ready, err := s.ListReady(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}
	matched := filterMedia(ready, q, matchesKeyword)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context, ownerID string) (*LibraryStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM media WHERE owner_id = ? GROUP BY status`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count media by status: %w", err)
	}

	counts := make(map[types.Status]int)
	err = func() error {
		defer func() {
			_ = rows.Close()
		}()
		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			counts[types.Status(status)] = n
		}
		return rows.Err()
	}()
	if err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}

	ready, err := s.ListReady(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return buildLibraryStatus(ownerID, counts, ready), nil
}

// buildLibraryStatus computes embedding statistics from the decoded ready set
func buildLibraryStatus(ownerID string, counts map[types.Status]int, ready []*types.Media) *LibraryStatus {
	st := &LibraryStatus{
		OwnerID:    ownerID,
		ByStatus:   counts,
		Dimensions: make(map[int]int),
	}
	for _, n := range counts {
		st.Total += n
	}
	for _, m := range ready {
		if len(m.Embedding) == 0 {
			continue
		}
		st.Embedded++
		st.Dimensions[len(m.Embedding)]++
	}
	return st
}
