// Package sqlstore persists serialized graphs in a SQL database. Element
// records and back references are stored as compressed msgpack payloads.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/loader"
	"github.com/conduit-lang/metagraph/internal/model"
)

var _ loader.Source = (*Store)(nil)

// dialect captures the differences between the supported databases.
type dialect struct {
	blobType string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var dialects = map[string]dialect{
	"sqlite3":  {blobType: "BLOB"},
	"postgres": {blobType: "BYTEA", numbered: true},
	"pgx":      {blobType: "BYTEA", numbered: true},
}

// rebind rewrites ? placeholders for the dialect.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store is a loader.Source backed by a SQL database.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

// Open connects to a database with one of the drivers sqlite3, postgres or pgx.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, driver, logger)
}

// New wraps an open database.
func New(db *sql.DB, driver string, logger *zap.Logger) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, dialect: d, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS elements (
	path VARCHAR(1024) PRIMARY KEY,
	classifier_path VARCHAR(1024) NOT NULL,
	source_info %[1]s,
	payload %[1]s NOT NULL
)`, s.dialect.blobType),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS back_references (
	path VARCHAR(1024) PRIMARY KEY,
	payload %s NOT NULL
)`, s.dialect.blobType),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// PutElement inserts or replaces an element.
func (s *Store) PutElement(ctx context.Context, meta metadata.ConcreteElementMetadata, data *element.DeserializedConcreteElement) error {
	return s.putElement(ctx, s.db, meta, data)
}

func (s *Store) putElement(ctx context.Context, ex execer, meta metadata.ConcreteElementMetadata, data *element.DeserializedConcreteElement) error {
	if meta.Path != data.Path {
		return fmt.Errorf("metadata path %s does not match element path %s", meta.Path, data.Path)
	}
	if err := data.Validate(); err != nil {
		return err
	}

	encoded, err := element.Encode(data)
	if err != nil {
		return err
	}
	payload, err := metadata.Compress(encoded)
	if err != nil {
		return err
	}
	var sourceInfo []byte
	if meta.SourceInformation != nil {
		if sourceInfo, err = msgpack.Marshal(meta.SourceInformation); err != nil {
			return fmt.Errorf("failed to encode source information of %s: %w", meta.Path, err)
		}
	}

	query := s.dialect.rebind(`
INSERT INTO elements (path, classifier_path, source_info, payload) VALUES (?, ?, ?, ?)
ON CONFLICT (path) DO UPDATE SET
	classifier_path = excluded.classifier_path,
	source_info = excluded.source_info,
	payload = excluded.payload`)
	if _, err := ex.ExecContext(ctx, query, meta.Path, meta.ClassifierPath, sourceInfo, payload); err != nil {
		return fmt.Errorf("failed to store element %s: %w", meta.Path, err)
	}
	s.logger.Debug("stored element", zap.String("path", meta.Path), zap.Int("bytes", len(payload)))
	return nil
}

// PutBackReferences inserts or replaces the back references of an element.
func (s *Store) PutBackReferences(ctx context.Context, path string, refs metadata.ElementBackReferences) error {
	return s.putBackReferences(ctx, s.db, path, refs)
}

func (s *Store) putBackReferences(ctx context.Context, ex execer, path string, refs metadata.ElementBackReferences) error {
	encoded, err := metadata.SerializeBackReferences(refs)
	if err != nil {
		return err
	}
	payload, err := metadata.Compress(encoded)
	if err != nil {
		return err
	}

	query := s.dialect.rebind(`
INSERT INTO back_references (path, payload) VALUES (?, ?)
ON CONFLICT (path) DO UPDATE SET payload = excluded.payload`)
	if _, err := ex.ExecContext(ctx, query, path, payload); err != nil {
		return fmt.Errorf("failed to store back references of %s: %w", path, err)
	}
	return nil
}

// Import copies every element and its back references from src in a single
// transaction and returns the number of elements copied.
func (s *Store) Import(ctx context.Context, src loader.Source) (int, error) {
	metas, err := src.Index(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read source index: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	paths := make(map[string]bool, len(metas))
	for _, m := range metas {
		data, err := src.Element(ctx, m.Path)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", m.Path, err)
		}
		if err := s.putElement(ctx, tx, m, data); err != nil {
			return 0, err
		}
		paths[m.Path] = true
	}

	// Virtual packages carry back references too.
	index, err := metadata.NewIndex(metas)
	if err != nil {
		return 0, err
	}
	for _, p := range index.VirtualPackages() {
		paths[p] = true
	}
	for path := range paths {
		refs, err := src.BackReferences(ctx, path)
		if err != nil {
			return 0, fmt.Errorf("failed to read back references of %s: %w", path, err)
		}
		if len(refs) == 0 {
			continue
		}
		if err := s.putBackReferences(ctx, tx, path, refs); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	s.logger.Info("imported elements", zap.Int("count", len(metas)))
	return len(metas), nil
}

func (s *Store) Index(ctx context.Context) ([]metadata.ConcreteElementMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, classifier_path, source_info FROM elements ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	var out []metadata.ConcreteElementMetadata
	for rows.Next() {
		var m metadata.ConcreteElementMetadata
		var sourceInfo []byte
		if err := rows.Scan(&m.Path, &m.ClassifierPath, &sourceInfo); err != nil {
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		if len(sourceInfo) > 0 {
			var si model.SourceInformation
			if err := msgpack.Unmarshal(sourceInfo, &si); err != nil {
				return nil, fmt.Errorf("failed to decode source information of %s: %w", m.Path, err)
			}
			m.SourceInformation = &si
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating elements: %w", err)
	}
	return out, nil
}

func (s *Store) Element(ctx context.Context, path string) (*element.DeserializedConcreteElement, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT payload FROM elements WHERE path = ?`), path).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, loader.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load element %s: %w", path, err)
	}

	decoded, err := metadata.Decompress(payload)
	if err != nil {
		return nil, err
	}
	return element.Decode(decoded)
}

func (s *Store) BackReferences(ctx context.Context, path string) (metadata.ElementBackReferences, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT payload FROM back_references WHERE path = ?`), path).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load back references of %s: %w", path, err)
	}

	decoded, err := metadata.Decompress(payload)
	if err != nil {
		return nil, err
	}
	return metadata.DeserializeBackReferences(decoded)
}
