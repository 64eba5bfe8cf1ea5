package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps documents in the documents table created by migrations.
type PostgresStore struct {
	db pgQuerier
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("docstore: postgres pool cannot be nil")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithQuerier(db pgQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return Document{}, err
	}
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("docstore: postgres get %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: data}, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY id ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: postgres list %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.ID, &data); err != nil {
			return nil, fmt.Errorf("docstore: postgres scan %s: %w", collection, err)
		}
		doc.Data = data
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: postgres rows %s: %w", collection, err)
	}
	return docs, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, value any) error {
	tag, err := s.exec(ctx, collection, id, value, `
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, id) DO NOTHING`)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, value any) error {
	_, err := s.exec(ctx, collection, id, value, `
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`)
	return err
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, value any) error {
	tag, err := s.exec(ctx, collection, id, value, `
		UPDATE documents SET data = $3, updated_at = NOW()
		WHERE collection = $1 AND id = $2`)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	); err != nil {
		return fmt.Errorf("docstore: postgres delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) exec(ctx context.Context, collection, id string, value any, query string) (pgconn.CommandTag, error) {
	if err := validateKey(collection, id); err != nil {
		return pgconn.CommandTag{}, err
	}
	data, err := encode(value)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	tag, err := s.db.Exec(ctx, query, collection, id, data)
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("docstore: postgres write %s/%s: %w", collection, id, err)
	}
	return tag, nil
}
