package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/simonfreshfish/GymStat-sub000/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS record_collection
(
    name       VARCHAR(64) PRIMARY KEY,
    payload    JSONB       NOT NULL DEFAULT '[]',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create record_collection table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, collection string) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.postgres.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := ValidateCollectionName(collection); err != nil {
		return nil, err
	}

	var payload []byte
	err = s.db.QueryRow(
		ctx,
		`SELECT payload FROM record_collection WHERE name = $1;`,
		collection,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []Session{}, nil
		}
		return nil, fmt.Errorf("select collection %s: %w", collection, err)
	}

	return unmarshalSessions(payload)
}

func (s *PostgresStore) Save(ctx context.Context, collection string, sessions []Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.postgres.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := ValidateCollectionName(collection); err != nil {
		return err
	}

	payload, err := marshalSessions(sessions)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(
		ctx,
		`INSERT INTO record_collection (name, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now();`,
		collection, payload,
	); err != nil {
		return fmt.Errorf("upsert collection %s: %w", collection, err)
	}

	log.Debugf("records: saved %d sessions to collection [%s]", len(sessions), collection)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.postgres.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := ValidateCollectionName(collection); err != nil {
		return err
	}

	tag, err := s.db.Exec(
		ctx,
		`DELETE FROM record_collection WHERE name = $1;`,
		collection,
	)
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	return nil
}

func (s *PostgresStore) Collections(ctx context.Context) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.postgres.collections")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(ctx, `SELECT name FROM record_collection ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return names, nil
}
