package corpus

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// Schema is the SQL DDL for the workout_corpus table. The embedding column
// dimension must match the configured provider; 1536 fits the default
// OpenAI model. Execute via [PostgresStore.Migrate] or apply manually.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS workout_corpus (
    id               TEXT PRIMARY KEY,
    text             TEXT NOT NULL,
    name             TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    duration_minutes INT  NOT NULL DEFAULT 0,
    segments         INT  NOT NULL DEFAULT 0,
    difficulty       INT  NOT NULL DEFAULT 0,
    zone             TEXT NOT NULL DEFAULT '',
    complexity       TEXT NOT NULL DEFAULT 'simple',
    structure        TEXT[] NOT NULL DEFAULT '{}',
    embedding        vector(1536),
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_workout_corpus_zone ON workout_corpus(zone);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists corpus entries with their embedding vectors, so a
// restarted process can rebuild its snapshot without re-embedding the whole
// library.
type PostgresStore struct {
	db DB
}

// NewPostgresStore wraps the given connection or pool. Call Migrate before
// issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("corpus: migrate: %w", err)
	}
	return nil
}

// Upsert creates or replaces an entry, embedding included.
func (s *PostgresStore) Upsert(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		return fmt.Errorf("corpus: upsert: missing id")
	}
	const query = `
		INSERT INTO workout_corpus (
			id, text, name, description, duration_minutes, segments, difficulty,
			zone, complexity, structure, embedding
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			duration_minutes = EXCLUDED.duration_minutes,
			segments = EXCLUDED.segments,
			difficulty = EXCLUDED.difficulty,
			zone = EXCLUDED.zone,
			complexity = EXCLUDED.complexity,
			structure = EXCLUDED.structure,
			embedding = EXCLUDED.embedding,
			updated_at = now()`

	var vec any
	if len(e.Embedding) > 0 {
		vec = pgvector.NewVector(e.Embedding)
	}
	_, err := s.db.Exec(ctx, query,
		e.ID, e.Text, e.Name, e.Description, e.DurationMinutes, e.Segments, e.Difficulty,
		e.Zone, e.Complexity, emptySlice(e.Structure), vec,
	)
	if err != nil {
		return fmt.Errorf("corpus: upsert %q: %w", e.ID, err)
	}
	return nil
}

// All returns every stored entry ordered by id.
func (s *PostgresStore) All(ctx context.Context) ([]Entry, error) {
	const query = `
		SELECT id, text, name, description, duration_minutes, segments, difficulty,
		       zone, complexity, structure, embedding
		FROM workout_corpus
		ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("corpus: all: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus: all: %w", err)
	}
	return entries, nil
}

// SearchNearest returns the k entries whose embeddings are closest to vec by
// cosine distance, nearest first. Entries without an embedding are skipped.
func (s *PostgresStore) SearchNearest(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("corpus: search nearest: empty vector")
	}
	if k <= 0 {
		k = 3
	}
	const query = `
		SELECT id, text, name, description, duration_minutes, segments, difficulty,
		       zone, complexity, structure, embedding,
		       1 - (embedding <=> $1) AS similarity
		FROM workout_corpus
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("corpus: search nearest: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			e         Entry
			embedding *pgvector.Vector
			sim       float64
		)
		if err := rows.Scan(
			&e.ID, &e.Text, &e.Name, &e.Description, &e.DurationMinutes, &e.Segments, &e.Difficulty,
			&e.Zone, &e.Complexity, &e.Structure, &embedding, &sim,
		); err != nil {
			return nil, fmt.Errorf("corpus: search nearest scan: %w", err)
		}
		if embedding != nil {
			e.Embedding = embedding.Slice()
		}
		matches = append(matches, Match{Entry: e, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("corpus: search nearest: %w", err)
	}
	return matches, nil
}

// Delete removes an entry; deleting a missing id is not an error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM workout_corpus WHERE id = $1`, id); err != nil {
		return fmt.Errorf("corpus: delete %q: %w", id, err)
	}
	return nil
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var (
		e         Entry
		embedding *pgvector.Vector
	)
	if err := rows.Scan(
		&e.ID, &e.Text, &e.Name, &e.Description, &e.DurationMinutes, &e.Segments, &e.Difficulty,
		&e.Zone, &e.Complexity, &e.Structure, &embedding,
	); err != nil {
		return Entry{}, fmt.Errorf("corpus: scan: %w", err)
	}
	if embedding != nil {
		e.Embedding = embedding.Slice()
	}
	return e, nil
}

// emptySlice keeps TEXT[] columns as '{}' rather than NULL.
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
