package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/csvrepair/internal/repair"
)

// DBTX is the subset of *pgxpool.Pool used by PgStore. A pgx.Tx also
// satisfies it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS repair_runs (
		id                UUID PRIMARY KEY,
		file_name         TEXT,
		detected_encoding TEXT NOT NULL,
		original_bytes    BIGINT NOT NULL,
		final_bytes       BIGINT NOT NULL,
		risky_fields      INTEGER NOT NULL DEFAULT 0,
		input_digest      TEXT NOT NULL,
		output_digest     TEXT NOT NULL,
		ip_address        TEXT,
		user_agent        TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS repair_runs_created_at_idx ON repair_runs (created_at DESC)`,
}

const selectColumns = `id, file_name, detected_encoding, original_bytes, final_bytes,
	risky_fields, input_digest, output_digest, ip_address, user_agent, created_at`

// PgStore is a Store backed by PostgreSQL.
type PgStore struct {
	db DBTX
}

// NewPgStore wraps db. Call EnsureSchema once before use.
func NewPgStore(db DBTX) *PgStore {
	return &PgStore{db: db}
}

// EnsureSchema creates the repair_runs table and its index if missing.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PgStore) Record(ctx context.Context, run *Run) error {
	prepare(run)

	_, err := s.db.Exec(ctx,
		`INSERT INTO repair_runs (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		pgtype.UUID{Bytes: run.ID, Valid: true},
		toPgText(run.FileName),
		string(run.DetectedEncoding),
		int64(run.OriginalBytes),
		int64(run.FinalBytes),
		int32(run.RiskyFields),
		run.InputDigest,
		run.OutputDigest,
		toPgText(run.IPAddress),
		toPgText(run.UserAgent),
		pgtype.Timestamptz{Time: run.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("record repair run: %w", err)
	}
	return nil
}

func (s *PgStore) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+selectColumns+` FROM repair_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list repair runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repair run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list repair runs: %w", err)
	}
	return runs, nil
}

func (s *PgStore) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM repair_runs WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true},
	)

	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get repair run: %w", err)
	}
	return run, nil
}

// scanRun scans one repair_runs row. Both pgx.Row and pgx.Rows satisfy
// pgx.Row.
func scanRun(row pgx.Row) (*Run, error) {
	var (
		id            pgtype.UUID
		fileName      pgtype.Text
		encoding      string
		originalBytes int64
		finalBytes    int64
		riskyFields   int32
		inputDigest   string
		outputDigest  string
		ipAddress     pgtype.Text
		userAgent     pgtype.Text
		createdAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &fileName, &encoding, &originalBytes, &finalBytes,
		&riskyFields, &inputDigest, &outputDigest, &ipAddress, &userAgent, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:               uuid.UUID(id.Bytes),
		DetectedEncoding: repair.Encoding(encoding),
		OriginalBytes:    int(originalBytes),
		FinalBytes:       int(finalBytes),
		RiskyFields:      int(riskyFields),
		InputDigest:      inputDigest,
		OutputDigest:     outputDigest,
		CreatedAt:        createdAt.Time,
	}
	if fileName.Valid {
		run.FileName = fileName.String
	}
	if ipAddress.Valid {
		run.IPAddress = ipAddress.String
	}
	if userAgent.Valid {
		run.UserAgent = userAgent.String
	}
	return run, nil
}

// toPgText converts s to pgtype.Text, NULL when blank.
func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
