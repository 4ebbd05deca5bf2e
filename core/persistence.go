package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PersistenceRecord is handed to the sink for a submit-time request; it is
// the spec §6 wide-table row in struct form.
type PersistenceRecord struct {
	SubmissionID string
	UserID       string
	QuestionID   string
	Language     string
	Source       string
	Verdicts     []Verdict
	Summary      Summary
	ExecutionID  string
}

// PersistenceSink is the external collaborator spec §1 treats as "a
// key-value sink taking a verdict record keyed by submission id." A
// persistence failure is logged by the caller and never escalated past a
// saved=false flag (spec §4.E, §7).
type PersistenceSink interface {
	SaveResult(ctx context.Context, record PersistenceRecord) error
}

const createSubmissionsTableSQL = `
CREATE TABLE IF NOT EXISTS judging_submissions (
	submission_id   TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	question_id     TEXT NOT NULL,
	language        TEXT NOT NULL,
	source          TEXT NOT NULL,
	verdicts        JSONB NOT NULL,
	summary         JSONB NOT NULL,
	execution_id    TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PgPersistenceSink is the pgx-backed PersistenceSink, modeled on
// PgSubmissionRepository's transactional save but collapsed to the single
// wide table spec §6 describes.
type PgPersistenceSink struct {
	pool *pgxpool.Pool
}

// NewPgPersistenceSink ensures the table exists and returns a ready sink.
func NewPgPersistenceSink(ctx context.Context, pool *pgxpool.Pool) (*PgPersistenceSink, error) {
	if _, err := pool.Exec(ctx, createSubmissionsTableSQL); err != nil {
		return nil, err
	}
	return &PgPersistenceSink{pool: pool}, nil
}

func (s *PgPersistenceSink) SaveResult(ctx context.Context, record PersistenceRecord) error {
	verdictsJSON, err := json.Marshal(record.Verdicts)
	if err != nil {
		return err
	}
	summaryJSON, err := json.Marshal(record.Summary)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO judging_submissions
			(submission_id, user_id, question_id, language, source, verdicts, summary, execution_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (submission_id) DO UPDATE SET
			verdicts = EXCLUDED.verdicts,
			summary = EXCLUDED.summary,
			execution_id = EXCLUDED.execution_id
	`, record.SubmissionID, record.UserID, record.QuestionID, record.Language, record.Source,
		verdictsJSON, summaryJSON, record.ExecutionID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
