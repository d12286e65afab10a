package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
	"github.com/palantir/lead-repair-pipeline/internal/pipeline"
)

// Run describes the run a result set belongs to.
type Run struct {
	ID            string
	Source        string
	MinConfidence float64
	StartedAt     time.Time
}

// SQLite records every outcome of a run in a SQLite database. Several runs can
// share one database file.
type SQLite struct {
	db  *sql.DB
	run Run
}

func OpenSQLite(path string, run Run) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLite{db: db, run: run}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			source TEXT,
			min_confidence REAL,
			started_at TIMESTAMP,
			finished_at TIMESTAMP,
			total INTEGER,
			valid INTEGER,
			repaired INTEGER,
			low_confidence INTEGER,
			failed INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			bucket TEXT NOT NULL,
			position INTEGER NOT NULL,
			lead_id INTEGER,
			stage TEXT,
			confidence REAL,
			row_json TEXT,
			lead_json TEXT,
			validation_error TEXT,
			repair_error TEXT,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id, bucket);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// outcomeRow is one outcomes insert. Nullable columns hold nil or a value.
type outcomeRow struct {
	bucket          pipeline.Bucket
	position        int
	leadID          any
	stage           any
	confidence      any
	row             lead.RawRow
	lead            *lead.Lead
	validationError any
	repairError     any
	err             any
}

func (s *SQLite) Store(ctx context.Context, res *pipeline.Results) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(run_id, source, min_confidence, started_at, finished_at, total, valid, repaired, low_confidence, failed)
		VALUES(?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET finished_at=excluded.finished_at, total=excluded.total, valid=excluded.valid,
			repaired=excluded.repaired, low_confidence=excluded.low_confidence, failed=excluded.failed`,
		s.run.ID, s.run.Source, s.run.MinConfidence, s.run.StartedAt, time.Now().UTC(),
		res.Total(), len(res.Valid), len(res.Repaired), len(res.LowConfidence), len(res.Failed))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE run_id=?`, s.run.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO outcomes(run_id, bucket, position, lead_id, stage, confidence, row_json, lead_json, validation_error, repair_error, error)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range outcomeRows(res) {
		var rowJSON, leadJSON any
		if o.row != nil {
			b, err := json.Marshal(o.row)
			if err != nil {
				return err
			}
			rowJSON = string(b)
		}
		if o.lead != nil {
			b, err := json.Marshal(o.lead)
			if err != nil {
				return err
			}
			leadJSON = string(b)
		}
		if _, err := stmt.ExecContext(ctx, s.run.ID, o.bucket.String(), o.position, o.leadID, o.stage, o.confidence,
			rowJSON, leadJSON, o.validationError, o.repairError, o.err); err != nil {
			return fmt.Errorf("record %s outcome %d: %w", o.bucket, o.position, err)
		}
	}
	return tx.Commit()
}

func outcomeRows(res *pipeline.Results) []outcomeRow {
	out := make([]outcomeRow, 0, res.Total())
	for i := range res.Valid {
		l := &res.Valid[i]
		out = append(out, outcomeRow{
			bucket:     pipeline.BucketValid,
			position:   i,
			leadID:     l.ID,
			confidence: l.ConfidenceScore,
			lead:       l,
		})
	}
	repaired := func(b pipeline.Bucket, entries []pipeline.RepairedEntry) {
		for i := range entries {
			e := &entries[i]
			out = append(out, outcomeRow{
				bucket:          b,
				position:        i,
				leadID:          e.Repaired.ID,
				confidence:      e.Repaired.ConfidenceScore,
				row:             e.Original,
				lead:            &e.Repaired,
				validationError: nullable(e.ErrorFixed),
			})
		}
	}
	repaired(pipeline.BucketRepaired, res.Repaired)
	repaired(pipeline.BucketLowConfidence, res.LowConfidence)
	for i := range res.Failed {
		f := &res.Failed[i]
		out = append(out, outcomeRow{
			bucket:          pipeline.BucketFailed,
			position:        i,
			stage:           string(f.Stage),
			row:             f.Row,
			validationError: nullable(f.ValidationError),
			repairError:     nullable(f.RepairError),
			err:             nullable(f.Error),
		})
	}
	return out
}

// BucketCounts returns the stored outcome count per bucket name for a run.
func (s *SQLite) BucketCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, COUNT(*) FROM outcomes WHERE run_id=? GROUP BY bucket`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var bucket string
		var n int
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, err
		}
		out[bucket] = n
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
