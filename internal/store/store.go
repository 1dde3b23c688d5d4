package store

// Package store persists classification results in a sqlite database so the
// web viewer can serve them without re-running the pipeline.

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TS404/ragp/internal/maab"
	"github.com/TS404/ragp/internal/motif"
)

const schema = `CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    class TEXT,
    ext_sp INTEGER,
    tyr INTEGER,
    prp INTEGER,
    agp INTEGER,
    past_pct REAL,
    pvyk_pct REAL,
    psky_pct REAL,
    p_pct REAL,
    coverage REAL,
    seq_length INTEGER,
    created_at TEXT
)`

// Row is one persisted classification result.
type Row struct {
	ID        string
	Class     string
	ExtSP     int
	Tyr       int
	Prp       int
	Agp       int
	PastPct   float64
	PvykPct   float64
	PskyPct   float64
	PPct      float64
	Coverage  float64
	SeqLength int
	CreatedAt time.Time
}

// Store wraps the sqlite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveResults upserts one row per result inside a single transaction.
func (s *Store) SaveResults(results []maab.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO results
        (id, class, ext_sp, tyr, prp, agp, past_pct, pvyk_pct, psky_pct, p_pct, coverage, seq_length, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
        class=excluded.class, ext_sp=excluded.ext_sp, tyr=excluded.tyr,
        prp=excluded.prp, agp=excluded.agp, past_pct=excluded.past_pct,
        pvyk_pct=excluded.pvyk_pct, psky_pct=excluded.psky_pct,
        p_pct=excluded.p_pct, coverage=excluded.coverage,
        seq_length=excluded.seq_length, created_at=excluded.created_at`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range results {
		_, err := stmt.Exec(
			r.ID, string(r.Label),
			r.Scan.Counts[motif.Ext], r.Scan.Counts[motif.Tyr],
			r.Scan.Counts[motif.Prp], r.Scan.Counts[motif.Agp],
			r.Composition.PastPercent, r.Composition.PvykPercent,
			r.Composition.PskyPercent, r.Composition.PPercent,
			r.Coverage, r.Scan.SequenceLength, now,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadResults returns all persisted rows ordered by id.
func (s *Store) LoadResults() ([]Row, error) {
	rows, err := s.db.Query(`SELECT id, class, ext_sp, tyr, prp, agp,
        past_pct, pvyk_pct, psky_pct, p_pct, coverage, seq_length, created_at
        FROM results ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var created string
		if err := rows.Scan(&r.ID, &r.Class, &r.ExtSP, &r.Tyr, &r.Prp, &r.Agp,
			&r.PastPct, &r.PvykPct, &r.PskyPct, &r.PPct,
			&r.Coverage, &r.SeqLength, &created); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
