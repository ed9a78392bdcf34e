package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"pitwatch"
)

// HistorySQLite caches the most recent full history. Each Save replaces the
// previous one.
type HistorySQLite struct {
	db *sql.DB
}

func NewHistorySQLite(db *sql.DB) *HistorySQLite {
	return &HistorySQLite{db: db}
}

const (
	deleteHistorySQL = `DELETE FROM history_samples`
	insertHistorySQL = `
		INSERT INTO history_samples (seq, time, set_point, probe0, probe1, probe2, probe3, fan, lid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectHistorySQL = `
		SELECT time, set_point, probe0, probe1, probe2, probe3, fan, lid
		FROM history_samples ORDER BY seq
	`

	upsertProbeNameSQL = `
		INSERT INTO probe_names (probe, name) VALUES (?, ?)
		ON CONFLICT(probe) DO UPDATE SET name=excluded.name
	`
	selectProbeNamesSQL = `SELECT probe, name FROM probe_names ORDER BY probe`
)

// Save replaces the cached history and probe names in one transaction.
func (r *HistorySQLite) Save(ctx context.Context, names [pitwatch.NumProbes]string, samples []pitwatch.Sample) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteHistorySQL); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertHistorySQL)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range samples {
		_, err := stmt.ExecContext(ctx, i, s.Time, nullFloat(s.SetPoint),
			nullFloat(s.Probes[0]), nullFloat(s.Probes[1]), nullFloat(s.Probes[2]), nullFloat(s.Probes[3]),
			s.FanSpeed, s.LidOpen)
		if err != nil {
			return fmt.Errorf("insert history row %d: %w", i, err)
		}
	}

	for p, name := range names {
		if _, err := tx.ExecContext(ctx, upsertProbeNameSQL, p, name); err != nil {
			return fmt.Errorf("save probe name %d: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history save: %w", err)
	}
	return nil
}

// Load returns the cached probe names and samples, oldest first.
func (r *HistorySQLite) Load(ctx context.Context) ([pitwatch.NumProbes]string, []pitwatch.Sample, error) {
	var names [pitwatch.NumProbes]string

	nameRows, err := r.db.QueryContext(ctx, selectProbeNamesSQL)
	if err != nil {
		return names, nil, fmt.Errorf("query probe names: %w", err)
	}
	for nameRows.Next() {
		var (
			p    int
			name string
		)
		if err := nameRows.Scan(&p, &name); err != nil {
			nameRows.Close()
			return names, nil, fmt.Errorf("scan probe name: %w", err)
		}
		if p >= 0 && p < pitwatch.NumProbes {
			names[p] = name
		}
	}
	nameRows.Close()
	if err := nameRows.Err(); err != nil {
		return names, nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectHistorySQL)
	if err != nil {
		return names, nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	samples := make([]pitwatch.Sample, 0, 256)
	for rows.Next() {
		var (
			s      pitwatch.Sample
			set    sql.NullFloat64
			probes [pitwatch.NumProbes]sql.NullFloat64
		)
		if err := rows.Scan(&s.Time, &set, &probes[0], &probes[1], &probes[2], &probes[3], &s.FanSpeed, &s.LidOpen); err != nil {
			return names, nil, fmt.Errorf("scan history row: %w", err)
		}
		s.SetPoint = fromNull(set)
		for p := range probes {
			s.Probes[p] = fromNull(probes[p])
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return names, nil, err
	}
	return names, samples, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
