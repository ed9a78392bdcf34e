package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pitwatch"
	"pitwatch/internal/alarm"
)

// AlarmSQLite keeps one row per probe with the packed lo/hi thresholds, so
// the sign (enabled) and magnitude round-trip exactly.
type AlarmSQLite struct {
	db *sql.DB
}

func NewAlarmSQLite(db *sql.DB) *AlarmSQLite {
	return &AlarmSQLite{db: db}
}

const (
	upsertAlarmSQL = `
		INSERT INTO alarm_settings (probe, lo, hi)
		VALUES (?, ?, ?)
		ON CONFLICT(probe) DO UPDATE SET
			lo=excluded.lo,
			hi=excluded.hi
	`

	selectAlarmsSQL = `SELECT probe, lo, hi FROM alarm_settings ORDER BY probe`
)

// Save writes all probes in one transaction.
func (r *AlarmSQLite) Save(ctx context.Context, s alarm.Settings) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alarm save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for p := 0; p < pitwatch.NumProbes; p++ {
		if _, err := tx.ExecContext(ctx, upsertAlarmSQL, p, s.Lo[p], s.Hi[p]); err != nil {
			return fmt.Errorf("save alarm probe %d: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit alarm save: %w", err)
	}
	return nil
}

// Load returns the stored thresholds. Probes without a row keep the defaults.
func (r *AlarmSQLite) Load(ctx context.Context) (alarm.Settings, bool, error) {
	s := alarm.DefaultSettings()

	rows, err := r.db.QueryContext(ctx, selectAlarmsSQL)
	if err != nil {
		return s, false, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var probe, lo, hi int
		if err := rows.Scan(&probe, &lo, &hi); err != nil {
			return alarm.DefaultSettings(), false, fmt.Errorf("scan alarm: %w", err)
		}
		if probe < 0 || probe >= pitwatch.NumProbes {
			continue
		}
		s.Lo[probe] = lo
		s.Hi[probe] = hi
		found = true
	}
	if err := rows.Err(); err != nil {
		return alarm.DefaultSettings(), false, err
	}
	return s, found, nil
}
