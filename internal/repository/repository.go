package repository

import (
	"context"
	"database/sql"
	"time"

	"pitwatch"
	"pitwatch/internal/alarm"
)

// Authorization stores the API operator account.
type Authorization interface {
	CreateOperator(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*pitwatch.User, error)
	TouchLogin(ctx context.Context, id int, at time.Time) error
}

// EventRepo is the append-only event log.
type EventRepo interface {
	Append(ctx context.Context, e pitwatch.Event) error
	List(ctx context.Context, from, to time.Time, typ string) ([]pitwatch.Event, error)
}

// AlarmRepo persists packed alarm thresholds. Load reports found=false when
// nothing was saved yet.
type AlarmRepo interface {
	Save(ctx context.Context, s alarm.Settings) error
	Load(ctx context.Context) (s alarm.Settings, found bool, err error)
}

// HistoryRepo caches the last full history with its probe names.
type HistoryRepo interface {
	Save(ctx context.Context, names [pitwatch.NumProbes]string, samples []pitwatch.Sample) error
	Load(ctx context.Context) ([pitwatch.NumProbes]string, []pitwatch.Sample, error)
}

type Repository struct {
	EventRepo   EventRepo
	AlarmRepo   AlarmRepo
	HistoryRepo HistoryRepo
	Auth        Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo:   NewEventSQLite(db),
		AlarmRepo:   NewAlarmSQLite(db),
		HistoryRepo: NewHistorySQLite(db),
		Auth:        NewOperatorSQLite(db),
	}
}
