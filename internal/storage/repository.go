package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertAlertSQL = `INSERT INTO alerts (
        token,
        reference_price,
        new_price,
        change_pct,
        direction,
        triggered_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id, token, reference_price, new_price, change_pct, direction, triggered_at, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        token,
        reference_price,
        new_price,
        change_pct,
        direction,
        triggered_at,
        created_at
    FROM alerts
    ORDER BY triggered_at DESC
    LIMIT $1;`

	listAlertsBetweenSQL = `SELECT
        id,
        token,
        reference_price,
        new_price,
        change_pct,
        direction,
        triggered_at,
        created_at
    FROM alerts
    WHERE triggered_at >= $1
      AND triggered_at < $2
    ORDER BY triggered_at;`

	countAlertsSQL = `SELECT COUNT(*) FROM alerts;`

	deleteAlertsBeforeSQL = `DELETE FROM alerts WHERE triggered_at < $1;`
)

// AlertJournal defines operations for alert auditing.
type AlertJournal interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	ListAlertsBetween(ctx context.Context, from, to time.Time) ([]AlertRecord, error)
	CountAlerts(ctx context.Context) (int64, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// Store provides Postgres-backed access to the alert journal.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.Token,
		alert.ReferencePrice.String(),
		alert.NewPrice.String(),
		alert.ChangePct.String(),
		alert.Direction,
		alert.TriggeredAt,
	)

	rec, scanErr := scanAlertRecord(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists the most recent alerts ordered by descending trigger time.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlertRecords(rows, limit)
}

// ListAlertsBetween lists alerts within a time window.
func (s *Store) ListAlertsBetween(ctx context.Context, from, to time.Time) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list alerts between: %w", queryErr)
	}
	defer rows.Close()

	return collectAlertRecords(rows, 0)
}

// CountAlerts counts journaled alerts.
func (s *Store) CountAlerts(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countAlertsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count alerts: %w", scanErr)
	}
	return count, nil
}

// DeleteAlertsBefore purges historical alerts and reports how many were removed.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete alerts before: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}

func collectAlertRecords(rows pgx.Rows, sizeHint int) ([]AlertRecord, error) {
	alerts := make([]AlertRecord, 0, sizeHint)
	for rows.Next() {
		rec, err := scanAlertRecord(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func scanAlertRecord(row pgx.Row) (AlertRecord, error) {
	var (
		rec          AlertRecord
		referenceStr string
		newPriceStr  string
		changeStr    string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Token,
		&referenceStr,
		&newPriceStr,
		&changeStr,
		&rec.Direction,
		&rec.TriggeredAt,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	var convErr error
	rec.ReferencePrice, convErr = decimal.NewFromString(referenceStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse reference price: %w", convErr)
	}
	rec.NewPrice, convErr = decimal.NewFromString(newPriceStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse new price: %w", convErr)
	}
	rec.ChangePct, convErr = decimal.NewFromString(changeStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse change pct: %w", convErr)
	}

	return rec, nil
}

var _ AlertJournal = (*Store)(nil)
