package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/skalibog/sigcore/pkg/models"
)

const createSignalLog = `
	CREATE TABLE IF NOT EXISTS signal_log (
		id               UUID PRIMARY KEY,
		ts               TIMESTAMPTZ NOT NULL,
		symbol           TEXT NOT NULL,
		tier             TEXT NOT NULL,
		direction        TEXT NOT NULL,
		confidence       DOUBLE PRECISION NOT NULL,
		rsi              DOUBLE PRECISION NOT NULL,
		macd_hist        DOUBLE PRECISION NOT NULL,
		change_24h       DOUBLE PRECISION NOT NULL,
		volume_ratio     DOUBLE PRECISION NOT NULL,
		contradictions   TEXT[] NOT NULL DEFAULT '{}',
		inverted         BOOLEAN NOT NULL DEFAULT FALSE,
		final_confidence DOUBLE PRECISION NOT NULL,
		should_emit      BOOLEAN NOT NULL
	);
	CREATE INDEX IF NOT EXISTS signal_log_symbol_ts ON signal_log (symbol, ts DESC);
`

// PostgresStorage журнал сигналов в PostgreSQL
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage подключается и создает таблицу при необходимости
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка соединения с PostgreSQL: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSignalLog); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы signal_log: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

// SaveSignal добавляет строку журнала
func (s *PostgresStorage) SaveSignal(ctx context.Context, r models.SignalRecord) error {
	contradictions := r.Contradictions
	if contradictions == nil {
		contradictions = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signal_log (id, ts, symbol, tier, direction, confidence, rsi, macd_hist,
			change_24h, volume_ratio, contradictions, inverted, final_confidence, should_emit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.ID, r.Timestamp, r.Symbol, r.Tier, string(r.Direction), r.Confidence, r.RSI, r.MACDHist,
		r.Change24h, r.VolumeRatio, pq.Array(contradictions), r.Inverted, r.FinalConfidence, r.ShouldEmit,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи сигнала %s: %w", r.Symbol, err)
	}
	return nil
}

// GetSignalHistory последние записи символа, новые первыми
func (s *PostgresStorage) GetSignalHistory(ctx context.Context, symbol string, limit int) ([]models.SignalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, symbol, tier, direction, confidence, rsi, macd_hist,
			change_24h, volume_ratio, contradictions, inverted, final_confidence, should_emit
		FROM signal_log
		WHERE symbol = $1
		ORDER BY ts DESC
		LIMIT $2`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории сигналов: %w", err)
	}
	defer rows.Close()

	var records []models.SignalRecord
	for rows.Next() {
		var r models.SignalRecord
		var direction string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Symbol, &r.Tier, &direction, &r.Confidence,
			&r.RSI, &r.MACDHist, &r.Change24h, &r.VolumeRatio, pq.Array(&r.Contradictions),
			&r.Inverted, &r.FinalConfidence, &r.ShouldEmit); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки журнала: %w", err)
		}
		r.Direction = models.Direction(direction)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close закрывает соединение
func (s *PostgresStorage) Close() {
	s.db.Close()
}
