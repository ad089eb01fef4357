// internal/storage/influxdb.go
package storage

import (
	"context"
	"fmt"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

const signalsMeasurement = "signals"

// InfluxDBStorage реализует журнал сигналов в InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(ctx context.Context, cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStorage{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Organization),
		writeAPI: client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveSignal сохраняет строку журнала сигналов
func (s *InfluxDBStorage) SaveSignal(ctx context.Context, r models.SignalRecord) error {
	point := influxdb2.NewPoint(
		signalsMeasurement,
		map[string]string{
			"symbol":    r.Symbol,
			"tier":      r.Tier,
			"direction": string(r.Direction),
		},
		map[string]interface{}{
			"id":               r.ID,
			"confidence":       r.Confidence,
			"final_confidence": r.FinalConfidence,
			"rsi":              r.RSI,
			"macd_hist":        r.MACDHist,
			"change_24h":       r.Change24h,
			"volume_ratio":     r.VolumeRatio,
			"contradictions":   r.JoinedContradictions(),
			"inverted":         r.Inverted,
			"should_emit":      r.ShouldEmit,
		},
		r.Timestamp,
	)

	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("ошибка записи сигнала %s: %w", r.Symbol, err)
	}
	return nil
}

// GetSignalHistory получает историю сигналов, новые первыми
func (s *InfluxDBStorage) GetSignalHistory(ctx context.Context, symbol string, limit int) ([]models.SignalRecord, error) {
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -30d)
			|> filter(fn: (r) => r._measurement == "%s")
			|> filter(fn: (r) => r.symbol == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> group()
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, s.bucket, signalsMeasurement, symbol, limit)

	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории сигналов: %w", err)
	}

	var records []models.SignalRecord
	for result.Next() {
		record := result.Record()

		id, _ := record.ValueByKey("id").(string)
		tier, _ := record.ValueByKey("tier").(string)
		direction, _ := record.ValueByKey("direction").(string)
		conf, _ := record.ValueByKey("confidence").(float64)
		final, _ := record.ValueByKey("final_confidence").(float64)
		rsi, _ := record.ValueByKey("rsi").(float64)
		hist, _ := record.ValueByKey("macd_hist").(float64)
		change, _ := record.ValueByKey("change_24h").(float64)
		volume, _ := record.ValueByKey("volume_ratio").(float64)
		contradictions, _ := record.ValueByKey("contradictions").(string)
		inverted, _ := record.ValueByKey("inverted").(bool)
		emit, _ := record.ValueByKey("should_emit").(bool)

		records = append(records, models.SignalRecord{
			ID:              id,
			Timestamp:       record.Time(),
			Symbol:          symbol,
			Tier:            tier,
			Direction:       models.Direction(direction),
			Confidence:      conf,
			RSI:             rsi,
			MACDHist:        hist,
			Change24h:       change,
			VolumeRatio:     volume,
			Contradictions:  splitContradictions(contradictions),
			Inverted:        inverted,
			FinalConfidence: final,
			ShouldEmit:      emit,
		})
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}
	return records, nil
}

func splitContradictions(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "; ")
}
