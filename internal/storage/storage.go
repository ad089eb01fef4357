package storage

import (
	"context"
	"fmt"

	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

// Storage журнал сигналов: одна строка на каждую оценку, только добавление
type Storage interface {
	SaveSignal(ctx context.Context, r models.SignalRecord) error
	GetSignalHistory(ctx context.Context, symbol string, limit int) ([]models.SignalRecord, error)
	Close()
}

// New создает хранилище по storage.type
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "none":
		return NopStorage{}, nil
	case "influxdb":
		s, err := NewInfluxDBStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStorage(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Type)
	}
}

// NopStorage ничего не сохраняет
type NopStorage struct{}

func (NopStorage) SaveSignal(context.Context, models.SignalRecord) error { return nil }

func (NopStorage) GetSignalHistory(context.Context, string, int) ([]models.SignalRecord, error) {
	return nil, nil
}

func (NopStorage) Close() {}
