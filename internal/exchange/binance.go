package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/cenkalti/backoff/v4"
	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/logger"
	"github.com/skalibog/sigcore/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const futuresTestnetURL = "https://testnet.binancefuture.com"

// BinanceClient клиент для получения свечей и тикеров Binance Futures
type BinanceClient struct {
	futures      *futures.Client
	limiter      *rate.Limiter
	retryTimeout time.Duration
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig) *BinanceClient {
	client := futures.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.Testnet {
		client.BaseURL = futuresTestnetURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &BinanceClient{
		futures:      client,
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
		retryTimeout: time.Duration(cfg.RetrySeconds) * time.Second,
	}
}

// GetKlines получает последние свечи, старые первыми
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) (models.CandleSeries, error) {
	var klines []*futures.Kline
	err := c.do(ctx, "klines", symbol, func() error {
		var err error
		klines, err = c.futures.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свечей %s %s: %w", symbol, interval, err)
	}

	candles := make(models.CandleSeries, 0, len(klines))
	for _, k := range klines {
		candle, err := parseKline(symbol, interval, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// GetTicker получает 24-часовую статистику символа
func (c *BinanceClient) GetTicker(ctx context.Context, symbol string) (models.Ticker, error) {
	var stats []*futures.PriceChangeStats
	err := c.do(ctx, "ticker", symbol, func() error {
		var err error
		stats, err = c.futures.NewListPriceChangeStatsService().
			Symbol(symbol).
			Do(ctx)
		return err
	})
	if err != nil {
		return models.Ticker{}, fmt.Errorf("ошибка получения тикера %s: %w", symbol, err)
	}
	if len(stats) == 0 {
		return models.Ticker{}, fmt.Errorf("не найдены данные тикера для %s", symbol)
	}

	s := stats[0]
	var fields [5]float64
	for i, raw := range []string{s.LastPrice, s.PriceChangePercent, s.QuoteVolume, s.HighPrice, s.LowPrice} {
		if fields[i], err = strconv.ParseFloat(raw, 64); err != nil {
			return models.Ticker{}, fmt.Errorf("ошибка разбора тикера %s: %w", symbol, err)
		}
	}

	return models.Ticker{
		Symbol:        symbol,
		Last:          fields[0],
		ChangePercent: fields[1],
		QuoteVolume:   fields[2],
		High:          fields[3],
		Low:           fields[4],
		Timestamp:     time.UnixMilli(s.CloseTime),
	}, nil
}

// do ждет лимитер и повторяет запрос с экспоненциальной задержкой
func (c *BinanceClient) do(ctx context.Context, op, symbol string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	if c.retryTimeout > 0 {
		policy.MaxElapsedTime = c.retryTimeout
	}

	attempt := 0
	return backoff.Retry(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		err := fn()
		if err != nil {
			logger.Debug("Повтор запроса к бирже",
				zap.String("op", op),
				zap.String("symbol", symbol),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	}, backoff.WithContext(policy, ctx))
}

func parseKline(symbol, interval string, k *futures.Kline) (models.Candle, error) {
	var values [5]float64
	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("ошибка разбора свечи %s: %w", symbol, err)
		}
		values[i] = v
	}
	return models.Candle{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  time.UnixMilli(k.OpenTime),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		CloseTime: time.UnixMilli(k.CloseTime),
	}, nil
}
