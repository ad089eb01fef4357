package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skalibog/sigcore/internal/analysis/mtf"
	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/internal/storage"
	"github.com/skalibog/sigcore/pkg/logger"
	"github.com/skalibog/sigcore/pkg/models"
)

// MarketData источник свечей и тикеров
type MarketData interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) (models.CandleSeries, error)
	GetTicker(ctx context.Context, symbol string) (models.Ticker, error)
}

// Analyzer сканирует символы: загрузка данных, конвейер, журнал сигналов
type Analyzer struct {
	trading  config.TradingConfig
	mtf      config.MTFConfig
	pipeline *Pipeline
	market   MarketData
	storage  storage.Storage
	symbols  []string
	now      func() time.Time
}

// NewAnalyzer создает новый анализатор
func NewAnalyzer(cfg *config.Config, pipeline *Pipeline, market MarketData, store storage.Storage) *Analyzer {
	return &Analyzer{
		trading:  cfg.Trading,
		mtf:      cfg.Analysis.MTF,
		pipeline: pipeline,
		market:   market,
		storage:  store,
		symbols:  cfg.Trading.Symbols,
		now:      time.Now,
	}
}

// GenerateSignals генерирует сигналы для всех отслеживаемых символов.
// Ошибка одного символа логируется и не прерывает сканирование.
func (a *Analyzer) GenerateSignals(ctx context.Context) (map[string]*models.SignalResult, error) {
	results := make(map[string]*models.SignalResult)
	var mutex sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if a.trading.Concurrency > 0 {
		g.SetLimit(a.trading.Concurrency)
	}

	for _, symbol := range a.symbols {
		sym := symbol
		g.Go(func() error {
			signal, err := a.generateSignalForSymbol(gctx, sym)
			if err != nil {
				logger.Warn("Ошибка генерации сигнала", zap.String("symbol", sym), zap.Error(err))
				return nil
			}

			mutex.Lock()
			results[sym] = signal
			mutex.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// generateSignalForSymbol генерирует сигнал для одного символа
func (a *Analyzer) generateSignalForSymbol(ctx context.Context, symbol string) (*models.SignalResult, error) {
	moment := a.now()

	candles, err := a.market.GetKlines(ctx, symbol, a.trading.Interval, a.trading.CandleLimit)
	if err != nil {
		return nil, err
	}
	ticker, err := a.market.GetTicker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrEmptySeries)
	}

	// Старшие таймфреймы на тот же момент, что и рабочий
	higher := make(map[string]models.CandleSeries)
	if a.mtf.Enabled {
		last := candles.Last().OpenTime
		for _, tf := range mtf.HigherTimeframes(a.trading.Interval) {
			series, err := a.market.GetKlines(ctx, symbol, tf, a.mtf.CandleLimit)
			if err != nil {
				logger.Warn("Старший таймфрейм недоступен",
					zap.String("symbol", symbol),
					zap.String("timeframe", tf),
					zap.Error(err))
				continue
			}
			higher[tf] = mtf.TrimAfter(series, last)
		}
	}

	result, err := a.pipeline.Evaluate(Input{
		Symbol:    symbol,
		Timeframe: a.trading.Interval,
		Candles:   candles,
		Ticker:    ticker,
		Higher:    higher,
		Time:      moment,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Сигнал рассчитан",
		zap.String("symbol", symbol),
		zap.String("tier", result.Tier.Name),
		zap.String("direction", string(result.Analysis.Direction)),
		zap.Float64("confidence", result.Analysis.Confidence),
		zap.Float64("rsi", result.Indicators.RSI),
		zap.Float64("imbalance", result.Indicators.Imbalance),
		zap.Bool("imbalance_defined", result.Indicators.ImbalanceDefined),
		zap.Strings("patterns", result.Patterns.Names()),
		zap.Strings("contradictions", result.Analysis.ContradictionStrings()),
		zap.Bool("emit", result.Analysis.ShouldEmit))

	// Сохраняем сигнал в журнал
	if err := a.storage.SaveSignal(ctx, NewRecord(uuid.NewString(), result)); err != nil {
		logger.Warn("Не удалось сохранить сигнал", zap.String("symbol", symbol), zap.Error(err))
	}

	return result, nil
}

// GetSignalHistory возвращает историю сигналов для символа
func (a *Analyzer) GetSignalHistory(ctx context.Context, symbol string, limit int) ([]models.SignalRecord, error) {
	return a.storage.GetSignalHistory(ctx, symbol, limit)
}
