package aggregator

import (
	"fmt"
	"time"

	"github.com/skalibog/sigcore/internal/analysis/confidence"
	"github.com/skalibog/sigcore/internal/analysis/direction"
	"github.com/skalibog/sigcore/internal/analysis/mtf"
	"github.com/skalibog/sigcore/internal/analysis/pattern"
	"github.com/skalibog/sigcore/internal/analysis/technical"
	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/internal/tier"
	"github.com/skalibog/sigcore/internal/trade"
	"github.com/skalibog/sigcore/pkg/models"
)

// Input данные одного символа на момент анализа
type Input struct {
	Symbol    string
	Timeframe string
	Candles   models.CandleSeries
	Ticker    models.Ticker
	Higher    map[string]models.CandleSeries
	Time      time.Time
}

// Pipeline чистый конвейер: индикаторы, паттерны, MTF, направление,
// уверенность, фильтр уровня, уровни сделки. Состояния не хранит.
type Pipeline struct {
	technical  *technical.Analyzer
	patterns   *pattern.Detector
	mtf        *mtf.Analyzer
	resolver   *direction.Resolver
	scorer     *confidence.Scorer
	tiers      *tier.Classifier
	calculator *trade.Calculator
	mtfConfirm bool
}

// NewPipeline собирает конвейер из конфигурации
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	scorer, err := confidence.NewScorer(cfg.Analysis.Scoring)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		technical:  technical.NewAnalyzer(cfg.Analysis.Technical),
		patterns:   pattern.NewDetector(cfg.Analysis.Patterns),
		mtf:        mtf.NewAnalyzer(),
		resolver:   direction.NewResolver(cfg.Analysis.Scoring),
		scorer:     scorer,
		tiers:      tier.NewClassifier(cfg.Tiers),
		calculator: trade.NewCalculator(cfg.Risk),
		mtfConfirm: cfg.Analysis.MTF.Confirm,
	}, nil
}

// Evaluate рассчитывает сигнал. Ошибка возвращается только для некорректных свечей.
func (p *Pipeline) Evaluate(in Input) (*models.SignalResult, error) {
	if err := in.Candles.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", in.Symbol, err)
	}

	ind := p.technical.Extract(in.Candles, in.Ticker)
	flags := p.patterns.Detect(in.Candles)
	levels := p.patterns.Levels(in.Candles)

	higher := make(map[string]models.CandleSeries, len(in.Higher))
	for tf, series := range in.Higher {
		if series.Validate() == nil {
			higher[tf] = series
		}
	}
	mtfResult := p.mtf.Analyze(in.Timeframe, higher)

	dir, _ := p.resolver.Resolve(ind)
	scoreInput := confidence.Input{
		Direction:  dir,
		Indicators: ind,
		Change24h:  in.Ticker.ChangePercent,
		Doji:       flags.Doji,
		MTFStatus:  mtf.Status(dir, mtfResult),
	}
	raw := p.scorer.Score(scoreInput)
	analysis := p.scorer.Evaluate(scoreInput)

	// Подтверждение старшими таймфреймами только если MTF предупреждение не учтено
	if p.mtfConfirm && analysis.Direction != models.DirectionWait &&
		!confidence.HasCategory(analysis, confidence.CategoryMTF) {
		c := mtf.Confirm(analysis.Direction, mtfResult)
		analysis = p.scorer.Adjust(analysis, c.Multiplier, c.Veto)
	}

	tierCfg, _ := p.tiers.Classify(in.Symbol)
	status := mtf.Status(analysis.Direction, mtfResult)
	analysis = p.tiers.Gate(tierCfg, analysis, tier.TripleConfirmed(analysis.Direction, ind, status))

	result := &models.SignalResult{
		Symbol:        in.Symbol,
		Timestamp:     in.Time,
		Tier:          tierCfg,
		Ticker:        in.Ticker,
		Indicators:    ind,
		Patterns:      flags,
		Levels:        levels,
		MTF:           mtfResult,
		MTFStatus:     status,
		RawConfidence: raw.Confidence,
		Analysis:      analysis,
	}

	if analysis.ShouldEmit && analysis.Direction != models.DirectionWait {
		tradeLevels, err := p.calculator.Calculate(trade.Request{
			Direction:           analysis.Direction,
			Entry:               ind.Price,
			Change24h:           in.Ticker.ChangePercent,
			PositionSizePercent: analysis.PositionSizePercent,
			MaxStopPercent:      tierCfg.StopLossPercent,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Symbol, err)
		}
		result.Trade = &tradeLevels
	}
	return result, nil
}

// NewRecord строка журнала сигналов для результата
func NewRecord(id string, r *models.SignalResult) models.SignalRecord {
	return models.SignalRecord{
		ID:              id,
		Timestamp:       r.Timestamp,
		Symbol:          r.Symbol,
		Tier:            r.Tier.Name,
		Direction:       r.Analysis.Direction,
		Confidence:      r.RawConfidence,
		RSI:             r.Indicators.RSI,
		MACDHist:        r.Indicators.MACDHist,
		Change24h:       r.Ticker.ChangePercent,
		VolumeRatio:     r.Indicators.VolumeRatio(),
		Contradictions:  r.Analysis.ContradictionStrings(),
		Inverted:        r.Analysis.Inverted,
		FinalConfidence: r.Analysis.Confidence,
		ShouldEmit:      r.Analysis.ShouldEmit,
	}
}
