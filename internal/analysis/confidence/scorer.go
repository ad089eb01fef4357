package confidence

import (
	"fmt"
	"math"

	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

// Категории противоречий
const (
	CategoryDirectionRSI = "direction_rsi"
	CategoryRecovery     = "recovery"
	CategoryFallingKnife = "falling_knife"
	CategoryMACD         = "macd_histogram"
	CategoryTrend        = "trend"
	CategoryVolatility   = "volatility"
	CategoryDoji         = "doji"
	CategoryMTF          = "mtf"
	CategoryNeutralSell  = "neutral_sell"
)

const (
	criticalSellRSI = 35.0
	criticalBuyRSI  = 75.0

	macdBonus      = 15.0
	volumeBonus    = 10.0
	volumePenalty  = 10.0
	highVolumeRate = 1.5
	lowVolumeRate  = 0.5

	minEmitConfidence = 40.0
	cautionConfidence = 55.0
)

// Input данные для оценки одного направления
type Input struct {
	Direction  models.Direction
	Indicators models.IndicatorSet
	Change24h  float64
	Doji       bool
	MTFStatus  models.MTFStatus
}

// Scorer рассчитывает уверенность, противоречия и размер позиции
type Scorer struct {
	config config.ScoringConfig
	policy Policy
}

// NewScorer создает оценщик с политикой из конфигурации
func NewScorer(cfg config.ScoringConfig) (*Scorer, error) {
	policy, err := ParsePolicy(cfg.ContradictionPolicy)
	if err != nil {
		return nil, err
	}
	return &Scorer{config: cfg, policy: policy}, nil
}

// Policy возвращает активную политику противоречий
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Evaluate оценивает сигнал и применяет политику противоречий
func (s *Scorer) Evaluate(in Input) models.SignalAnalysis {
	return s.policy.Resolve(s, in, s.Score(in))
}

// Score оценивает заданное направление без политики
func (s *Scorer) Score(in Input) models.SignalAnalysis {
	if in.Direction != models.DirectionBuy && in.Direction != models.DirectionSell {
		return models.SignalAnalysis{
			Direction:   models.DirectionWait,
			Explanation: "WAIT: нет условий для входа",
		}
	}

	base := BaseConfidence(in.Direction, in.Indicators.RSI)
	contradictions := s.Contradictions(in)

	confidence := base
	for _, c := range contradictions {
		confidence -= s.penalty(c)
	}
	confidence += Bonus(in.Direction, in.Indicators)

	analysis := models.SignalAnalysis{
		Direction:      in.Direction,
		BaseConfidence: base,
		Contradictions: contradictions,
	}
	return s.finalize(analysis, confidence)
}

// Adjust масштабирует уверенность множителем и пересчитывает решение.
// veto запрещает отправку независимо от уверенности.
func (s *Scorer) Adjust(a models.SignalAnalysis, multiplier float64, veto bool) models.SignalAnalysis {
	if a.Direction == models.DirectionWait {
		return a
	}
	a = s.finalize(a, a.Confidence*multiplier)
	if veto {
		a.ShouldEmit = false
		a.Explanation = explain(a)
	}
	return a
}

func (s *Scorer) finalize(a models.SignalAnalysis, confidence float64) models.SignalAnalysis {
	a.Confidence = Clamp(confidence)
	a.ShouldEmit = ShouldEmit(a.Confidence, a.Contradictions)
	a.PositionSizePercent = PositionSize(a.Confidence)
	a.Explanation = explain(a)
	return a
}

// Contradictions проверяет все правила; каждое добавляет не больше одной записи
func (s *Scorer) Contradictions(in Input) []models.Contradiction {
	var out []models.Contradiction
	add := func(sev models.Severity, category, format string, args ...interface{}) {
		out = append(out, models.Contradiction{
			Severity: sev,
			Category: category,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	rsi := in.Indicators.RSI
	hist := in.Indicators.MACDHist
	change := in.Change24h
	sell := in.Direction == models.DirectionSell
	buy := in.Direction == models.DirectionBuy
	neutral := rsi >= s.config.NeutralLow && rsi <= s.config.NeutralHigh

	if sell && rsi < criticalSellRSI {
		add(models.SeverityCritical, CategoryDirectionRSI, "SELL при RSI %.1f < %.0f (перепроданность)", rsi, criticalSellRSI)
	}
	if buy && rsi > criticalBuyRSI {
		add(models.SeverityCritical, CategoryDirectionRSI, "BUY при RSI %.1f > %.0f (перекупленность)", rsi, criticalBuyRSI)
	}
	if sell && change > 10 && rsi < 50 {
		add(models.SeverityWarning, CategoryRecovery, "SELL на восстановлении %+.1f%% за 24ч при RSI %.1f", change, rsi)
	}
	if buy && change < -10 && rsi > 50 {
		add(models.SeverityWarning, CategoryFallingKnife, "BUY на падении %+.1f%% за 24ч при RSI %.1f", change, rsi)
	}
	if sell && hist > 0 {
		add(models.SeverityWarning, CategoryMACD, "SELL при положительной гистограмме MACD %.6f", hist)
	}
	if buy && hist < 0 {
		add(models.SeverityWarning, CategoryMACD, "BUY при отрицательной гистограмме MACD %.6f", hist)
	}
	if sell && in.Indicators.Trend == models.TrendUp && rsi < 65 {
		add(models.SeverityWarning, CategoryTrend, "SELL против восходящего тренда при RSI %.1f", rsi)
	}
	if buy && in.Indicators.Trend == models.TrendDown && rsi > 35 {
		add(models.SeverityWarning, CategoryTrend, "BUY против нисходящего тренда при RSI %.1f", rsi)
	}
	if math.Abs(change) > 30 {
		add(models.SeverityWarning, CategoryVolatility, "экстремальная волатильность %+.1f%% за 24ч", change)
	}
	if in.Doji && neutral {
		add(models.SeverityWarning, CategoryDoji, "доджи при нейтральном RSI %.1f", rsi)
	}
	if in.MTFStatus == models.MTFConflict || in.MTFStatus == models.MTFMixed {
		add(models.SeverityWarning, CategoryMTF, "старшие таймфреймы: %s", in.MTFStatus)
	}
	if sell && neutral && change > 1 {
		add(models.SeverityWarning, CategoryNeutralSell, "SELL при нейтральном RSI %.1f и росте %+.1f%%", rsi, change)
	}
	return out
}

// penalty штраф за противоречие. По умолчанию все предупреждения стоят одинаково.
func (s *Scorer) penalty(c models.Contradiction) float64 {
	p := s.config.Penalties
	if c.Severity == models.SeverityCritical {
		return p.Critical
	}
	switch c.Category {
	case CategoryMTF:
		return p.MTF
	case CategoryDoji, CategoryVolatility, CategoryNeutralSell:
		return p.Minor
	default:
		return p.Warning
	}
}

// BaseConfidence базовая уверенность по RSI
func BaseConfidence(direction models.Direction, rsi float64) float64 {
	switch direction {
	case models.DirectionBuy:
		switch {
		case rsi < 20:
			return 70
		case rsi < 30:
			return 60
		case rsi < 40:
			return 40
		default:
			return 20
		}
	case models.DirectionSell:
		switch {
		case rsi > 80:
			return 70
		case rsi > 70:
			return 60
		case rsi > 60:
			return 40
		default:
			return 20
		}
	}
	return 0
}

// Bonus подтверждение MACD и объема
func Bonus(direction models.Direction, ind models.IndicatorSet) float64 {
	var bonus float64
	switch direction {
	case models.DirectionBuy:
		if ind.MACD > ind.MACDSignal && ind.MACDHist > 0 {
			bonus += macdBonus
		}
	case models.DirectionSell:
		if ind.MACD < ind.MACDSignal && ind.MACDHist < 0 {
			bonus += macdBonus
		}
	}

	ratio := ind.VolumeRatio()
	if ratio > highVolumeRate {
		bonus += volumeBonus
	} else if ratio < lowVolumeRate {
		bonus -= volumePenalty
	}
	return bonus
}

// Clamp ограничивает уверенность диапазоном [0, 100]
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// ShouldEmit критическое противоречие, уверенность ниже 40 или
// уверенность 40-55 с любым противоречием запрещают отправку
func ShouldEmit(confidence float64, contradictions []models.Contradiction) bool {
	for _, c := range contradictions {
		if c.Severity == models.SeverityCritical {
			return false
		}
	}
	if confidence < minEmitConfidence {
		return false
	}
	if confidence <= cautionConfidence && len(contradictions) > 0 {
		return false
	}
	return true
}

// PositionSize процент депозита по уверенности
func PositionSize(confidence float64) float64 {
	switch {
	case confidence < 40:
		return 0
	case confidence < 55:
		return 0.5
	case confidence < 70:
		return 1.5
	case confidence < 80:
		return 2.0
	default:
		return 3.0
	}
}

// HasCategory сообщает, есть ли противоречие данной категории
func HasCategory(a models.SignalAnalysis, category string) bool {
	for _, c := range a.Contradictions {
		if c.Category == category {
			return true
		}
	}
	return false
}

func explain(a models.SignalAnalysis) string {
	status := "SKIP"
	if a.ShouldEmit {
		status = "EMIT"
	}
	s := fmt.Sprintf("%s %s: уверенность %.0f%%, противоречий %d", status, a.Direction, a.Confidence, len(a.Contradictions))
	if a.Inverted {
		s += " (инвертирован)"
	}
	return s
}
