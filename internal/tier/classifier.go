package tier

import (
	"fmt"

	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

// Classifier неизменяемая таблица символ -> уровень
type Classifier struct {
	bySymbol map[string]models.TierConfig
	unknown  models.TierConfig
}

// NewClassifier строит таблицу из конфигурации
func NewClassifier(cfg config.TiersConfig) *Classifier {
	c := &Classifier{
		bySymbol: make(map[string]models.TierConfig),
		unknown:  cfg.Unknown,
	}
	for _, level := range cfg.Levels {
		for _, sym := range level.Symbols {
			c.bySymbol[config.NormalizeSymbol(sym)] = level.TierConfig
		}
	}
	return c
}

// Classify возвращает уровень символа; для неизвестных символов самый консервативный
func (c *Classifier) Classify(symbol string) (models.TierConfig, bool) {
	t, ok := c.bySymbol[config.NormalizeSymbol(symbol)]
	if !ok {
		return c.unknown, false
	}
	return t, true
}

// Gate применяет порог уверенности, потолок размера позиции и тройное подтверждение уровня
func (c *Classifier) Gate(t models.TierConfig, a models.SignalAnalysis, tripleConfirmed bool) models.SignalAnalysis {
	if a.Direction == models.DirectionWait {
		return a
	}
	if t.PositionSizePercent > 0 && a.PositionSizePercent > t.PositionSizePercent {
		a.PositionSizePercent = t.PositionSizePercent
	}
	if !a.ShouldEmit {
		return a
	}
	if a.Confidence < t.ConfidenceThreshold {
		a.ShouldEmit = false
		a.Explanation += fmt.Sprintf("; ниже порога %s %.0f%%", t.Name, t.ConfidenceThreshold)
		return a
	}
	if t.RequiresTripleConfirmation && !tripleConfirmed {
		a.ShouldEmit = false
		a.Explanation += fmt.Sprintf("; %s требует подтверждения RSI+MACD+MTF", t.Name)
	}
	return a
}

// TripleConfirmed RSI на стороне направления, MACD согласен и старшие таймфреймы согласованы
func TripleConfirmed(direction models.Direction, ind models.IndicatorSet, status models.MTFStatus) bool {
	if status != models.MTFAligned {
		return false
	}
	switch direction {
	case models.DirectionBuy:
		return ind.RSI < 50 && ind.MACD > ind.MACDSignal
	case models.DirectionSell:
		return ind.RSI > 50 && ind.MACD < ind.MACDSignal
	default:
		return false
	}
}
