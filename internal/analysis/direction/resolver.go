// Package direction выбирает направление сигнала по RSI, MACD и тренду.
package direction

import (
	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

// Rule название сработавшего правила
type Rule string

const (
	RuleOversold     Rule = "rsi_oversold"
	RuleOverbought   Rule = "rsi_overbought"
	RuleBullishCross Rule = "macd_bullish_cross"
	RuleBearishCross Rule = "macd_bearish_cross"
	RuleTrendBullish Rule = "trend_bullish"
	RuleTrendBearish Rule = "trend_bearish"
	RuleNoMatch      Rule = "none"
)

// Resolver проверяет правила по приоритету, первое совпадение побеждает.
// Экстремумы RSI всегда важнее MACD и тренда.
type Resolver struct {
	oversold   float64
	overbought float64
}

// NewResolver создает резолвер с порогами RSI
func NewResolver(cfg config.ScoringConfig) *Resolver {
	return &Resolver{
		oversold:   cfg.RSIOversold,
		overbought: cfg.RSIOverbought,
	}
}

// Resolve возвращает направление и сработавшее правило
func (r *Resolver) Resolve(ind models.IndicatorSet) (models.Direction, Rule) {
	switch {
	case ind.RSI < r.oversold:
		return models.DirectionBuy, RuleOversold
	case ind.RSI > r.overbought:
		return models.DirectionSell, RuleOverbought
	case ind.MACD > ind.MACDSignal && ind.PrevMACD <= ind.PrevMACDSignal:
		return models.DirectionBuy, RuleBullishCross
	case ind.MACD < ind.MACDSignal && ind.PrevMACD >= ind.PrevMACDSignal:
		return models.DirectionSell, RuleBearishCross
	case ind.Price > ind.SMA20 && ind.MACD > ind.MACDSignal:
		return models.DirectionBuy, RuleTrendBullish
	case ind.Price < ind.SMA20 && ind.MACD < ind.MACDSignal:
		return models.DirectionSell, RuleTrendBearish
	default:
		return models.DirectionWait, RuleNoMatch
	}
}
