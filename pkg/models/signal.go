package models

import (
	"strings"
	"time"
)

// Direction направление сделки
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionWait Direction = "WAIT"
)

// Opposite возвращает противоположное направление, WAIT остается WAIT
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBuy:
		return DirectionSell
	case DirectionSell:
		return DirectionBuy
	default:
		return DirectionWait
	}
}

// Trend положение цены относительно SMA20
type Trend string

const (
	TrendUp   Trend = "uptrend"
	TrendDown Trend = "downtrend"
)

// IndicatorSet набор индикаторов для одной точки анализа
type IndicatorSet struct {
	Price          float64
	RSI            float64
	MACD           float64
	MACDSignal     float64
	MACDHist       float64
	PrevMACD       float64
	PrevMACDSignal float64
	SMA20          float64
	Trend          Trend
	Volume         float64
	VolumeSMA20    float64

	// Imbalance объем бычьих свечей к объему медвежьих; при нулевом знаменателе не определен
	Imbalance        float64
	ImbalanceDefined bool
}

// VolumeRatio отношение объема к SMA20 объема
func (i IndicatorSet) VolumeRatio() float64 {
	if i.VolumeSMA20 <= 0 {
		return 1
	}
	return i.Volume / i.VolumeSMA20
}

// PatternFlags свечные паттерны последних 1-2 свечей
type PatternFlags struct {
	Doji             bool
	BullishEngulfing bool
	BearishEngulfing bool
	Hammer           bool
	ShootingStar     bool
}

// Names возвращает названия найденных паттернов
func (p PatternFlags) Names() []string {
	var names []string
	if p.Doji {
		names = append(names, "DOJI")
	}
	if p.BullishEngulfing {
		names = append(names, "BULLISH_ENGULFING")
	}
	if p.BearishEngulfing {
		names = append(names, "BEARISH_ENGULFING")
	}
	if p.Hammer {
		names = append(names, "HAMMER")
	}
	if p.ShootingStar {
		names = append(names, "SHOOTING_STAR")
	}
	return names
}

// PriceLevels уровни поддержки и сопротивления, ближайшие к цене первыми
type PriceLevels struct {
	Support    []float64
	Resistance []float64
}

// TimeframeTrend тренд старшего таймфрейма
type TimeframeTrend string

const (
	TimeframeBullish TimeframeTrend = "bullish"
	TimeframeBearish TimeframeTrend = "bearish"
	TimeframeNeutral TimeframeTrend = "neutral"
)

// MTFResult результат мультитаймфреймового анализа
type MTFResult struct {
	Timeframe string
	Trends    map[string]TimeframeTrend
	Aligned   bool
	Strength  int
}

// MTFStatus согласованность старших таймфреймов с направлением
type MTFStatus string

const (
	MTFAligned  MTFStatus = "aligned"
	MTFMixed    MTFStatus = "mixed"
	MTFConflict MTFStatus = "conflict"
	MTFUnknown  MTFStatus = "unknown"
)

// Flip статус для противоположного направления
func (s MTFStatus) Flip() MTFStatus {
	switch s {
	case MTFAligned:
		return MTFConflict
	case MTFConflict:
		return MTFAligned
	default:
		return s
	}
}

// Severity уровень противоречия
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Contradiction обнаруженный конфликт между направлением и индикатором
type Contradiction struct {
	Severity Severity
	Category string
	Message  string
}

func (c Contradiction) String() string {
	return string(c.Severity) + ": " + c.Message
}

// SignalAnalysis результат оценки уверенности
type SignalAnalysis struct {
	Direction           Direction
	Confidence          float64
	BaseConfidence      float64
	Contradictions      []Contradiction
	ShouldEmit          bool
	PositionSizePercent float64
	Explanation         string
	Inverted            bool
}

// HasCritical сообщает, есть ли критическое противоречие
func (a SignalAnalysis) HasCritical() bool {
	for _, c := range a.Contradictions {
		if c.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// ContradictionStrings возвращает противоречия в виде строк с тегами
func (a SignalAnalysis) ContradictionStrings() []string {
	out := make([]string, len(a.Contradictions))
	for i, c := range a.Contradictions {
		out[i] = c.String()
	}
	return out
}

// TierConfig параметры уровня ликвидности символа
type TierConfig struct {
	Name                       string  `yaml:"name"`
	ConfidenceThreshold        float64 `yaml:"confidence_threshold"`
	PositionSizePercent        float64 `yaml:"position_size_percent"`
	StopLossPercent            float64 `yaml:"stop_loss_percent"`
	RequiresTripleConfirmation bool    `yaml:"requires_triple_confirmation"`
}

// TradeLevels уровни сделки
type TradeLevels struct {
	Entry             float64
	StopLoss          float64
	TakeProfit1       float64
	TakeProfit2       float64
	TakeProfit3       float64
	ATREstimate       float64
	RiskReward        float64
	PositionSizeQuote float64
	Commission        float64
}

// SignalResult итог анализа символа
type SignalResult struct {
	Symbol     string
	Timestamp  time.Time
	Tier       TierConfig
	Ticker     Ticker
	Indicators IndicatorSet
	Patterns   PatternFlags
	Levels     PriceLevels
	MTF        MTFResult
	MTFStatus  MTFStatus
	// RawConfidence уверенность исходного направления до политики, MTF и фильтра уровня
	RawConfidence float64
	Analysis      SignalAnalysis
	Trade      *TradeLevels
}

// SignalRecord строка журнала сигналов, пишется на каждую оценку
type SignalRecord struct {
	ID              string
	Timestamp       time.Time
	Symbol          string
	Tier            string
	Direction       Direction
	Confidence      float64
	RSI             float64
	MACDHist        float64
	Change24h       float64
	VolumeRatio     float64
	Contradictions  []string
	Inverted        bool
	FinalConfidence float64
	ShouldEmit      bool
}

// JoinedContradictions противоречия одной строкой для хранилищ без массивов
func (r SignalRecord) JoinedContradictions() string {
	return strings.Join(r.Contradictions, "; ")
}
