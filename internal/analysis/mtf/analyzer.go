package mtf

import (
	"sort"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/skalibog/sigcore/pkg/models"
)

const (
	fastEMA = 20
	slowEMA = 50
)

// hierarchy рабочий таймфрейм -> два старших
var hierarchy = map[string][]string{
	"1m":  {"5m", "15m"},
	"3m":  {"15m", "1h"},
	"5m":  {"15m", "1h"},
	"15m": {"1h", "4h"},
	"30m": {"1h", "4h"},
	"1h":  {"4h", "1d"},
	"2h":  {"4h", "1d"},
	"4h":  {"1d", "1w"},
	"1d":  {"3d", "1w"},
}

// HigherTimeframes возвращает старшие таймфреймы для рабочего, nil если неизвестен
func HigherTimeframes(timeframe string) []string {
	return append([]string(nil), hierarchy[timeframe]...)
}

// Confirmation результат подтверждающего прохода
type Confirmation struct {
	Multiplier float64
	Veto       bool
	Reason     string
}

// Analyzer определяет тренд старших таймфреймов
type Analyzer struct{}

// NewAnalyzer создает MTF анализатор
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Trend bullish если цена > EMA20 > EMA50, bearish если цена < EMA20 < EMA50.
// Меньше 50 свечей дают neutral.
func Trend(candles models.CandleSeries) models.TimeframeTrend {
	if len(candles) < slowEMA {
		return models.TimeframeNeutral
	}
	closes := candles.Closes()
	fast := talib.Ema(closes, fastEMA)
	slow := talib.Ema(closes, slowEMA)

	price := closes[len(closes)-1]
	f, s := fast[len(fast)-1], slow[len(slow)-1]
	switch {
	case price > f && f > s:
		return models.TimeframeBullish
	case price < f && f < s:
		return models.TimeframeBearish
	default:
		return models.TimeframeNeutral
	}
}

// Analyze агрегирует тренды старших таймфреймов рабочего интервала.
// Отсутствующие в higher таймфреймы пропускаются.
func (a *Analyzer) Analyze(timeframe string, higher map[string]models.CandleSeries) models.MTFResult {
	result := models.MTFResult{
		Timeframe: timeframe,
		Trends:    make(map[string]models.TimeframeTrend),
	}

	var bullish, bearish int
	for _, tf := range hierarchy[timeframe] {
		candles, ok := higher[tf]
		if !ok || len(candles) == 0 {
			continue
		}
		trend := Trend(candles)
		result.Trends[tf] = trend
		switch trend {
		case models.TimeframeBullish:
			bullish++
		case models.TimeframeBearish:
			bearish++
		}
	}

	n := len(result.Trends)
	switch {
	case n == 0:
	case bullish == n:
		result.Strength, result.Aligned = 2, true
	case bearish == n:
		result.Strength, result.Aligned = -2, true
	case bullish > 0 && bearish == 0:
		result.Strength = 1
	case bearish > 0 && bullish == 0:
		result.Strength = -1
	}
	return result
}

func directionSign(d models.Direction) int {
	switch d {
	case models.DirectionBuy:
		return 1
	case models.DirectionSell:
		return -1
	default:
		return 0
	}
}

// Status сводит результат к aligned/mixed/conflict относительно направления
func Status(direction models.Direction, result models.MTFResult) models.MTFStatus {
	sign := directionSign(direction)
	if sign == 0 || len(result.Trends) == 0 {
		return models.MTFUnknown
	}
	switch s := result.Strength * sign; {
	case s > 0:
		return models.MTFAligned
	case s < 0:
		return models.MTFConflict
	default:
		return models.MTFMixed
	}
}

// Confirm множитель уверенности по согласию старших таймфреймов.
// Когда все старшие таймфреймы против направления, сигнал ветируется.
func Confirm(direction models.Direction, result models.MTFResult) Confirmation {
	sign := directionSign(direction)
	if sign == 0 || len(result.Trends) == 0 {
		return Confirmation{Multiplier: 1, Reason: "нет данных старших таймфреймов"}
	}
	switch result.Strength * sign {
	case 2:
		return Confirmation{Multiplier: 1.2, Reason: "полное согласие"}
	case 1:
		return Confirmation{Multiplier: 1.1, Reason: "частичное согласие"}
	case -1:
		return Confirmation{Multiplier: 0.7, Reason: "частичный конфликт"}
	case -2:
		return Confirmation{Multiplier: 0.5, Veto: true, Reason: "все старшие таймфреймы против"}
	default:
		return Confirmation{Multiplier: 0.95, Reason: "нейтрально"}
	}
}

// TrimAfter отбрасывает свечи, открытые после момента анализа
func TrimAfter(candles models.CandleSeries, moment time.Time) models.CandleSeries {
	if moment.IsZero() {
		return candles
	}
	n := sort.Search(len(candles), func(i int) bool {
		return candles[i].OpenTime.After(moment)
	})
	return candles[:n]
}
