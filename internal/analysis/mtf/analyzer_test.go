package mtf

import (
	"reflect"
	"testing"
	"time"

	"github.com/skalibog/sigcore/pkg/models"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func generateTestCandles(count int, price func(i int) float64) models.CandleSeries {
	candles := make(models.CandleSeries, count)
	for i := range candles {
		p := price(i)
		candles[i] = models.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     p,
			High:     p + 1,
			Low:      p - 1,
			Close:    p,
			Volume:   100,
		}
	}
	return candles
}

var (
	rising  = generateTestCandles(60, func(i int) float64 { return 100 + float64(i) })
	falling = generateTestCandles(60, func(i int) float64 { return 200 - float64(i) })
	flat    = generateTestCandles(60, func(int) float64 { return 100 })
)

func TestTrend(t *testing.T) {
	tests := []struct {
		name    string
		candles models.CandleSeries
		want    models.TimeframeTrend
	}{
		{"рост", rising, models.TimeframeBullish},
		{"падение", falling, models.TimeframeBearish},
		{"флэт", flat, models.TimeframeNeutral},
		{"мало свечей", rising[:49], models.TimeframeNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(tt.candles); got != tt.want {
				t.Errorf("Trend = %s, ожидалось %s", got, tt.want)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name         string
		timeframe    string
		higher       map[string]models.CandleSeries
		wantStrength int
		wantAligned  bool
		wantTrends   int
	}{
		{"все бычьи", "15m", map[string]models.CandleSeries{"1h": rising, "4h": rising}, 2, true, 2},
		{"все медвежьи", "15m", map[string]models.CandleSeries{"1h": falling, "4h": falling}, -2, true, 2},
		{"бычий и нейтральный", "15m", map[string]models.CandleSeries{"1h": rising, "4h": flat}, 1, false, 2},
		{"медвежий и нейтральный", "15m", map[string]models.CandleSeries{"1h": flat, "4h": falling}, -1, false, 2},
		{"разнонаправленные", "15m", map[string]models.CandleSeries{"1h": rising, "4h": falling}, 0, false, 2},
		{"один доступный таймфрейм", "15m", map[string]models.CandleSeries{"4h": rising}, 2, true, 1},
		{"нет данных", "15m", nil, 0, false, 0},
		{"неизвестный таймфрейм", "7m", map[string]models.CandleSeries{"1h": rising}, 0, false, 0},
	}

	a := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := a.Analyze(tt.timeframe, tt.higher)
			if r.Strength != tt.wantStrength || r.Aligned != tt.wantAligned || len(r.Trends) != tt.wantTrends {
				t.Errorf("Analyze = strength %d aligned %v trends %d; ожидалось %d %v %d",
					r.Strength, r.Aligned, len(r.Trends), tt.wantStrength, tt.wantAligned, tt.wantTrends)
			}
		})
	}
}

func TestStatusAndConfirm(t *testing.T) {
	withTrends := func(strength int) models.MTFResult {
		return models.MTFResult{
			Trends:   map[string]models.TimeframeTrend{"1h": models.TimeframeNeutral},
			Strength: strength,
		}
	}

	tests := []struct {
		name           string
		direction      models.Direction
		result         models.MTFResult
		wantStatus     models.MTFStatus
		wantMultiplier float64
		wantVeto       bool
	}{
		{"BUY полное согласие", models.DirectionBuy, withTrends(2), models.MTFAligned, 1.2, false},
		{"SELL полное согласие", models.DirectionSell, withTrends(-2), models.MTFAligned, 1.2, false},
		{"BUY частичное согласие", models.DirectionBuy, withTrends(1), models.MTFAligned, 1.1, false},
		{"нейтрально", models.DirectionBuy, withTrends(0), models.MTFMixed, 0.95, false},
		{"SELL частичный конфликт", models.DirectionSell, withTrends(1), models.MTFConflict, 0.7, false},
		{"BUY полный конфликт", models.DirectionBuy, withTrends(-2), models.MTFConflict, 0.5, true},
		{"нет старших таймфреймов", models.DirectionBuy, models.MTFResult{}, models.MTFUnknown, 1, false},
		{"WAIT", models.DirectionWait, withTrends(2), models.MTFUnknown, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.direction, tt.result); got != tt.wantStatus {
				t.Errorf("Status = %s, ожидалось %s", got, tt.wantStatus)
			}
			c := Confirm(tt.direction, tt.result)
			if c.Multiplier != tt.wantMultiplier || c.Veto != tt.wantVeto {
				t.Errorf("Confirm = %+v, ожидалось %v veto=%v", c, tt.wantMultiplier, tt.wantVeto)
			}
		})
	}
}

func TestTrimAfter(t *testing.T) {
	series := rising[:10]
	trimmed := TrimAfter(series, start.Add(4*time.Hour))
	if len(trimmed) != 5 {
		t.Errorf("len = %d, ожидалось 5 свечей до момента включительно", len(trimmed))
	}
	if len(TrimAfter(series, time.Time{})) != 10 {
		t.Error("нулевой момент не должен обрезать ряд")
	}
	if len(TrimAfter(series, start.Add(-time.Hour))) != 0 {
		t.Error("все свечи после момента должны быть отброшены")
	}
}

func TestHigherTimeframes(t *testing.T) {
	if got := HigherTimeframes("15m"); !reflect.DeepEqual(got, []string{"1h", "4h"}) {
		t.Errorf("HigherTimeframes(15m) = %v", got)
	}
	if got := HigherTimeframes("7m"); len(got) != 0 {
		t.Errorf("HigherTimeframes(7m) = %v, ожидалось пусто", got)
	}

	got := HigherTimeframes("1h")
	got[0] = "mutated"
	if HigherTimeframes("1h")[0] != "4h" {
		t.Error("возвращаемый срез не должен разделять память с таблицей")
	}
}
