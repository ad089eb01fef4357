package technical

import (
	"math"
	"testing"
	"time"

	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

func generateTestCandles(count int, generator func(i int) models.Candle) models.CandleSeries {
	candles := make(models.CandleSeries, count)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		c := generator(i)
		c.OpenTime = start.Add(time.Duration(i) * time.Minute)
		candles[i] = c
	}
	return candles
}

func defaultAnalyzer() *Analyzer {
	return NewAnalyzer(config.Default().Analysis.Technical)
}

func TestExtractShortHistory(t *testing.T) {
	candles := generateTestCandles(10, func(i int) models.Candle {
		p := 100 + float64(i)
		return models.Candle{Open: p, High: p + 1, Low: p - 1, Close: p, Volume: 50}
	})

	ind := defaultAnalyzer().Extract(candles, models.Ticker{})
	if ind.RSI != 50 {
		t.Errorf("RSI = %v, при 10 свечах ожидалось нейтральное 50", ind.RSI)
	}
	if ind.Volume != 50 || ind.VolumeSMA20 != 50 {
		t.Errorf("объем = %v / %v, ожидался объем последней свечи", ind.Volume, ind.VolumeSMA20)
	}
	if ind.VolumeRatio() != 1 {
		t.Errorf("VolumeRatio() = %v", ind.VolumeRatio())
	}
}

func TestExtractSingleCandle(t *testing.T) {
	candles := generateTestCandles(1, func(int) models.Candle {
		return models.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
	})

	ind := defaultAnalyzer().Extract(candles, models.Ticker{QuoteVolume: 5000})
	if ind.MACD != 0 || ind.MACDSignal != 0 || ind.MACDHist != 0 {
		t.Errorf("MACD одной свечи должен быть нулевым: %+v", ind)
	}
	if ind.PrevMACD != ind.MACD || ind.PrevMACDSignal != ind.MACDSignal {
		t.Error("предыдущие значения MACD должны совпадать с текущими")
	}
	if ind.SMA20 != 100 || ind.Trend != models.TrendDown {
		t.Errorf("SMA20 = %v, тренд = %s", ind.SMA20, ind.Trend)
	}
	if ind.Volume != 5000 {
		t.Errorf("Volume = %v, ожидался объем тикера", ind.Volume)
	}
}

func TestExtractRisingSeries(t *testing.T) {
	candles := generateTestCandles(60, func(i int) models.Candle {
		p := 100 + float64(i)
		return models.Candle{Open: p - 0.5, High: p + 1, Low: p - 1, Close: p, Volume: 100}
	})

	ind := defaultAnalyzer().Extract(candles, models.Ticker{})
	if ind.RSI <= 70 {
		t.Errorf("RSI = %v, на непрерывном росте ожидалось > 70", ind.RSI)
	}
	if ind.Trend != models.TrendUp {
		t.Errorf("тренд = %s, ожидался uptrend", ind.Trend)
	}
	if ind.MACD <= 0 {
		t.Errorf("MACD = %v, ожидалось > 0", ind.MACD)
	}
	if math.Abs(ind.MACDHist-(ind.MACD-ind.MACDSignal)) > 1e-12 {
		t.Error("гистограмма должна быть разницей MACD и сигнальной линии")
	}
	if ind.ImbalanceDefined {
		t.Error("без медвежьих свечей дисбаланс не определен")
	}
}

func TestEMASeries(t *testing.T) {
	got := EMASeries([]float64{2, 4, 6}, 3)
	want := []float64{2, 3, 4.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("EMASeries = %v, ожидалось %v", got, want)
		}
	}
	if len(EMASeries(nil, 3)) != 0 {
		t.Error("пустой ряд должен давать пустой результат")
	}
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
		want   float64
	}{
		{"полное окно", []float64{1, 2, 3, 4}, 2, 3.5},
		{"короткая история", []float64{2, 4, 6}, 20, 4},
		{"одно значение", []float64{5}, 20, 5},
		{"пусто", nil, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SMA(tt.values, tt.period); got != tt.want {
				t.Errorf("SMA = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestOrderFlowImbalance(t *testing.T) {
	bull := models.Candle{Open: 100, Close: 101, Volume: 100}
	bear := models.Candle{Open: 101, Close: 100, Volume: 50}
	flat := models.Candle{Open: 100, Close: 100, Volume: 1000}

	tests := []struct {
		name        string
		candles     models.CandleSeries
		want        float64
		wantDefined bool
	}{
		{"три бычьих к двум медвежьим", models.CandleSeries{bull, bear, bull, bear, bull}, 3, true},
		{"только бычьи", models.CandleSeries{bull, bull}, 0, false},
		{"окно в пять свечей", models.CandleSeries{bear, bear, bear, bull, bull, bull, bull, bear}, 8, true},
		{"доджи не учитываются", models.CandleSeries{flat, bull, bear}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defined := OrderFlowImbalance(tt.candles, 5)
			if got != tt.want || defined != tt.wantDefined {
				t.Errorf("OrderFlowImbalance = %v, %v; ожидалось %v, %v", got, defined, tt.want, tt.wantDefined)
			}
		})
	}
}
