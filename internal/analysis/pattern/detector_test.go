package pattern

import (
	"reflect"
	"testing"

	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

func candle(open, high, low, close float64) models.Candle {
	return models.Candle{Open: open, High: high, Low: low, Close: close, Volume: 100}
}

func TestSingleCandlePatterns(t *testing.T) {
	tests := []struct {
		name         string
		c            models.Candle
		doji         bool
		hammer       bool
		shootingStar bool
	}{
		{"доджи", candle(100, 101, 99, 100.05), true, false, false},
		{"нулевой диапазон", candle(100, 100, 100, 100), true, false, false},
		{"молот", candle(100, 101.2, 97, 101), false, true, false},
		{"падающая звезда", candle(101, 104, 99.8, 100), false, false, true},
		{"обычная бычья свеча", candle(100, 103.2, 99.8, 103), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDoji(tt.c); got != tt.doji {
				t.Errorf("IsDoji = %v, ожидалось %v", got, tt.doji)
			}
			if got := IsHammer(tt.c); got != tt.hammer {
				t.Errorf("IsHammer = %v, ожидалось %v", got, tt.hammer)
			}
			if got := IsShootingStar(tt.c); got != tt.shootingStar {
				t.Errorf("IsShootingStar = %v, ожидалось %v", got, tt.shootingStar)
			}
		})
	}
}

func TestDetectEngulfing(t *testing.T) {
	d := NewDetector(config.Default().Analysis.Patterns)

	bullish := d.Detect(models.CandleSeries{
		candle(101, 101.5, 99.5, 100),
		candle(99.5, 102.5, 99, 102),
	})
	if !bullish.BullishEngulfing || bullish.BearishEngulfing {
		t.Errorf("ожидалось бычье поглощение: %+v", bullish)
	}

	bearish := d.Detect(models.CandleSeries{
		candle(100, 101.5, 99.5, 101),
		candle(101.5, 102, 98.5, 99),
	})
	if !bearish.BearishEngulfing || bearish.BullishEngulfing {
		t.Errorf("ожидалось медвежье поглощение: %+v", bearish)
	}

	single := d.Detect(models.CandleSeries{candle(99.5, 102.5, 99, 102)})
	if single.BullishEngulfing || single.BearishEngulfing {
		t.Error("поглощение невозможно на одной свече")
	}
	if len(d.Detect(nil).Names()) != 0 {
		t.Error("пустой ряд не должен давать паттернов")
	}
}

// swingSeries три локальных максимума 102/103/104 и три минимума 88/87/86
func swingSeries(lastClose float64) models.CandleSeries {
	offsets := []float64{0, 1, 2, 1, 0, 1, 3, 1, 0, 1, 4, 1, 0, 0, 0}
	series := make(models.CandleSeries, len(offsets))
	for i, o := range offsets {
		series[i] = candle(95, 100+o, 90-o, 95)
	}
	last := &series[len(series)-1]
	last.Close = lastClose
	if lastClose > last.High {
		last.High = lastClose
	}
	return series
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name           string
		candles        models.CandleSeries
		maxLevels      int
		wantSupport    []float64
		wantResistance []float64
	}{
		{
			name:           "ближайшие к цене первыми",
			candles:        swingSeries(95),
			maxLevels:      3,
			wantSupport:    []float64{88, 87, 86},
			wantResistance: []float64{102, 103, 104},
		},
		{
			name:           "ограничение количества",
			candles:        swingSeries(95),
			maxLevels:      2,
			wantSupport:    []float64{88, 87},
			wantResistance: []float64{102, 103},
		},
		{
			name:           "максимум ниже цены не сопротивление",
			candles:        swingSeries(102.5),
			maxLevels:      3,
			wantSupport:    []float64{88, 87, 86},
			wantResistance: []float64{103, 104},
		},
		{
			name:    "меньше пяти свечей",
			candles: swingSeries(95)[:4],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(config.PatternConfig{Window: 100, MaxLevels: tt.maxLevels})
			levels := d.Levels(tt.candles)
			if !reflect.DeepEqual(levels.Support, tt.wantSupport) {
				t.Errorf("Support = %v, ожидалось %v", levels.Support, tt.wantSupport)
			}
			if !reflect.DeepEqual(levels.Resistance, tt.wantResistance) {
				t.Errorf("Resistance = %v, ожидалось %v", levels.Resistance, tt.wantResistance)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]float64{102.02, 104, 102})
	want := []float64{102, 104}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dedupe = %v, ожидалось %v", got, want)
	}
}
