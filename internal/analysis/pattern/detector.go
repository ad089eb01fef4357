package pattern

import (
	"math"
	"sort"

	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

// levelTolerance относительное расстояние, при котором уровни считаются одним
const levelTolerance = 0.0005

// Detector ищет свечные паттерны и уровни поддержки/сопротивления
type Detector struct {
	config config.PatternConfig
}

// NewDetector создает детектор паттернов
func NewDetector(cfg config.PatternConfig) *Detector {
	return &Detector{config: cfg}
}

// Detect проверяет паттерны на последних 1-2 свечах
func (d *Detector) Detect(candles models.CandleSeries) models.PatternFlags {
	var flags models.PatternFlags
	if len(candles) == 0 {
		return flags
	}

	cur := candles[len(candles)-1]
	flags.Doji = IsDoji(cur)
	flags.Hammer = IsHammer(cur)
	flags.ShootingStar = IsShootingStar(cur)

	if len(candles) >= 2 {
		prev := candles[len(candles)-2]
		flags.BullishEngulfing = IsBullishEngulfing(prev, cur)
		flags.BearishEngulfing = IsBearishEngulfing(prev, cur)
	}
	return flags
}

func body(c models.Candle) float64 {
	return math.Abs(c.Close - c.Open)
}

func upperWick(c models.Candle) float64 {
	return c.High - math.Max(c.Open, c.Close)
}

func lowerWick(c models.Candle) float64 {
	return math.Min(c.Open, c.Close) - c.Low
}

// IsDoji тело меньше 10% диапазона; свеча с нулевым диапазоном тоже доджи
func IsDoji(c models.Candle) bool {
	rng := c.High - c.Low
	if rng == 0 {
		return true
	}
	return body(c)/rng < 0.1
}

// IsHammer нижняя тень не меньше двух тел, верхняя меньше тела
func IsHammer(c models.Candle) bool {
	b := body(c)
	return lowerWick(c) >= 2*b && upperWick(c) < b
}

// IsShootingStar верхняя тень не меньше двух тел, нижняя меньше тела
func IsShootingStar(c models.Candle) bool {
	b := body(c)
	return upperWick(c) >= 2*b && lowerWick(c) < b
}

// IsBullishEngulfing медвежья свеча, затем бычья, тело которой накрывает предыдущее
func IsBullishEngulfing(prev, cur models.Candle) bool {
	return prev.Close < prev.Open &&
		cur.Close > cur.Open &&
		cur.Open <= prev.Close &&
		cur.Close >= prev.Open
}

// IsBearishEngulfing бычья свеча, затем медвежья, тело которой накрывает предыдущее
func IsBearishEngulfing(prev, cur models.Candle) bool {
	return prev.Close > prev.Open &&
		cur.Close < cur.Open &&
		cur.Open >= prev.Close &&
		cur.Close <= prev.Open
}

// Levels находит локальные экстремумы по пяти точкам в хвостовом окне.
// Сопротивления выше цены, поддержки ниже; ближайшие к цене первыми.
func (d *Detector) Levels(candles models.CandleSeries) models.PriceLevels {
	var levels models.PriceLevels
	if len(candles) < 5 {
		return levels
	}

	window := candles
	if d.config.Window > 0 && len(window) > d.config.Window {
		window = window[len(window)-d.config.Window:]
	}
	price := candles.Last().Close

	var highs, lows []float64
	for i := 2; i < len(window)-2; i++ {
		h := window[i].High
		if h > window[i-1].High && h > window[i-2].High &&
			h > window[i+1].High && h > window[i+2].High {
			highs = append(highs, h)
		}
		l := window[i].Low
		if l < window[i-1].Low && l < window[i-2].Low &&
			l < window[i+1].Low && l < window[i+2].Low {
			lows = append(lows, l)
		}
	}

	for _, h := range dedupe(highs) {
		if h > price {
			levels.Resistance = append(levels.Resistance, h)
		}
	}
	for _, l := range dedupe(lows) {
		if l < price {
			levels.Support = append(levels.Support, l)
		}
	}

	sort.Float64s(levels.Resistance)
	sort.Sort(sort.Reverse(sort.Float64Slice(levels.Support)))

	if n := d.config.MaxLevels; n > 0 {
		if len(levels.Resistance) > n {
			levels.Resistance = levels.Resistance[:n]
		}
		if len(levels.Support) > n {
			levels.Support = levels.Support[:n]
		}
	}
	return levels
}

// dedupe объединяет уровни, отстоящие меньше чем на levelTolerance
func dedupe(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	out := []float64{sorted[0]}
	for _, v := range sorted[1:] {
		last := out[len(out)-1]
		if (v-last)/last < levelTolerance {
			continue
		}
		out = append(out, v)
	}
	return out
}
