package technical

import (
	"github.com/markcheno/go-talib"
	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

const neutralRSI = 50.0

// Analyzer реализует извлечение индикаторов из ряда свечей
type Analyzer struct {
	config config.TechnicalConfig
}

// NewAnalyzer создает новый анализатор технических индикаторов
func NewAnalyzer(cfg config.TechnicalConfig) *Analyzer {
	return &Analyzer{
		config: cfg,
	}
}

// Extract рассчитывает IndicatorSet. Ряд должен быть непустым; при нехватке
// истории индикаторы принимают нейтральные значения.
func (a *Analyzer) Extract(candles models.CandleSeries, ticker models.Ticker) models.IndicatorSet {
	closes := candles.Closes()
	volumes := candles.Volumes()
	price := closes[len(closes)-1]

	macd, signal, prevMACD, prevSignal := a.calculateMACD(closes)
	sma := SMA(closes, a.config.TrendPeriod)

	trend := models.TrendDown
	if price > sma {
		trend = models.TrendUp
	}

	volume := ticker.QuoteVolume
	if volume <= 0 {
		volume = volumes[len(volumes)-1]
	}
	volumeSMA := volume
	if len(volumes) >= a.config.VolumePeriod {
		volumeSMA = SMA(volumes, a.config.VolumePeriod)
	}

	imbalance, defined := OrderFlowImbalance(candles, a.config.ImbalanceLookback)

	return models.IndicatorSet{
		Price:            price,
		RSI:              a.calculateRSI(closes),
		MACD:             macd,
		MACDSignal:       signal,
		MACDHist:         macd - signal,
		PrevMACD:         prevMACD,
		PrevMACDSignal:   prevSignal,
		SMA20:            sma,
		Trend:            trend,
		Volume:           volume,
		VolumeSMA20:      volumeSMA,
		Imbalance:        imbalance,
		ImbalanceDefined: defined,
	}
}

// calculateRSI рассчитывает RSI по Уайлдеру, 50 при нехватке данных
func (a *Analyzer) calculateRSI(closes []float64) float64 {
	period := a.config.RSIPeriod
	if len(closes) < period+1 {
		return neutralRSI
	}
	rsi := talib.Rsi(closes, period)
	return rsi[len(rsi)-1]
}

// calculateMACD возвращает текущие и предыдущие значения линии MACD и сигнальной линии
func (a *Analyzer) calculateMACD(closes []float64) (macd, signal, prevMACD, prevSignal float64) {
	fast := EMASeries(closes, a.config.MACDFast)
	slow := EMASeries(closes, a.config.MACDSlow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signalLine := EMASeries(line, a.config.MACDSignal)

	last := len(line) - 1
	macd, signal = line[last], signalLine[last]
	if last == 0 {
		return macd, signal, macd, signal
	}
	return macd, signal, line[last-1], signalLine[last-1]
}

// EMASeries экспоненциальное среднее с коэффициентом 2/(n+1), начиная с первого значения.
// Определено для любой длины ряда, в отличие от talib.Ema.
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// SMA простое среднее последних period значений; при нехватке берется все окно
func SMA(values []float64, period int) float64 {
	n := period
	if len(values) < n {
		n = len(values)
	}
	if n == 0 {
		return 0
	}
	window := values[len(values)-n:]
	if n == 1 {
		return window[0]
	}
	sma := talib.Sma(window, n)
	return sma[len(sma)-1]
}

// OrderFlowImbalance отношение объема бычьих свечей к объему медвежьих за lookback свечей.
// При нулевом объеме медвежьих свечей отношение не определено.
func OrderFlowImbalance(candles models.CandleSeries, lookback int) (float64, bool) {
	start := len(candles) - lookback
	if start < 0 {
		start = 0
	}
	var upVolume, downVolume float64
	for _, c := range candles[start:] {
		if c.Close > c.Open {
			upVolume += c.Volume
		} else if c.Close < c.Open {
			downVolume += c.Volume
		}
	}
	if downVolume == 0 {
		return 0, false
	}
	return upVolume / downVolume, true
}
