package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrEmptySeries возвращается для пустого ряда свечей
	ErrEmptySeries = errors.New("пустой ряд свечей")
	// ErrMalformedCandle возвращается для свечи с некорректными полями
	ErrMalformedCandle = errors.New("некорректная свеча")
)

// Candle представляет свечу
type Candle struct {
	Symbol    string
	Interval  string
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// CandleSeries упорядоченный по времени ряд свечей одного интервала
type CandleSeries []Candle

// Validate проверяет форму входных данных. Недостаток истории ошибкой не считается.
func (s CandleSeries) Validate() error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for i, c := range s {
		for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: свеча %d: цена %v", ErrMalformedCandle, i, v)
			}
		}
		if math.IsNaN(c.Volume) || c.Volume < 0 {
			return fmt.Errorf("%w: свеча %d: объем %v", ErrMalformedCandle, i, c.Volume)
		}
		if c.High < c.Low {
			return fmt.Errorf("%w: свеча %d: high %v < low %v", ErrMalformedCandle, i, c.High, c.Low)
		}
		if i > 0 && !c.OpenTime.IsZero() && !c.OpenTime.After(s[i-1].OpenTime) {
			return fmt.Errorf("%w: свеча %d: время не возрастает", ErrMalformedCandle, i)
		}
	}
	return nil
}

// Closes возвращает цены закрытия
func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Volumes возвращает объемы
func (s CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// Last возвращает последнюю свечу. Ряд должен быть непустым.
func (s CandleSeries) Last() Candle {
	return s[len(s)-1]
}

// Ticker снимок 24-часовой статистики символа
type Ticker struct {
	Symbol        string
	Last          float64
	ChangePercent float64
	QuoteVolume   float64
	High          float64
	Low           float64
	Timestamp     time.Time
}
