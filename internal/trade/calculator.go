package trade

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

const (
	atrChangeFactor = 0.5
	minATRPercent   = 0.005
)

// ErrNoDirection уровни для WAIT не считаются
var ErrNoDirection = errors.New("нет направления для расчета уровней")

// Request параметры расчета уровней
type Request struct {
	Direction           models.Direction
	Entry               float64
	Change24h           float64
	PositionSizePercent float64
	// MaxStopPercent ограничивает расстояние до стопа, 0 без ограничения
	MaxStopPercent float64
}

// Calculator рассчитывает стоп, цели и размер позиции
type Calculator struct {
	config config.RiskConfig
}

// NewCalculator создает калькулятор уровней
func NewCalculator(cfg config.RiskConfig) *Calculator {
	return &Calculator{config: cfg}
}

// ATREstimate оценка волатильности по 24ч изменению, не меньше 0.5% цены
func ATREstimate(price, change24h float64) float64 {
	return math.Max(price*math.Abs(change24h)/100*atrChangeFactor, price*minATRPercent)
}

// Calculate рассчитывает уровни сделки
func (c *Calculator) Calculate(req Request) (models.TradeLevels, error) {
	var sign float64
	switch req.Direction {
	case models.DirectionBuy:
		sign = 1
	case models.DirectionSell:
		sign = -1
	default:
		return models.TradeLevels{}, ErrNoDirection
	}
	if req.Entry <= 0 || math.IsNaN(req.Entry) || math.IsInf(req.Entry, 0) {
		return models.TradeLevels{}, fmt.Errorf("некорректная цена входа %v", req.Entry)
	}

	entry := req.Entry
	atr := ATREstimate(entry, req.Change24h)
	stopDistance := c.config.StopATRMultiplier * atr
	if req.MaxStopPercent > 0 {
		stopDistance = math.Min(stopDistance, entry*req.MaxStopPercent/100)
	}

	m := c.config.RiskMultiples
	levels := models.TradeLevels{
		Entry:       entry,
		StopLoss:    entry - sign*stopDistance,
		TakeProfit1: entry + sign*stopDistance*m[0],
		TakeProfit2: entry + sign*stopDistance*m[1],
		TakeProfit3: entry + sign*stopDistance*m[2],
		ATREstimate: atr,
		RiskReward:  m[1],
	}

	size := c.positionSize(entry, stopDistance, req.PositionSizePercent)
	levels.PositionSizeQuote = size.Round(2).InexactFloat64()
	levels.Commission = c.commission(size, entry, levels.TakeProfit2).Round(2).InexactFloat64()
	return levels, nil
}

// positionSize от уверенности, иначе от риска с потолком доли депозита
func (c *Calculator) positionSize(entry, stopDistance, percent float64) decimal.Decimal {
	deposit := decimal.NewFromFloat(c.config.Deposit)
	hundred := decimal.NewFromInt(100)
	if percent > 0 {
		return deposit.Mul(decimal.NewFromFloat(percent)).Div(hundred)
	}

	riskAmount := deposit.Mul(decimal.NewFromFloat(c.config.RiskPercent)).Div(hundred)
	stopFraction := decimal.NewFromFloat(stopDistance / entry)
	if stopFraction.IsZero() {
		return decimal.Zero
	}
	size := riskAmount.Div(stopFraction)
	maxSize := deposit.Mul(decimal.NewFromFloat(c.config.MaxPositionPercent)).Div(hundred)
	return decimal.Min(size, maxSize)
}

// commission на вход и на выход около TP2
func (c *Calculator) commission(size decimal.Decimal, entry, exit float64) decimal.Decimal {
	rate := decimal.NewFromFloat(c.config.CommissionPercent).Div(decimal.NewFromInt(100))
	exitNotional := size.Mul(decimal.NewFromFloat(exit)).Div(decimal.NewFromFloat(entry))
	return size.Mul(rate).Add(exitNotional.Mul(rate))
}
