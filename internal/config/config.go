package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/skalibog/sigcore/pkg/models"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Binance  BinanceConfig  `yaml:"binance"`
	Trading  TradingConfig  `yaml:"trading"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Risk     RiskConfig     `yaml:"risk"`
	Tiers    TiersConfig    `yaml:"tiers"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey            string  `yaml:"api_key"`
	APISecret         string  `yaml:"api_secret"`
	Testnet           bool    `yaml:"testnet"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	RetrySeconds      int     `yaml:"retry_seconds"`
}

// TradingConfig содержит список символов и рабочий интервал
type TradingConfig struct {
	Symbols     []string `yaml:"symbols"`
	Interval    string   `yaml:"interval"`
	CandleLimit int      `yaml:"candle_limit"`
	Concurrency int      `yaml:"concurrency"`
}

// AnalysisConfig содержит настройки конвейера сигналов
type AnalysisConfig struct {
	IntervalSeconds int             `yaml:"interval_seconds"`
	Technical       TechnicalConfig `yaml:"technical"`
	Scoring         ScoringConfig   `yaml:"scoring"`
	MTF             MTFConfig       `yaml:"mtf"`
	Patterns        PatternConfig   `yaml:"patterns"`
}

// TechnicalConfig настройки технического анализа
type TechnicalConfig struct {
	RSIPeriod         int `yaml:"rsi_period"`
	MACDFast          int `yaml:"macd_fast"`
	MACDSlow          int `yaml:"macd_slow"`
	MACDSignal        int `yaml:"macd_signal"`
	TrendPeriod       int `yaml:"trend_period"`
	VolumePeriod      int `yaml:"volume_period"`
	ImbalanceLookback int `yaml:"imbalance_lookback"`
}

// ScoringConfig пороги и штрафы оценки уверенности
type ScoringConfig struct {
	RSIOversold         float64       `yaml:"rsi_oversold"`
	RSIOverbought       float64       `yaml:"rsi_overbought"`
	NeutralLow          float64       `yaml:"neutral_low"`
	NeutralHigh         float64       `yaml:"neutral_high"`
	Penalties           PenaltyConfig `yaml:"penalties"`
	ContradictionPolicy string        `yaml:"contradiction_policy"`
}

// PenaltyConfig штраф за одно противоречие по категориям
type PenaltyConfig struct {
	Critical float64 `yaml:"critical"`
	Warning  float64 `yaml:"warning"`
	Minor    float64 `yaml:"minor"`
	MTF      float64 `yaml:"mtf"`
}

// MTFConfig настройки мультитаймфреймового подтверждения
type MTFConfig struct {
	Enabled     bool `yaml:"enabled"`
	Confirm     bool `yaml:"confirm"`
	CandleLimit int  `yaml:"candle_limit"`
}

// PatternConfig настройки поиска уровней
type PatternConfig struct {
	Window    int `yaml:"window"`
	MaxLevels int `yaml:"max_levels"`
}

// RiskConfig параметры расчета уровней сделки
type RiskConfig struct {
	Deposit            float64   `yaml:"deposit"`
	RiskPercent        float64   `yaml:"risk_percent"`
	CommissionPercent  float64   `yaml:"commission_percent"`
	MaxPositionPercent float64   `yaml:"max_position_percent"`
	StopATRMultiplier  float64   `yaml:"stop_atr_multiplier"`
	RiskMultiples      []float64 `yaml:"risk_multiples"`
}

// TiersConfig таблица уровней ликвидности
type TiersConfig struct {
	Levels  []TierLevel       `yaml:"levels"`
	Unknown models.TierConfig `yaml:"unknown"`
}

// TierLevel уровень и его символы
type TierLevel struct {
	models.TierConfig `yaml:",inline"`
	Symbols           []string `yaml:"symbols"`
}

// StorageConfig настройки журнала сигналов
type StorageConfig struct {
	Type         string `yaml:"type"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
	PostgresDSN  string `yaml:"postgres_dsn"`
}

// LogConfig настройки логгера
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Console    bool   `yaml:"console"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Binance: BinanceConfig{
			RequestsPerSecond: 10,
			Burst:             5,
			RetrySeconds:      30,
		},
		Trading: TradingConfig{
			Symbols:     []string{"BTCUSDT", "ETHUSDT"},
			Interval:    "15m",
			CandleLimit: 100,
			Concurrency: 4,
		},
		Analysis: AnalysisConfig{
			IntervalSeconds: 300,
			Technical: TechnicalConfig{
				RSIPeriod:         14,
				MACDFast:          8,
				MACDSlow:          17,
				MACDSignal:        9,
				TrendPeriod:       20,
				VolumePeriod:      20,
				ImbalanceLookback: 5,
			},
			Scoring: ScoringConfig{
				RSIOversold:   30,
				RSIOverbought: 70,
				NeutralLow:    45,
				NeutralHigh:   55,
				Penalties: PenaltyConfig{
					Critical: 50,
					Warning:  25,
					Minor:    25,
					MTF:      25,
				},
				ContradictionPolicy: "veto",
			},
			MTF: MTFConfig{
				Enabled:     true,
				Confirm:     false,
				CandleLimit: 100,
			},
			Patterns: PatternConfig{
				Window:    100,
				MaxLevels: 3,
			},
		},
		Risk: RiskConfig{
			Deposit:            1000,
			RiskPercent:        1,
			CommissionPercent:  0.1,
			MaxPositionPercent: 30,
			StopATRMultiplier:  1.5,
			RiskMultiples:      []float64{1.5, 2.5, 4.0},
		},
		Tiers: DefaultTiers(),
		Storage: StorageConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level:      "info",
			File:       "sigcore.json.log",
			MaxSizeMB:  50,
			MaxAgeDays: 7,
			MaxBackups: 3,
			Console:    true,
		},
	}
}

// DefaultTiers таблица уровней по умолчанию: mega, large, mid
func DefaultTiers() TiersConfig {
	return TiersConfig{
		Levels: []TierLevel{
			{
				TierConfig: models.TierConfig{
					Name:                "tier1",
					ConfidenceThreshold: 55,
					PositionSizePercent: 3.0,
					StopLossPercent:     3.0,
				},
				Symbols: []string{"BTCUSDT", "ETHUSDT"},
			},
			{
				TierConfig: models.TierConfig{
					Name:                "tier2",
					ConfidenceThreshold: 60,
					PositionSizePercent: 2.0,
					StopLossPercent:     4.0,
				},
				Symbols: []string{"BNBUSDT", "SOLUSDT", "XRPUSDT", "ADAUSDT", "DOGEUSDT", "AVAXUSDT", "LINKUSDT", "DOTUSDT"},
			},
			{
				TierConfig: models.TierConfig{
					Name:                       "tier3",
					ConfidenceThreshold:        70,
					PositionSizePercent:        1.5,
					StopLossPercent:            5.0,
					RequiresTripleConfirmation: true,
				},
				Symbols: []string{"MATICUSDT", "LTCUSDT", "ATOMUSDT", "NEARUSDT", "APTUSDT", "ARBUSDT", "OPUSDT", "SUIUSDT"},
			},
		},
		Unknown: models.TierConfig{
			Name:                       "unknown",
			ConfidenceThreshold:        70,
			PositionSizePercent:        1.5,
			StopLossPercent:            5.0,
			RequiresTripleConfirmation: true,
		},
	}
}

// Load загружает конфигурацию из файла поверх значений по умолчанию.
// Секреты из окружения (и .env, если есть) имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse разбирает YAML поверх значений по умолчанию
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		c.Binance.APISecret = v
	}
	if v := os.Getenv("INFLUX_TOKEN"); v != "" {
		c.Storage.Token = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 {
		return errors.New("trading.symbols: список символов пуст")
	}
	if c.Trading.Interval == "" {
		return errors.New("trading.interval: не задан")
	}
	t := c.Analysis.Technical
	if t.RSIPeriod < 2 || t.MACDFast < 1 || t.MACDSlow <= t.MACDFast || t.MACDSignal < 1 {
		return fmt.Errorf("analysis.technical: некорректные периоды %+v", t)
	}
	if t.TrendPeriod < 1 || t.VolumePeriod < 1 {
		return fmt.Errorf("analysis.technical: некорректные периоды SMA %+v", t)
	}
	s := c.Analysis.Scoring
	if s.RSIOversold >= s.RSIOverbought || s.NeutralLow > s.NeutralHigh {
		return fmt.Errorf("analysis.scoring: некорректные пороги RSI %+v", s)
	}
	switch strings.ToLower(s.ContradictionPolicy) {
	case "veto", "invert":
	default:
		return fmt.Errorf("analysis.scoring.contradiction_policy: неизвестная политика %q", s.ContradictionPolicy)
	}
	if len(c.Risk.RiskMultiples) != 3 {
		return fmt.Errorf("risk.risk_multiples: ожидается 3 значения, получено %d", len(c.Risk.RiskMultiples))
	}
	if c.Risk.Deposit <= 0 || c.Risk.StopATRMultiplier <= 0 {
		return fmt.Errorf("risk: депозит и множитель стопа должны быть положительными")
	}
	seen := make(map[string]string)
	for _, level := range c.Tiers.Levels {
		for _, sym := range level.Symbols {
			key := NormalizeSymbol(sym)
			if prev, ok := seen[key]; ok {
				return fmt.Errorf("tiers: символ %s указан в %s и %s", sym, prev, level.Name)
			}
			seen[key] = level.Name
		}
	}
	switch c.Storage.Type {
	case "", "none", "influxdb", "postgres":
	default:
		return fmt.Errorf("storage.type: неизвестный тип %q", c.Storage.Type)
	}
	return nil
}

// NormalizeSymbol приводит BTC/USDT, btc-usdt и BTC/USDT:USDT к виду BTCUSDT
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	return strings.NewReplacer("/", "", "-", "", "_", "").Replace(s)
}
