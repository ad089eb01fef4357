package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skalibog/sigcore/internal/analysis/aggregator"
	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/internal/exchange"
	"github.com/skalibog/sigcore/internal/storage"
	"github.com/skalibog/sigcore/internal/ui"
	"github.com/skalibog/sigcore/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Обработка флагов командной строки
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	once := flag.Bool("once", false, "один проход сканирования и выход")
	history := flag.String("history", "", "вывести журнал сигналов по символу и выйти")
	historyLimit := flag.Int("limit", 20, "количество записей журнала")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    cfg.Log.Console,
	})
	defer logger.GetLogger().Sync()

	logger.Info("Загружена конфигурация",
		zap.String("path", *configPath),
		zap.Strings("symbols", cfg.Trading.Symbols),
		zap.String("interval", cfg.Trading.Interval),
		zap.String("policy", cfg.Analysis.Scoring.ContradictionPolicy))

	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем журнал сигналов
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
	}
	defer store.Close()

	pipeline, err := aggregator.NewPipeline(cfg)
	if err != nil {
		logger.Fatal("Ошибка сборки конвейера", zap.Error(err))
	}

	client := exchange.NewBinanceClient(cfg.Binance)
	analyzer := aggregator.NewAnalyzer(cfg, pipeline, client, store)

	if *history != "" {
		records, err := analyzer.GetSignalHistory(ctx, config.NormalizeSymbol(*history), *historyLimit)
		if err != nil {
			logger.Fatal("Ошибка чтения журнала сигналов", zap.Error(err))
		}
		for _, r := range records {
			fmt.Printf("%s %s %-4s %5.1f -> %5.1f emit=%t inverted=%t %s\n",
				r.Timestamp.Format(time.RFC3339), r.Symbol, r.Direction,
				r.Confidence, r.FinalConfidence, r.ShouldEmit, r.Inverted, r.JoinedContradictions())
		}
		return
	}

	scan := func() {
		signals, err := analyzer.GenerateSignals(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Ошибка при генерации сигналов", zap.Error(err))
		}
		if len(signals) > 0 {
			fmt.Println(ui.RenderSignals(signals))
		}
	}

	scan()
	if *once {
		return
	}

	ticker := time.NewTicker(time.Duration(cfg.Analysis.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			scan()
		case <-ctx.Done():
			logger.Info("Завершение работы")
			return
		}
	}
}
