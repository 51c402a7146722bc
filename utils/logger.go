package utils

import (
	"log"
	"sync"

	"sponsorly/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide structured logger.
var Logger *zap.Logger

var loggerOnce sync.Once

// logLevel prefers LOG_LEVEL and falls back to info in production, debug elsewhere.
func logLevel() zapcore.Level {
	if lvl, err := zapcore.ParseLevel(config.AppConfig.LogLevel); err == nil && config.AppConfig.LogLevel != "" {
		return lvl
	}
	if config.IsProduction() {
		return zap.InfoLevel
	}
	return zap.DebugLevel
}

// InitializeLogger builds Logger and installs it as the zap global.
func InitializeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if config.IsProduction() {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(logLevel())

	built, err := cfg.Build(zap.Fields(zap.String("service", "sponsorly")))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	Logger = built
	zap.ReplaceGlobals(Logger)
}

func GetLogger() *zap.Logger {
	loggerOnce.Do(func() {
		if Logger == nil {
			InitializeLogger()
		}
	})
	return Logger
}
