package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the process-wide logger. level is one of debug/info/warn/error;
// jsonFormat switches from console to JSON output.
func Init(level string, jsonFormat bool) error {
	cfg := zap.NewProductionConfig()
	if !jsonFormat {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	log = built.Sugar()
	return nil
}

// L returns the shared sugared logger.
func L() *zap.SugaredLogger {
	return log
}

func Sync() {
	_ = log.Sync()
}
