package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultServiceName se usa cuando Config.ServiceName viene vacío.
const DefaultServiceName = "star-randomness"

// Config del logger. Env "prod" emite JSON; cualquier otro valor, consola.
type Config struct {
	Env string
	// Level: "debug", "info", "warn" o "error". Vacío = info.
	Level       string
	ServiceName string
	Version     string
}

// ValidLevel indica si lvl es un nivel aceptado por Config.Level.
func ValidLevel(lvl string) bool {
	_, ok := parseLevel(lvl)
	return ok
}

func build(cfg Config) *zap.Logger {
	// un nivel desconocido ya lo rechazó config.Validate; acá cae en info
	level, _ := parseLevel(cfg.Level)

	var zcfg zap.Config
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if strings.EqualFold(cfg.Env, "prod") {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := zcfg.Build(opts...)
	if err != nil {
		l, _ = zap.NewProduction()
	}
	return l.With(baseFields(cfg)...)
}

func baseFields(cfg Config) []zap.Field {
	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	fields := []zap.Field{zap.String("service", name)}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}
	return fields
}

// parseLevel acepta solo los niveles que el servicio usa. Vacío equivale a info.
func parseLevel(lvl string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "", "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}
