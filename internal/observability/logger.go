// README: Structured logger construction (zap) shared by all entry points.
package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. Production gets JSON at Info with
// sampling; anything else gets colored development output at Debug.
func NewLogger(env, service string) *zap.Logger {
	var encCfg zapcore.EncoderConfig
	var level zapcore.Level

	if env == "production" {
		encCfg = zap.NewProductionEncoderConfig()
		level = zapcore.InfoLevel
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		level = zapcore.DebugLevel
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if env == "production" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	if env == "production" {
		core = zapcore.NewSamplerWithOptions(core, 1, 100, 0)
	}

	return zap.New(core, zap.AddCaller()).With(zap.String("service", service))
}
