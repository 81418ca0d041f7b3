// Package logger builds the zap logger shared by the server and the device
// processes.  Production config emits JSON; dev/local gets the console
// encoder with colored levels.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a configured *zap.Logger for the given environment string.
func New(env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "dev" || env == "development" || env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
