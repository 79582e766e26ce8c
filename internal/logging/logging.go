// Package logging builds the process logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger on stderr at the given level.
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return NewWithSink(lvl, zapcore.Lock(os.Stderr)), nil
}

// NewWithSink returns a console logger writing to ws.
func NewWithSink(level zapcore.Level, ws zapcore.WriteSyncer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	enc.EncodeCaller = nil
	enc.CallerKey = zapcore.OmitKey

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), ws, level)
	return zap.New(core)
}
