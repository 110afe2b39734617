// Package logging wires go.uber.org/zap into the realtime client.
package logging

import (
	"github.com/convitepro/realtime-go/realtime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger: JSON lines in production, coloured console
// output otherwise.
func New(production bool, level realtime.LogLevel) (*zap.Logger, error) {
	var config zap.Config
	if production {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel(level))
	return config.Build()
}

// Adapter is a realtime.Logger writing to zap.
type Adapter struct {
	l *zap.SugaredLogger
}

var _ realtime.Logger = (*Adapter)(nil)

func NewAdapter(l *zap.Logger) *Adapter {
	return &Adapter{l: l.WithOptions(zap.AddCallerSkip(2)).Sugar()}
}

func (a *Adapter) Printf(level realtime.LogLevel, format string, v ...interface{}) {
	switch level {
	case realtime.LogError:
		a.l.Errorf(format, v...)
	case realtime.LogWarning:
		a.l.Warnf(format, v...)
	case realtime.LogInfo:
		a.l.Infof(format, v...)
	case realtime.LogNone:
	default:
		a.l.Debugf(format, v...)
	}
}

// zapLevel maps the client level to the most verbose zap level that lets
// its lines through. Verbose and debug both land on zap's debug.
func zapLevel(level realtime.LogLevel) zapcore.Level {
	switch level {
	case realtime.LogNone, realtime.LogError:
		return zapcore.ErrorLevel
	case realtime.LogWarning:
		return zapcore.WarnLevel
	case realtime.LogInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
