// Copyright 2026 The Pulsewatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pulselog provides the structured logger every worker in the
// core (rule evaluation, flush/compaction, write-batching, retention,
// adaptation) logs through. It wraps go.uber.org/zap the same way a
// production agent would: a severity-cased level, a stable message
// key, and one shared logger threaded through every component rather
// than each package reaching for its own global.
package pulselog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	messageKey  = "message"
	severityKey = "severity"
	timeKey     = "timestamp"
)

// StructuredLogger is the logging contract every worker depends on.
// Components never import zap directly; they take this interface so a
// host application can supply its own implementation.
type StructuredLogger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	With(fields ...Field) StructuredLogger
}

// Field is a structured logging key/value pair.
type Field = zap.Field

// String builds a string Field.
func String(key, value string) Field { return zap.String(key, value) }

// Err builds an error Field.
func Err(err error) Field { return zap.Error(err) }

func severityEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.ErrorLevel:
		enc.AppendString("ERROR")
	case zapcore.WarnLevel:
		enc.AppendString("WARNING")
	case zapcore.InfoLevel:
		enc.AppendString("INFO")
	case zapcore.DebugLevel:
		enc.AppendString("DEBUG")
	default:
		enc.AppendString("DEFAULT")
	}
}

// zapLogger is the production StructuredLogger backed by a *zap.SugaredLogger.
type zapLogger struct {
	l *zap.SugaredLogger
}

// New builds a StructuredLogger around a caller-supplied zap core, so
// embedders can route core log lines into their own sink.
func New(core zapcore.Core) StructuredLogger {
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &zapLogger{l: logger.Sugar()}
}

// Default builds a production-configured StructuredLogger writing JSON
// lines to stderr.
func Default() StructuredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.MessageKey = messageKey
	cfg.EncoderConfig.LevelKey = severityKey
	cfg.EncoderConfig.TimeKey = timeKey
	cfg.EncoderConfig.EncodeLevel = severityEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l, _ := Nop()
		return l
	}
	return &zapLogger{l: logger.Sugar()}
}

// Nop returns a StructuredLogger that discards everything, along with
// an observer.ObservedLogs a test can assert against.
func Nop() (StructuredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &zapLogger{l: zap.New(core).Sugar()}, logs
}

func (z *zapLogger) Debugf(format string, v ...any) { z.l.Debugf(format, v...) }
func (z *zapLogger) Infof(format string, v ...any)  { z.l.Infof(format, v...) }
func (z *zapLogger) Warnf(format string, v ...any)  { z.l.Warnf(format, v...) }
func (z *zapLogger) Errorf(format string, v ...any) { z.l.Errorf(format, v...) }

func (z *zapLogger) With(fields ...Field) StructuredLogger {
	return &zapLogger{l: z.l.Desugar().With(fields...).Sugar()}
}
