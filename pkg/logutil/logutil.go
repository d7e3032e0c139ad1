// Copyright 2023 BlockFold
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

// Package logutil owns the process-wide zap logger.
package logutil

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures the global logger. The zero value logs to the
// console at info level.
type LogConfig struct {
	// Level is a zapcore level name: debug, info, warn, error.
	Level string `toml:"level"`

	// Format is one of "console" and "json".
	Format string `toml:"format"`

	// Filename enables file output with rotation when non-empty.
	Filename string `toml:"filename"`

	// MaxSize is the maximum size in MB of a log file before rotation.
	MaxSize int `toml:"max-size"`

	// MaxDays is the number of days to retain rotated files.
	MaxDays int `toml:"max-days"`

	// MaxBackups is the number of rotated files to retain.
	MaxBackups int `toml:"max-backups"`
}

var globalLogger atomic.Value // *zap.Logger

func init() {
	setGlobalLogger(zap.NewNop())
}

// Setup builds a logger from conf, installs it as the global logger and
// returns it.
func Setup(conf *LogConfig) *zap.Logger {
	logger := zap.New(
		zapcore.NewCore(conf.getEncoder(), conf.getSyncer(), conf.getLevel()),
		conf.getOptions()...,
	)
	setGlobalLogger(logger)
	return logger
}

// GetGlobalLogger never returns nil. Before Setup it returns a nop
// logger.
func GetGlobalLogger() *zap.Logger {
	return globalLogger.Load().(*zap.Logger)
}

func setGlobalLogger(logger *zap.Logger) {
	globalLogger.Store(logger)
}

func (c *LogConfig) getLevel() zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(c.Level)); err != nil || c.Level == "" {
		level.SetLevel(zapcore.InfoLevel)
	}
	return level
}

func (c *LogConfig) getEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if c.Format == "json" {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func (c *LogConfig) getSyncer() zapcore.WriteSyncer {
	if c.Filename == "" {
		return getConsoleSyncer()
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   c.Filename,
		MaxSize:    c.MaxSize,
		MaxAge:     c.MaxDays,
		MaxBackups: c.MaxBackups,
	})
}

func (c *LogConfig) getOptions() []zap.Option {
	return []zap.Option{zap.AddStacktrace(zapcore.FatalLevel), zap.AddCaller()}
}

func getConsoleSyncer() zapcore.WriteSyncer {
	return zapcore.Lock(stderrSyncer)
}
