/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging provides logger initialization for the MCP server binaries.
package logging

import (
	"log"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// EnvLogLevel selects the logger configuration.
const EnvLogLevel = "LOG_LEVEL"

// NewLogger creates a logr.Logger backed by Zap, configured from LOG_LEVEL.
// "debug" or "trace" selects a development config with debug-level output,
// which also turns on verbose (V(1)) MCP traffic logging. Any other value
// selects the production config.
// Returns the underlying Zap logger alongside so callers can bridge to slog,
// and a sync function the caller should defer.
func NewLogger() (logr.Logger, *zap.Logger, func(), error) {
	zapLog, err := newZapLogger(os.Getenv(EnvLogLevel))
	if err != nil {
		return logr.Logger{}, nil, nil, err
	}
	sync := func() { _ = zapLog.Sync() }
	return zapr.NewLogger(zapLog), zapLog, sync, nil
}

// Verbose reports whether the configured level enables debug output.
func Verbose(level string) bool {
	return level == "debug" || level == "trace"
}

// SlogFromZap creates an *slog.Logger that writes directly to the Zap core.
func SlogFromZap(z *zap.Logger) *slog.Logger {
	return slog.New(zapslog.NewHandler(z.Core(), zapslog.WithCaller(true)))
}

// StdErrorLog returns a *log.Logger for net/http servers that forwards
// everything to the Zap core at error level.
func StdErrorLog(z *zap.Logger) *log.Logger {
	return slog.NewLogLogger(SlogFromZap(z).Handler(), slog.LevelError)
}

func newZapLogger(level string) (*zap.Logger, error) {
	if Verbose(level) {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	}
	return zap.NewProduction()
}
