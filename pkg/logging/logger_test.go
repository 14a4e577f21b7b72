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

package logging

import (
	"log/slog"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewZapLogger_Production(t *testing.T) {
	logger, err := newZapLogger("")
	if err != nil {
		t.Fatalf("newZapLogger returned error: %v", err)
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		t.Error("production logger should not enable debug level")
	}
}

func TestNewZapLogger_Debug(t *testing.T) {
	for _, level := range []string{"debug", "trace"} {
		logger, err := newZapLogger(level)
		if err != nil {
			t.Fatalf("newZapLogger(%q) returned error: %v", level, err)
		}
		if !logger.Core().Enabled(zap.DebugLevel) {
			t.Errorf("%s logger should enable debug level", level)
		}
	}
}

func TestNewZapLogger_UnknownLevel(t *testing.T) {
	logger, err := newZapLogger("warn")
	if err != nil {
		t.Fatalf("newZapLogger returned error: %v", err)
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		t.Error("unknown level should fall through to production (no debug)")
	}
}

func TestNewLogger_UsesEnvVar(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")

	log, zapLog, sync, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if sync == nil || zapLog == nil {
		t.Fatal("expected non-nil sync function and zap logger")
	}
	defer sync()

	if !log.GetSink().Enabled(int(zapcore.DebugLevel)) {
		t.Error("logger should be debug-enabled when LOG_LEVEL=debug")
	}
	if !log.V(1).Enabled() {
		t.Error("verbose logging should be enabled when LOG_LEVEL=debug")
	}
}

func TestVerbose(t *testing.T) {
	if !Verbose("debug") || !Verbose("trace") {
		t.Error("debug and trace should be verbose")
	}
	if Verbose("") || Verbose("info") {
		t.Error("empty and info should not be verbose")
	}
}

func TestSlogFromZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sl := SlogFromZap(zap.New(core))

	sl.Info("direct test", slog.String("tool", "search-inkeep-docs"))

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "direct test" {
		t.Errorf("expected message %q, got %q", "direct test", entry.Message)
	}
	if got := entry.ContextMap()["tool"]; got != "search-inkeep-docs" {
		t.Errorf("expected tool field, got %v", got)
	}
}

func TestStdErrorLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	std := StdErrorLog(zap.New(core))

	std.Print("http: TLS handshake error")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	if logs.All()[0].Level != zapcore.ErrorLevel {
		t.Errorf("expected error level, got %v", logs.All()[0].Level)
	}
}
