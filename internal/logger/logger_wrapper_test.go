package logger

import (
	"errors"
	"testing"

	"github.com/leandrodaf/vcotuner/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core, logs := observer.New(level)
	return &ZapLogger{logger: zap.New(core), level: level}, logs
}

func TestSetLevelFilters(t *testing.T) {
	l, logs := newObservedLogger(t)

	l.Debug("hidden")
	l.Info("shown")
	l.SetLevel(contracts.WarnLevel)
	l.Info("hidden too")
	l.Warn("warned")
	l.SetLevel(contracts.DebugLevel)
	l.Debug("debug now")

	var got []string
	for _, e := range logs.All() {
		got = append(got, e.Message)
	}
	want := []string{"shown", "warned", "debug now"}
	if len(got) != len(want) {
		t.Fatalf("messages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("messages[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFieldsAreTyped(t *testing.T) {
	l, logs := newObservedLogger(t)

	l.Info("measurement",
		l.Field().Int("pitch", 60),
		l.Field().Float64("frequency", 261.63),
		l.Field().Error("error", errors.New("boom")),
		l.Field(), // empty builder, dropped
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if len(ctx) != 3 {
		t.Fatalf("context = %v, want 3 fields", ctx)
	}
	if ctx["pitch"] != int64(60) {
		t.Fatalf("pitch = %v (%T), want 60", ctx["pitch"], ctx["pitch"])
	}
	if ctx["frequency"] != 261.63 {
		t.Fatalf("frequency = %v, want 261.63", ctx["frequency"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("error = %v, want boom", ctx["error"])
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want contracts.LogLevel
		ok   bool
	}{
		{"debug", contracts.DebugLevel, true},
		{"", contracts.InfoLevel, true},
		{"warning", contracts.WarnLevel, true},
		{"error", contracts.ErrorLevel, true},
		{"loud", contracts.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := contracts.ParseLogLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseLogLevel(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelsMatchZap(t *testing.T) {
	tests := []struct {
		level contracts.LogLevel
		want  zapcore.Level
	}{
		{contracts.DebugLevel, zapcore.DebugLevel},
		{contracts.InfoLevel, zapcore.InfoLevel},
		{contracts.WarnLevel, zapcore.WarnLevel},
		{contracts.ErrorLevel, zapcore.ErrorLevel},
		{contracts.FatalLevel, zapcore.FatalLevel},
	}
	for _, tt := range tests {
		l, _ := newObservedLogger(t)
		l.SetLevel(tt.level)
		if got := l.level.Level(); got != tt.want {
			t.Fatalf("SetLevel(%v) filters at %v, want %v", tt.level, got, tt.want)
		}
	}

	l, logs := newObservedLogger(t)
	l.SetLevel(contracts.FatalLevel)
	l.Error("below fatal")
	if logs.Len() != 0 {
		t.Fatalf("error entry passed a fatal level filter: %v", logs.All())
	}
}
