package logger

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"prod", Options{Env: "prod"}, false},
		{"local with level", Options{Env: "local", Level: "warn"}, false},
		{"unknown env", Options{Env: "staging"}, true},
		{"bad level", Options{Env: "dev", Level: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && l == nil {
				t.Error("nil logger")
			}
		})
	}
}

func TestNew_LevelOverride(t *testing.T) {
	l, err := New(Options{Env: "local", Level: "error"})
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn enabled with level error")
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("debug"); err != nil || lvl != zapcore.DebugLevel {
		t.Errorf("ParseLevel(debug) = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error")
	}
}

func TestQuery_Truncates(t *testing.T) {
	short := Query("find subodh")
	if short.String != "find subodh" {
		t.Errorf("short query = %q", short.String)
	}

	long := Query(strings.Repeat("ज", MaxLoggedQuery+50))
	if n := utf8.RuneCountInString(long.String); n != MaxLoggedQuery+1 {
		t.Errorf("truncated length = %d runes", n)
	}
	if !utf8.ValidString(long.String) {
		t.Error("truncation split a rune")
	}
}

func TestFromContextOr(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	fallback := zap.New(core).With(zap.String("src", "fallback"))
	scoped := zap.New(core).With(zap.String("src", "ctx"))

	FromContextOr(context.Background(), fallback).Info("a")
	FromContextOr(ContextWithLogger(context.Background(), scoped), fallback).Info("b")
	FromContextOr(context.Background(), nil).Info("dropped")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ContextMap()["src"] != "fallback" || entries[1].ContextMap()["src"] != "ctx" {
		t.Errorf("sources = %v, %v", entries[0].ContextMap(), entries[1].ContextMap())
	}
}
