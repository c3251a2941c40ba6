package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLogger_WithFieldsWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)

	log.WithFields(map[string]interface{}{
		"user_id": 42,
		"kind":    "grant-access",
	}).Info("subscription updated")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["message"] != "subscription updated" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["kind"] != "grant-access" {
		t.Errorf("kind = %v", entry["kind"])
	}
	if entry["user_id"] != float64(42) {
		t.Errorf("user_id = %v", entry["user_id"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		log     func(l *Logger)
		wantOut bool
	}{
		{"info hidden at error level", "error", func(l *Logger) { l.Info("x") }, false},
		{"error shown at error level", "error", func(l *Logger) { l.ErrorWithErr(errors.New("boom"), "x") }, true},
		{"debug hidden at info level", "info", func(l *Logger) { l.Debug("x") }, false},
		{"warn shown at info level", "info", func(l *Logger) { l.Warn("x") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewWithWriter(Config{Level: tt.level, Format: "json"}, &buf))
			if got := buf.Len() > 0; got != tt.wantOut {
				t.Errorf("output written = %v, want %v", got, tt.wantOut)
			}
		})
	}
}

func TestLogger_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(Config{Level: "INFO", Format: "json", Service: "altseo-api"}, &buf).Info("started")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["service"] != "altseo-api" {
		t.Errorf("service = %v, want altseo-api", entry["service"])
	}
}

func TestLogger_LevelsAreIndependent(t *testing.T) {
	var quiet, loud bytes.Buffer
	q := NewWithWriter(Config{Level: "error", Format: "json"}, &quiet)
	l := NewWithWriter(Config{Level: "info", Format: "json"}, &loud)

	q.Info("hidden")
	l.Info("shown")

	if quiet.Len() != 0 {
		t.Errorf("error-level logger wrote %q", quiet.String())
	}
	if loud.Len() == 0 {
		t.Error("info-level logger created after an error-level one wrote nothing")
	}
}
