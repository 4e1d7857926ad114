package logging

import "testing"

func TestNewWithDefaults(t *testing.T) {
	logger, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("probe")
	_ = logger.Sync()
}

func TestNewDevelopmentDebug(t *testing.T) {
	logger, err := New(Config{Level: "debug", Development: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !logger.Core().Enabled(-1) { // zapcore.DebugLevel
		t.Error("debug level not enabled")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("unknown level accepted")
	}
}
