package logger

import "testing"

func TestInitLoggerDevelopment(t *testing.T) {
	cfg := &LogConfig{
		Level:       "debug",
		Environment: "development",
		ServiceName: "hvac-ai",
	}
	if err := InitLogger(cfg); err != nil {
		t.Fatalf("init: %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("logger not set")
	}
}

func TestInitLoggerProduction(t *testing.T) {
	cfg := &LogConfig{
		Level:       "info",
		Environment: "production",
		ServiceName: "hvac-ai",
	}
	if err := InitLogger(cfg); err != nil {
		t.Fatalf("init: %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("logger not set")
	}
}

func TestGetLoggerBeforeInit(t *testing.T) {
	saved := log
	log = nil
	defer func() { log = saved }()

	if GetLogger() == nil {
		t.Fatal("uninitialized logger must fall back to a nop logger")
	}
}
