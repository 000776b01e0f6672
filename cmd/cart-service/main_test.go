package main

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestReadConfig_AppliesLogLevel(t *testing.T) {
	t.Setenv("CART_LOG_LEVEL", "warn")
	t.Setenv("CART_GRPC_ADDR", "127.0.0.1:6000")

	cfg := readConfig()
	if cfg.GRPCAddr != "127.0.0.1:6000" {
		t.Fatalf("unexpected grpc addr: %s", cfg.GRPCAddr)
	}
	if log.GetLevel() != log.WarnLevel {
		t.Fatalf("expected warn level, got %s", log.GetLevel())
	}
}

func TestReadConfig_InvalidLevelKeepsInfo(t *testing.T) {
	t.Setenv("CART_LOG_LEVEL", "loud")

	cfg := readConfig()
	if cfg.Level() != log.InfoLevel {
		t.Fatalf("expected info level, got %s", cfg.Level())
	}
	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("expected global info level, got %s", log.GetLevel())
	}
}
