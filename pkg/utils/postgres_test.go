package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	got := PostgresPoolConfig{}.withDefaults()
	if got.MaxOpenConns != 10 || got.MaxIdleConns != 5 {
		t.Fatalf("unexpected pool sizes: %+v", got)
	}
	if got.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout: %v", got.PingTimeout)
	}
}

func TestPostgresPoolConfig_KeepsOverrides(t *testing.T) {
	got := PostgresPoolConfig{MaxOpenConns: 3, ConnMaxLifetime: time.Minute}.withDefaults()
	if got.MaxOpenConns != 3 || got.ConnMaxLifetime != time.Minute {
		t.Fatalf("overrides lost: %+v", got)
	}
}
