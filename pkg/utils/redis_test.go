package utils

import (
	"context"
	"testing"
	"time"
)

func TestScriptsInitialized(t *testing.T) {
	if fixedWindowScript == nil || slotAcquireScript == nil || slotReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestHitFixedWindow_ValidatesArgs(t *testing.T) {
	ctx := context.Background()
	if _, _, err := HitFixedWindow(ctx, nil, "k", time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestAcquireSlot_ValidatesArgs(t *testing.T) {
	if _, err := AcquireSlot(context.Background(), nil, "k", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
