package resilience

import (
	"testing"
	"time"
)

func TestForCollaboratorsScalesMaxBackoff(t *testing.T) {
	cfg := ForCollaborators(5, 50*time.Millisecond, false)
	if cfg.RetryMaxAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != 50*time.Millisecond || cfg.RetryMaxBackoff != 200*time.Millisecond {
		t.Fatalf("unexpected backoff %s/%s", cfg.RetryInitialBackoff, cfg.RetryMaxBackoff)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
}

func TestForCollaboratorsKeepsDefaultsForUnsetValues(t *testing.T) {
	cfg := ForCollaborators(0, 0, true)
	def := DefaultConfig()
	if cfg.RetryMaxAttempts != def.RetryMaxAttempts || cfg.RetryInitialBackoff != def.RetryInitialBackoff || cfg.RetryMaxBackoff != def.RetryMaxBackoff {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestNormalizeFillsZeroBackoffs(t *testing.T) {
	cfg := Config{}.normalize()
	def := DefaultConfig()
	if cfg.RetryInitialBackoff != def.RetryInitialBackoff {
		t.Fatalf("expected default initial backoff, got %s", cfg.RetryInitialBackoff)
	}
	if cfg.RetryMaxBackoff != def.RetryMaxBackoff {
		t.Fatalf("expected default max backoff, got %s", cfg.RetryMaxBackoff)
	}

	cfg = Config{RetryInitialBackoff: 10 * time.Millisecond}.normalize()
	if cfg.RetryMaxBackoff != 40*time.Millisecond {
		t.Fatalf("expected max backoff derived from initial, got %s", cfg.RetryMaxBackoff)
	}
}
