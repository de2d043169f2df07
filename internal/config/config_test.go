package config

import "testing"

func TestLoadIncludesTrafficControlDefaults(t *testing.T) {
	t.Setenv("API_RATE_LIMIT_RPS", "")
	t.Setenv("API_RATE_LIMIT_BURST", "")
	t.Setenv("API_MAX_IN_FLIGHT", "")
	t.Setenv("API_MAX_IN_FLIGHT_WAIT_MS", "")

	cfg := Load()
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIMaxInFlight != 0 {
		t.Fatalf("expected backpressure disabled by default, got %d", cfg.APIMaxInFlight)
	}
	if cfg.APIMaxInFlightWaitMS != 100 {
		t.Fatalf("expected default in-flight wait 100ms, got %d", cfg.APIMaxInFlightWaitMS)
	}
	if cfg.NATSSubject != "invoices.files.ingested" {
		t.Fatalf("unexpected default subject %q", cfg.NATSSubject)
	}
}

func TestLoadParsesTrafficControlOverrides(t *testing.T) {
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_RATE_LIMIT_BURST", "10")
	t.Setenv("API_MAX_IN_FLIGHT", "32")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "false")

	cfg := Load()
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIRateLimitBurst != 10 {
		t.Fatalf("expected burst 10, got %d", cfg.APIRateLimitBurst)
	}
	if cfg.APIMaxInFlight != 32 {
		t.Fatalf("expected max in flight 32, got %d", cfg.APIMaxInFlight)
	}
	if cfg.ResilienceBreakerEnabled {
		t.Fatalf("expected breaker disabled by override")
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("API_RATE_LIMIT_RPS", "not-a-number")
	t.Setenv("API_RATE_LIMIT_BURST", "ten")

	cfg := Load()
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected fallback 0 for malformed rps, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIRateLimitBurst != 0 {
		t.Fatalf("expected fallback 0 for malformed burst, got %d", cfg.APIRateLimitBurst)
	}
}
