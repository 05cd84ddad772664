package config

import "testing"

func TestSetValueParsesKnownKeys(t *testing.T) {
	cfg := defaultConfig
	if err := setValue(&cfg, "UDP_PORT", "1234"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UDPPort != 1234 {
		t.Errorf("expected UDPPort 1234, got %d", cfg.UDPPort)
	}
}

func TestSetValueRejectsBadInt(t *testing.T) {
	cfg := defaultConfig
	if err := setValue(&cfg, "WS_PORT", "not-a-number"); err == nil {
		t.Error("expected error parsing non-numeric port")
	}
}

func TestSetValueIgnoresUnknownKey(t *testing.T) {
	cfg := defaultConfig
	if err := setValue(&cfg, "NOT_A_REAL_KEY", "x"); err != nil {
		t.Errorf("unknown keys should be logged, not erroring: %v", err)
	}
}

func TestValidateRejectsNonPositiveTick(t *testing.T) {
	cfg := defaultConfig
	cfg.TickMillis = 0
	if err := validate(&cfg); err == nil {
		t.Error("expected validation error for zero tick interval")
	}
}

func TestValidateRejectsSamePorts(t *testing.T) {
	cfg := defaultConfig
	cfg.WSPort = cfg.UDPPort
	if err := validate(&cfg); err == nil {
		t.Error("expected validation error for colliding UDP/WS ports")
	}
}
