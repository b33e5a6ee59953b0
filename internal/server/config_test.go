package server

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8443" {
		t.Errorf("ListenAddr() = %q, want 0.0.0.0:8443", got)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("rate limiting enabled by default (%v)", cfg.RateLimit)
	}
}

func TestConfig_ListenAddr(t *testing.T) {
	tests := []struct {
		bind string
		port int
		want string
	}{
		{"0.0.0.0", 8443, "0.0.0.0:8443"},
		{"", 8443, ":8443"},
		{"::1", 443, "[::1]:443"},
		{"127.0.0.1", 0, "127.0.0.1:0"},
	}
	for _, tt := range tests {
		cfg := Config{BindAddr: tt.bind, Port: tt.port}
		if got := cfg.ListenAddr(); got != tt.want {
			t.Errorf("ListenAddr(%q, %d) = %q, want %q", tt.bind, tt.port, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		contains string
	}{
		{"bad bind address", func(c *Config) { c.BindAddr = "not-an-ip" }, "not an IP address"},
		{"negative port", func(c *Config) { c.Port = -1 }, "out of range"},
		{"port too large", func(c *Config) { c.Port = 70000 }, "out of range"},
		{"no root", func(c *Config) { c.RootDir = "" }, "root directory is required"},
		{"no cert", func(c *Config) { c.CertFile = "" }, "certificate file is required"},
		{"no key", func(c *Config) { c.KeyFile = "" }, "key file is required"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "must not be negative"},
		{"rate without burst", func(c *Config) { c.RateLimit = 5; c.RateBurst = 0 }, "at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err, tt.contains)
			}
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := Config{Port: -5}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"out of range", "root directory", "certificate file", "key file"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
