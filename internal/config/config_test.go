package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DATABASE_URL", "")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9000")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/quizroom")

	cfg := Load()
	if cfg.Port != "7777" {
		t.Errorf("Port = %q, want %q", cfg.Port, "7777")
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.DatabaseURL != "postgres://localhost/quizroom" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		arg     string
		wantErr bool
	}{
		{"9000", false},
		{"1", false},
		{"65535", false},
		{"0", true},
		{"65536", true},
		{"-1", true},
		{"port", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidatePort(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePort(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
		}
	}
}
