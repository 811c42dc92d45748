package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port        string // TCP listen port for the line protocol
	HTTPAddr    string // ops endpoint (/metrics, /healthz, /ws); empty disables
	DatabaseURL string // empty runs without results recording
}

func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "9000"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	return cfg
}

// ValidatePort checks a command-line port argument: a bare integer in
// 1..65535.
func ValidatePort(s string) error {
	p, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("illegal port argument %q", s)
	}
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", p)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
