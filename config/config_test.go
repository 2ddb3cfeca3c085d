package config

import (
	"os"
	"testing"
)

func TestLoadValidConfig(t *testing.T) {
	_ = os.Setenv("PORT", "8002")
	_ = os.Setenv("ADDRESS", "127.0.0.1")
	_ = os.Setenv("ENV", "dev")
	_ = os.Setenv("LOG_LEVEL", "info")
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != "dev" {
		t.Errorf("Expected env dev, got %s", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected log level info, got %s", cfg.LogLevel)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.PageSize != 100 {
		t.Errorf("Expected default page size 100, got %d", cfg.PageSize)
	}
	if cfg.StoreBackend != BackendBadger {
		t.Errorf("Expected default store backend badger, got %s", cfg.StoreBackend)
	}
}

func TestInvalidPort(t *testing.T) {
	testCases := []struct {
		port     string
		expected string
	}{
		{"abc", "PORT must be a valid number"},
		{"0", "PORT must be between 1 and 65535"},
		{"65536", "PORT must be between 1 and 65535"},
		{"80", "PORT 80 is privileged"},
	}

	defer cleanupEnv()
	for _, tc := range testCases {
		_ = os.Setenv("PORT", tc.port)
		_ = os.Setenv("ADDRESS", "127.0.0.1")
		_ = os.Setenv("ENV", "dev")
		_ = os.Setenv("LOG_LEVEL", "info")

		_, err := Load()
		if err == nil {
			t.Errorf("Expected error for port %s, got nil", tc.port)
		}
	}
}

func TestInvalidAddress(t *testing.T) {
	defer cleanupEnv()

	_ = os.Setenv("PORT", "8002")
	_ = os.Setenv("ADDRESS", "invalid")
	_ = os.Setenv("ENV", "dev")
	_ = os.Setenv("LOG_LEVEL", "info")

	if _, err := Load(); err == nil {
		t.Error("Expected error for address invalid, got nil")
	}
}

func TestInvalidEnv(t *testing.T) {
	defer cleanupEnv()

	_ = os.Setenv("PORT", "8002")
	_ = os.Setenv("ADDRESS", "127.0.0.1")
	_ = os.Setenv("ENV", "invalid")
	_ = os.Setenv("LOG_LEVEL", "info")

	if _, err := Load(); err == nil {
		t.Error("Expected error for env invalid, got nil")
	}
}

func TestInvalidLogLevel(t *testing.T) {
	defer cleanupEnv()

	_ = os.Setenv("PORT", "8002")
	_ = os.Setenv("ADDRESS", "127.0.0.1")
	_ = os.Setenv("ENV", "dev")
	_ = os.Setenv("LOG_LEVEL", "invalid")

	if _, err := Load(); err == nil {
		t.Error("Expected error for log level invalid, got nil")
	}
}

func TestInvalidPageSize(t *testing.T) {
	testCases := []string{"0", "-5", "5000"}

	defer cleanupEnv()
	for _, size := range testCases {
		_ = os.Setenv("PAGE_SIZE", size)

		if _, err := Load(); err == nil {
			t.Errorf("Expected error for page size %s, got nil", size)
		}
	}
}

func TestStoreBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		path    string
		wantErr bool
	}{
		{"badger with path", "badger", "data/test", false},
		{"memory", "memory", "", false},
		{"badger without path", "badger", "", true},
		{"unknown backend", "redis", "", true},
	}

	defer cleanupEnv()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = os.Setenv("STORE_BACKEND", tt.backend)
			if tt.path == "" {
				_ = os.Setenv("STORE_PATH", " ")
				_ = os.Unsetenv("STORE_PATH")
			} else {
				_ = os.Setenv("STORE_PATH", tt.path)
			}

			cfg := &Config{StoreBackend: tt.backend, StorePath: tt.path}
			err := validateStoreBackend(cfg)
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for backend %s, got nil", tt.backend)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error for backend %s: %v", tt.backend, err)
			}
		})
	}
}

func cleanupEnv() {
	for _, key := range GetEnvVars() {
		_ = os.Unsetenv(key)
	}
}
