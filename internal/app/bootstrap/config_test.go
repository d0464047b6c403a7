package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.GRPCPort != 9090 {
		t.Fatalf("unexpected ports %d/%d", cfg.HTTPPort, cfg.GRPCPort)
	}
	if cfg.ConfirmationDelay != 60*time.Second || cfg.ConfirmationMode != application.ConfirmationModeTimer {
		t.Fatalf("unexpected access defaults: %v %s", cfg.ConfirmationDelay, cfg.ConfirmationMode)
	}
	if cfg.ViewTracking != ViewTrackingCatalog || cfg.BcryptCost != 12 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
service:
  http_port: 8181
dependencies:
  kafka_brokers: ["kafka-1:9092"]
access:
  confirmation_delay_seconds: 0
  confirmation_mode: Settlement
events:
  view_tracking: kafka
`)
	t.Setenv("HTTP_PORT", "8282")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ADMIN_ELEVATION_MODE", "flag")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 8282 {
		t.Fatalf("env should override file port, got %d", cfg.HTTPPort)
	}
	if cfg.ConfirmationDelay != 0 {
		t.Fatalf("explicit zero delay from file was lost: %v", cfg.ConfirmationDelay)
	}
	if cfg.ConfirmationMode != application.ConfirmationModeSettlement || cfg.AdminElevationMode != application.ElevationModeFlag {
		t.Fatalf("unexpected modes %s/%s", cfg.ConfirmationMode, cfg.AdminElevationMode)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		file string
		env  map[string]string
	}{
		"unknown confirmation mode": {file: "access:\n  confirmation_mode: manual\n"},
		"kafka without brokers":     {file: "events:\n  view_tracking: kafka\n"},
		"negative delay":            {env: map[string]string{"CONFIRMATION_DELAY_SECONDS": "-5"}},
		"fixed keys required":       {env: map[string]string{"JWT_ALLOW_EPHEMERAL": "false"}},
		"malformed port":            {env: map[string]string{"HTTP_PORT": "eighty"}},
		"broken yaml":               {file: "service: [\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tc.file)
			if _, err := LoadConfig(path); err == nil {
				t.Fatalf("expected config error")
			}
		})
	}
}
