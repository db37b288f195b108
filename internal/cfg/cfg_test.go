package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "FIST_DATA", "PALM_DATA", "MODEL_DIR", "SEED",
		"TEST_FRACTION", "SELECTION", "TRACKER_URL", "PING_INTERVAL",
		"ROBOT_HOST", "ROBOT_PORT", "DATA_PATH", "METRICS_PORT", "LOADER_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_EnvDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.ModelDir != "models/grip" {
		t.Errorf("default model dir: got %q", s.ModelDir)
	}
	if s.Seed != 42 || s.TestFraction != 0.2 || s.Selection != "holdout" {
		t.Errorf("default training knobs wrong: %+v", s)
	}
	if s.RobotHost != "192.168.4.1" || s.RobotPort != 8000 {
		t.Errorf("default robot link wrong: %s:%d", s.RobotHost, s.RobotPort)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_DIR", "/tmp/models")
	t.Setenv("SEED", "7")
	t.Setenv("SELECTION", "full")
	t.Setenv("TEST_FRACTION", "0.3")

	s, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.ModelDir != "/tmp/models" || s.Seed != 7 || s.Selection != "full" || s.TestFraction != 0.3 {
		t.Errorf("env overrides not applied: %+v", s)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	yaml := `
data:
  fist: data/fist.json
  palm: data/palm.json
  path: /var/lib/grip
training:
  modelDir: artifacts/grip
  seed: 99
  testFraction: 0.25
  selection: holdout
tracker:
  url: ws://tracker:9001/landmarks
  pingInterval: 20s
robot:
  host: 10.0.0.5
  port: 8100
system:
  metricsPort: 9191
  loaderTimeout: 5s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.FistData != "data/fist.json" || s.PalmData != "data/palm.json" {
		t.Errorf("data sources wrong: %+v", s)
	}
	if s.ModelDir != "artifacts/grip" || s.Seed != 99 || s.TestFraction != 0.25 {
		t.Errorf("training section wrong: %+v", s)
	}
	if s.TrackerURL != "ws://tracker:9001/landmarks" || s.Ping != 20*time.Second {
		t.Errorf("tracker section wrong: %+v", s)
	}
	if s.RobotHost != "10.0.0.5" || s.RobotPort != 8100 {
		t.Errorf("robot section wrong: %+v", s)
	}
	if s.MetricsPort != 9191 || s.LoaderTimeout != 5*time.Second {
		t.Errorf("system section wrong: %+v", s)
	}
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("training:\n  modelDir: from-yaml\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MODEL_DIR", "from-env")

	s, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.ModelDir != "from-env" {
		t.Errorf("env should override YAML, got %q", s.ModelDir)
	}
}

func TestValidateSettings(t *testing.T) {
	base := func() Settings {
		return Settings{
			ModelDir:      "models/grip",
			TestFraction:  0.2,
			Selection:     "holdout",
			Ping:          15 * time.Second,
			RobotPort:     8000,
			MetricsPort:   9090,
			LoaderTimeout: 10 * time.Second,
		}
	}

	testCases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"test fraction too high", func(s *Settings) { s.TestFraction = 1.0 }},
		{"test fraction zero", func(s *Settings) { s.TestFraction = 0 }},
		{"unknown selection", func(s *Settings) { s.Selection = "best-of-both" }},
		{"empty model dir", func(s *Settings) { s.ModelDir = "" }},
		{"metrics port privileged", func(s *Settings) { s.MetricsPort = 80 }},
		{"ping too short", func(s *Settings) { s.Ping = time.Millisecond }},
		{"robot port invalid", func(s *Settings) { s.RobotPort = 0 }},
		{"loader timeout too long", func(s *Settings) { s.LoaderTimeout = time.Hour }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			tc.mutate(&s)
			if err := validateSettings(&s); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	good := base()
	if err := validateSettings(&good); err != nil {
		t.Errorf("valid settings rejected: %v", err)
	}
}
