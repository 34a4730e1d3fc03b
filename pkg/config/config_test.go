package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
environment: test
server:
  port: 8080
data_service:
  base_url: http://localhost:9000
  timeout: 5s
llm:
  enabled: false
pipeline:
  run_timeout: 10s
  opportunity_limit: 15
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "test" {
		t.Fatalf("unexpected environment %q", c.Environment)
	}
	if c.DataService.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout %v", c.DataService.Timeout)
	}
	if c.Pipeline.OpportunityLimit != 15 {
		t.Fatalf("unexpected limit %d", c.Pipeline.OpportunityLimit)
	}
}

func TestLoadMissingDataServiceURL(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\n"))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("VINSIGHT_DATASVC_URL", "http://override:9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DataService.BaseURL != "http://override:9000" {
		t.Fatalf("env override not applied: %q", c.DataService.BaseURL)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Fatalf("unexpected brokers %v", c.Kafka.Brokers)
	}
}

func TestValidateDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\ndata_service:\n  base_url: http://x\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Pipeline.RunTimeout != 30*time.Second {
		t.Fatalf("default run timeout not applied: %v", c.Pipeline.RunTimeout)
	}
	if c.Pipeline.OpportunityLimit != 20 {
		t.Fatalf("default limit not applied: %d", c.Pipeline.OpportunityLimit)
	}
}

func TestLLMRequiresKeyWhenEnabled(t *testing.T) {
	body := "environment: test\ndata_service:\n  base_url: http://x\nllm:\n  enabled: true\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for enabled llm without key")
	}
}
