package config

import "testing"

func TestValidate_InvalidTimeoutPolicy(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Pipeline: PipelineConfig{TimeoutPolicy: "retry"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid timeout policy")
	}

	expected := `pipeline.timeout_policy must be "return" or "fail", got "retry"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidTimeoutPolicies(t *testing.T) {
	validPolicies := []string{"", "return", "fail", "Return", "FAIL"}

	for _, policy := range validPolicies {
		t.Run("policy="+policy, func(t *testing.T) {
			cfg := Config{
				HTTP:     HTTPConfig{Port: 8080},
				Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
				Pipeline: PipelineConfig{TimeoutPolicy: policy},
			}

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid policy %q: %v", policy, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 0},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{}},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MaxSearchResultsExceedsUnsortedThreshold(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Pipeline: PipelineConfig{MaxSearchResults: 2000, MaxResultsToUnsortedMode: 1000},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max_search_results exceeds max_results_to_unsorted_mode")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Pipeline.TimeoutPolicy != "return" {
		t.Errorf("expected TimeoutPolicy=return, got %q", cfg.Pipeline.TimeoutPolicy)
	}
	if cfg.Pipeline.MaxSearchResults != 1000 {
		t.Errorf("expected MaxSearchResults=1000, got %d", cfg.Pipeline.MaxSearchResults)
	}
	if cfg.Pipeline.MaxResultsToUnsortedMode != 10000 {
		t.Errorf("expected MaxResultsToUnsortedMode=10000, got %d", cfg.Pipeline.MaxResultsToUnsortedMode)
	}
	if cfg.Pipeline.SearchPoolSize != 16 {
		t.Errorf("expected SearchPoolSize=16, got %d", cfg.Pipeline.SearchPoolSize)
	}
	if cfg.Storage.KeyPrefix != "kvsearch:" {
		t.Errorf("expected KeyPrefix='kvsearch:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Pipeline: PipelineConfig{TimeoutPolicy: "fail", MaxSearchResults: 50, MaxResultsToUnsortedMode: 500, SearchPoolSize: 4},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Pipeline.TimeoutPolicy != "fail" {
		t.Errorf("expected TimeoutPolicy=fail, got %q", cfg.Pipeline.TimeoutPolicy)
	}
	if cfg.Pipeline.MaxSearchResults != 50 {
		t.Errorf("expected MaxSearchResults=50, got %d", cfg.Pipeline.MaxSearchResults)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestResolvedTimeoutPolicy(t *testing.T) {
	cases := []struct {
		in     string
		isFail bool
	}{
		{"", false},
		{"return", false},
		{"Return", false},
		{"fail", true},
		{"FAIL", true},
	}
	for _, c := range cases {
		isFail, err := PipelineConfig{TimeoutPolicy: c.in}.ResolvedTimeoutPolicy()
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", c.in, err)
		}
		if isFail != c.isFail {
			t.Errorf("ResolvedTimeoutPolicy(%q) = %v, want %v", c.in, isFail, c.isFail)
		}
	}
}
