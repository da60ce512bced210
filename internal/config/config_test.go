package config_test

import (
	"testing"
	"time"

	"github.com/rsilvagit/go-empleo/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.test")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PageSize != 50 || cfg.TopN != 20 {
		t.Errorf("PageSize/TopN = %d/%d, want 50/20", cfg.PageSize, cfg.TopN)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %s, want 168h", cfg.SessionTTL)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("APITimeout = %s, want 5s", cfg.APITimeout)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://empleo.example.com/api")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("API_TIMEOUT", "2s")
	t.Setenv("JOB_LOOKUP_FALLBACK", "false")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PageSize != 25 || cfg.APITimeout != 2*time.Second || cfg.LookupFallback {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"relative base url": {"API_BASE_URL": "localhost"},
		"zero page size":    {"API_BASE_URL": "http://api.test", "PAGE_SIZE": "0"},
		"negative top n":    {"API_BASE_URL": "http://api.test", "TOP_N": "-3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := config.LoadConfig(); err == nil {
				t.Error("LoadConfig expected error")
			}
		})
	}
}
