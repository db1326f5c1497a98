package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Fatalf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Gmail.AlertTo != "admin@example.com" {
		t.Fatalf("expected default alert recipient, got %q", cfg.Gmail.AlertTo)
	}
	if cfg.Airtable.Table != "Failed Payments" {
		t.Fatalf("expected default table name, got %q", cfg.Airtable.Table)
	}
	if cfg.Stripe.Tolerance != 5*time.Minute {
		t.Fatalf("expected default tolerance 5m, got %v", cfg.Stripe.Tolerance)
	}
	if cfg.Relay.RetryAttempts != 3 {
		t.Fatalf("expected default retry attempts 3, got %d", cfg.Relay.RetryAttempts)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_from_env")
	t.Setenv("SERVER_PORT", "8088")
	t.Setenv("GMAIL_ALERT_TO", "oncall@example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Stripe.WebhookSecret != "whsec_from_env" {
		t.Fatalf("env override did not land, got %q", cfg.Stripe.WebhookSecret)
	}
	if cfg.Server.Port != 8088 {
		t.Fatalf("expected port 8088 from env, got %d", cfg.Server.Port)
	}
	if cfg.Gmail.AlertTo != "oncall@example.com" {
		t.Fatalf("expected alert recipient from env, got %q", cfg.Gmail.AlertTo)
	}
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation failure without secrets")
	}

	cfg.Stripe.WebhookSecret = "whsec_x"
	cfg.Airtable.APIKey = "key"
	cfg.Airtable.BaseID = "app1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected config to validate, got %v", err)
	}
}
