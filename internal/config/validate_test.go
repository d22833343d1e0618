package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		DatabaseURL:            "postgres://localhost:5432/roisheet",
		AccountID:              DefaultAccountID,
		DBOpTimeoutStr:         "5s",
		DBConnMaxLifetimeStr:   "30m",
		DBConnMaxIdleTimeStr:   "5m",
		HTTPShutdownTimeoutStr: "10s",
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("valid config should pass, got: %v", err)
	}
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error should mention DATABASE_URL: %v", err)
	}
}

func TestValidate_InvalidAccountID(t *testing.T) {
	cfg := validConfig()
	cfg.AccountID = "not-a-uuid"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid ACCOUNT_ID")
	}
	if !strings.Contains(err.Error(), "ACCOUNT_ID") {
		t.Errorf("error should mention ACCOUNT_ID: %v", err)
	}
}

func TestValidate_InvalidDuration(t *testing.T) {
	cfg := validConfig()
	cfg.DBOpTimeoutStr = "banana"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "DB_OP_TIMEOUT") {
		t.Errorf("error should mention DB_OP_TIMEOUT: %v", err)
	}
}

func TestValidate_NonPositiveDuration(t *testing.T) {
	cfg := validConfig()
	cfg.HTTPShutdownTimeoutStr = "-5s"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for negative duration")
	}
	if !strings.Contains(err.Error(), "must be positive") {
		t.Errorf("error should say must be positive: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""
	cfg.AccountID = "nope"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(verrs), verrs)
	}
}
