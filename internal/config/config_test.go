package config

import (
	"os"
	"testing"
)

func TestLoadRequiresStoreDSN(t *testing.T) {
	os.Unsetenv("STORE_DSN")
	if _, err := Load(nil); err == nil {
		t.Error("expected error when STORE_DSN is unset")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	os.Setenv("STORE_DSN", "/tmp/goalforge_test.db")
	defer os.Unsetenv("STORE_DSN")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NotificationRatePerSec != DefaultNotificationRatePerS {
		t.Errorf("NotificationRatePerSec = %d, want %d", cfg.NotificationRatePerSec, DefaultNotificationRatePerS)
	}
	if !cfg.DefaultNotifyToggles.EventReminder {
		t.Error("expected EventReminder default to be true")
	}
}

func TestLoadRejectsInvalidTimezone(t *testing.T) {
	os.Setenv("STORE_DSN", "/tmp/goalforge_test.db")
	os.Setenv("DEFAULT_TIMEZONE", "Not/AZone")
	defer os.Unsetenv("STORE_DSN")
	defer os.Unsetenv("DEFAULT_TIMEZONE")

	if _, err := Load(nil); err == nil {
		t.Error("expected error for invalid timezone")
	}
}
