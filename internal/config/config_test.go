package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("ADMIN_ID", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FreeQueriesPerDay != 5 {
		t.Errorf("FreeQueriesPerDay: got %d, want 5", cfg.FreeQueriesPerDay)
	}
	if cfg.ReferralBonus != 3 {
		t.Errorf("ReferralBonus: got %d, want 3", cfg.ReferralBonus)
	}
	if cfg.DurationWeek != 7 || cfg.DurationMonth != 30 || cfg.DurationYear != 365 {
		t.Errorf("unexpected durations: %d/%d/%d", cfg.DurationWeek, cfg.DurationMonth, cfg.DurationYear)
	}
	if cfg.AdminID != 42 {
		t.Errorf("AdminID: got %d, want 42", cfg.AdminID)
	}
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.env")
	content := "BOT_TOKEN=from-file\nADMIN_ID=7\nFREE_QUERIES_PER_DAY=9\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("ADMIN_ID", "1")
	t.Setenv("FREE_QUERIES_PER_DAY", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "from-env" {
		t.Errorf("BotToken: got %q, want from-env", cfg.BotToken)
	}
	if cfg.FreeQueriesPerDay != 5 {
		t.Errorf("FreeQueriesPerDay: got %d, want 5", cfg.FreeQueriesPerDay)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("ADMIN_ID", "1")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero admin", "ADMIN_ID", "0"},
		{"negative quota", "FREE_QUERIES_PER_DAY", "-1"},
		{"zero duration", "DURATION_WEEK", "0"},
		{"bad timezone", "TIMEZONE", "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", "token")
			t.Setenv("ADMIN_ID", "1")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(""); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "db",
		PostgresPort:     5432,
		PostgresDB:       "bot",
		PostgresUser:     "u",
		PostgresPassword: "p@ss:word",
	}
	want := "postgres://u:p%40ss%3Aword@db:5432/bot?sslmode=disable"
	if got := cfg.PostgresURL(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	cfg.PostgresUser = "bot user"
	cfg.PostgresPassword = "a b/c?d#e"
	want = "postgres://bot%20user:a%20b%2Fc%3Fd%23e@db:5432/bot?sslmode=disable"
	if got := cfg.PostgresURL(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	cfg.PostgresDSN = "postgres://explicit"
	if got := cfg.PostgresURL(); got != "postgres://explicit" {
		t.Errorf("explicit DSN not preferred: %q", got)
	}
}
