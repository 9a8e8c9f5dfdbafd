package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("JWT_RESET_SECRET", "reset")
}

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	setSecrets(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Driver != DriverSQLite || cfg.Mail.Transport != MailLog {
		t.Fatalf("unexpected driver/transport: %s/%s", cfg.DB.Driver, cfg.Mail.Transport)
	}
	if cfg.JWT.AccessTTL != 30*time.Minute || cfg.JWT.RefreshTTL != 7*24*time.Hour || cfg.JWT.ResetTTL != 15*time.Minute {
		t.Fatalf("unexpected ttls: %+v", cfg.JWT)
	}
	if cfg.Redis.Address() != "" {
		t.Fatalf("redis should be disabled by default, got %q", cfg.Redis.Address())
	}
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	dir := inTempDir(t)
	setSecrets(t)
	file := filepath.Join(dir, "snapgram.yaml")
	yml := "port: \"9000\"\njwt:\n  access_ttl: 5m\n  algorithm: HS512\nmail:\n  root_url: https://file.example\n"
	if err := os.WriteFile(file, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("ROOT_URL", "https://env.example")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.JWT.AccessTTL != 5*time.Minute || cfg.JWT.Algorithm != "HS512" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Mail.RootURL != "https://env.example" {
		t.Fatalf("env should override file, got %q", cfg.Mail.RootURL)
	}
	if cfg.RateLimit.Capacity != 1 {
		t.Fatalf("capacity should be clamped to 1, got %d", cfg.RateLimit.Capacity)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := inTempDir(t)
	dotenv := "JWT_SECRET=a\nJWT_REFRESH_SECRET=b\nJWT_RESET_SECRET=c\nDB_DRIVER=MONGO\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"JWT_SECRET", "JWT_REFRESH_SECRET", "JWT_RESET_SECRET", "DB_DRIVER"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.AccessSecret != "a" || cfg.DB.Driver != DriverMongo {
		t.Fatalf(".env not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.JWT.AccessSecret, valid.JWT.RefreshSecret, valid.JWT.ResetSecret = "a", "b", "c"
	if err := valid.Validate(); err != nil {
		t.Fatalf("defaults with secrets should validate: %v", err)
	}

	cases := map[string]func(*Config){
		"missing secret":    func(c *Config) { c.JWT.ResetSecret = "" },
		"shared secret":     func(c *Config) { c.JWT.ResetSecret = c.JWT.AccessSecret },
		"rsa algorithm":     func(c *Config) { c.JWT.Algorithm = "RS256" },
		"zero ttl":          func(c *Config) { c.JWT.RefreshTTL = 0 },
		"unknown driver":    func(c *Config) { c.DB.Driver = "postgres" },
		"mysql no host":     func(c *Config) { c.DB = DBConfig{Driver: DriverMySQL} },
		"smtp no host":      func(c *Config) { c.Mail.Transport = MailSMTP },
		"queue no broker":   func(c *Config) { c.Mail.Transport = MailQueue },
		"unknown transport": func(c *Config) { c.Mail.Transport = "pigeon" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.DB.Driver = "postgres"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "DB_DRIVER") || !strings.Contains(msg, "JWT_SECRET") {
		t.Fatalf("expected both problems reported, got %q", msg)
	}
}

func TestRedisAddress(t *testing.T) {
	c := RedisConfig{Addr: "cache:6379"}
	if c.Address() != "cache:6379" {
		t.Fatalf("got %q", c.Address())
	}
	c.Host, c.Port = "redis", "6380"
	if c.Address() != "redis:6380" {
		t.Fatalf("host/port should win, got %q", c.Address())
	}
}

func TestCodecConfig(t *testing.T) {
	cfg := Defaults()
	cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.ResetSecret = "a", "b", "c"
	cc := cfg.CodecConfig()
	if cc.AccessSecret != "a" || cc.RefreshSecret != "b" || cc.ResetSecret != "c" || cc.AccessTTL != cfg.JWT.AccessTTL {
		t.Fatalf("unexpected codec config: %+v", cc)
	}
}
