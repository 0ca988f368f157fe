package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadWithDefaults(t *testing.T) {
	cfg := LoadWithDefaults()

	assert.Equal(t, "ChatGPT", cfg.AppName)
	assert.Equal(t, 120*time.Second, cfg.DispatchInterval)
	assert.Equal(t, 5*time.Second, cfg.ReplySettleDelay)
	assert.Equal(t, 2*time.Second, cfg.ActivateSettleDelay)
	assert.Equal(t, 30*time.Second, cfg.ScriptTimeout)
	assert.Equal(t, "New chat", cfg.NewChatLabel)
	assert.Equal(t, "group 2 of group 1 of group 1 of window 1", cfg.ReplyLocator)
	assert.Equal(t, "group 1 of group 1 of window 1", cfg.ConversationLocator)
	assert.Equal(t, 30*24*time.Hour, cfg.HistoryMaxAge)
	assert.Equal(t, "info", cfg.LogLevel)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, "chatbridge.toml", `
app_name = "ChatGPT Beta"
dispatch_interval = "90s"
reply_settle_delay = "8s"
log_level = "debug"
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "ChatGPT Beta", cfg.AppName)
	assert.Equal(t, 90*time.Second, cfg.DispatchInterval)
	assert.Equal(t, 8*time.Second, cfg.ReplySettleDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.ScriptTimeout)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromFileInvalidValues(t *testing.T) {
	path := writeConfigFile(t, "chatbridge.toml", `
dispatch_interval = "48h"
log_level = "loud"
`)

	_, err := LoadFromFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch_interval")
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoadWithPrecedence_FlagsOverFile(t *testing.T) {
	path := writeConfigFile(t, "chatbridge.toml", `
app_name = "FromFile"
dispatch_interval = "60s"
`)

	flagConfig := &Config{AppName: "FromFlag"}
	explicit := map[string]bool{"app_name": true}

	cfg, err := LoadWithPrecedence(path, flagConfig, explicit)

	require.NoError(t, err)
	assert.Equal(t, "FromFlag", cfg.AppName)
	// Non-explicit flag fields do not clobber file values.
	assert.Equal(t, 60*time.Second, cfg.DispatchInterval)
}

func TestLoadWithPrecedence_EnvOverFile(t *testing.T) {
	path := writeConfigFile(t, "chatbridge.toml", `
app_name = "FromFile"
`)
	t.Setenv("CHATBRIDGE_APP_NAME", "FromEnv")

	cfg, err := LoadWithPrecedence(path, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "FromEnv", cfg.AppName)
}

func TestLoadWithPrecedence_ExplicitZeroValueWins(t *testing.T) {
	path := writeConfigFile(t, "chatbridge.toml", `
history_file = "/var/lib/chatbridge/history.db"
`)

	flagConfig := &Config{HistoryFile: ""}
	explicit := map[string]bool{"history_file": true}

	cfg, err := LoadWithPrecedence(path, flagConfig, explicit)

	require.NoError(t, err)
	assert.Equal(t, "", cfg.HistoryFile, "an explicitly empty flag disables history")
}

func TestMergeWithExplicitFlags(t *testing.T) {
	base := LoadWithDefaults()
	flags := &Config{
		AppName:          "Override",
		DispatchInterval: 10 * time.Second,
		LogLevel:         "error",
	}

	merged := base.MergeWithExplicitFlags(flags, map[string]bool{
		"app_name":  true,
		"log_level": true,
	})

	assert.Equal(t, "Override", merged.AppName)
	assert.Equal(t, "error", merged.LogLevel)
	// dispatch_interval was not marked explicit, so the base value holds.
	assert.Equal(t, 120*time.Second, merged.DispatchInterval)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", FindConfigFile(dir))

	hidden := filepath.Join(dir, ".chatbridge.toml")
	require.NoError(t, os.WriteFile(hidden, []byte(""), 0644))
	assert.Equal(t, hidden, FindConfigFile(dir))
}

func TestFindConfigFilePrefersHiddenName(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".chatbridge.toml")
	plain := filepath.Join(dir, "chatbridge.toml")
	require.NoError(t, os.WriteFile(hidden, []byte(""), 0644))
	require.NoError(t, os.WriteFile(plain, []byte(""), 0644))

	assert.Equal(t, hidden, FindConfigFile(dir))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty app name",
			mutate:  func(c *Config) { c.AppName = "" },
			wantErr: "app_name",
		},
		{
			name:    "negative interval",
			mutate:  func(c *Config) { c.DispatchInterval = -time.Second },
			wantErr: "dispatch_interval",
		},
		{
			name:   "zero interval disables throttling",
			mutate: func(c *Config) { c.DispatchInterval = 0 },
		},
		{
			name:    "interval beyond a day",
			mutate:  func(c *Config) { c.DispatchInterval = 25 * time.Hour },
			wantErr: "dispatch_interval",
		},
		{
			name:    "settle delay too long",
			mutate:  func(c *Config) { c.ReplySettleDelay = 11 * time.Minute },
			wantErr: "reply_settle_delay",
		},
		{
			name:    "zero script timeout",
			mutate:  func(c *Config) { c.ScriptTimeout = 0 },
			wantErr: "script_timeout",
		},
		{
			name:    "negative history max age",
			mutate:  func(c *Config) { c.HistoryMaxAge = -time.Hour },
			wantErr: "history_max_age",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadWithDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := LoadWithDefaults()
	cfg.AppName = ""
	cfg.LogLevel = "loud"
	cfg.ScriptTimeout = 0

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "app_name")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "script_timeout")
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{Field: "log_level", Value: "loud", Message: "must be one of debug, info, warn, error"}
	assert.Equal(t, "invalid log_level value 'loud': must be one of debug, info, warn, error", err.Error())
}
