package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the chatbridge server and CLI.
type Config struct {
	AppName             string        `mapstructure:"app_name"`
	DispatchInterval    time.Duration `mapstructure:"dispatch_interval"`
	ReplySettleDelay    time.Duration `mapstructure:"reply_settle_delay"`
	ActivateSettleDelay time.Duration `mapstructure:"activate_settle_delay"`
	ScriptTimeout       time.Duration `mapstructure:"script_timeout"`
	NewChatLabel        string        `mapstructure:"new_chat_label"`
	ReplyLocator        string        `mapstructure:"reply_locator"`
	ConversationLocator string        `mapstructure:"conversation_locator"`
	HistoryFile         string        `mapstructure:"history_file"`
	HistoryMaxAge       time.Duration `mapstructure:"history_max_age"`
	LogLevel            string        `mapstructure:"log_level"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s value '%v': %s", e.Field, e.Value, e.Message)
}

// DefaultHistoryFile returns the default location of the dispatch history
// database, or "" when no home directory can be determined.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chatbridge", "history.db")
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "ChatGPT")
	v.SetDefault("dispatch_interval", 120*time.Second)
	v.SetDefault("reply_settle_delay", 5*time.Second)
	v.SetDefault("activate_settle_delay", 2*time.Second)
	v.SetDefault("script_timeout", 30*time.Second)
	v.SetDefault("new_chat_label", "New chat")
	v.SetDefault("reply_locator", "group 2 of group 1 of group 1 of window 1")
	v.SetDefault("conversation_locator", "group 1 of group 1 of window 1")
	v.SetDefault("history_file", DefaultHistoryFile())
	v.SetDefault("history_max_age", 30*24*time.Hour)
	v.SetDefault("log_level", "info")
}

// envMappings maps environment variables to config keys.
var envMappings = map[string]string{
	"CHATBRIDGE_APP_NAME":              "app_name",
	"CHATBRIDGE_DISPATCH_INTERVAL":     "dispatch_interval",
	"CHATBRIDGE_REPLY_SETTLE_DELAY":    "reply_settle_delay",
	"CHATBRIDGE_ACTIVATE_SETTLE_DELAY": "activate_settle_delay",
	"CHATBRIDGE_SCRIPT_TIMEOUT":        "script_timeout",
	"CHATBRIDGE_NEW_CHAT_LABEL":        "new_chat_label",
	"CHATBRIDGE_REPLY_LOCATOR":         "reply_locator",
	"CHATBRIDGE_CONVERSATION_LOCATOR":  "conversation_locator",
	"CHATBRIDGE_HISTORY_FILE":          "history_file",
	"CHATBRIDGE_HISTORY_MAX_AGE":       "history_max_age",
	"CHATBRIDGE_LOG_LEVEL":             "log_level",
}

// LoadWithDefaults returns a configuration with default values
func LoadWithDefaults() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	v.Unmarshal(&config)
	return &config
}

// LoadFromFile loads configuration from a TOML file
func LoadFromFile(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configFile)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadWithPrecedence loads configuration with full precedence support:
// CLI flags over CHATBRIDGE_* environment variables over the config file
// over defaults. explicitFields marks which flag values were actually set
// so that zero values override correctly.
func LoadWithPrecedence(configFile string, flagConfig *Config, explicitFields map[string]bool) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CHATBRIDGE")
	v.AutomaticEnv()
	for envVar, configKey := range envMappings {
		v.BindEnv(configKey, envVar)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if flagConfig != nil && explicitFields != nil {
		config = *config.MergeWithExplicitFlags(flagConfig, explicitFields)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// MergeWithExplicitFlags merges configuration with explicitly set flag values
func (c *Config) MergeWithExplicitFlags(flags *Config, explicitFields map[string]bool) *Config {
	result := *c // Copy base config

	if explicitFields["app_name"] {
		result.AppName = flags.AppName
	}
	if explicitFields["dispatch_interval"] {
		result.DispatchInterval = flags.DispatchInterval
	}
	if explicitFields["reply_settle_delay"] {
		result.ReplySettleDelay = flags.ReplySettleDelay
	}
	if explicitFields["activate_settle_delay"] {
		result.ActivateSettleDelay = flags.ActivateSettleDelay
	}
	if explicitFields["script_timeout"] {
		result.ScriptTimeout = flags.ScriptTimeout
	}
	if explicitFields["new_chat_label"] {
		result.NewChatLabel = flags.NewChatLabel
	}
	if explicitFields["reply_locator"] {
		result.ReplyLocator = flags.ReplyLocator
	}
	if explicitFields["conversation_locator"] {
		result.ConversationLocator = flags.ConversationLocator
	}
	if explicitFields["history_file"] {
		result.HistoryFile = flags.HistoryFile
	}
	if explicitFields["history_max_age"] {
		result.HistoryMaxAge = flags.HistoryMaxAge
	}
	if explicitFields["log_level"] {
		result.LogLevel = flags.LogLevel
	}

	return &result
}

// FindConfigFile searches for a configuration file in the given directory.
// It looks for .chatbridge.toml and chatbridge.toml files.
func FindConfigFile(dir string) string {
	configNames := []string{".chatbridge.toml", "chatbridge.toml"}

	for _, name := range configNames {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	return ""
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errors []ValidationError

	if c.AppName == "" {
		errors = append(errors, ValidationError{
			Field:   "app_name",
			Value:   c.AppName,
			Message: "must not be empty",
		})
	}

	if c.DispatchInterval < 0 {
		errors = append(errors, ValidationError{
			Field:   "dispatch_interval",
			Value:   c.DispatchInterval,
			Message: "must be non-negative",
		})
	}
	if c.DispatchInterval > 24*time.Hour {
		errors = append(errors, ValidationError{
			Field:   "dispatch_interval",
			Value:   c.DispatchInterval,
			Message: "must be 24 hours or less",
		})
	}

	if c.ReplySettleDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "reply_settle_delay",
			Value:   c.ReplySettleDelay,
			Message: "must be non-negative",
		})
	}
	if c.ReplySettleDelay > 10*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "reply_settle_delay",
			Value:   c.ReplySettleDelay,
			Message: "must be 10 minutes or less",
		})
	}

	if c.ActivateSettleDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "activate_settle_delay",
			Value:   c.ActivateSettleDelay,
			Message: "must be non-negative",
		})
	}
	if c.ActivateSettleDelay > 10*time.Minute {
		errors = append(errors, ValidationError{
			Field:   "activate_settle_delay",
			Value:   c.ActivateSettleDelay,
			Message: "must be 10 minutes or less",
		})
	}

	if c.ScriptTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "script_timeout",
			Value:   c.ScriptTimeout,
			Message: "must be greater than 0",
		})
	}

	if c.HistoryMaxAge < 0 {
		errors = append(errors, ValidationError{
			Field:   "history_max_age",
			Value:   c.HistoryMaxAge,
			Message: "must be non-negative (0 disables pruning)",
		})
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "log_level",
			Value:   c.LogLevel,
			Message: "must be one of debug, info, warn, error",
		})
	}

	if len(errors) > 0 {
		var messages []string
		for _, err := range errors {
			messages = append(messages, err.Error())
		}
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(messages, "\n  - "))
	}

	return nil
}
