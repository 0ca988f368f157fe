package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatbridge/chatbridge/pkg/automation"
	"github.com/chatbridge/chatbridge/pkg/config"
	"github.com/chatbridge/chatbridge/pkg/dispatch"
	"github.com/chatbridge/chatbridge/pkg/history"
	"github.com/chatbridge/chatbridge/pkg/mcpserver"
	"github.com/chatbridge/chatbridge/pkg/ui"
)

var (
	flagConfig config.Config
	configFile string
	quiet      bool
)

// newRootCmd builds the chatbridge command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chatbridge",
		Short: "Bridge the ChatGPT desktop app to MCP clients",
		Long: `chatbridge exposes the ChatGPT desktop application as an MCP tool server.
It drives the app through OS-level UI scripting, spacing dispatches out with
a configurable minimum interval so the app is never flooded with automated
input.

Configuration precedence (highest to lowest):
1. CLI flags
2. Environment variables (CHATBRIDGE_*)
3. Configuration file (.chatbridge.toml)
4. Default values`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flagConfig.AppName, "app", "ChatGPT", "Name of the target desktop application")
	rootCmd.PersistentFlags().DurationVar(&flagConfig.DispatchInterval, "interval", dispatch.DefaultDispatchInterval, "Minimum interval between dispatches")
	rootCmd.PersistentFlags().DurationVar(&flagConfig.ReplySettleDelay, "settle-delay", dispatch.DefaultReplySettleDelay, "Delay between submitting a prompt and reading the reply")
	rootCmd.PersistentFlags().StringVar(&flagConfig.HistoryFile, "history-file", "", "Dispatch history database path (empty disables history)")
	rootCmd.PersistentFlags().StringVar(&flagConfig.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(
		newServeCommand(),
		newAskCommand(),
		newConversationsCommand(),
		newHistoryCommand(),
		newStatusCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

// loadConfig resolves the effective configuration for a command invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicitFields := map[string]bool{
		"app_name":           cmd.Flags().Changed("app"),
		"dispatch_interval":  cmd.Flags().Changed("interval"),
		"reply_settle_delay": cmd.Flags().Changed("settle-delay"),
		"history_file":       cmd.Flags().Changed("history-file"),
		"log_level":          cmd.Flags().Changed("log-level"),
	}

	file := configFile
	if file == "" {
		file = config.FindConfigFile(".")
	}
	if file == "" {
		if home, err := os.UserHomeDir(); err == nil {
			file = config.FindConfigFile(home)
		}
	}

	return config.LoadWithPrecedence(file, &flagConfig, explicitFields)
}

// buildDispatcher assembles the automation stack from configuration. The
// returned cleanup closes the history store when one was opened.
func buildDispatcher(cfg *config.Config, reporter *ui.Reporter, logger *mcpserver.Logger) (*dispatch.Dispatcher, func(), error) {
	scripter := automation.NewOsaScripter(cfg.ScriptTimeout)
	clock := dispatch.SystemClock()

	prober := dispatch.NewProber(scripter, cfg.AppName, cfg.ActivateSettleDelay, clock)
	limiter := dispatch.NewRateLimiterWithClock(cfg.DispatchInterval, clock)

	dispatcher := dispatch.NewDispatcher(scripter, prober, limiter, clock, dispatch.Options{
		App:                 cfg.AppName,
		ReplySettleDelay:    cfg.ReplySettleDelay,
		ReplyLocator:        automation.Locator(cfg.ReplyLocator),
		ConversationLocator: automation.Locator(cfg.ConversationLocator),
		NewChatLabel:        cfg.NewChatLabel,
	})
	dispatcher.Reporter = reporter
	if logger != nil {
		dispatcher.Logger = logger.Logger
	}

	cleanup := func() {}
	if cfg.HistoryFile != "" {
		store, err := history.Open(cfg.HistoryFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open dispatch history: %w", err)
		}
		if cfg.HistoryMaxAge > 0 {
			if _, err := store.Prune(cfg.HistoryMaxAge); err != nil && logger != nil {
				logger.Warn("failed to prune dispatch history", "error", err.Error())
			}
		}
		dispatcher.Recorder = store
		cleanup = func() { store.Close() }
	}

	return dispatcher, cleanup, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
