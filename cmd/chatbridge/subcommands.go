package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chatbridge/chatbridge/pkg/automation"
	"github.com/chatbridge/chatbridge/pkg/dispatch"
	"github.com/chatbridge/chatbridge/pkg/history"
	"github.com/chatbridge/chatbridge/pkg/mcpserver"
	"github.com/chatbridge/chatbridge/pkg/ui"
)

const version = "1.0.0"

// newServeCommand creates the serve subcommand, the primary mode: an MCP
// server on stdin/stdout.
func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tool surface over stdio",
		Long: `Serve runs chatbridge as an MCP server on stdin/stdout, for use by MCP
clients such as desktop AI assistants. Logs go to stderr; stdout carries the
protocol stream. Tool calls are handled one at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := mcpserver.NewLogger("server", mcpserver.LogLevel(cfg.LogLevel))

			reporter := ui.NewReporter(os.Stderr)
			reporter.SetQuiet(true) // serve mode logs instead

			dispatcher, cleanup, err := buildDispatcher(cfg, reporter, logger.WithComponent("dispatch"))
			if err != nil {
				return err
			}
			defer cleanup()

			frontend := mcpserver.NewFrontend(dispatcher, logger.WithComponent("frontend"))
			transport := mcpserver.NewStdioTransport(os.Stdin, os.Stdout)
			server := mcpserver.NewServer(transport, frontend, logger)

			return server.Serve()
		},
	}
}

// newAskCommand creates the ask subcommand for one-shot terminal use.
func newAskCommand() *cobra.Command {
	var conversationID string
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "ask [flags] -- PROMPT...",
		Short: "Ask the desktop app a question and print its reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("prompt must not be empty")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reporter := ui.NewReporter(os.Stderr)
			reporter.SetQuiet(quiet)

			dispatcher, cleanup, err := buildDispatcher(cfg, reporter, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			var delayOverride *time.Duration
			if cmd.Flags().Changed("delay") {
				if delay < 0 {
					return fmt.Errorf("--delay must be non-negative")
				}
				delayOverride = &delay
			}

			reply, err := dispatcher.Ask(prompt, conversationID, delayOverride)
			if err != nil {
				return fmt.Errorf("failed to get response from %s: %w", cfg.AppName, err)
			}

			fmt.Fprintln(os.Stdout, reply)
			return nil
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Conversation to continue (best effort)")
	cmd.Flags().DurationVarP(&delay, "delay", "d", 0, "Override the dispatch interval for this call (0 disables throttling)")

	return cmd
}

// newConversationsCommand creates the conversations subcommand.
func newConversationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "conversations",
		Short: "List the desktop app's conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reporter := ui.NewReporter(os.Stderr)
			reporter.SetQuiet(quiet)

			dispatcher, cleanup, err := buildDispatcher(cfg, reporter, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := dispatcher.ListConversations()
			if err != nil {
				return fmt.Errorf("failed to list conversations: %w", err)
			}

			if len(names) == 0 {
				fmt.Fprintln(os.Stderr, "No conversations found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(os.Stdout, name)
			}
			return nil
		},
	}
}

// newHistoryCommand creates the history subcommand.
func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent dispatch history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.HistoryFile == "" {
				return fmt.Errorf("dispatch history is disabled (no history_file configured)")
			}

			store, err := history.Open(cfg.HistoryFile)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(os.Stdout, "No dispatches recorded")
				return nil
			}

			for _, m := range records {
				line := fmt.Sprintf("%s  %-17s %-9s wait=%.1fs adapter=%.1fs",
					time.Unix(m.Timestamp, 0).Format(time.RFC3339),
					m.Operation, m.FinalStatus, m.WaitSeconds, m.AdapterSeconds)
				if m.Fallback {
					line += " (fallback reply)"
				}
				if m.ErrorKind != "" {
					line += " error=" + m.ErrorKind
				}
				fmt.Fprintln(os.Stdout, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")

	return cmd
}

// newStatusCommand creates the status subcommand.
func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the desktop app and summarize dispatch history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			scripter := automation.NewOsaScripter(cfg.ScriptTimeout)
			prober := dispatch.NewProber(scripter, cfg.AppName, cfg.ActivateSettleDelay, dispatch.SystemClock())

			if err := prober.EnsureAvailable(); err != nil {
				fmt.Fprintf(os.Stdout, "%s: unreachable (%v)\n", cfg.AppName, err)
			} else {
				fmt.Fprintf(os.Stdout, "%s: available\n", cfg.AppName)
			}

			if cfg.HistoryFile == "" {
				return nil
			}
			store, err := history.Open(cfg.HistoryFile)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := store.Summarize()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Dispatches: %d total, %d succeeded, %d failed, %d fallback replies\n",
				summary.Total, summary.Succeeded, summary.Failed, summary.Fallbacks)
			return nil
		},
	}
}

// newVersionCommand creates the version subcommand.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatbridge version %s\n", version)
		},
	}
}
