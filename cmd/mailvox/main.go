// Mailvox is a conversational assistant for managing two mail accounts
// (Gmail REST and plain IMAP/SMTP) through natural language, over a
// Telegram bot or a terminal REPL. An LLM classifies utterances the
// local resolver cannot handle; sends always require an explicit
// confirmation step.
//
// Usage:
//
//	mailvox serve            Start the Telegram bridge
//	mailvox chat             Interactive terminal session
//	mailvox init [dir]       Initialize a working directory with defaults
//	mailvox history [user]   Show recent recorded exchanges
//	mailvox version          Print version and build information
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mailvox/mailvox/internal/assistant"
	"github.com/mailvox/mailvox/internal/buildinfo"
	"github.com/mailvox/mailvox/internal/config"
	"github.com/mailvox/mailvox/internal/history"
	"github.com/mailvox/mailvox/internal/intent"
	"github.com/mailvox/mailvox/internal/llm"
	"github.com/mailvox/mailvox/internal/mail"
	"github.com/mailvox/mailvox/internal/mail/gmailapi"
	"github.com/mailvox/mailvox/internal/mail/imapmail"
	"github.com/mailvox/mailvox/internal/telegram"
	"github.com/mailvox/mailvox/internal/transcribe"
)

// main constructs the OS-level environment and delegates to run so the
// full lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run parses arguments by hand (the flag package's global state makes
// parallel tests awkward, and the surface here is tiny) and dispatches
// to the subcommand.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-"):
			if command == "" {
				command = args[i]
			} else {
				cmdArgs = append(cmdArgs, args[i])
			}
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "chat":
		return runChat(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "history":
		userArg := ""
		if len(cmdArgs) > 0 {
			userArg = cmdArgs[0]
		}
		return runHistory(ctx, stdout, configPath, userArg)
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
			if v, ok := buildinfo.Info()[k]; ok {
				fmt.Fprintf(stdout, "  %-12s %s\n", k+":", v)
			}
		}
		return nil
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Mailvox - Conversational Mail Assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: mailvox [flags] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve            Start the Telegram bridge")
	fmt.Fprintln(w, "  chat             Interactive terminal session")
	fmt.Fprintln(w, "  init [dir]       Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  history [user]   Show recent recorded exchanges for a user id (default: 0)")
	fmt.Fprintln(w, "  version          Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>   Path to config file (default: auto-discover)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/mailvox/config.yaml, /etc/mailvox/config.yaml")
	return nil
}

// newLogger builds the process logger at the configured level.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

func loadConfig(configPath string) (*config.Config, string, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

// buildAssistant wires the providers, LLM, and history store into an
// assistant. The returned cleanup closes everything it opened.
func buildAssistant(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*assistant.Assistant, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var primary, secondary mail.Provider

	if _, err := os.Stat(cfg.Mail.Primary.CredentialsFile); err == nil {
		gmail, err := gmailapi.NewClient(ctx, cfg.Mail.Primary, logger.With("component", "gmail"))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("gmail setup: %w", err)
		}
		primary = gmail
	} else {
		logger.Warn("gmail credentials file not found, primary account disabled",
			"path", cfg.Mail.Primary.CredentialsFile)
	}

	if cfg.Mail.Secondary.Configured() {
		imap := imapmail.NewProvider(cfg.Mail.Secondary, logger.With("component", "imap"))
		cleanups = append(cleanups, func() { imap.Close() })
		secondary = imap
	}

	if primary == nil && secondary == nil {
		cleanup()
		return nil, nil, fmt.Errorf("no mail account configured")
	}

	llmClient := llm.NewGroqClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)

	var recorder assistant.Recorder
	if cfg.History.Path != "" {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open history store: %w", err)
		}
		cleanups = append(cleanups, func() { store.Close() })
		recorder = store
	}

	a := assistant.New(assistant.Params{
		Mail:       mail.NewManager(primary, secondary, logger.With("component", "mail")),
		Classifier: intent.NewClassifier(llmClient, logger.With("component", "intent")),
		Replies:    intent.NewReplyWriter(llmClient, logger.With("component", "reply")),
		Recorder:   recorder,
		Logger:     logger.With("component", "assistant"),
	})
	return a, cleanup, nil
}

// runServe starts the Telegram bridge and blocks until SIGINT/SIGTERM.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		if level, err = config.ParseLogLevel(cfg.LogLevel); err != nil {
			return err
		}
	}
	logger := newLogger(stdout, level)
	logger.Info("starting mailvox", "version", buildinfo.Version, "config", cfgPath)

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required for serve")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := buildAssistant(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var transcriber telegram.Transcriber
	if cfg.Transcribe.Enabled {
		transcriber = transcribe.NewGroqTranscriber(
			cfg.Transcribe.BaseURL, cfg.Transcribe.APIKey, cfg.Transcribe.Model)
		logger.Info("voice transcription enabled", "model", cfg.Transcribe.Model)
	}

	bridge := telegram.NewBridge(telegram.BridgeConfig{
		Client:         telegram.NewClient(cfg.Telegram.Token, logger.With("component", "telegram")),
		Handler:        a,
		Transcriber:    transcriber,
		Logger:         logger.With("component", "telegram"),
		AllowedUserIDs: cfg.Telegram.AllowedUserIDs,
		RateLimit:      cfg.Telegram.RateLimit,
		PollTimeoutSec: cfg.Telegram.PollTimeoutSec,
	})

	bridge.Run(ctx)
	logger.Info("mailvox stopped")
	return nil
}

// runChat is a stdin/stdout session for local use and smoke testing.
func runChat(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Keep log noise out of the conversation.
	logger := newLogger(io.Discard, slog.LevelInfo)

	a, cleanup, err := buildAssistant(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(stdout, "mailvox %s (config: %s)\nType a request, or \"quit\" to exit.\n\n", buildinfo.Version, cfgPath)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		fmt.Fprintln(stdout, a.Handle(ctx, 0, line))
		fmt.Fprintln(stdout)
	}

	return scanner.Err()
}
