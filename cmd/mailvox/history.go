package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/mailvox/mailvox/internal/history"
)

// historyLimit is how many exchanges the history subcommand shows.
const historyLimit = 20

// runHistory prints the most recent recorded exchanges for a user.
// userArg is the Telegram user id; empty means user 0, the id the chat
// REPL records under.
func runHistory(ctx context.Context, stdout io.Writer, configPath, userArg string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("history is disabled (set history.path in the config)")
	}

	var userID int64
	if userArg != "" {
		userID, err = strconv.ParseInt(userArg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", userArg, err)
		}
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(ctx, userID, historyLimit)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}

	printHistory(stdout, userID, entries)
	return nil
}

// printHistory renders exchanges newest-first, the order Recent returns
// them in.
func printHistory(w io.Writer, userID int64, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No recorded exchanges for user %d.\n", userID)
		return
	}

	fmt.Fprintf(w, "Last %d exchanges for user %d (newest first):\n\n", len(entries), userID)
	for _, e := range entries {
		fmt.Fprintf(w, "[%s]\n> %s\n%s\n\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Utterance, e.Response)
	}
}
