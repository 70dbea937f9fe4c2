// Command announcements manages the local announcement cache from the shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"donationfeed/internal/announcements"
	"donationfeed/internal/domain"
	"donationfeed/internal/infra"
	"donationfeed/internal/storage"
)

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, now func() time.Time) error {
	fs := flag.NewFlagSet("announcements", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		action    = fs.String("action", "list", "list, add or remove")
		title     = fs.String("title", "", "announcement title (add)")
		message   = fs.String("message", "", "announcement body (add)")
		audience  = fs.String("audience", "", "target audience (add), defaults to All Donors")
		priority  = fs.String("priority", "", "Normal, Important or Urgent (add)")
		author    = fs.String("author", "", "author name (add), defaults to ANNOUNCEMENT_DEFAULT_AUTHOR")
		timestamp = fs.String("timestamp", "", "RFC 3339 timestamp; removal key (remove) or post time (add)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "announcements").Logger()

	execCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, closeKV, err := storage.Open(execCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer closeKV()

	store := announcements.NewStore(kv, announcements.Options{
		Key:           cfg.AnnouncementKey,
		DefaultAuthor: cfg.DefaultAuthor,
		Clock:         now,
		Logger:        &logger,
	})

	var list []domain.Announcement
	switch strings.ToLower(strings.TrimSpace(*action)) {
	case "list":
		list = store.List(execCtx)
	case "add":
		in := domain.Announcement{
			Title:    *title,
			Message:  *message,
			Audience: *audience,
			Priority: *priority,
			Author:   *author,
		}
		if strings.TrimSpace(in.Author) == "" {
			in.Author = cfg.DefaultAuthor
		}
		if *timestamp != "" {
			ts, err := time.Parse(time.RFC3339Nano, *timestamp)
			if err != nil {
				return fmt.Errorf("invalid -timestamp: %w", err)
			}
			in.Timestamp = ts
		}
		entry, err := announcements.Prepare(in, now())
		if err != nil {
			return err
		}
		if list, err = store.Add(execCtx, entry); err != nil {
			return fmt.Errorf("add announcement: %w", err)
		}
	case "remove":
		if *timestamp == "" {
			return errors.New("-timestamp is required for remove")
		}
		key, err := time.Parse(time.RFC3339Nano, *timestamp)
		if err != nil {
			return fmt.Errorf("invalid -timestamp: %w", err)
		}
		if list, err = store.Remove(execCtx, key); err != nil {
			return fmt.Errorf("remove announcement: %w", err)
		}
	default:
		return fmt.Errorf("unsupported action %q", *action)
	}

	if list == nil {
		list = []domain.Announcement{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
