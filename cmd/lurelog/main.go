package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mikhailche/lurelog/app"
	"mikhailche/lurelog/config"
	"mikhailche/lurelog/logger"
	"mikhailche/lurelog/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errBannedWord makes `words check` exit with code 2 when the text is rejected.
var errBannedWord = errors.New("text contains a banned word")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, errBannedWord):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "lurelog",
		Short:         "Lure fishing journal",
		Long:          "lurelog serves a fishing journal for trips, catches and gear with an admin dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newWordsCmd(),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := app.NewLogger(ctx, cfg)
			if err != nil {
				return err
			}
			store, err := app.OpenStore(ctx, cfg.Storage, log)
			if err != nil {
				log.Error("Could not open storage", zap.Error(err))
				return err
			}
			a, err := app.New(ctx, cfg, log, store)
			if err != nil {
				log.Error("Could not start", zap.Error(err))
				_ = store.Close()
				return err
			}
			defer a.Close()
			if err := a.ListenAndServe(ctx); err != nil {
				log.Error("Server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and seed the species catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := app.NewLogger(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			store, err := app.OpenStore(ctx, cfg.Storage, log)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Init(ctx); err != nil {
				return fmt.Errorf("create tables: %w", err)
			}
			if err := services.Seed(ctx, store); err != nil {
				return fmt.Errorf("seed species: %w", err)
			}
			log.Info("Storage is ready", zap.String("driver", cfg.Storage.Driver))
			return nil
		},
	}
}

func newWordsCmd() *cobra.Command {
	var path string
	words := &cobra.Command{
		Use:   "words",
		Short: "Inspect the banned word list",
	}
	words.PersistentFlags().StringVar(&path, "file", config.DefaultBannedWordsPath, "banned word list")
	load := func(cmd *cobra.Command) (*services.WordList, error) {
		log, err := logger.New(cmd.Context(), config.LogConfig{Level: "warn", Development: true})
		if err != nil {
			return nil, err
		}
		return services.NewWordList(path, log), nil
	}
	words.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the effective banned words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := load(cmd)
			if err != nil {
				return err
			}
			for _, w := range list.Words() {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	})
	words.AddCommand(&cobra.Command{
		Use:   "check <text>",
		Short: "Report the first banned word found in text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := load(cmd)
			if err != nil {
				return err
			}
			word, found := services.NewSensitiveFilter(list).DetectMatch(args[0])
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "clean")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "match: %s\n", word)
			return errBannedWord
		},
	})
	return words
}
