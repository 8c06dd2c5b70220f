package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"frieddie/internal/console"
	"frieddie/internal/gateway"
	"frieddie/internal/httpapi"
	"frieddie/internal/onboarding"
	"frieddie/internal/telegram"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "frieddie",
		Short:         "Frieddie finds events and invites your frieddies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", onboarding.DefaultPath, "config file written by setup")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to Frieddie in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), configPath, func(ctx context.Context, rt *gateway.Runtime, logger *log.Logger) error {
				return console.New(rt.Service, console.WithLogger(logger)).Run(ctx)
			})
		},
	}
	root.RunE = chatCmd.RunE

	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /api/chat over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), configPath, func(ctx context.Context, rt *gateway.Runtime, logger *log.Logger) error {
				return httpapi.NewServer(rt.Service, addr, httpapi.WithLogger(logger)).ListenAndServe(ctx)
			})
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", envOr("FRIEDDIE_ADDR", ":8080"), "listen address")

	telegramCmd := &cobra.Command{
		Use:   "telegram",
		Short: "Run Frieddie as a Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), configPath, func(ctx context.Context, rt *gateway.Runtime, logger *log.Logger) error {
				bot, err := telegram.NewBot(rt.Settings.TelegramToken, rt.Service, telegram.WithLogger(logger))
				if err != nil {
					return err
				}
				return bot.Start(ctx)
			})
		},
	}

	var plain bool
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure the model and the frieddie backend",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !plain {
				return onboarding.RunTUI(configPath)
			}
			cfg, err := onboarding.NewWizard(os.Stdin, os.Stdout).Run()
			if err != nil {
				return err
			}
			if err := cfg.SaveToFile(configPath); err != nil {
				return err
			}
			fmt.Printf("\n✅ Configuration saved to %s\n", configPath)
			return nil
		},
	}
	setupCmd.Flags().BoolVar(&plain, "plain", false, "line-based prompts instead of the full-screen wizard")

	root.AddCommand(chatCmd, serveCmd, telegramCmd, setupCmd)
	return root
}

func withRuntime(ctx context.Context, configPath string, run func(context.Context, *gateway.Runtime, *log.Logger) error) error {
	gw := gateway.New(configPath)
	rt, err := gw.Start(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	return run(ctx, rt, gw.Logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
