package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tandyr-pos/internal/bot"
	"tandyr-pos/internal/config"
	"tandyr-pos/internal/dispatch"
	"tandyr-pos/internal/pos"
	"tandyr-pos/internal/settings"
	"tandyr-pos/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config (env vars are used when empty)")
	chatID := flag.Int64("chat", 1, "chat id for the console transport")
	userID := flag.Int64("user", 1, "user id for the console transport")
	flag.Parse()

	// Missing .env is fine, env vars may come from the shell.
	_ = godotenv.Load()

	mylogger := logger.NewLogger("tandyr-pos")

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
	} else {
		cfg, err = config.LoadEnv()
	}
	if err != nil {
		mylogger.Error("startup", "config_load_failed", "Failed to load configuration", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	console := bot.NewConsole(*chatID, *userID, os.Stdin, os.Stdout)
	deps := pos.Deps{
		Transport: console,
		Source:    console,
		Appender:  dispatch.LogAppender{Logger: mylogger},
		Cipher:    settings.PlainCipher{},
	}

	mylogger.Info("startup", "pos_started", "Point of sale started")
	if err := pos.Execute(ctx, cfg, mylogger, deps); err != nil {
		mylogger.Error("shutdown", "pos_failed", "Point of sale stopped with error", err)
		log.Fatalf("failed to run tandyr-pos: %s", err)
	}
	mylogger.Info("shutdown", "pos_stopped", "Point of sale stopped")
}
