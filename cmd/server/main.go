package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brincafacil/bot"
	"brincafacil/internal/app"
	"brincafacil/internal/config"
	"brincafacil/internal/http-server/api"
	"brincafacil/lib/logger"
	"brincafacil/lib/sl"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, *logPath)
	log.Info("starting brincafacil", slog.String("config", *configPath), slog.String("env", conf.Env))

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.ChatIds, log)
		if err != nil {
			log.Error("telegram bot", sl.Err(err))
		} else {
			defer tgBot.Close()
			log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, logger.ParseLevel(conf.Telegram.MinLevel)))
			log.Info("telegram notifications enabled", slog.Int("chats", len(conf.Telegram.ChatIds)))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, conf, log)
	if err != nil {
		log.Error("build application", sl.Err(err))
		os.Exit(1)
	}
	defer a.Close()

	flows := api.Flows{Kirvano: a.Kirvano}
	if a.Stripe != nil {
		flows.Stripe = a.Stripe
	}
	server := api.New(conf, log, api.NewRouter(log, a.Core, flows))

	errc := make(chan error, 1)
	go func() {
		errc <- server.Start()
	}()

	select {
	case err = <-errc:
		if err != nil {
			log.Error("server error", sl.Err(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err = server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", sl.Err(err))
		}
	}
	log.Info("server stopped")
}
