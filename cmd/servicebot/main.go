// servicebot collects 3D-printer repair requests over a guided Telegram
// dialog and forwards confirmed requests to the service engineer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tele "gopkg.in/telebot.v4"

	"github.com/druk3d/servicebot/bot/archive"
	"github.com/druk3d/servicebot/bot/dispatch"
	"github.com/druk3d/servicebot/bot/flow"
	"github.com/druk3d/servicebot/bot/media"
	"github.com/druk3d/servicebot/bot/reminder"
	"github.com/druk3d/servicebot/bot/session"
	"github.com/druk3d/servicebot/core/buildinfo"
	"github.com/druk3d/servicebot/core/config"
	"github.com/druk3d/servicebot/core/database"
	"github.com/druk3d/servicebot/core/logger"
	"github.com/druk3d/servicebot/core/telegram"
	"github.com/druk3d/servicebot/core/telegram/commands"
	"github.com/druk3d/servicebot/core/telegram/router"
)

// lateSender gives the dispatcher and the reminder service an outbound
// surface before the bot exists. The bot is attached in OnStart, before
// any update is processed.
type lateSender struct {
	mu  sync.RWMutex
	bot *tele.Bot
}

func (s *lateSender) attach(b *tele.Bot) {
	s.mu.Lock()
	s.bot = b
	s.mu.Unlock()
}

func (s *lateSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s.mu.RLock()
	b := s.bot
	s.mu.RUnlock()
	if b == nil {
		return nil, fmt.Errorf("sender: bot not started yet")
	}
	return b.Send(to, what, opts...)
}

func (s *lateSender) SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error) {
	s.mu.RLock()
	b := s.bot
	s.mu.RUnlock()
	if b == nil {
		return nil, fmt.Errorf("sender: bot not started yet")
	}
	return b.SendAlbum(to, a, opts...)
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Shutdown() }()

	logger.L.Info("starting",
		slog.String("event", "boot"),
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo flow.Archiver
	if cfg.Database.Enabled {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logger.L.Error("database connect failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
		if err := database.RunMigrations(cfg.Database); err != nil {
			logger.L.Error("migrations failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		repo = archive.NewRepo(db)
	}

	var storage *media.Storage
	if cfg.Service.Media.Dir != "" {
		storage, err = media.NewStorage(cfg.Service.Media.Dir, cfg.Service.Media.BaseURL)
		if err != nil {
			logger.L.Error("media storage init failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	store := session.NewStore(cfg.Service.Media.MaxFiles)
	users := session.NewUsers()

	sender := &lateSender{}
	dispatcher := dispatch.New(sender, cfg.Service.EngineerID)

	var reminders *reminder.Service
	if cfg.Service.Reminders.Enabled {
		reminders, err = reminder.New(cfg.Service.Reminders.Offsets, func(userID int64, text string) error {
			_, err := sender.Send(tele.ChatID(userID), text)
			return err
		})
		if err != nil {
			logger.L.Error("reminder service init failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	engine := flow.New(flow.Options{
		Store:         store,
		Users:         users,
		Dispatcher:    dispatcher,
		Storage:       storage,
		Reminders:     reminders,
		Archive:       repo,
		MaxFileSizeMB: cfg.Service.Media.MaxFileSizeMB,
	})

	if ttl := cfg.Service.Session.IdleTTL; ttl > 0 {
		// An evicted session must not keep nudging its user.
		if reminders != nil {
			store.OnEvict(reminders.Cancel)
		}
		go store.Janitor(ctx, ttl, cfg.Service.Session.SweepInterval)
	}

	reg := telegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     engine.Start,
		Description: "Почати роботу з ботом",
	})
	reg.RegisterCommand("/new_request", commands.Command{
		Handler:     engine.Begin,
		Description: "Оформити заявку на ремонт",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     engine.Cancel,
		Description: "Скасувати поточну заявку",
	})

	opts := telegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: telegram.DefaultMiddlewares(cfg, nil),
		Routes: []telegram.Route{
			{Endpoint: tele.OnText, Handler: router.Wrap("flow_text", engine.Handle)},
			{Endpoint: tele.OnContact, Handler: router.Wrap("flow_contact", engine.Handle)},
			{Endpoint: tele.OnPhoto, Handler: router.Wrap("flow_photo", engine.Handle)},
			{Endpoint: tele.OnVideo, Handler: router.Wrap("flow_video", engine.Handle)},
			// Unsupported attachments still deserve an answer: the media
			// step tells the user which kinds are accepted.
			{Endpoint: tele.OnDocument, Handler: router.Wrap("flow_document", engine.Handle)},
			{Endpoint: tele.OnVoice, Handler: router.Wrap("flow_voice", engine.Handle)},
			{Endpoint: tele.OnAudio, Handler: router.Wrap("flow_audio", engine.Handle)},
		},
		OnStart: func(ctx context.Context, rt telegram.Runtime) error {
			sender.attach(rt.Bot)
			engine.SetFiles(rt.Bot)
			if reminders != nil {
				reminders.Start()
			}
			return nil
		},
		OnStop: func(ctx context.Context, rt telegram.Runtime) error {
			if reminders != nil {
				return reminders.Stop()
			}
			return nil
		},
	}

	if err := telegram.RunTelegram(ctx, opts); err != nil {
		logger.L.Error("bot stopped with error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	logger.L.Info("shutdown complete", slog.String("event", "shutdown"))
}
