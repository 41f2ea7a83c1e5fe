package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/fertility/internal/api"
	"github.com/terraincognita07/fertility/internal/config"
	"github.com/terraincognita07/fertility/internal/i18n"
	"github.com/terraincognita07/fertility/internal/services"
)

const (
	senderTelegram = "notify.telegram"
	senderLog      = "notify.log"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the notification scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunServeCommand(rootOpts, port)
		},
	}

	cmd.Flags().StringVar(&port, "port", rootOpts.Config.Port, "HTTP listen port")

	return cmd
}

// server bundles what serve starts so tests can exercise the wiring without
// binding a port.
type server struct {
	app      *fiber.App
	registry *services.ProfileRegistry
	notifier *services.NotificationService
	close    func()
}

func newServer(opts *RootOptions) (*server, error) {
	cfg := opts.Config

	registry, closeDB, err := openRegistry(opts.DBPath, cfg.Location)
	if err != nil {
		return nil, err
	}
	if _, err := registry.EnsureDefault(cfg.DefaultProfileName); err != nil {
		closeDB()
		return nil, fmt.Errorf("create default profile: %w", err)
	}

	i18nManager, err := i18n.NewEmbeddedManager(cfg.DefaultLanguage)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("i18n init failed: %w", err)
	}

	notifier := services.NewNotificationService(registry, i18nManager, services.NotificationConfig{
		Language:     cfg.DefaultLanguage,
		PollInterval: cfg.NotifyPollInterval,
		Senders:      notificationSenders(cfg),
	})

	app := fiber.New(fiber.Config{
		AppName:               "Fertility",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	api.RegisterRoutes(app, api.NewHandler(registry, notifier, cfg.Location, i18nManager))

	return &server{app: app, registry: registry, notifier: notifier, close: closeDB}, nil
}

func notificationSenders(cfg *config.Config) map[string]services.Sender {
	senders := map[string]services.Sender{
		senderLog: services.LogSender{},
	}
	if cfg.TelegramEnabled() {
		senders[senderTelegram] = services.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID)
	}
	return senders
}

func RunServeCommand(opts *RootOptions, port string) error {
	srv, err := newServer(opts)
	if err != nil {
		return err
	}
	defer srv.close()

	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()
	srv.notifier.Start(lifecycleCtx)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("Fertility listening on http://0.0.0.0:%s (db: %s, tz: %s, profiles: %d)", port, opts.DBPath, opts.Config.Location, len(srv.registry.Runtimes()))
	if err := srv.app.Listen(":" + port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}
