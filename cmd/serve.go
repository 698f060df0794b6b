package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hugbridge/pkg/channel/telegram"
	"hugbridge/pkg/config"
	"hugbridge/pkg/dispatch"
	"hugbridge/pkg/generate"
	"hugbridge/pkg/logger"
	"hugbridge/pkg/queue"
	"hugbridge/pkg/registry"
	"hugbridge/pkg/session"
	"hugbridge/pkg/status"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bridge",
	Long:  "Runs HugBridge: Telegram long polling, the generation worker, and the status/metrics endpoints.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Printf("invalid config: %v\n", err)
			os.Exit(1)
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.serve")

		if err := runServe(cfg, log); err != nil {
			log.Error("Bridge runtime failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cfg *config.Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	reg, err := registry.FromConfig(cfg.Models)
	if err != nil {
		return fmt.Errorf("build model registry: %w", err)
	}

	state, err := session.New(reg, cfg.DefaultModel)
	if err != nil {
		return fmt.Errorf("initialize model selection: %w", err)
	}

	adapter, err := telegram.NewAdapter(cfg.Telegram, log)
	if err != nil {
		return fmt.Errorf("configure telegram channel: %w", err)
	}

	gateway, err := generate.NewGateway(cfg.Inference, reg, log)
	if err != nil {
		return fmt.Errorf("configure generation gateway: %w", err)
	}

	q := queue.New()
	dispatcher := dispatch.New(reg, state, q, adapter, log)
	worker := queue.NewWorker(q, state, gateway, adapter, time.Duration(cfg.Worker.CooldownSeconds)*time.Second, log)
	statusServer := status.NewServer(cfg.Status, q, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := adapter.SetCommandMenu(ctx, dispatch.Commands()); err != nil {
		log.Warn("Failed to register command menu", "error", err)
	}

	errCh := make(chan error, 3)

	go func() {
		statusServer.SetChannelState(adapter.Name(), true, nil)
		err := adapter.Run(ctx, dispatcher.Handle)
		statusServer.SetChannelState(adapter.Name(), false, err)
		if err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
		}
	}()

	go func() {
		// The worker is the only consumer; if it stops, accepted prompts
		// would sit in the queue forever.
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("run generation worker: %w", err)
		}
	}()

	go func() {
		if err := statusServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("run status server: %w", err)
		}
	}()

	log.Info("Bridge started", "channel", adapter.Name(), "models", len(reg.Keys()), "default_model", state.Active())

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
