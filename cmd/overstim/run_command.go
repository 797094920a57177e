package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-overstim/internal/config"
	"github.com/teslashibe/go-overstim/internal/log"
	"github.com/teslashibe/go-overstim/pkg/buttplug"
	"github.com/teslashibe/go-overstim/pkg/controller"
	"github.com/teslashibe/go-overstim/pkg/device"
	"github.com/teslashibe/go-overstim/pkg/lovense"
	"github.com/teslashibe/go-overstim/pkg/store"
	"github.com/teslashibe/go-overstim/pkg/tracking/detection/opencv"
	"github.com/teslashibe/go-overstim/pkg/web"
)

// scanWindow is how long a one-shot scan runs.
const scanWindow = 200 * time.Millisecond

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the game and drive the devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(runCtx, cfg, log.L())
		},
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.Lock), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(cfg.Paths.Lock)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("overstim is already running")
	}
	defer lock.Unlock()

	st, err := store.Open(cfg.Paths.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	responses, err := st.Responses(ctx)
	if err != nil {
		return err
	}
	auto, hero, err := st.Subject(ctx)
	if err != nil {
		return err
	}

	source, err := opencv.Open(opencv.Config{
		Source:      cfg.Capture.Source,
		TemplateDir: cfg.Capture.TemplateDir,
	}, logger.With("component", "capture"))
	if err != nil {
		return err
	}
	defer source.Close()

	devices, closeDevices, err := openDevices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDevices()

	var server *web.Server
	ctrl := controller.New(controller.Config{
		Settings:     cfg.VibeSettings(),
		Tracking:     cfg.TrackerConfig(auto),
		Interval:     cfg.Interval(false),
		IdleInterval: cfg.Interval(true),
		Excluded:     cfg.Output.ExcludedDeviceNames,
		Responses:    responses,
		Subject:      hero,
	}, source, devices, logger.With("component", "controller"), controller.WithInfo(func(info controller.Info) {
		if server != nil {
			server.Publish(info)
		}
	}))
	logger.Info("session started", "session", ctrl.Session().String(), "hero", hero.Title(), "auto", auto)

	if cfg.Dashboard.Enabled {
		server = web.NewServer(cfg.Dashboard.Address, st, ctrl, logger.With("component", "web"))
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("web server stopped", "error", err)
			}
		}()
	}

	err = ctrl.Run(ctx)
	if errors.Is(err, device.ErrConnectionLost) {
		return fmt.Errorf("lost connection to Intiface at %s: %w", cfg.Output.WebsocketAddress, err)
	}
	return err
}

// openDevices connects to Intiface, or opens the serial toy when Intiface is
// not used.
func openDevices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (device.Provider, func(), error) {
	if !cfg.Output.UsingIntiface {
		toy, err := lovense.Open(cfg.Output.SerialPort, cfg.Output.SerialBaud)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened serial device", "port", cfg.Output.SerialPort)
		return device.Static{toy}, func() { toy.Close() }, nil
	}

	client, err := buttplug.Dial(ctx, cfg.Output.WebsocketAddress, "OverStim", logger.With("component", "buttplug"))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to Intiface", "address", cfg.Output.WebsocketAddress)

	if err := client.StartScanning(ctx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("start scanning: %w", err)
	}
	scanning := true
	if !cfg.Output.ContinuousScanning {
		time.Sleep(scanWindow)
		if err := client.StopScanning(ctx); err != nil {
			logger.Warn("failed to stop scanning", "error", err)
		} else {
			scanning = false
		}
	}
	logger.Info("started scanning", "continuous", cfg.Output.ContinuousScanning)

	return client, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if scanning && client.Connected() {
			if err := client.StopScanning(stopCtx); err != nil {
				logger.Warn("failed to stop scanning", "error", err)
			}
		}
		client.Close()
		logger.Info("disconnected")
	}, nil
}
