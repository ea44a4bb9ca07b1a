package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/e7canasta/gstplay"
	"github.com/e7canasta/gstplay/internal/config"
	"github.com/e7canasta/gstplay/internal/control"
	"github.com/e7canasta/gstplay/internal/gstengine"
	"github.com/e7canasta/gstplay/internal/launch"
	"github.com/e7canasta/gstplay/internal/metrics"
)

const mqttDisconnectQuiesce = 250 // ms

var (
	playPaused      bool
	playWindowID    uint64
	playVolume      float64
	playMQTTBroker  string
	playMetricsAddr string
)

var playCmd = &cobra.Command{
	Use:   "play <uri|path>",
	Short: "play a media file or URI",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playPaused, "paused", false, "preroll and wait instead of playing")
	playCmd.Flags().Uint64Var(&playWindowID, "window-id", 0, "native window handle to render video into")
	playCmd.Flags().Float64Var(&playVolume, "volume", 1.0, "initial volume in [0,1]")
	playCmd.Flags().StringVar(&playMQTTBroker, "mqtt-broker", "", "MQTT broker URL for the control plane, overrides config")
	playCmd.Flags().StringVar(&playMetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, overrides config")
	rootCmd.AddCommand(playCmd)
}

// loadConfig reads path, or returns the defaults when no file is given
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runPlay(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mqtt-broker") {
		cfg.MQTT.Broker = playMQTTBroker
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr = playMetricsAddr
	}

	uri, err := launch.URI(args[0])
	if err != nil {
		return err
	}

	engine, err := gstengine.New(logger)
	if err != nil {
		return err
	}

	loop := engine.NewLoop()
	host := newCLIHost(cfg, uri, uintptr(playWindowID), loop.Quit, cmd.ErrOrStderr(), logger)
	observer := metrics.New()
	observers := []gstplay.Observer{observer}

	var client mqtt.Client
	var events *control.EventPublisher
	if cfg.MQTT.Broker != "" {
		client, err = control.Connect(cfg.MQTT.Broker, "gstplay-"+cfg.InstanceID, logger)
		if err != nil {
			return err
		}
		defer client.Disconnect(mqttDisconnectQuiesce)
		events = control.NewEventPublisher(cfg.MQTT, client, logger)
		observers = append(observers, events)
	}

	player, err := gstplay.New(gstplay.Config{
		Engine:    engine,
		Host:      host,
		Loop:      loop,
		Logger:    logger,
		Observers: observers,
	})
	if err != nil {
		return err
	}

	startup := gstplay.StartupPlaying
	if playPaused {
		startup = gstplay.StartupPaused
	}
	if err := player.Run(host.CreatePipeline(host.CurrentURI()), startup); err != nil {
		return err
	}
	if cmd.Flags().Changed("volume") {
		player.SetVolume(playVolume)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	g.Go(func() error {
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", "signal", sig)
			player.Interrupt()
		case <-gctx.Done():
			if ctx.Err() == nil {
				logger.Warn("background service failed, stopping playback")
				player.Interrupt()
			}
		}
		return nil
	})

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return observer.Serve(gctx, cfg.MetricsAddr, logger)
		})
	}

	if client != nil {
		handler := control.NewHandler(cfg.MQTT, client, player, loop, logger)
		g.Go(func() error {
			return handler.Run(gctx)
		})
		g.Go(func() error {
			return events.Run(gctx)
		})
	}

	if configPath != "" {
		changes, err := config.Watch(gctx, configPath, cfg, logger)
		if err != nil {
			logger.Warn("config: hot reload disabled", "error", err)
		} else {
			g.Go(func() error {
				for change := range changes {
					loop.Invoke(func() {
						host.setConfig(change.Config)
						applyChange(player, change, logger)
					})
				}
				return nil
			})
		}
	}

	loop.Run()

	if player.HasPipeline() {
		player.Destroy()
	}
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}

	if host.lastError != nil {
		return fmt.Errorf("playback failed: %w", host.lastError)
	}
	logger.Info("gstplay stopped")
	return nil
}

// reloadTarget is the part of the player a configuration change drives
type reloadTarget interface {
	HasPipeline() bool
	Suspend()
	Restart() error
	ApplyDefaultSettings()
}

// applyChange reacts to a reloaded configuration on the run loop: sink changes
// rebuild the pipeline, color changes re-apply the defaults
func applyChange(p reloadTarget, change config.Change, logger *slog.Logger) {
	if !p.HasPipeline() {
		return
	}

	if change.Rebuild {
		logger.Info("config: sinks changed, rebuilding pipeline")
		p.Suspend()
		if err := p.Restart(); err != nil {
			logger.Error("config: rebuild failed", "error", err)
		}
		return
	}

	if change.ColorBalance {
		logger.Info("config: color balance defaults changed")
		p.ApplyDefaultSettings()
	}
}
