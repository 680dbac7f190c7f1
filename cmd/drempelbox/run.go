// drempelbox
// Copyright (c) 2025 The Drempelbox Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of drempelbox.
//
// drempelbox is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// drempelbox is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with drempelbox; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/hardware"
	"github.com/drempelbox/drempelbox/internal/config"
	"github.com/drempelbox/drempelbox/player"
	"github.com/drempelbox/drempelbox/polling"
	"github.com/drempelbox/drempelbox/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the player appliance",
	Long: `Run polls the reader, plays the URL stored on a token while it rests on
the reader, stops playback when it is removed and serves the HTTP control
plane.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// task is a long running component of the appliance
type task struct {
	run  func(ctx context.Context) error
	name string
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (err error) {
	logger.Info("starting drempelbox", zap.String("version", version))

	device, err := openDevice(ctx, cfg.Reader, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := device.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	queue := player.NewQueue(player.DefaultQueueSize)
	defer queue.Close()

	router, err := newRouter(ctx, cfg.Player, logger.Named("player"))
	if err != nil {
		return err
	}

	session, err := polling.NewSession(drempelbox.NewTag(device), queue, logger.Named("polling"), &polling.Config{
		PollInterval: cfg.Polling.Interval,
		BufferSize:   cfg.Polling.BufferSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	tasks := []task{
		{name: "session", run: session.Run},
		{name: "player", run: func(ctx context.Context) error { return router.Run(ctx, queue) }},
	}

	opts := []server.Option{
		server.WithSession(session),
		server.WithNowPlaying(router.NowPlaying),
		server.WithLogger(logger.Named("server")),
	}

	amp, buttons := setupHardware(cfg.Pins, queue, logger.Named("hardware"))
	if amp != nil {
		opts = append(opts, server.WithAmp(amp))
		defer func() {
			if offErr := amp.Off(); offErr != nil {
				err = multierror.Append(err, offErr).ErrorOrNil()
			}
		}()
	}
	tasks = append(tasks, buttons...)

	serviceName := ""
	if cfg.MDNS.Enabled {
		serviceName = cfg.MDNS.Name
	}
	srv := server.New(server.Config{
		BindAddress: cfg.BindAddress,
		ServiceName: serviceName,
	}, queue, opts...)
	session.OnEvent(srv.Publish)
	tasks = append(tasks, task{name: "server", run: srv.Run})

	eg, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		eg.Go(func() error {
			logger.Debug("task started", zap.String("task", t.name))
			if err := t.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("task failed", zap.String("task", t.name), zap.Error(err))
				return fmt.Errorf("%s: %w", t.name, err)
			}
			logger.Debug("task stopped", zap.String("task", t.name))
			return nil
		})
	}

	err = eg.Wait()
	logger.Info("shutting down")
	return err
}

func newRouter(ctx context.Context, cfg config.Player, logger *zap.Logger) (*player.Router, error) {
	files, err := player.NewProcessBackend("file", cfg.FileCommand, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file player: %w", err)
	}
	streams, err := player.NewProcessBackend("stream", cfg.StreamCommand, cfg.StreamStopCommand, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream player: %w", err)
	}

	mixer := player.NewAlsaMixer(cfg.MixerControl)
	if level, err := mixer.SetVolume(ctx, cfg.Volume); err != nil {
		logger.Warn("failed to set initial volume", zap.Error(err))
	} else {
		logger.Info("initial volume set", zap.Float64("volume", level))
	}

	opts := []player.RouterOption{player.WithVolumeStep(cfg.VolumeStep)}
	if cfg.FileRoot != "" {
		opts = append(opts, player.WithFileRoot(cfg.FileRoot))
	}
	return player.NewRouter(files, streams, mixer, logger, opts...), nil
}

// setupHardware opens the configured pins. Missing pins disable their
// feature with a warning so the box keeps playing on partial wiring.
func setupHardware(pins config.Pins, sender hardware.Sender, logger *zap.Logger) (*hardware.Amp, []task) {
	var tasks []task

	amp, err := newAmp(pins, logger)
	if err != nil {
		logger.Warn("amp not available", zap.Error(err))
	}

	up, upErr := newButton("volume up", pins.VolumeUp, hardware.VolumeButtonInterval, hardware.VolumeButtonHolds, logger)
	down, downErr := newButton("volume down", pins.VolumeDown, hardware.VolumeButtonInterval, hardware.VolumeButtonHolds, logger)
	if err := errors.Join(upErr, downErr); err != nil {
		logger.Warn("volume buttons not available", zap.Error(err))
	} else {
		buttons := hardware.NewVolumeButtons(up, down, sender, logger)
		tasks = append(tasks, task{name: "volume buttons", run: buttons.Run})
	}

	button, err := newButton("shutdown", pins.Shutdown, hardware.ShutdownButtonInterval, hardware.ShutdownButtonHolds, logger)
	if err != nil {
		logger.Error("shutdown pin not available", zap.Error(err))
	} else {
		shutdown := hardware.NewShutdownButton(button, nil, logger)
		tasks = append(tasks, task{name: "shutdown button", run: shutdown.Run})
	}

	return amp, tasks
}

func newAmp(pins config.Pins, logger *zap.Logger) (*hardware.Amp, error) {
	sd, err := hardware.OpenPin(pins.AmpShutdown)
	if err != nil {
		return nil, fmt.Errorf("amp shutdown pin: %w", err)
	}

	var led *hardware.LED
	if pin, err := hardware.OpenPin(pins.LED); err != nil {
		logger.Warn("amp LED not available", zap.Error(err))
	} else if led, err = hardware.NewLED(pin); err != nil {
		logger.Warn("amp LED not available", zap.Error(err))
		led = nil
	}

	amp, err := hardware.NewAmp(sd, powerPin(pins.AmpPower, logger), led, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up amp: %w", err)
	}
	return amp, nil
}

func powerPin(name string, logger *zap.Logger) gpio.PinOut {
	if name == "" {
		return nil
	}
	pin, err := hardware.OpenPin(name)
	if err != nil {
		logger.Warn("amp power pin not available", zap.Error(err))
		return nil
	}
	return pin
}

func newButton(name, pin string, interval time.Duration, holds int, logger *zap.Logger) (*hardware.HoldButton, error) {
	p, err := hardware.OpenPin(pin)
	if err != nil {
		return nil, fmt.Errorf("%s pin: %w", name, err)
	}
	return hardware.NewHoldButton(name, p, interval, holds, logger)
}
