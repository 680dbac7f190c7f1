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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/internal/config"
)

var rootCmdFlags struct {
	configPath string
	debug      bool
}

var rootCmd = &cobra.Command{
	Use:           "drempelbox",
	Short:         "NFC token media player",
	Long:          "drempelbox plays the media a token points to while the token rests on the reader.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootCmdFlags.configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&rootCmdFlags.debug, "debug", false, "enable debug logging")
}

// newLogger builds the process logger and routes driver debug output to it
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	drempelbox.SetLogger(logger.Named("mfrc522"))
	drempelbox.SetDebugEnabled(debug)

	return logger, nil
}

// setup loads the configuration and builds the logger shared by the
// subcommands
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(rootCmdFlags.configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(rootCmdFlags.debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
