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
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/drempelbox/drempelbox"
	"github.com/drempelbox/drempelbox/ndef"
)

const tagPollInterval = 100 * time.Millisecond

var tagCmdFlags struct {
	timeout time.Duration
	dump    bool
	full    bool
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Wait for a token and print its UID and URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withTag(cmd.Context(), func(ctx context.Context, tag *drempelbox.Tag, uid drempelbox.UID) error {
			fmt.Fprintf(cmd.OutOrStdout(), "UID: %s\n", uid)

			msg, err := tag.ReadContext(ctx)
			if tagCmdFlags.dump {
				dumpMemory(cmd.OutOrStdout(), tag, tagCmdFlags.full)
			}
			if err != nil {
				return fmt.Errorf("failed to read tag: %w", err)
			}
			if failed := tag.FailedBlocks(); failed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Unreadable blocks: %d\n", failed)
			}

			uri, ok := msg.URI()
			if !ok {
				return errors.New("tag holds no URI record")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "URL: %s\n", uri)
			return nil
		})
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <url>",
	Short: "Wait for a token and store url on it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTag(cmd.Context(), func(ctx context.Context, tag *drempelbox.Tag, uid drempelbox.UID) error {
			if err := tag.WriteURIContext(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to write tag %s: %w", uid, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", args[0], uid)
			return nil
		})
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode <url>",
	Short: "Print the tag user memory image for url",
	Long: `Encode prints the NDEF message a token needs to hold for url, starting at
page 4, as a hex dump. It does not need a reader.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ndef.EncodeURI(args[0])
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", args[0], err)
		}
		fmt.Fprint(cmd.OutOrStdout(), hex.Dump(data))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{readCmd, writeCmd} {
		cmd.Flags().DurationVarP(&tagCmdFlags.timeout, "timeout", "t", 30*time.Second, "how long to wait for a token")
	}
	readCmd.Flags().BoolVar(&tagCmdFlags.dump, "dump", false, "print a hex dump of the tag user memory, as printed by encode")
	readCmd.Flags().BoolVar(&tagCmdFlags.full, "full", false, "with --dump, print all 540 bytes including UID and configuration pages")

	rootCmd.AddCommand(readCmd, writeCmd, encodeCmd)
}

// dumpMemory prints the memory of the last read, the user memory region
// unless full is set
func dumpMemory(w io.Writer, tag *drempelbox.Tag, full bool) {
	if full {
		mem := tag.Memory()
		fmt.Fprint(w, hex.Dump(mem[:]))
		return
	}
	fmt.Fprint(w, hex.Dump(tag.UserMemory()))
}

// withTag opens the reader, waits for a token and calls fn with it
func withTag(ctx context.Context, fn func(ctx context.Context, tag *drempelbox.Tag, uid drempelbox.UID) error) (err error) {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(ctx, tagCmdFlags.timeout)
	defer cancel()

	device, err := openDevice(ctx, cfg.Reader, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := device.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	tag := drempelbox.NewTag(device)
	logger.Info("waiting for token", zap.Duration("timeout", tagCmdFlags.timeout))

	ticker := time.NewTicker(tagPollInterval)
	defer ticker.Stop()

	for {
		if uid, ok := tag.IsTokenPresentContext(ctx); ok {
			return fn(ctx, tag, uid)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("no token presented: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
