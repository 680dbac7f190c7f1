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
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drempelbox/drempelbox/detection"
	_ "github.com/drempelbox/drempelbox/detection/i2c"  // registers the I2C detector
	_ "github.com/drempelbox/drempelbox/detection/spi"  // registers the SPI detector
	_ "github.com/drempelbox/drempelbox/detection/uart" // registers the serial detector
)

var detectCmdFlags struct {
	passive bool
	ignore  []string
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List attached MFRC522 readers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := detection.DefaultOptions()
		opts.IgnorePaths = detectCmdFlags.ignore
		if detectCmdFlags.passive {
			opts.Mode = detection.Passive
		}

		devices, err := detection.DetectAll(cmd.Context(), opts)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TRANSPORT\tPATH\tCONFIDENCE\tDETAILS")
		for _, dev := range devices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dev.Transport, dev.Path, dev.Confidence, details(dev.Metadata))
		}
		return w.Flush()
	},
}

func details(metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+metadata[k])
	}
	return strings.Join(parts, " ")
}

func init() {
	detectCmd.Flags().BoolVar(&detectCmdFlags.passive, "passive", false, "list candidate buses without probing them")
	detectCmd.Flags().StringSliceVar(&detectCmdFlags.ignore, "ignore", nil, "device paths to skip")
	rootCmd.AddCommand(detectCmd)
}
