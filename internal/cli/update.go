package cli

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rizome-dev/mplug/internal/plugin"
)

// UpdateCmd refreshes the local copy of the mpv script directory
func UpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update the list of available plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManager(cmd, skipCatalog, func(ctx context.Context, m *plugin.Manager) error {
				if err := m.Update(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Plugin list updated")
				return nil
			})
		},
	}
}

// UpgradeCmd fetches the latest version of every installed plugin
func UpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Update all plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManager(cmd, skipCatalog, func(ctx context.Context, m *plugin.Manager) error {
				report, err := m.Upgrade(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, id := range report.Upgraded {
					fmt.Fprintf(out, "✓ Upgraded %s\n", id)
				}

				failed := make([]string, 0, len(report.Failed))
				for id := range report.Failed {
					failed = append(failed, id)
				}
				sort.Strings(failed)
				for _, id := range failed {
					fmt.Fprintf(out, "✗ %s: %v\n", id, report.Failed[id])
				}
				return nil
			})
		},
	}
}
