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

	"github.com/spf13/cobra"

	"github.com/rizome-dev/mplug/internal/plugin"
)

// UninstallCmd removes a plugin and its fetched files
func UninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall NAME|ID",
		Short: "Remove a plugin from the system",
		Args:  requireArg("NAME|ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManager(cmd, skipCatalog, func(_ context.Context, m *plugin.Manager) error {
				id, err := m.UninstallByName(args[0], true)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Uninstalled %s\n", id)
				return nil
			})
		},
	}
}

// DisableCmd removes a plugin's links but keeps its files and ledger entry
func DisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable NAME|ID",
		Short: "Disable a plugin without deleting it from the system",
		Args:  requireArg("NAME|ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManager(cmd, skipCatalog, func(_ context.Context, m *plugin.Manager) error {
				id, err := m.UninstallByName(args[0], false)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Disabled %s\n", id)
				return nil
			})
		},
	}
}
