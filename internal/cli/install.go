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
	"strings"

	"github.com/spf13/cobra"

	"github.com/rizome-dev/mplug/internal/plugin"
)

// InstallCmd installs a plugin by name or id
func InstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install NAME|ID",
		Short: "Install a plugin by name or plugin-id",
		Long: `Install a plugin from the mpv script directory.

NAME|ID is matched against plugin ids first, then against plugin names. When
several plugins share a name you are asked to pick one.`,
		Args: requireArg("NAME|ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManager(cmd, openCatalog, func(ctx context.Context, m *plugin.Manager) error {
				id, err := m.InstallByName(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Installed %s\n", id)
				return nil
			})
		},
	}
}

// SearchCmd searches plugin names and descriptions and offers to install a match
func SearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search TEXT",
		Short: "Search for a plugin by name and description",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return requireArg("TEXT")(cmd, args)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManager(cmd, openCatalog, func(ctx context.Context, m *plugin.Manager) error {
				id, err := m.Search(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Installed %s\n", id)
				return nil
			})
		},
	}
}
