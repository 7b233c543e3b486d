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
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/rizome-dev/mplug/internal/ledger"
	"github.com/rizome-dev/mplug/internal/plugin"
	pkgplugin "github.com/rizome-dev/mplug/pkg/plugin"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// ListInstalledCmd lists installed plugins
func ListInstalledCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list-installed",
		Short: "List all plugins installed with mplug",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case outputTable, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unknown output format %q, use table, json or yaml", output)
			}

			return runManager(cmd, skipCatalog, func(_ context.Context, m *plugin.Manager) error {
				verbose, _ := cmd.Flags().GetBool("verbose")
				return renderInstalled(cmd.OutOrStdout(), m.ListInstalled(), output, verbose)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table, json, yaml)")

	return cmd
}

// installedYAML is a ledger entry with its id inline, for yaml output
type installedYAML struct {
	ID               string `yaml:"id"`
	pkgplugin.Record `yaml:",inline"`
}

func renderInstalled(w io.Writer, entries []ledger.Entry, output string, verbose bool) error {
	switch output {
	case outputJSON:
		records := orderedmap.New[string, pkgplugin.Record]()
		for _, e := range entries {
			records.Set(e.ID, e.Record)
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case outputYAML:
		list := make([]installedYAML, len(entries))
		for i, e := range entries {
			list[i] = installedYAML{ID: e.ID, Record: e.Record}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No plugins installed.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := table.Row{"ID", "NAME", "STATE", "INSTALLED"}
	if verbose {
		header = append(header, "DESCRIPTION")
	}
	t.AppendHeader(header)

	for _, e := range entries {
		state := string(pkgplugin.StateActive)
		if e.Record.Disabled() {
			state = string(pkgplugin.StateDisabled)
		}
		row := table.Row{e.ID, e.Record.Name, state, e.Record.InstallDate}
		if verbose {
			row = append(row, wrapText(e.Record.Description, 0, 40))
		}
		t.AppendRow(row)
	}

	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()

	return nil
}
