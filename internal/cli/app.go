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
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rizome-dev/mplug/internal/catalog"
	"github.com/rizome-dev/mplug/internal/config"
	"github.com/rizome-dev/mplug/internal/fetch"
	"github.com/rizome-dev/mplug/internal/ledger"
	"github.com/rizome-dev/mplug/internal/plugin"
	"github.com/rizome-dev/mplug/internal/template"
	"github.com/rizome-dev/mplug/internal/utils"
	"github.com/rizome-dev/mplug/pkg/core"
)

// catalogMode tells runManager what a command needs from the catalog
type catalogMode int

const (
	// skipCatalog leaves the catalog unloaded
	skipCatalog catalogMode = iota
	// openCatalog refreshes the clone when missing or old and loads it
	openCatalog
)

// newLogger creates the text logger used by all commands
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// runManager loads settings, catalog and ledger, runs fn and saves the
// ledger when fn succeeded. A declined prompt ends the command successfully.
func runManager(cmd *cobra.Command, mode catalogMode, fn func(ctx context.Context, m *plugin.Manager) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	settings, err := config.Load(configFile, verbose)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), settings.Verbose)
	dirs := settings.Dirs
	if dirs.MpvDirGuessed {
		logger.Info("No environment variable found, guessing mpv config folder", slog.String("dir", dirs.MpvDir))
	}
	logger.Debug("directories", slog.String("workdir", dirs.WorkDir), slog.String("mpvdir", dirs.MpvDir))
	if settings.ConfigFile != "" {
		logger.Debug("using config file", slog.String("file", settings.ConfigFile))
	}

	if err := utils.EnsureDir(dirs.WorkDir); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	fetcher := fetch.NewFetcher(fetch.WithLogger(logger))
	repo := catalog.NewRepository(settings.CatalogURL, dirs.CatalogDir(), dirs.CatalogFile(),
		settings.CatalogMaxAge, fetcher, logger)

	led, err := ledger.Load(dirs.LedgerFile())
	if err != nil {
		return err
	}

	var cat *catalog.Catalog
	if mode == openCatalog {
		cat, err = repo.Open(ctx)
		if err != nil {
			return err
		}
	}

	m := plugin.NewManager(plugin.Options{
		Settings:  settings,
		Catalog:   cat,
		Ledger:    led,
		Fetcher:   withStatus(fetcher, settings.Verbose),
		Refresher: repo,
		Prompter:  NewPrompter(ctx, cmd.InOrStdin(), cmd.OutOrStdout()),
		Resolver:  template.Host(),
		Logger:    logger,
		Out:       cmd.OutOrStdout(),
		Width:     terminalWidth(),
	})

	if err := fn(ctx, m); err != nil {
		if errors.Is(err, core.ErrUserAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
		return err
	}

	if err := m.Save(); err != nil {
		return err
	}
	logger.Debug("saved list of installed plugins", slog.String("file", led.Path()))

	return nil
}

// requireArg accepts exactly one positional argument and reports a missing
// one as ErrMissingArgument
func requireArg(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: %s", core.ErrMissingArgument, name)
		}
		if len(args) > 1 {
			return fmt.Errorf("accepts 1 arg, received %d", len(args))
		}
		return nil
	}
}
