package plugin

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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/rizome-dev/mplug/internal/catalog"
	"github.com/rizome-dev/mplug/internal/config"
	"github.com/rizome-dev/mplug/internal/ledger"
	"github.com/rizome-dev/mplug/internal/template"
	"github.com/rizome-dev/mplug/internal/utils"
	"github.com/rizome-dev/mplug/pkg/core"
	"github.com/rizome-dev/mplug/pkg/plugin"
)

const howtoURL = "https://github.com/Nudin/mpv-script-directory/blob/master/HOWTO_ADD_INSTALL_INSTRUCTIONS.md"

const noMethodExplanation = "This means, so far no one added the installation method to the mpv " +
	"script directory. Doing so is most likely possible with just a few lines of JSON. " +
	"Please add them and create a PR. You can find an introduction here:"

// Prompter asks the user to decide. Interrupts and end of input count as
// declining.
type Prompter interface {
	// Confirm asks a yes/no question
	Confirm(question string) bool
	// Choose asks to pick one of options. descriptions may be shorter than
	// options or nil.
	Choose(question string, options, descriptions []string) (string, bool)
	// Path asks for a path. An empty answer means def.
	Path(question, def string) (string, bool)
}

// Fetcher retrieves a plugin source into an absolute directory
type Fetcher interface {
	Fetch(ctx context.Context, src plugin.Source, dir string) error
}

// Refresher updates the local catalog clone
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Options holds the collaborators of a Manager
type Options struct {
	Settings  *config.Settings
	Catalog   *catalog.Catalog
	Ledger    *ledger.Ledger
	Fetcher   Fetcher
	Refresher Refresher
	Prompter  Prompter
	Resolver  template.Resolver
	Logger    *slog.Logger
	// Out receives user facing output such as install notes
	Out io.Writer
	// Width is the column limit for wrapped text, 80 if zero
	Width int
	Now   func() time.Time
}

// Manager installs, disables, removes and upgrades plugins
type Manager struct {
	settings  *config.Settings
	dirs      config.Dirs
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	fetcher   Fetcher
	refresher Refresher
	prompter  Prompter
	resolver  template.Resolver
	linker    *Linker
	logger    *slog.Logger
	out       io.Writer
	width     int
	now       func() time.Time
}

// NewManager creates a manager
func NewManager(opts Options) *Manager {
	m := &Manager{
		settings:  opts.Settings,
		dirs:      opts.Settings.Dirs,
		catalog:   opts.Catalog,
		ledger:    opts.Ledger,
		fetcher:   opts.Fetcher,
		refresher: opts.Refresher,
		prompter:  opts.Prompter,
		resolver:  opts.Resolver,
		logger:    opts.Logger,
		out:       opts.Out,
		width:     opts.Width,
		now:       opts.Now,
	}

	if m.catalog == nil {
		m.catalog = catalog.New()
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.out == nil {
		m.out = io.Discard
	}
	if m.width <= 0 || m.width > 80 {
		m.width = 80
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.linker = NewLinker(m.prompter, m.resolver, m.logger)

	return m
}

// Ledger returns the ledger the manager operates on
func (m *Manager) Ledger() *ledger.Ledger {
	return m.ledger
}

// InstallByName installs the plugin with the given id, or the plugin whose
// name matches after asking the user. It returns the installed id.
func (m *Manager) InstallByName(ctx context.Context, nameOrID string) (string, error) {
	if _, ok := m.catalog.Get(nameOrID); ok {
		return nameOrID, m.Install(ctx, nameOrID)
	}

	return m.installFromList(ctx, m.catalog.FindByName(nameOrID), nil)
}

// Search looks for text in plugin names and descriptions and offers the
// matches for installation
func (m *Manager) Search(ctx context.Context, text string) (string, error) {
	matches := m.catalog.Search(text)

	ids := make([]string, len(matches))
	descriptions := make([]string, len(matches))
	for i, match := range matches {
		ids[i] = match.ID
		descriptions[i] = match.Description
	}

	return m.installFromList(ctx, ids, descriptions)
}

func (m *Manager) installFromList(ctx context.Context, ids, descriptions []string) (string, error) {
	m.logger.Debug("found potential plugins", slog.Int("count", len(ids)))

	var id string
	switch len(ids) {
	case 0:
		return "", core.ErrNotFound
	case 1:
		if !m.prompter.Confirm(fmt.Sprintf("Install %s?", ids[0])) {
			return "", core.ErrUserAborted
		}
		id = ids[0]
	default:
		choice, ok := m.prompter.Choose("Found multiple plugins:", ids, descriptions)
		if !ok {
			return "", core.ErrUserAborted
		}
		id = choice
	}

	return id, m.Install(ctx, id)
}

// Install fetches the plugin with the given id, links its files and records
// it in the ledger. The ledger is only changed when every step succeeded.
func (m *Manager) Install(ctx context.Context, id string) error {
	entry, ok := m.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	if err := entry.CheckMethod(); err != nil {
		if errors.Is(err, core.ErrNoInstallMethod) {
			m.explainNoMethod(id)
		}
		return fmt.Errorf("can't install %s: %w", id, err)
	}

	if !entry.SupportsOS(m.resolver.OS) {
		question := fmt.Sprintf("Warning: This plugin works only on: %s. Continue?", strings.Join(entry.OS, ", "))
		if !m.prompter.Confirm(question) {
			return core.ErrUserAborted
		}
	}

	src, err := entry.Source(m.resolver)
	if err != nil {
		return fmt.Errorf("can't install %s: %w", id, err)
	}

	dir, err := m.pluginDir(src.Dir())
	if err != nil {
		return fmt.Errorf("can't install %s: %w", id, err)
	}

	m.logger.Debug("fetching plugin", slog.String("id", id), slog.String("method", string(src.Method())), slog.String("dir", dir))
	if err := m.fetcher.Fetch(ctx, src, dir); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", id, err)
	}

	if err := m.linkCategories(dir, &entry); err != nil {
		return err
	}

	if len(entry.LADSPAFiles) > 0 && !m.dirs.LADSPAPathSet {
		m.logger.Warn("LADSPA_PATH is not set, mpv will not find the installed filters. Set it to include the LADSPA directory",
			slog.String("dir", m.dirs.LADSPADir))
	}

	var exeDir string
	if len(entry.ExeFiles) > 0 {
		exeDir, err = m.installExecutables(dir, entry.ExeFiles)
		if err != nil {
			return err
		}
	}

	if entry.InstallNotes != "" {
		fmt.Fprintln(m.out, m.wrap(entry.InstallNotes, 1))
	}

	snapshot := entry
	snapshot.ReceivingURL = src.URL()
	snapshot.InstallDir = src.Dir()
	if s, ok := src.(plugin.URLSource); ok {
		snapshot.Filename = s.Filename
	}

	record := plugin.NewRecord(snapshot, m.now())
	record.ExeDir = exeDir
	m.ledger.Set(id, record)

	m.logger.Info("installed plugin", slog.String("id", id))
	return nil
}

func (m *Manager) linkCategories(dir string, entry *plugin.Entry) error {
	for _, category := range plugin.LinkedCategories {
		files := entry.Files(category)
		if len(files) == 0 {
			continue
		}
		target, _ := m.dirs.Target(category)
		if _, err := m.linker.InstallFiles(dir, files, target); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) installExecutables(dir string, files []string) (string, error) {
	def := m.settings.ExeDir
	if def == "" {
		def = config.DefaultExeDir
	}

	answer, ok := m.prompter.Path("Where to put executable files?", def)
	if !ok {
		return "", core.ErrUserAborted
	}

	exeDir, err := absPath(answer, def)
	if err != nil {
		return "", err
	}

	m.logger.Info("placing executables", slog.String("dir", exeDir))
	if _, err := m.linker.InstallFiles(dir, files, exeDir); err != nil {
		return "", err
	}

	sources := make([]string, len(files))
	for i, file := range files {
		sources[i] = filepath.Join(dir, m.resolver.Resolve(file))
	}
	if err := utils.MakeExecutable(sources...); err != nil {
		return "", fmt.Errorf("failed to mark files executable: %w", err)
	}

	return exeDir, nil
}

// UninstallByName removes or disables the installed plugin with the given
// id or name. It returns the affected id.
func (m *Manager) UninstallByName(nameOrID string, remove bool) (string, error) {
	if m.ledger.Has(nameOrID) {
		return nameOrID, m.Uninstall(nameOrID, remove)
	}

	ids := m.ledger.FindByName(nameOrID)
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", core.ErrNotInstalled, nameOrID)
	case 1:
	default:
		return "", fmt.Errorf("%w: %q matches %s, please specify the plugin id",
			core.ErrAmbiguous, nameOrID, strings.Join(ids, ", "))
	}

	verb := "Uninstall"
	if !remove {
		verb = "Disable"
	}
	if !m.prompter.Confirm(fmt.Sprintf("%s %s?", verb, ids[0])) {
		return "", core.ErrUserAborted
	}

	return ids[0], m.Uninstall(ids[0], remove)
}

// Uninstall removes the links of an installed plugin. With remove its
// fetched content and ledger entry are deleted too, otherwise it is marked
// disabled.
func (m *Manager) Uninstall(id string, remove bool) error {
	record, ok := m.ledger.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotInstalled, id)
	}

	for _, category := range plugin.LinkedCategories {
		files := record.Files(category)
		if len(files) == 0 {
			continue
		}
		target, _ := m.dirs.Target(category)
		if err := m.linker.UninstallFiles(files, target); err != nil {
			return err
		}
	}

	if len(record.ExeFiles) > 0 {
		if record.ExeDir == "" {
			m.logger.Error("can't uninstall executables: unknown location",
				slog.String("id", id), slog.String("files", strings.Join(record.ExeFiles, ", ")))
		} else {
			m.logger.Debug("remove links to executables", slog.String("dir", record.ExeDir))
			if err := m.linker.UninstallFiles(record.ExeFiles, record.ExeDir); err != nil {
				return err
			}
		}
	}

	if !remove {
		record.State = plugin.StateDisabled
		m.ledger.Set(id, record)
		m.logger.Info("disabled plugin", slog.String("id", id))
		return nil
	}

	if record.InstallDir != "" {
		dir, err := m.pluginDir(record.InstallDir)
		if err != nil {
			return fmt.Errorf("can't remove %s: %w", id, err)
		}
		m.logger.Info("removing directory", slog.String("dir", dir))
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}

	m.ledger.Delete(id)
	m.logger.Info("uninstalled plugin", slog.String("id", id))
	return nil
}

// UpgradeReport lists the outcome of an upgrade
type UpgradeReport struct {
	Upgraded []string
	Failed   map[string]error
}

// Upgrade refreshes the catalog and fetches every installed plugin again.
// Failures are logged per plugin and do not stop the others.
func (m *Manager) Upgrade(ctx context.Context) (UpgradeReport, error) {
	report := UpgradeReport{Failed: make(map[string]error)}

	if err := m.Update(ctx); err != nil {
		return report, err
	}

	for _, e := range m.ledger.Entries() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := m.upgradeOne(ctx, e.ID, e.Record); err != nil {
			m.logger.Error("failed to upgrade plugin", slog.String("id", e.ID), slog.String("error", err.Error()))
			report.Failed[e.ID] = err
			continue
		}
		report.Upgraded = append(report.Upgraded, e.ID)
	}

	return report, nil
}

func (m *Manager) upgradeOne(ctx context.Context, id string, record plugin.Record) error {
	src, err := record.Source(m.resolver)
	if err != nil {
		return err
	}

	dir, err := m.pluginDir(src.Dir())
	if err != nil {
		return err
	}

	m.logger.Info("upgrading plugin", slog.String("id", id), slog.String("dir", dir))
	return m.fetcher.Fetch(ctx, src, dir)
}

// Update refreshes the local catalog clone
func (m *Manager) Update(ctx context.Context) error {
	if m.refresher == nil {
		return nil
	}
	return m.refresher.Refresh(ctx)
}

// ListInstalled returns the ledger entries in install order
func (m *Manager) ListInstalled() []ledger.Entry {
	m.logger.Debug("installed plugins", slog.Int("count", m.ledger.Len()))
	return m.ledger.Entries()
}

// Save persists the ledger
func (m *Manager) Save() error {
	return m.ledger.Save()
}

func (m *Manager) explainNoMethod(id string) {
	m.logger.Error("no installation method", slog.String("id", id))
	fmt.Fprintln(m.out, m.wrap(noMethodExplanation, 1))
	fmt.Fprintln(m.out, howtoURL)
}

func (m *Manager) wrap(text string, level int) string {
	prefix := uint(2 * level)
	return indent.String(wordwrap.String(text, m.width-int(prefix)), prefix)
}

// pluginDir returns the absolute location of a plugin's install_dir,
// refusing paths outside the working root
func (m *Manager) pluginDir(installDir string) (string, error) {
	dir := m.dirs.PluginDir(installDir)
	root := filepath.Clean(m.dirs.WorkDir)
	if !strings.HasPrefix(dir, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: install_dir %q is outside %s", core.ErrMissingField, installDir, root)
	}
	return dir, nil
}

// absPath expands ~ and makes answer absolute, using def when answer is empty
func absPath(answer, def string) (string, error) {
	path := strings.TrimSpace(answer)
	if path == "" {
		path = def
	}

	path, err := utils.ExpandHome(path)
	if err != nil {
		return "", err
	}

	return filepath.Abs(path)
}
