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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizome-dev/mplug/internal/catalog"
	"github.com/rizome-dev/mplug/internal/config"
	"github.com/rizome-dev/mplug/internal/ledger"
	"github.com/rizome-dev/mplug/internal/template"
	"github.com/rizome-dev/mplug/pkg/core"
	"github.com/rizome-dev/mplug/pkg/plugin"
)

// fakeFetcher writes the configured files into the plugin directory
type fakeFetcher struct {
	files map[string][]string
	fail  map[string]error
	calls []plugin.Source
}

func (f *fakeFetcher) Fetch(_ context.Context, src plugin.Source, dir string) error {
	f.calls = append(f.calls, src)
	if err := f.fail[src.URL()]; err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, file := range f.files[src.URL()] {
		path := filepath.Join(dir, file)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(file), 0644); err != nil {
			return err
		}
	}
	return nil
}

type fakeRefresher struct {
	calls int
	err   error
}

func (r *fakeRefresher) Refresh(context.Context) error {
	r.calls++
	return r.err
}

type testEnv struct {
	manager   *Manager
	settings  *config.Settings
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	fetcher   *fakeFetcher
	refresher *fakeRefresher
	prompter  *fakePrompter
	out       *bytes.Buffer
	logs      *bytes.Buffer
}

func newTestEnv(t *testing.T, entries map[string]plugin.Entry, order ...string) *testEnv {
	t.Helper()
	skipOnWindows(t)

	root := t.TempDir()
	mpv := filepath.Join(root, "mpv")
	settings := &config.Settings{
		Dirs: config.Dirs{
			WorkDir:       filepath.Join(root, "work"),
			MpvDir:        mpv,
			ScriptDir:     filepath.Join(mpv, "scripts"),
			ShaderDir:     filepath.Join(mpv, "shaders"),
			ScriptOptsDir: filepath.Join(mpv, "script-opts"),
			FontsDir:      filepath.Join(mpv, "fonts"),
			LADSPADir:     filepath.Join(root, "ladspa"),
		},
		ExeDir: filepath.Join(root, "bin"),
	}

	cat := catalog.New()
	for _, id := range order {
		cat.Add(id, entries[id])
	}

	env := &testEnv{
		settings:  settings,
		catalog:   cat,
		ledger:    ledger.New(settings.Dirs.LedgerFile()),
		fetcher:   &fakeFetcher{files: map[string][]string{}, fail: map[string]error{}},
		refresher: &fakeRefresher{},
		prompter:  &fakePrompter{confirm: true},
		out:       &bytes.Buffer{},
		logs:      &bytes.Buffer{},
	}
	env.manager = NewManager(Options{
		Settings:  settings,
		Catalog:   cat,
		Ledger:    env.ledger,
		Fetcher:   env.fetcher,
		Refresher: env.refresher,
		Prompter:  env.prompter,
		Resolver:  template.New("linux", "x86_64"),
		Logger:    slog.New(slog.NewTextHandler(env.logs, nil)),
		Out:       env.out,
		Now:       func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) },
	})
	return env
}

func gitEntry(name, desc string, scripts ...string) plugin.Entry {
	return plugin.Entry{
		Name:         name,
		Description:  desc,
		Method:       plugin.MethodGit,
		ReceivingURL: "https://example.com/" + name + ".git",
		InstallDir:   "plugins/" + name,
		ScriptFiles:  scripts,
	}
}

func TestInstallMetadataErrors(t *testing.T) {
	entries := map[string]plugin.Entry{
		"X":       {Name: "X"},
		"unknown": {Name: "unknown", Method: "unknown_method"},
		"no-url":  {Name: "no-url", Method: plugin.MethodGit, InstallDir: "no-url"},
	}
	env := newTestEnv(t, entries, "X", "unknown", "no-url")

	t.Run("No Install Method", func(t *testing.T) {
		err := env.manager.Install(context.Background(), "X")
		require.ErrorIs(t, err, core.ErrNoInstallMethod)
		assert.Contains(t, env.out.String(), howtoURL)
	})

	t.Run("Unknown Method", func(t *testing.T) {
		err := env.manager.Install(context.Background(), "unknown")
		require.ErrorIs(t, err, core.ErrUnknownMethod)
	})

	t.Run("Missing Field", func(t *testing.T) {
		err := env.manager.Install(context.Background(), "no-url")
		require.ErrorIs(t, err, core.ErrMissingField)
		assert.Contains(t, err.Error(), "receiving_url")
	})

	t.Run("Not In Catalog", func(t *testing.T) {
		err := env.manager.Install(context.Background(), "missing")
		require.ErrorIs(t, err, core.ErrNotFound)
	})

	assert.Equal(t, 0, env.ledger.Len())
	assert.Empty(t, env.fetcher.calls)
}

func TestInstall(t *testing.T) {
	entry := gitEntry("foo", "A foo", "foo.lua")
	entry.ShaderFiles = []string{"shaders/foo.glsl"}
	entry.InstallNotes = "Remember to configure foo."
	env := newTestEnv(t, map[string]plugin.Entry{"foo": entry}, "foo")
	env.fetcher.files[entry.ReceivingURL] = []string{"foo.lua", "shaders/foo.glsl"}

	require.NoError(t, env.manager.Install(context.Background(), "foo"))

	dirs := env.settings.Dirs
	pluginDir := filepath.Join(dirs.WorkDir, "plugins", "foo")

	t.Run("Links Files", func(t *testing.T) {
		target, err := os.Readlink(filepath.Join(dirs.ScriptDir, "foo.lua"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(pluginDir, "foo.lua"), target)

		target, err = os.Readlink(filepath.Join(dirs.ShaderDir, "foo.glsl"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(pluginDir, "shaders", "foo.glsl"), target)
	})

	t.Run("Records Plugin", func(t *testing.T) {
		rec, ok := env.ledger.Get("foo")
		require.True(t, ok)
		assert.Equal(t, plugin.StateActive, rec.State)
		assert.Equal(t, "2024-05-01T08:30:00Z", rec.InstallDate)
		assert.Equal(t, "plugins/foo", rec.InstallDir)
		assert.Empty(t, rec.ExeDir)
	})

	t.Run("Prints Install Notes", func(t *testing.T) {
		assert.Contains(t, env.out.String(), "  Remember to configure foo.")
	})

	t.Run("Reinstall Is Idempotent", func(t *testing.T) {
		require.NoError(t, env.manager.Install(context.Background(), "foo"))
		assert.Len(t, env.fetcher.calls, 2)
		assert.Equal(t, 1, env.ledger.Len())
	})
}

func TestInstallFailuresLeaveLedgerUntouched(t *testing.T) {
	t.Run("Fetch Error", func(t *testing.T) {
		entry := gitEntry("foo", "", "foo.lua")
		env := newTestEnv(t, map[string]plugin.Entry{"foo": entry}, "foo")
		env.fetcher.fail[entry.ReceivingURL] = errors.New("connection refused")

		err := env.manager.Install(context.Background(), "foo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, 0, env.ledger.Len())
	})

	t.Run("Missing Source File", func(t *testing.T) {
		entry := gitEntry("foo", "", "foo.lua", "missing.lua")
		env := newTestEnv(t, map[string]plugin.Entry{"foo": entry}, "foo")
		env.fetcher.files[entry.ReceivingURL] = []string{"foo.lua"}

		err := env.manager.Install(context.Background(), "foo")
		require.ErrorIs(t, err, core.ErrMissingSourceFile)
		assert.Equal(t, 0, env.ledger.Len())
	})

	t.Run("Foreign File", func(t *testing.T) {
		entry := gitEntry("foo", "", "foo.lua")
		env := newTestEnv(t, map[string]plugin.Entry{"foo": entry}, "foo")
		env.fetcher.files[entry.ReceivingURL] = []string{"foo.lua"}
		writeFiles(t, env.settings.Dirs.ScriptDir, "foo.lua")

		err := env.manager.Install(context.Background(), "foo")
		require.ErrorIs(t, err, core.ErrForeignFile)
		assert.Equal(t, 0, env.ledger.Len())
	})

	t.Run("Install Dir Outside Work Root", func(t *testing.T) {
		entry := gitEntry("foo", "", "foo.lua")
		entry.InstallDir = "../../elsewhere"
		env := newTestEnv(t, map[string]plugin.Entry{"foo": entry}, "foo")

		require.Error(t, env.manager.Install(context.Background(), "foo"))
		assert.Empty(t, env.fetcher.calls)
	})
}

func TestInstallOSRestriction(t *testing.T) {
	entry := gitEntry("win", "", "win.lua")
	entry.OS = []string{"Windows"}

	t.Run("Declined", func(t *testing.T) {
		env := newTestEnv(t, map[string]plugin.Entry{"win": entry}, "win")
		env.prompter.confirm = false

		err := env.manager.Install(context.Background(), "win")
		require.ErrorIs(t, err, core.ErrUserAborted)
		require.Len(t, env.prompter.questions, 1)
		assert.Contains(t, env.prompter.questions[0], "Windows")
		assert.Empty(t, env.fetcher.calls)
	})

	t.Run("Accepted", func(t *testing.T) {
		env := newTestEnv(t, map[string]plugin.Entry{"win": entry}, "win")
		env.fetcher.files[entry.ReceivingURL] = []string{"win.lua"}

		require.NoError(t, env.manager.Install(context.Background(), "win"))
		assert.True(t, env.ledger.Has("win"))
	})

	t.Run("Supported Host Is Not Asked", func(t *testing.T) {
		linux := gitEntry("lin", "", "lin.lua")
		linux.OS = []string{"Linux"}
		env := newTestEnv(t, map[string]plugin.Entry{"lin": linux}, "lin")
		env.fetcher.files[linux.ReceivingURL] = []string{"lin.lua"}

		require.NoError(t, env.manager.Install(context.Background(), "lin"))
		assert.Empty(t, env.prompter.questions)
	})
}

func TestInstallExecutablesAndLADSPA(t *testing.T) {
	entry := gitEntry("tool", "", "tool.lua")
	entry.ExeFiles = []string{"bin/tool{{executable-ext}}"}
	entry.LADSPAFiles = []string{"filter.{{shared-lib-ext}}"}
	env := newTestEnv(t, map[string]plugin.Entry{"tool": entry}, "tool")
	env.fetcher.files[entry.ReceivingURL] = []string{"tool.lua", "bin/tool", "filter.so"}

	require.NoError(t, env.manager.Install(context.Background(), "tool"))

	t.Run("Executables Linked To Default Dir", func(t *testing.T) {
		link := filepath.Join(env.settings.ExeDir, "tool")
		assert.True(t, isLink(link))

		info, err := os.Stat(link)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0100)

		rec, _ := env.ledger.Get("tool")
		assert.Equal(t, env.settings.ExeDir, rec.ExeDir)
		assert.Contains(t, env.prompter.questions, "Where to put executable files?")
	})

	t.Run("LADSPA Linked With Warning", func(t *testing.T) {
		assert.True(t, isLink(filepath.Join(env.settings.Dirs.LADSPADir, "filter.so")))
		assert.Contains(t, env.logs.String(), "LADSPA_PATH")
	})

	t.Run("Uninstall Removes Executable Links", func(t *testing.T) {
		require.NoError(t, env.manager.Uninstall("tool", true))
		assert.NoFileExists(t, filepath.Join(env.settings.ExeDir, "tool"))
		assert.NoFileExists(t, filepath.Join(env.settings.Dirs.LADSPADir, "filter.so"))
	})
}

func TestInstallByName(t *testing.T) {
	entries := map[string]plugin.Entry{
		"foo-a": gitEntry("foo", "first foo", "a.lua"),
		"foo-b": {
			Name: "foo", Description: "second foo", Method: plugin.MethodGit,
			ReceivingURL: "https://example.com/foo-b.git", InstallDir: "plugins/foo-b", ScriptFiles: []string{"b.lua"},
		},
		"bar": gitEntry("bar", "the bar", "bar.lua"),
	}

	t.Run("Exact Id", func(t *testing.T) {
		env := newTestEnv(t, entries, "foo-a", "foo-b", "bar")
		env.fetcher.files[entries["bar"].ReceivingURL] = []string{"bar.lua"}

		id, err := env.manager.InstallByName(context.Background(), "bar")
		require.NoError(t, err)
		assert.Equal(t, "bar", id)
		assert.Empty(t, env.prompter.questions)
	})

	t.Run("Multiple Matches Choose Second", func(t *testing.T) {
		env := newTestEnv(t, entries, "foo-a", "foo-b", "bar")
		env.fetcher.files[entries["foo-b"].ReceivingURL] = []string{"b.lua"}
		env.prompter.choice = 1

		id, err := env.manager.InstallByName(context.Background(), "foo")
		require.NoError(t, err)
		assert.Equal(t, "foo-b", id)
		require.Len(t, env.prompter.options, 1)
		assert.Equal(t, []string{"foo-a", "foo-b"}, env.prompter.options[0])
		assert.True(t, env.ledger.Has("foo-b"))
		assert.False(t, env.ledger.Has("foo-a"))
	})

	t.Run("Multiple Matches No Selection", func(t *testing.T) {
		env := newTestEnv(t, entries, "foo-a", "foo-b", "bar")
		env.prompter.choice = -1

		_, err := env.manager.InstallByName(context.Background(), "foo")
		require.ErrorIs(t, err, core.ErrUserAborted)
		assert.Equal(t, 0, env.ledger.Len())
	})

	t.Run("Single Match Declined", func(t *testing.T) {
		named := map[string]plugin.Entry{"bar-id": gitEntry("bar", "", "bar.lua")}
		env := newTestEnv(t, named, "bar-id")
		env.prompter.confirm = false

		_, err := env.manager.InstallByName(context.Background(), "bar")
		require.ErrorIs(t, err, core.ErrUserAborted)
		assert.Equal(t, []string{"Install bar-id?"}, env.prompter.questions)
		assert.Empty(t, env.fetcher.calls)
	})

	t.Run("No Match", func(t *testing.T) {
		env := newTestEnv(t, entries, "foo-a", "foo-b", "bar")
		_, err := env.manager.InstallByName(context.Background(), "nothing")
		require.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestSearch(t *testing.T) {
	entries := map[string]plugin.Entry{
		"one": gitEntry("one", "Plays videos faster", "one.lua"),
		"two": gitEntry("two", "Something else", "two.lua"),
	}

	t.Run("Description Only Match Ignores Case", func(t *testing.T) {
		env := newTestEnv(t, entries, "one", "two")
		env.fetcher.files[entries["one"].ReceivingURL] = []string{"one.lua"}

		id, err := env.manager.Search(context.Background(), "FASTER")
		require.NoError(t, err)
		assert.Equal(t, "one", id)
		assert.Equal(t, []string{"Install one?"}, env.prompter.questions)
	})

	t.Run("No Match", func(t *testing.T) {
		env := newTestEnv(t, entries, "one", "two")
		_, err := env.manager.Search(context.Background(), "zzz")
		require.ErrorIs(t, err, core.ErrNotFound)
	})
}

func installed(t *testing.T, env *testEnv, id string) {
	t.Helper()
	entry, _ := env.catalog.Get(id)
	env.fetcher.files[entry.ReceivingURL] = entry.ScriptFiles
	require.NoError(t, env.manager.Install(context.Background(), id))
}

func isLink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func TestUninstall(t *testing.T) {
	entries := map[string]plugin.Entry{"P": gitEntry("P", "the P plugin", "a.lua")}

	t.Run("Remove", func(t *testing.T) {
		env := newTestEnv(t, entries, "P")
		installed(t, env, "P")
		link := filepath.Join(env.settings.Dirs.ScriptDir, "a.lua")
		pluginDir := filepath.Join(env.settings.Dirs.WorkDir, "plugins", "P")
		require.True(t, isLink(link))

		require.NoError(t, env.manager.Uninstall("P", true))
		assert.False(t, isLink(link))
		assert.NoDirExists(t, pluginDir)
		assert.False(t, env.ledger.Has("P"))
	})

	t.Run("Disable", func(t *testing.T) {
		env := newTestEnv(t, entries, "P")
		installed(t, env, "P")
		pluginDir := filepath.Join(env.settings.Dirs.WorkDir, "plugins", "P")

		require.NoError(t, env.manager.Uninstall("P", false))
		assert.False(t, isLink(filepath.Join(env.settings.Dirs.ScriptDir, "a.lua")))
		assert.DirExists(t, pluginDir)

		list := env.manager.ListInstalled()
		require.Len(t, list, 1)
		assert.Equal(t, "P", list[0].ID)
		assert.True(t, list[0].Record.Disabled())
	})

	t.Run("Reinstall After Disable", func(t *testing.T) {
		env := newTestEnv(t, entries, "P")
		installed(t, env, "P")
		require.NoError(t, env.manager.Uninstall("P", false))

		installed(t, env, "P")
		rec, _ := env.ledger.Get("P")
		assert.False(t, rec.Disabled())
		assert.True(t, isLink(filepath.Join(env.settings.Dirs.ScriptDir, "a.lua")))
	})

	t.Run("Not Installed", func(t *testing.T) {
		env := newTestEnv(t, entries, "P")
		require.ErrorIs(t, env.manager.Uninstall("P", true), core.ErrNotInstalled)
	})

	t.Run("Not A Symlink", func(t *testing.T) {
		env := newTestEnv(t, entries, "P")
		installed(t, env, "P")
		link := filepath.Join(env.settings.Dirs.ScriptDir, "a.lua")
		require.NoError(t, os.Remove(link))
		writeFiles(t, env.settings.Dirs.ScriptDir, "a.lua")

		require.ErrorIs(t, env.manager.Uninstall("P", true), core.ErrNotSymlink)
		assert.True(t, env.ledger.Has("P"))
		assert.FileExists(t, link)
	})

	t.Run("Executables Without Exedir Are Skipped", func(t *testing.T) {
		env := newTestEnv(t, entries, "P")
		rec := plugin.NewRecord(plugin.Entry{Name: "P", Method: plugin.MethodGit, InstallDir: "plugins/P", ExeFiles: []string{"tool"}}, time.Now())
		env.ledger.Set("P", rec)

		require.NoError(t, env.manager.Uninstall("P", true))
		assert.Contains(t, env.logs.String(), "unknown location")
		assert.False(t, env.ledger.Has("P"))
	})
}

func TestUninstallByName(t *testing.T) {
	entries := map[string]plugin.Entry{
		"dup-a": gitEntry("dup", "", "a.lua"),
		"dup-b": {Name: "dup", Method: plugin.MethodGit, ReceivingURL: "https://example.com/dup-b.git", InstallDir: "plugins/dup-b", ScriptFiles: []string{"b.lua"}},
		"solo":  gitEntry("Solo Plugin", "", "solo.lua"),
	}

	newEnv := func(t *testing.T) *testEnv {
		env := newTestEnv(t, entries, "dup-a", "dup-b", "solo")
		installed(t, env, "dup-a")
		installed(t, env, "dup-b")
		installed(t, env, "solo")
		env.prompter.questions = nil
		return env
	}

	t.Run("By Id Without Prompt", func(t *testing.T) {
		env := newEnv(t)
		id, err := env.manager.UninstallByName("dup-a", true)
		require.NoError(t, err)
		assert.Equal(t, "dup-a", id)
		assert.Empty(t, env.prompter.questions)
	})

	t.Run("By Name Confirms", func(t *testing.T) {
		env := newEnv(t)
		id, err := env.manager.UninstallByName("Solo Plugin", false)
		require.NoError(t, err)
		assert.Equal(t, "solo", id)
		assert.Equal(t, []string{"Disable solo?"}, env.prompter.questions)
	})

	t.Run("By Name Declined", func(t *testing.T) {
		env := newEnv(t)
		env.prompter.confirm = false
		_, err := env.manager.UninstallByName("Solo Plugin", true)
		require.ErrorIs(t, err, core.ErrUserAborted)
		assert.True(t, env.ledger.Has("solo"))
	})

	t.Run("Ambiguous", func(t *testing.T) {
		env := newEnv(t)
		_, err := env.manager.UninstallByName("dup", true)
		require.ErrorIs(t, err, core.ErrAmbiguous)
		assert.Contains(t, err.Error(), "dup-a, dup-b")
	})

	t.Run("Unknown", func(t *testing.T) {
		env := newEnv(t)
		_, err := env.manager.UninstallByName("nothing", true)
		require.ErrorIs(t, err, core.ErrNotInstalled)
	})
}

func TestUpgrade(t *testing.T) {
	entries := map[string]plugin.Entry{
		"good":     gitEntry("good", "", "good.lua"),
		"bad":      gitEntry("bad", "", "bad.lua"),
		"disabled": gitEntry("disabled", "", "disabled.lua"),
	}
	env := newTestEnv(t, entries, "good", "bad", "disabled")
	installed(t, env, "good")
	installed(t, env, "bad")
	installed(t, env, "disabled")
	require.NoError(t, env.manager.Uninstall("disabled", false))
	env.ledger.Set("broken", plugin.NewRecord(plugin.Entry{Name: "broken"}, time.Now()))

	env.fetcher.calls = nil
	env.fetcher.fail[entries["bad"].ReceivingURL] = errors.New("timeout")

	report, err := env.manager.Upgrade(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, env.refresher.calls)
	assert.Equal(t, []string{"good", "disabled"}, report.Upgraded)
	assert.Len(t, report.Failed, 2)
	assert.ErrorIs(t, report.Failed["broken"], core.ErrNoInstallMethod)
	assert.Len(t, env.fetcher.calls, 3)

	t.Run("Refresh Failure Stops Upgrade", func(t *testing.T) {
		env.refresher.err = errors.New("offline")
		env.fetcher.calls = nil

		_, err := env.manager.Upgrade(context.Background())
		require.Error(t, err)
		assert.Empty(t, env.fetcher.calls)
	})
}

func TestManagerSave(t *testing.T) {
	env := newTestEnv(t, map[string]plugin.Entry{"P": gitEntry("P", "", "a.lua")}, "P")
	installed(t, env, "P")
	require.NoError(t, env.manager.Save())

	loaded, err := ledger.Load(env.settings.Dirs.LedgerFile())
	require.NoError(t, err)
	assert.True(t, loaded.Has("P"))
}

func TestAbsPath(t *testing.T) {
	skipOnWindows(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := absPath("", "~/bin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "bin"), path)

	path, err = absPath("  /opt/tools ", "~/bin")
	require.NoError(t, err)
	assert.Equal(t, "/opt/tools", path)

	path, err = absPath("rel", "~/bin")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
}
