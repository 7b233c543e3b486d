package config

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
	"fmt"
	"os"
	"path/filepath"

	"github.com/rizome-dev/mplug/pkg/plugin"
	"github.com/spf13/viper"
)

const (
	catalogFolder = "mpv_script_dir"
	catalogFile   = "mpv_script_directory.json"
	ledgerFile    = "installed_plugins"
)

// environment variables consulted for directory resolution
var dirEnv = map[string]string{
	"xdg_data_home":   "XDG_DATA_HOME",
	"xdg_config_home": "XDG_CONFIG_HOME",
	"appdata":         "APPDATA",
	"mpv_home":        "MPV_HOME",
	"ladspa_path":     "LADSPA_PATH",
}

// Dirs holds every filesystem location mplug reads or writes
type Dirs struct {
	// WorkDir stores the catalog clone, fetched plugins and the ledger
	WorkDir string
	// MpvDir is mpv's configuration directory
	MpvDir string
	// MpvDirGuessed is set when no environment variable pointed at MpvDir
	MpvDirGuessed bool

	ScriptDir     string
	ShaderDir     string
	ScriptOptsDir string
	FontsDir      string
	LADSPADir     string
	// LADSPAPathSet reports whether LADSPA_PATH was present in the environment
	LADSPAPathSet bool
}

// BindDirEnv binds the directory environment variables to v
func BindDirEnv(v *viper.Viper) error {
	for key, env := range dirEnv {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// ResolveDirs finds the directory paths from environment variables with
// hardcoded fallbacks
func ResolveDirs(v *viper.Viper) (Dirs, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	xdgData := v.GetString("xdg_data_home")
	xdgConfig := v.GetString("xdg_config_home")
	appData := v.GetString("appdata")
	mpvHome := v.GetString("mpv_home")
	ladspaPath := v.GetString("ladspa_path")

	var d Dirs

	switch {
	case xdgData != "":
		d.WorkDir = filepath.Join(xdgData, "mplug")
	case appData != "":
		d.WorkDir = filepath.Join(appData, "mplug")
	default:
		d.WorkDir = filepath.Join(home, ".mplug")
	}

	switch {
	case mpvHome != "":
		d.MpvDir = mpvHome
	case xdgConfig != "":
		d.MpvDir = filepath.Join(xdgConfig, "mpv")
	case appData != "":
		d.MpvDir = filepath.Join(appData, "mpv")
	default:
		d.MpvDir = filepath.Join(home, ".mpv")
		d.MpvDirGuessed = true
	}

	d.ScriptDir = filepath.Join(d.MpvDir, "scripts")
	d.ShaderDir = filepath.Join(d.MpvDir, "shaders")
	d.ScriptOptsDir = filepath.Join(d.MpvDir, "script-opts")
	d.FontsDir = filepath.Join(d.MpvDir, "fonts")

	if ladspaPath != "" {
		d.LADSPADir = filepath.SplitList(ladspaPath)[0]
		d.LADSPAPathSet = true
	} else {
		d.LADSPADir = filepath.Join(home, ".ladspa")
	}

	return d, nil
}

// Target returns the directory that files of category c are linked into.
// Executables have no fixed target.
func (d Dirs) Target(c plugin.Category) (string, bool) {
	switch c {
	case plugin.CategoryScripts:
		return d.ScriptDir, true
	case plugin.CategoryShaders:
		return d.ShaderDir, true
	case plugin.CategoryFonts:
		return d.FontsDir, true
	case plugin.CategoryScriptOpts:
		return d.ScriptOptsDir, true
	case plugin.CategoryLADSPA:
		return d.LADSPADir, true
	}
	return "", false
}

// CatalogDir is the local clone of the plugin catalog repository
func (d Dirs) CatalogDir() string {
	return filepath.Join(d.WorkDir, catalogFolder)
}

// CatalogFile is the catalog JSON inside the clone
func (d Dirs) CatalogFile() string {
	return filepath.Join(d.CatalogDir(), catalogFile)
}

// LedgerFile is the state file listing installed plugins
func (d Dirs) LedgerFile() string {
	return filepath.Join(d.WorkDir, ledgerFile)
}

// PluginDir returns the absolute location of a plugin's install_dir
func (d Dirs) PluginDir(installDir string) string {
	return filepath.Join(d.WorkDir, installDir)
}
