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
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultCatalogURL is the community maintained mpv script directory
	DefaultCatalogURL = "https://github.com/Nudin/mpv-script-directory.git"
	// DefaultCatalogMaxAge is how long a catalog clone is used before refreshing it
	DefaultCatalogMaxAge = 30 * 24 * time.Hour
	// DefaultExeDir is suggested when a plugin ships executables
	DefaultExeDir = "~/bin"
)

// Settings is the resolved configuration of one mplug invocation
type Settings struct {
	Dirs          Dirs
	CatalogURL    string
	CatalogMaxAge time.Duration
	ExeDir        string
	Verbose       bool
	// ConfigFile is the config file that was read, empty if none
	ConfigFile string
}

// Load builds Settings from the environment and an optional config file.
// Without configFile, config.yaml is looked up in the working directory.
func Load(configFile string, verbose bool) (*Settings, error) {
	v := viper.New()

	v.SetDefault("catalog_url", DefaultCatalogURL)
	v.SetDefault("catalog_max_age", DefaultCatalogMaxAge)
	v.SetDefault("exe_dir", DefaultExeDir)
	v.SetDefault("verbose", verbose)

	if err := BindDirEnv(v); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("mplug")
	for _, key := range []string{"catalog_url", "catalog_max_age", "exe_dir", "verbose"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	dirs, err := ResolveDirs(v)
	if err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(dirs.WorkDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	s := &Settings{
		Dirs:          dirs,
		CatalogURL:    v.GetString("catalog_url"),
		CatalogMaxAge: v.GetDuration("catalog_max_age"),
		ExeDir:        v.GetString("exe_dir"),
		Verbose:       verbose || v.GetBool("verbose"),
		ConfigFile:    v.ConfigFileUsed(),
	}
	if s.ConfigFile != "" {
		s.ConfigFile = filepath.Clean(s.ConfigFile)
	}

	return s, nil
}
