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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rizome-dev/mplug/internal/utils"
	"github.com/rizome-dev/mplug/pkg/core"
	"github.com/rizome-dev/mplug/pkg/plugin"
)

// Linker exposes fetched plugin files through symbolic links
type Linker struct {
	prompter Prompter
	resolver plugin.Templater
	logger   *slog.Logger
}

// NewLinker creates a linker
func NewLinker(prompter Prompter, resolver plugin.Templater, logger *slog.Logger) *Linker {
	return &Linker{
		prompter: prompter,
		resolver: resolver,
		logger:   logger,
	}
}

// InstallFiles links every file of files, relative to srcdir, into dstdir
// under its base name. It returns the links it created; links that already
// point at the right file are left alone and not returned.
func (l *Linker) InstallFiles(srcdir string, files []string, dstdir string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if err := utils.EnsureDir(dstdir); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dstdir, err)
	}

	var installed []string
	for _, file := range files {
		resolved := l.resolver.Resolve(file)
		src := filepath.Join(srcdir, resolved)
		dst := filepath.Join(dstdir, filepath.Base(resolved))

		if _, err := os.Stat(src); err != nil {
			return installed, fmt.Errorf("%w: %s", core.ErrMissingSourceFile, src)
		}

		info, err := os.Lstat(dst)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return installed, err
		case info.Mode()&os.ModeSymlink == 0:
			return installed, fmt.Errorf("%w: %s", core.ErrForeignFile, dst)
		default:
			target, err := os.Readlink(dst)
			if err != nil {
				return installed, err
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(dstdir, target)
			}
			if utils.SameFile(target, src) {
				l.logger.Info("already installed", slog.String("file", dst))
				continue
			}
			if !l.prompter.Confirm(fmt.Sprintf("%s links to %s. Overwrite?", dst, target)) {
				return installed, core.ErrUserAborted
			}
			if err := os.Remove(dst); err != nil {
				return installed, fmt.Errorf("failed to remove stale link %s: %w", dst, err)
			}
		}

		l.logger.Debug("link file", slog.String("src", src), slog.String("dst", dst))
		if err := os.Symlink(src, dst); err != nil {
			return installed, fmt.Errorf("failed to link %s: %w", dst, err)
		}
		installed = append(installed, dst)
	}

	return installed, nil
}

// UninstallFiles removes the links InstallFiles created for files in dir.
// Missing links are skipped; anything that is not a link is left untouched
// and reported.
func (l *Linker) UninstallFiles(files []string, dir string) error {
	for _, file := range files {
		dst := filepath.Join(dir, filepath.Base(l.resolver.Resolve(file)))

		info, err := os.Lstat(dst)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return fmt.Errorf("%w: %s was not installed by mplug", core.ErrNotSymlink, dst)
		}

		l.logger.Info("removing link", slog.String("file", dst))
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dst, err)
		}
	}

	return nil
}
