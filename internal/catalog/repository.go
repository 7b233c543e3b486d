package catalog

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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rizome-dev/mplug/internal/utils"
)

// GitSyncer clones a repository or pulls it when already present
type GitSyncer interface {
	CloneOrPull(ctx context.Context, repoURL, dir string) error
}

// Repository is the local clone of the catalog repository
type Repository struct {
	URL    string
	Dir    string
	File   string
	MaxAge time.Duration

	git    GitSyncer
	logger *slog.Logger
	now    func() time.Time
}

// NewRepository creates a repository handle. file is the catalog document
// inside dir.
func NewRepository(url, dir, file string, maxAge time.Duration, git GitSyncer, logger *slog.Logger) *Repository {
	return &Repository{
		URL:    url,
		Dir:    dir,
		File:   file,
		MaxAge: maxAge,
		git:    git,
		logger: logger,
		now:    time.Now,
	}
}

// Refresh clones or pulls the catalog unconditionally
func (r *Repository) Refresh(ctx context.Context) error {
	r.logger.Info("updating catalog", slog.String("file", filepath.Base(r.File)))

	if err := utils.EnsureDir(filepath.Dir(r.Dir)); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	if err := r.git.CloneOrPull(ctx, r.URL, r.Dir); err != nil {
		return fmt.Errorf("failed to update catalog: %w", err)
	}

	// a pull without changes leaves the document untouched, which would
	// trigger another refresh on every run once it is older than MaxAge
	now := r.now()
	if err := os.Chtimes(r.File, now, now); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("failed to touch catalog", slog.String("error", err.Error()))
	}

	return nil
}

// Stale reports whether the clone is missing or older than MaxAge
func (r *Repository) Stale() bool {
	if _, err := os.Stat(r.Dir); err != nil {
		return true
	}

	info, err := os.Stat(r.File)
	if err != nil {
		return true
	}

	return r.MaxAge > 0 && r.now().Sub(info.ModTime()) > r.MaxAge
}

// EnsureFresh refreshes the clone when it is missing or too old
func (r *Repository) EnsureFresh(ctx context.Context) error {
	if !r.Stale() {
		return nil
	}
	r.logger.Debug("catalog missing or outdated", slog.String("dir", r.Dir))
	return r.Refresh(ctx)
}

// Load reads the catalog document from the clone
func (r *Repository) Load() (*Catalog, error) {
	return Load(r.File)
}

// Open refreshes the clone if needed and loads the catalog
func (r *Repository) Open(ctx context.Context) (*Catalog, error) {
	if err := r.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	return r.Load()
}
