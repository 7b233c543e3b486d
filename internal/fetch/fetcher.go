package fetch

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
	"log/slog"
	"net/http"

	"github.com/rizome-dev/mplug/internal/utils"
	"github.com/rizome-dev/mplug/pkg/plugin"
)

// Fetcher retrieves plugin content with the strategy matching its source
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient sets the client used for url and tar downloads
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a fetcher. No timeout is set on the default client,
// fetches are bounded by the caller's context only.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves src into dir, an absolute path
func (f *Fetcher) Fetch(ctx context.Context, src plugin.Source, dir string) error {
	var err error

	switch s := src.(type) {
	case plugin.GitSource:
		f.logger.Debug("clone or pull repository", slog.String("url", s.RepoURL), slog.String("dir", dir))
		err = f.CloneOrPull(ctx, s.RepoURL, dir)
	case plugin.URLSource:
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create plugin directory: %w", err)
		}
		dest, joinErr := safeJoin(dir, s.Filename)
		if joinErr != nil {
			return joinErr
		}
		f.logger.Debug("download file", slog.String("url", s.FileURL), slog.String("dest", dest))
		err = f.Download(ctx, s.FileURL, dest)
	case plugin.TarSource:
		f.logger.Debug("download archive", slog.String("url", s.ArchiveURL), slog.String("dir", dir))
		err = f.DownloadTar(ctx, s.ArchiveURL, dir)
	default:
		return fmt.Errorf("unsupported source %T", src)
	}

	if err != nil {
		return err
	}

	return utils.FixPermissionsRecursive(dir)
}
