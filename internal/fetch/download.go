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
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rizome-dev/mplug/internal/utils"
)

// Download saves the resource at url to dest, replacing any existing file.
// The body is written to a temporary sibling first so an interrupted
// transfer never leaves a truncated plugin file in place.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	tmp, err := f.downloadTemp(ctx, url, filepath.Dir(dest))
	if err != nil {
		return err
	}
	release := utils.RegisterRemoval(tmp)
	defer release()

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	return nil
}

// downloadTemp streams url into a new temporary file inside dir and
// returns its path. The caller owns the file.
func (f *Fetcher) downloadTemp(ctx context.Context, url, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %s failed with status: %s", url, resp.Status)
	}

	out, err := os.CreateTemp(dir, ".mplug-download-*")
	if err != nil {
		return "", err
	}
	release := utils.RegisterRemoval(out.Name())
	defer release()

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}

	return out.Name(), nil
}

// safeJoin joins name below dir and rejects names escaping it
func safeJoin(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if path != filepath.Clean(dir) && !strings.HasPrefix(path, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid file path: %s", name)
	}
	return path, nil
}
