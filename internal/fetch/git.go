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
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// CloneOrPull clones repoURL into dir, or pulls the latest changes if dir
// already holds a repository. New clones are shallow.
func (f *Fetcher) CloneOrPull(ctx context.Context, repoURL, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		f.logger.Debug("repository already cloned, pulling latest changes", slog.String("dir", dir))
		return f.Pull(ctx, dir)
	}

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   repoURL,
		Depth: 1,
	})
	if err != nil {
		// a failed clone leaves a half-initialised repository behind which
		// would be mistaken for a clone on the next run
		_ = os.RemoveAll(dir)
		return fmt.Errorf("failed to clone %s: %w", repoURL, err)
	}

	return nil
}

// Pull updates the repository in dir from its origin remote
func (f *Fetcher) Pull(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository %s: %w", dir, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName: "origin",
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		f.logger.Debug("already up to date", slog.String("dir", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("pull failed for %s: %w", dir, err)
	}

	return nil
}
