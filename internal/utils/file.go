package utils

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
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// GetActualUser returns the actual user info even when running under sudo
func GetActualUser() (*user.User, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		return user.Lookup(sudoUser)
	}
	return user.Current()
}

// GetActualUserIDs returns the actual user's UID and GID even when running under sudo
func GetActualUserIDs() (uid, gid int, err error) {
	actualUser, err := GetActualUser()
	if err != nil {
		return 0, 0, err
	}

	uid, err = strconv.Atoi(actualUser.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse UID: %w", err)
	}

	gid, err = strconv.Atoi(actualUser.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse GID: %w", err)
	}

	return uid, gid, nil
}

// ChownToActualUser changes ownership of a path to the actual user.
// Symlinks are changed themselves, not their targets.
func ChownToActualUser(path string) error {
	if os.Getenv("SUDO_USER") == "" {
		return nil
	}

	uid, gid, err := GetActualUserIDs()
	if err != nil {
		return err
	}

	return os.Lchown(path, uid, gid)
}

// FixPermissionsRecursive hands a fetched plugin tree back to the actual user
func FixPermissionsRecursive(root string) error {
	if os.Getenv("SUDO_USER") == "" {
		return nil
	}

	return filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return ChownToActualUser(path)
	})
}

// EnsureDir creates a directory if it doesn't exist with proper ownership
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return ChownToActualUser(dir)
}

// WriteFileAtomic writes data to a file atomically with proper ownership
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Chmod(0644); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := ChownToActualUser(tmpPath); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// FileExists checks if a path exists. Dangling symlinks count as existing.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsSymlink reports whether path is a symbolic link
func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// SameFile reports whether two paths resolve to the same file
func SameFile(a, b string) bool {
	resolvedA, errA := filepath.EvalSymlinks(a)
	resolvedB, errB := filepath.EvalSymlinks(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return resolvedA == resolvedB
}

// MakeExecutable adds the executable bits to each file. Windows has no such bits.
func MakeExecutable(paths ...string) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	var errs []error
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Chmod(path, info.Mode()|0111); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}
