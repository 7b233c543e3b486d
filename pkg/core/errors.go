package core

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

import "errors"

var (
	// Resolution errors
	ErrNotFound     = errors.New("no matching plugins found")
	ErrNotInstalled = errors.New("plugin is not installed")
	ErrAmbiguous    = errors.New("name matches more than one installed plugin")
	ErrUserAborted  = errors.New("aborted by user")

	// Catalog metadata errors
	ErrNoInstallMethod = errors.New("no installation method")
	ErrUnknownMethod   = errors.New("unknown installation method")
	ErrMissingField    = errors.New("missing required catalog field")

	// Filesystem safety errors
	ErrMissingSourceFile = errors.New("source file missing from plugin directory")
	ErrForeignFile       = errors.New("file exists and was not created by mplug")
	ErrNotSymlink        = errors.New("file is not a symlink")

	// State errors
	ErrCorruptLedger   = errors.New("installed plugins file is corrupt")
	ErrMissingArgument = errors.New("missing required argument")
)
