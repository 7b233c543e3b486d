package cli

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

	"github.com/rizome-dev/mplug/pkg/core"
)

// Exit codes of the mplug command
const (
	ExitOK            = 0
	ExitError         = 1
	ExitMissingArg    = 2
	ExitNotFound      = 3
	ExitNoMethod      = 4
	ExitUnknownMethod = 5
	ExitAmbiguous     = 6
	ExitNotInstalled  = 10
	ExitCorruptLedger = 11
	ExitNotSymlink    = 12
	ExitMissingField  = 13
	ExitMissingSource = 14
	ExitForeignFile   = 15
	ExitInterrupted   = 130
)

var exitCodes = []struct {
	err  error
	code int
}{
	{core.ErrUserAborted, ExitOK},
	{core.ErrMissingArgument, ExitMissingArg},
	{core.ErrNotFound, ExitNotFound},
	{core.ErrNoInstallMethod, ExitNoMethod},
	{core.ErrUnknownMethod, ExitUnknownMethod},
	{core.ErrAmbiguous, ExitAmbiguous},
	{core.ErrNotInstalled, ExitNotInstalled},
	{core.ErrCorruptLedger, ExitCorruptLedger},
	{core.ErrNotSymlink, ExitNotSymlink},
	{core.ErrMissingField, ExitMissingField},
	{core.ErrMissingSourceFile, ExitMissingSource},
	{core.ErrForeignFile, ExitForeignFile},
	{context.Canceled, ExitInterrupted},
}

// ExitCode maps an error returned by a command to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ExitError
}
