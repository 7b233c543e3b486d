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
	"os"
	"sync"
)

// CleanupManager runs registered cleanups when the process is interrupted
type CleanupManager struct {
	mu       sync.Mutex
	next     int
	cleanups map[int]func()
	order    []int
}

var globalCleanup = &CleanupManager{}

// RegisterCleanup registers fn to run on shutdown. Calling the returned
// release func drops the registration once the resource is gone.
func RegisterCleanup(fn func()) (release func()) {
	globalCleanup.mu.Lock()
	defer globalCleanup.mu.Unlock()

	if globalCleanup.cleanups == nil {
		globalCleanup.cleanups = make(map[int]func())
	}
	id := globalCleanup.next
	globalCleanup.next++
	globalCleanup.cleanups[id] = fn
	globalCleanup.order = append(globalCleanup.order, id)

	return func() {
		globalCleanup.mu.Lock()
		defer globalCleanup.mu.Unlock()
		delete(globalCleanup.cleanups, id)
	}
}

// RegisterRemoval removes path on shutdown, used for partial downloads
func RegisterRemoval(path string) (release func()) {
	return RegisterCleanup(func() {
		_ = os.RemoveAll(path)
	})
}

// RunCleanup runs all registered cleanup functions in reverse order
func RunCleanup() {
	globalCleanup.mu.Lock()
	defer globalCleanup.mu.Unlock()

	for i := len(globalCleanup.order) - 1; i >= 0; i-- {
		if fn, ok := globalCleanup.cleanups[globalCleanup.order[i]]; ok {
			fn()
		}
	}

	globalCleanup.cleanups = nil
	globalCleanup.order = nil
}
