package ledger

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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/rizome-dev/mplug/internal/utils"
	"github.com/rizome-dev/mplug/pkg/core"
	"github.com/rizome-dev/mplug/pkg/plugin"
)

// Ledger is the set of installed or disabled plugins, in install order
type Ledger struct {
	path    string
	records *orderedmap.OrderedMap[string, plugin.Record]
}

// New creates an empty ledger persisted at path
func New(path string) *Ledger {
	return &Ledger{
		path:    path,
		records: orderedmap.New[string, plugin.Record](),
	}
}

// Load reads the ledger at path. A missing file yields an empty ledger.
func Load(path string) (*Ledger, error) {
	l := New(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}

	if err := json.Unmarshal(data, l.records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptLedger, path, err)
	}

	return l, nil
}

// Path returns the file the ledger is saved to
func (l *Ledger) Path() string {
	return l.path
}

// Get returns the record of an installed plugin
func (l *Ledger) Get(id string) (plugin.Record, bool) {
	return l.records.Get(id)
}

// Has reports whether id is installed or disabled
func (l *Ledger) Has(id string) bool {
	_, ok := l.records.Get(id)
	return ok
}

// Set stores a record. A new id goes to the end, an existing one keeps its position.
func (l *Ledger) Set(id string, rec plugin.Record) {
	l.records.Set(id, rec)
}

// Delete removes a record
func (l *Ledger) Delete(id string) {
	l.records.Delete(id)
}

// Len returns the number of records
func (l *Ledger) Len() int {
	return l.records.Len()
}

// Entry is an id and its record
type Entry struct {
	ID     string
	Record plugin.Record
}

// Entries returns all records in insertion order
func (l *Ledger) Entries() []Entry {
	entries := make([]Entry, 0, l.records.Len())
	for pair := l.records.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, Entry{ID: pair.Key, Record: pair.Value})
	}
	return entries
}

// FindByName returns the ids of all records whose display name equals name
func (l *Ledger) FindByName(name string) []string {
	var ids []string
	for pair := l.records.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Name == name {
			ids = append(ids, pair.Key)
		}
	}
	return ids
}

// Save writes the ledger atomically
func (l *Ledger) Save() error {
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	if err := utils.WriteFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	return nil
}
