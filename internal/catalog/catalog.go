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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/rizome-dev/mplug/pkg/plugin"
)

// Catalog is the id to entry mapping of the mpv script directory, kept in
// file order so that candidate lists are stable
type Catalog struct {
	entries *orderedmap.OrderedMap[string, plugin.Entry]
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{entries: orderedmap.New[string, plugin.Entry]()}
}

// Parse decodes a catalog document
func Parse(data []byte) (*Catalog, error) {
	c := New()
	if err := json.Unmarshal(data, c.entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return c, nil
}

// Load reads the catalog document at path
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Add appends or replaces an entry
func (c *Catalog) Add(id string, entry plugin.Entry) {
	c.entries.Set(id, entry)
}

// Get returns the entry with the given id
func (c *Catalog) Get(id string) (plugin.Entry, bool) {
	return c.entries.Get(id)
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return c.entries.Len()
}

// IDs returns all ids in catalog order
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

// FindByName returns the ids of all entries whose display name equals name
func (c *Catalog) FindByName(name string) []string {
	var ids []string
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Name == name {
			ids = append(ids, pair.Key)
		}
	}
	return ids
}

// Match is a search hit
type Match struct {
	ID          string
	Description string
}

// Search returns entries whose name or description contains text, ignoring case
func (c *Catalog) Search(text string) []Match {
	needle := strings.ToLower(text)

	var matches []Match
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		entry := pair.Value
		if strings.Contains(strings.ToLower(entry.Name), needle) ||
			strings.Contains(strings.ToLower(entry.Description), needle) {
			matches = append(matches, Match{ID: pair.Key, Description: entry.Description})
		}
	}
	return matches
}
