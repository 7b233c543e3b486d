package plugin

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
	"fmt"
	"strings"
	"time"

	"github.com/rizome-dev/mplug/pkg/core"
)

// Method is the installation method tag of a catalog entry
type Method string

const (
	MethodGit Method = "git"
	MethodURL Method = "url"
	MethodTar Method = "tar"
)

// Known reports whether m is one of the supported fetch strategies
func (m Method) Known() bool {
	switch m {
	case MethodGit, MethodURL, MethodTar:
		return true
	}
	return false
}

// State of an installed plugin
type State string

const (
	StateActive   State = "active"
	StateDisabled State = "disabled"
)

// Category is a group of files that is linked into one target directory
type Category string

const (
	CategoryScripts    Category = "scriptfiles"
	CategoryShaders    Category = "shaderfiles"
	CategoryFonts      Category = "fontfiles"
	CategoryScriptOpts Category = "scriptoptfiles"
	CategoryLADSPA     Category = "ladspafiles"
	CategoryExe        Category = "exefiles"
)

// LinkedCategories are the categories with a fixed target directory.
// Executables are handled separately since the user picks their directory.
var LinkedCategories = []Category{
	CategoryScripts,
	CategoryShaders,
	CategoryFonts,
	CategoryScriptOpts,
	CategoryLADSPA,
}

// Entry is one plugin of the catalog
type Entry struct {
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"desc,omitempty" yaml:"desc,omitempty"`
	Method         Method   `json:"install,omitempty" yaml:"install,omitempty"`
	ReceivingURL   string   `json:"receiving_url,omitempty" yaml:"receiving_url,omitempty"`
	InstallDir     string   `json:"install_dir,omitempty" yaml:"install_dir,omitempty"`
	Filename       string   `json:"filename,omitempty" yaml:"filename,omitempty"`
	OS             []string `json:"os,omitempty" yaml:"os,omitempty"`
	ScriptFiles    []string `json:"scriptfiles,omitempty" yaml:"scriptfiles,omitempty"`
	ShaderFiles    []string `json:"shaderfiles,omitempty" yaml:"shaderfiles,omitempty"`
	FontFiles      []string `json:"fontfiles,omitempty" yaml:"fontfiles,omitempty"`
	ScriptOptFiles []string `json:"scriptoptfiles,omitempty" yaml:"scriptoptfiles,omitempty"`
	LADSPAFiles    []string `json:"ladspafiles,omitempty" yaml:"ladspafiles,omitempty"`
	ExeFiles       []string `json:"exefiles,omitempty" yaml:"exefiles,omitempty"`
	InstallNotes   string   `json:"install-notes,omitempty" yaml:"install-notes,omitempty"`
}

// Files returns the file list of a category
func (e *Entry) Files(c Category) []string {
	switch c {
	case CategoryScripts:
		return e.ScriptFiles
	case CategoryShaders:
		return e.ShaderFiles
	case CategoryFonts:
		return e.FontFiles
	case CategoryScriptOpts:
		return e.ScriptOptFiles
	case CategoryLADSPA:
		return e.LADSPAFiles
	case CategoryExe:
		return e.ExeFiles
	}
	return nil
}

// SupportsOS reports whether the entry can be used on the named OS.
// An empty list means the plugin is not restricted.
func (e *Entry) SupportsOS(osName string) bool {
	if len(e.OS) == 0 {
		return true
	}
	for _, supported := range e.OS {
		if strings.EqualFold(supported, osName) {
			return true
		}
	}
	return false
}

// CheckMethod validates the method tag
func (e *Entry) CheckMethod() error {
	if e.Method == "" {
		return core.ErrNoInstallMethod
	}
	if !e.Method.Known() {
		return fmt.Errorf("%w: %s", core.ErrUnknownMethod, e.Method)
	}
	return nil
}

// Templater resolves host placeholders
type Templater interface {
	Resolve(text string) string
}

// Source describes where a plugin's content comes from and where it goes
type Source interface {
	Method() Method
	URL() string
	Dir() string
}

// GitSource is a repository that is cloned or pulled into Dir
type GitSource struct {
	RepoURL    string
	InstallDir string
}

func (s GitSource) Method() Method { return MethodGit }
func (s GitSource) URL() string    { return s.RepoURL }
func (s GitSource) Dir() string    { return s.InstallDir }

// URLSource is a single file saved as Filename inside Dir
type URLSource struct {
	FileURL    string
	InstallDir string
	Filename   string
}

func (s URLSource) Method() Method { return MethodURL }
func (s URLSource) URL() string    { return s.FileURL }
func (s URLSource) Dir() string    { return s.InstallDir }

// TarSource is an archive extracted into Dir
type TarSource struct {
	ArchiveURL string
	InstallDir string
}

func (s TarSource) Method() Method { return MethodTar }
func (s TarSource) URL() string    { return s.ArchiveURL }
func (s TarSource) Dir() string    { return s.InstallDir }

// Source validates the method specific fields and returns the resolved source.
// Dir is relative to the working root.
func (e *Entry) Source(t Templater) (Source, error) {
	if err := e.CheckMethod(); err != nil {
		return nil, err
	}

	if e.ReceivingURL == "" {
		return nil, fmt.Errorf("%w: receiving_url", core.ErrMissingField)
	}
	if e.InstallDir == "" {
		return nil, fmt.Errorf("%w: install_dir", core.ErrMissingField)
	}
	url := t.Resolve(e.ReceivingURL)
	dir := t.Resolve(e.InstallDir)

	switch e.Method {
	case MethodGit:
		return GitSource{RepoURL: url, InstallDir: dir}, nil
	case MethodTar:
		return TarSource{ArchiveURL: url, InstallDir: dir}, nil
	case MethodURL:
		if e.Filename == "" {
			return nil, fmt.Errorf("%w: filename", core.ErrMissingField)
		}
		return URLSource{FileURL: url, InstallDir: dir, Filename: t.Resolve(e.Filename)}, nil
	}

	return nil, fmt.Errorf("%w: %s", core.ErrUnknownMethod, e.Method)
}

// Record is a plugin in the ledger: the catalog entry as it was at install time
// plus installation state.
type Record struct {
	Entry       `yaml:",inline"`
	InstallDate string `json:"install_date" yaml:"install_date"`
	State       State  `json:"state,omitempty" yaml:"state,omitempty"`
	ExeDir      string `json:"exedir,omitempty" yaml:"exedir,omitempty"`
}

// NewRecord snapshots a catalog entry as an active installation
func NewRecord(e Entry, installed time.Time) Record {
	return Record{
		Entry:       e,
		InstallDate: installed.Format(time.RFC3339),
		State:       StateActive,
	}
}

// Disabled reports whether the plugin's links have been removed.
// Records without a state predate disabling and count as active.
func (r *Record) Disabled() bool {
	return r.State == StateDisabled
}
