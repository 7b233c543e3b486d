package template

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
	"regexp"
	"runtime"
	"strings"
)

var (
	sharedLibExt  = regexp.MustCompile(`(\.?)\{\{shared-lib-ext\}\}`)
	executableExt = regexp.MustCompile(`(\.?)\{\{executable-ext\}\}`)
	archWidth     = regexp.MustCompile(`^x86_(\d+)$`)
)

// machineNames maps Go architecture names to the spelling reported by uname -m,
// which is what catalog templates are written against.
var machineNames = map[string]string{
	"amd64": "x86_64",
	"386":   "x86_32",
	"arm64": "aarch64",
	"arm":   "armv7l",
}

// Resolver substitutes host placeholders in catalog URLs and filenames
type Resolver struct {
	OS   string
	Arch string
}

// Host returns a resolver for the running operating system and CPU
func Host() Resolver {
	return New(runtime.GOOS, MachineArch(runtime.GOARCH))
}

// New creates a resolver for the given OS name and machine architecture
func New(osName, arch string) Resolver {
	return Resolver{
		OS:   strings.ToLower(osName),
		Arch: arch,
	}
}

// MachineArch converts a GOARCH value to its uname -m spelling
func MachineArch(goarch string) string {
	if name, ok := machineNames[goarch]; ok {
		return name
	}
	return goarch
}

// ArchShort returns the short architecture name, x86_64 becomes x64
func (r Resolver) ArchShort() string {
	return archWidth.ReplaceAllString(r.Arch, "x$1")
}

// IsWindows reports whether the resolver targets Windows
func (r Resolver) IsWindows() bool {
	return r.OS == "windows"
}

// Resolve replaces all known placeholders in text. Extension placeholders are
// handled first so that an empty extension also consumes its leading dot.
func (r Resolver) Resolve(text string) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	if r.IsWindows() {
		text = sharedLibExt.ReplaceAllString(text, "${1}dll")
		text = executableExt.ReplaceAllString(text, "${1}exe")
	} else {
		text = sharedLibExt.ReplaceAllString(text, "${1}so")
		text = executableExt.ReplaceAllString(text, "")
	}

	return strings.NewReplacer(
		"{{os}}", r.OS,
		"{{arch}}", r.Arch,
		"{{arch-short}}", r.ArchShort(),
	).Replace(text)
}

// ResolveAll resolves every entry of a file list
func (r Resolver) ResolveAll(texts []string) []string {
	if texts == nil {
		return nil
	}
	resolved := make([]string, len(texts))
	for i, text := range texts {
		resolved[i] = r.Resolve(text)
	}
	return resolved
}
