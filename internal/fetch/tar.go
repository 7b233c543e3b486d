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
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/rizome-dev/mplug/internal/utils"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// DownloadTar downloads a tar archive and extracts it into dir. The
// compression (none, gzip, bzip2 or zstd) is detected from the content.
func (f *Fetcher) DownloadTar(ctx context.Context, url, dir string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create plugin directory: %w", err)
	}

	archive, err := f.downloadTemp(ctx, url, os.TempDir())
	if err != nil {
		return err
	}
	release := utils.RegisterRemoval(archive)
	defer func() {
		_ = os.Remove(archive)
		release()
	}()

	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := ExtractTar(file, dir); err != nil {
		return fmt.Errorf("failed to extract %s: %w", url, err)
	}

	return nil
}

// ExtractTar unpacks a possibly compressed tar stream into destDir
func ExtractTar(r io.Reader, destDir string) error {
	br := bufio.NewReader(r)
	head, _ := br.Peek(6)

	var src io.Reader = br
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer gzr.Close()
		src = gzr
	case bytes.HasPrefix(head, bzip2Magic):
		src = bzip2.NewReader(br)
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return err
		}
		defer zr.Close()
		src = zr
	case bytes.HasPrefix(head, xzMagic):
		return fmt.Errorf("xz compressed archives are not supported")
	}

	return extractTar(tar.NewReader(src), destDir)
}

func extractTar(tr *tar.Reader, destDir string) error {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		path, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			mode := os.FileMode(uint32(header.Mode) & 0777)
			if err := extractTarFile(tr, path, mode); err != nil {
				return err
			}
		case tar.TypeSymlink:
			target := header.Linkname
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(path), target)
			}
			if _, err := safeJoin(destDir, mustRel(destDir, target)); err != nil {
				return fmt.Errorf("invalid link target: %s -> %s", header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			_ = os.Remove(path)
			if err := os.Symlink(header.Linkname, path); err != nil {
				return err
			}
		}
	}

	return nil
}

func extractTarFile(r io.Reader, destPath string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, r)
	return err
}

// mustRel returns target relative to base, or target itself if no relative
// path exists, which safeJoin then rejects as escaping
func mustRel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return rel
}
