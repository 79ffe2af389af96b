// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/korugfx/utility/kar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestCompressListExtract(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"a.txt":        "alpha",
		"nested/b.txt": "bravo bravo bravo",
	})
	archive := filepath.Join(t.TempDir(), "out.kar")

	require.NoError(t, compressFiles(src, archive, kar.Header{Author: "tester", Version: 3}))
	assert.Error(t, compressFiles(src, archive, kar.Header{}), "existing archive is not overwritten")

	var out bytes.Buffer
	require.NoError(t, listArchive(archive, &out))
	assert.Contains(t, out.String(), "author: tester")
	assert.Contains(t, out.String(), "version: 3")
	assert.Contains(t, out.String(), "a.txt")
	assert.Contains(t, out.String(), "nested/b.txt")

	dst := t.TempDir()
	require.NoError(t, extractFile(archive, "nested/b.txt", dst))
	data, err := os.ReadFile(filepath.Join(dst, "nested", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bravo bravo bravo", string(data))

	err = extractFile(archive, "missing.txt", dst)
	assert.ErrorIs(t, err, kar.ErrNotExist)
	assert.Error(t, extractFile(archive, "../escape.txt", dst))
}

func TestPackLibrary(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"shapes.vert.spv": "vertex",
		"shapes.frag.spv": "fragment",
		"readme.md":       "skipped",
	})
	archive := filepath.Join(t.TempDir(), "shapes.kar")
	require.NoError(t, packLibrary(src, archive, kar.Header{}))

	data, err := os.ReadFile(archive)
	require.NoError(t, err)
	ar, err := kar.OpenBytes(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"shapes.frag", "shapes.vert"}, ar.Names())

	vs, err := ar.ReadAll("shapes.vert")
	require.NoError(t, err)
	assert.Equal(t, "vertex", string(vs))
}

func TestPackLibraryEmpty(t *testing.T) {
	err := packLibrary(t.TempDir(), filepath.Join(t.TempDir(), "x.kar"), kar.Header{})
	assert.Error(t, err)
}

func TestListNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a kar archive"), 0644))
	err := listArchive(path, &bytes.Buffer{})
	assert.ErrorIs(t, err, kar.ErrFileFormat)
}
