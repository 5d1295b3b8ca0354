// SPDX-License-Identifier: AGPL-3.0-or-later
/*
 * Copyright (C) 2025 The ui5-cachebuster Authors.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package module_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ui5tools/ui5-cachebuster/internal/hashing"
	"github.com/ui5tools/ui5-cachebuster/internal/module"
)

func TestClassify(t *testing.T) {
	t.Run("Application", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.ComponentPreloadName), []byte("app"), 0o644))

		require.Equal(t, module.KindApplication, module.Classify(dir))
	})

	t.Run("Library", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.LibraryPreloadName), []byte("lib"), 0o644))

		require.Equal(t, module.KindLibrary, module.Classify(dir))
	})

	t.Run("Application Wins Over Library", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.ComponentPreloadName), []byte("app"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.LibraryPreloadName), []byte("lib"), 0o644))

		require.Equal(t, module.KindApplication, module.Classify(dir))
	})

	t.Run("Asset Bundle Fallback", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.svg"), []byte("<svg/>"), 0o644))

		require.Equal(t, module.KindAssetBundle, module.Classify(dir))
	})

	t.Run("Missing Directory", func(t *testing.T) {
		require.Equal(t, module.KindAssetBundle, module.Classify(filepath.Join(t.TempDir(), "missing")))
	})
}

func TestHash(t *testing.T) {
	conf := hashing.DefaultConfig()

	t.Run("Application", func(t *testing.T) {
		dir := t.TempDir()
		preload := []byte("sap.ui.require.preload({});")
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.ComponentPreloadName), preload, 0o644))

		token, err := module.Hash(dir, conf)
		require.NoError(t, err)

		// Only the preload participates in the hash.
		want, err := hashing.Token([][]byte{preload}, conf)
		require.NoError(t, err)
		require.Equal(t, want, token)

		// Unrelated files in the directory do not affect the token.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o644))

		again, err := module.Hash(dir, conf)
		require.NoError(t, err)
		require.Equal(t, token, again)
	})

	t.Run("Application With Manifest", func(t *testing.T) {
		dir := t.TempDir()
		preload := []byte("sap.ui.require.preload({});")
		style := []byte("body { color: red; }")

		require.NoError(t, os.WriteFile(filepath.Join(dir, module.ComponentPreloadName), preload, 0o644))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "style.css"), style, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.ManifestName),
			[]byte(`{"sap.ui5": {"resources": {"css": [{"uri": "css/style.css"}]}}}`), 0o644))

		token, err := module.Hash(dir, conf)
		require.NoError(t, err)

		want, err := hashing.Token([][]byte{preload, style}, conf)
		require.NoError(t, err)
		require.Equal(t, want, token)

		// Changing a declared resource changes the token.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "style.css"), []byte("body {}"), 0o644))

		changed, err := module.Hash(dir, conf)
		require.NoError(t, err)
		require.NotEqual(t, token, changed)
	})

	t.Run("Application With Missing Manifest Resource", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.ComponentPreloadName), []byte("app"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.ManifestName),
			[]byte(`{"sap.ui5": {"resources": {"css": [{"uri": "css/missing.css"}]}}}`), 0o644))

		_, err := module.Hash(dir, conf)
		require.Error(t, err)
	})

	t.Run("Application With Unreadable Preload", func(t *testing.T) {
		dir := t.TempDir()
		// A directory with the marker name classifies as an application
		// but cannot be read as the preload file.
		require.NoError(t, os.MkdirAll(filepath.Join(dir, module.ComponentPreloadName), 0o755))

		_, err := module.Hash(dir, conf)
		require.ErrorIs(t, err, module.ErrMissingPreload)
	})

	t.Run("Library", func(t *testing.T) {
		dir := t.TempDir()
		preload := []byte("sap.ui.require.preload({\"a\":1});")
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.LibraryPreloadName), preload, 0o644))

		token, err := module.Hash(dir, conf)
		require.NoError(t, err)

		want, err := hashing.Token([][]byte{preload}, conf)
		require.NoError(t, err)
		require.Equal(t, want, token)

		// Changing the preload changes the token.
		require.NoError(t, os.WriteFile(filepath.Join(dir, module.LibraryPreloadName),
			[]byte("sap.ui.require.preload({\"a\":2});"), 0o644))

		changed, err := module.Hash(dir, conf)
		require.NoError(t, err)
		require.NotEqual(t, token, changed)
	})

	t.Run("Asset Bundle", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("1"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte("2"), 0o644))

		token, err := module.Hash(dir, conf)
		require.NoError(t, err)

		// Swapping the file names does not change the token: only the
		// canonicalized contents participate.
		swapped := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(swapped, "a.json"), []byte("2"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(swapped, "b.json"), []byte("1"), 0o644))

		again, err := module.Hash(swapped, conf)
		require.NoError(t, err)
		require.Equal(t, token, again)
	})

	t.Run("Empty Asset Bundle", func(t *testing.T) {
		token, err := module.Hash(t.TempDir(), conf)
		require.NoError(t, err)

		require.Empty(t, token)
	})

	t.Run("Idempotent After Rename", func(t *testing.T) {
		dir := t.TempDir()
		moduleDir := filepath.Join(dir, "demo")
		require.NoError(t, os.MkdirAll(moduleDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(moduleDir, module.ComponentPreloadName), []byte("app"), 0o644))

		token, err := module.Hash(moduleDir, conf)
		require.NoError(t, err)

		renamedDir := moduleDir + "-" + token
		require.NoError(t, os.Rename(moduleDir, renamedDir))

		require.Equal(t, module.KindApplication, module.Classify(renamedDir))

		again, err := module.Hash(renamedDir, conf)
		require.NoError(t, err)
		require.Equal(t, token, again)
	})
}
