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

// Package module classifies UI5 resource-root directories and computes their
// cache-busting tokens.
package module

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ui5tools/ui5-cachebuster/internal/filetree"
	"github.com/ui5tools/ui5-cachebuster/internal/hashing"
)

const (
	// ComponentPreloadName is the marker file identifying an application.
	ComponentPreloadName = "Component-preload.js"
	// LibraryPreloadName is the marker file identifying a library.
	LibraryPreloadName = "library-preload.js"
	// ManifestName is the optional application descriptor sidecar.
	ManifestName = "manifest.json"
)

// ErrMissingPreload is returned when a module's preload marker file cannot
// be read at hash time.
var ErrMissingPreload = errors.New("missing preload file")

// Kind is the classification of a resource-root directory.
type Kind int

const (
	// KindApplication is a module carrying a component preload.
	KindApplication Kind = iota
	// KindLibrary is a module carrying a library preload.
	KindLibrary
	// KindAssetBundle is any module carrying neither preload. This is a
	// fallback classification, not a positive test.
	KindAssetBundle
)

func (k Kind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindLibrary:
		return "library"
	default:
		return "asset bundle"
	}
}

// Classify determines the kind of the module at dir from its marker files.
// Application wins when both preloads are present. A missing directory
// yields KindAssetBundle; callers that need an existence check must perform
// it separately.
func Classify(dir string) Kind {
	if fileExists(filepath.Join(dir, ComponentPreloadName)) {
		return KindApplication
	}
	if fileExists(filepath.Join(dir, LibraryPreloadName)) {
		return KindLibrary
	}

	return KindAssetBundle
}

// Hash computes the cache-busting token for the module at dir, selecting
// the hash input set according to the module's kind. It returns an empty
// token when the module has no hashable content.
func Hash(dir string, conf hashing.Config) (string, error) {
	switch Classify(dir) {
	case KindApplication:
		return hashApplication(dir, conf)
	case KindLibrary:
		return hashLibrary(dir, conf)
	default:
		return HashTree(dir, conf)
	}
}

// HashTree computes a token over every file beneath dir. Used for asset
// bundles and theme roots.
func HashTree(dir string, conf hashing.Config) (string, error) {
	return HashFS(os.DirFS(dir), nil, conf)
}

// HashFS is HashTree over an arbitrary filesystem, optionally restricted to
// files whose base name appears in allow.
func HashFS(fsys fs.FS, allow []string, conf hashing.Config) (string, error) {
	contents, err := filetree.ReadAll(fsys, ".", allow)
	if err != nil {
		return "", err
	}

	return hashing.Token(contents, conf)
}

// hashApplication hashes the component preload plus every resource file
// declared by the optional manifest sidecar.
func hashApplication(dir string, conf hashing.Config) (string, error) {
	preload, err := os.ReadFile(filepath.Join(dir, ComponentPreloadName))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingPreload, err)
	}

	buffers := [][]byte{preload}

	uris, err := manifestResources(dir)
	if err != nil {
		return "", err
	}

	for _, uri := range uris {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(uri)))
		if err != nil {
			return "", fmt.Errorf("failed to read manifest resource %s: %w", uri, err)
		}

		buffers = append(buffers, data)
	}

	return hashing.Token(buffers, conf)
}

func hashLibrary(dir string, conf hashing.Config) (string, error) {
	preload, err := os.ReadFile(filepath.Join(dir, LibraryPreloadName))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingPreload, err)
	}

	return hashing.Token([][]byte{preload}, conf)
}

type manifest struct {
	SapUI5 struct {
		Resources map[string][]resourceRef `json:"resources"`
	} `json:"sap.ui5"`
}

type resourceRef struct {
	URI string `json:"uri"`
}

// manifestResources returns the resource URIs declared by the manifest
// sidecar, flattened across categories in a deterministic order. A missing
// manifest is not an error.
func manifestResources(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	categories := make([]string, 0, len(m.SapUI5.Resources))
	for category := range m.SapUI5.Resources {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var uris []string
	for _, category := range categories {
		for _, ref := range m.SapUI5.Resources[category] {
			if ref.URI != "" {
				uris = append(uris, ref.URI)
			}
		}
	}

	return uris, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
