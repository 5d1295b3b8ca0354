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

// Package bootstrap parses and patches the declaration attributes embedded
// in a UI5 bootstrap HTML document.
package bootstrap

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ui5tools/ui5-cachebuster/internal/hashing"
	"github.com/ui5tools/ui5-cachebuster/internal/resources"
	"github.com/ui5tools/ui5-cachebuster/internal/themes"
)

const (
	// ResourceRootsAttr declares the resource-root map.
	ResourceRootsAttr = "data-sap-ui-resourceroots"
	// ThemeRootsAttr declares the theme-root map.
	ThemeRootsAttr = "data-sap-ui-theme-roots"
)

// ErrMalformedDeclaration is returned when a declaration attribute is
// missing from the document or does not hold valid JSON.
var ErrMalformedDeclaration = errors.New("malformed bootstrap declaration")

var (
	resourceRootsPattern = regexp.MustCompile(ResourceRootsAttr + `\s*=\s*'([^']*)'`)
	themeRootsPattern    = regexp.MustCompile(ThemeRootsAttr + `\s*=\s*'([^']*)'`)
)

// Document is a bootstrap HTML file held in memory. Dir is the directory
// the declared module paths are resolved against.
type Document struct {
	Path    string
	Dir     string
	Content []byte
}

// Load reads the bootstrap document at path.
func Load(path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document path: %w", err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bootstrap document: %w", err)
	}

	return &Document{
		Path:    absPath,
		Dir:     filepath.Dir(absPath),
		Content: content,
	}, nil
}

// Save writes the document's content back to its path.
func (d *Document) Save() error {
	if err := os.WriteFile(d.Path, d.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write bootstrap document: %w", err)
	}

	return nil
}

// Process rewrites both declarations in doc and renames the referenced
// directories on disk. Both declarations are parsed up front so a malformed
// document fails before any filesystem mutation.
func Process(doc *Document, conf hashing.Config) error {
	resourceRoots, err := extract(doc.Content, resourceRootsPattern, ResourceRootsAttr)
	if err != nil {
		return err
	}

	themeRoots, err := extract(doc.Content, themeRootsPattern, ThemeRootsAttr)
	if err != nil {
		return err
	}

	updatedResourceRoots, err := resources.Rewrite(doc.Dir, resourceRoots, conf)
	if err != nil {
		return err
	}

	updatedThemeRoots, err := themes.Rewrite(doc.Dir, themeRoots, conf)
	if err != nil {
		return err
	}

	content, err := substitute(doc.Content, resourceRootsPattern, updatedResourceRoots)
	if err != nil {
		return err
	}

	content, err = substitute(content, themeRootsPattern, updatedThemeRoots)
	if err != nil {
		return err
	}

	doc.Content = content

	slog.Info("Cache busting completed",
		slog.Int("modules", len(updatedResourceRoots)),
		slog.Int("themes", len(updatedThemeRoots)))

	return nil
}

// extract returns the declaration map held by the attribute matched by
// pattern.
func extract(content []byte, pattern *regexp.Regexp, attr string) (map[string]string, error) {
	m := pattern.FindSubmatch(content)
	if m == nil {
		return nil, fmt.Errorf("%w: %s attribute not found", ErrMalformedDeclaration, attr)
	}

	var roots map[string]string
	if err := json.Unmarshal(m[1], &roots); err != nil {
		return nil, fmt.Errorf("%w: %s holds invalid JSON: %v", ErrMalformedDeclaration, attr, err)
	}

	return roots, nil
}

// substitute re-serializes roots and splices it over the declaration span
// matched by pattern, leaving every other byte of the document untouched.
func substitute(content []byte, pattern *regexp.Regexp, roots map[string]string) ([]byte, error) {
	encoded, err := json.Marshal(roots)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal declaration: %w", err)
	}

	idx := pattern.FindSubmatchIndex(content)
	if idx == nil {
		return nil, fmt.Errorf("%w: declaration vanished from document", ErrMalformedDeclaration)
	}

	patched := make([]byte, 0, len(content)+len(encoded))
	patched = append(patched, content[:idx[2]]...)
	patched = append(patched, encoded...)
	patched = append(patched, content[idx[3]:]...)

	return patched, nil
}
