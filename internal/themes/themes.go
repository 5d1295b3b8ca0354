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

// Package themes rewrites the theme-root declarations of a bootstrap
// document and renames the corresponding theme directories on disk.
package themes

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ui5tools/ui5-cachebuster/internal/hashing"
	"github.com/ui5tools/ui5-cachebuster/internal/module"
)

// RootSuffix is the fixed trailing segment every declared theme-root path
// must end in. It is a loader placeholder, not a directory on disk; the
// token is spliced into the segment before it.
const RootSuffix = "UI5"

// ErrInvalidRoot is returned when a declared theme-root path does not end
// in the RootSuffix segment.
var ErrInvalidRoot = errors.New("theme root path does not end in " + RootSuffix + " segment")

// Rewrite hashes every theme root declared in roots, renames its directory
// to a token-suffixed path, and returns the updated declaration map. Themes
// are processed in sorted name order. A declared theme whose directory does
// not exist, or whose tree is empty, is passed through unchanged. Paths are
// resolved relative to baseDir.
func Rewrite(baseDir string, roots map[string]string, conf hashing.Config) (map[string]string, error) {
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	sort.Strings(names)

	updated := make(map[string]string, len(roots))
	for _, name := range names {
		declared := roots[name]

		trimmed := strings.TrimSuffix(declared, "/")
		if path.Base(trimmed) != RootSuffix || trimmed == RootSuffix {
			return nil, fmt.Errorf("%w: theme %s declares %q", ErrInvalidRoot, name, declared)
		}

		themePath := strings.TrimSuffix(trimmed, "/"+RootSuffix)
		resolved := filepath.Join(baseDir, filepath.FromSlash(themePath))

		// Unlike modules there is no classification fallback, so a
		// missing theme directory is an explicit pass-through.
		if _, err := os.Stat(resolved); err != nil {
			slog.Debug("Theme directory does not exist, leaving unchanged",
				slog.String("theme", name))

			updated[name] = declared
			continue
		}

		token, err := module.HashTree(resolved, conf)
		if err != nil {
			return nil, fmt.Errorf("failed to hash theme %s: %w", name, err)
		}

		if token == "" {
			slog.Debug("Theme has no hashable content, leaving unchanged",
				slog.String("theme", name))

			updated[name] = declared
			continue
		}

		newThemePath := themePath + "-" + token
		newResolved := filepath.Join(baseDir, filepath.FromSlash(newThemePath))

		if err := os.Rename(resolved, newResolved); err != nil {
			return nil, fmt.Errorf("failed to rename theme directory: %w", err)
		}

		newDeclared := newThemePath + "/" + RootSuffix
		if strings.HasSuffix(declared, "/") {
			newDeclared += "/"
		}

		slog.Info("Renamed theme directory",
			slog.String("theme", name),
			slog.String("from", declared),
			slog.String("to", newDeclared))

		updated[name] = newDeclared
	}

	return updated, nil
}
