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

// Package resources rewrites the resource-root declarations of a bootstrap
// document and renames the corresponding module directories on disk.
package resources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ui5tools/ui5-cachebuster/internal/hashing"
	"github.com/ui5tools/ui5-cachebuster/internal/module"
)

// Rewrite hashes every module declared in roots, renames its directory to a
// token-suffixed path, and returns the updated declaration map. Modules are
// processed in sorted name order so log output and rename sequence are
// deterministic. A module with no hashable content is passed through
// unchanged. Paths are resolved relative to baseDir, the directory holding
// the bootstrap document.
func Rewrite(baseDir string, roots map[string]string, conf hashing.Config) (map[string]string, error) {
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	sort.Strings(names)

	updated := make(map[string]string, len(roots))
	for _, name := range names {
		declared := roots[name]
		resolved := filepath.Join(baseDir, filepath.FromSlash(declared))

		token, err := module.Hash(resolved, conf)
		if err != nil {
			return nil, fmt.Errorf("failed to hash module %s: %w", name, err)
		}

		if token == "" {
			slog.Debug("Module has no hashable content, leaving unchanged",
				slog.String("module", name))

			updated[name] = declared
			continue
		}

		newDeclared := withToken(declared, token)
		newResolved := filepath.Join(baseDir, filepath.FromSlash(newDeclared))

		if err := os.Rename(resolved, newResolved); err != nil {
			return nil, fmt.Errorf("failed to rename module directory: %w", err)
		}

		slog.Info("Renamed module directory",
			slog.String("module", name),
			slog.String("kind", module.Classify(newResolved).String()),
			slog.String("from", declared),
			slog.String("to", newDeclared))

		updated[name] = newDeclared
	}

	return updated, nil
}

// withToken appends -token to the final segment of a declared forward-slash
// path, leaving the leading prefix bytes untouched.
func withToken(declared, token string) string {
	return strings.TrimSuffix(declared, "/") + "-" + token
}
