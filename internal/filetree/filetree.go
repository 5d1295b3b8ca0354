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

package filetree

import (
	"fmt"
	"io/fs"
	"path"
)

// ReadAll returns the contents of every regular file under root in fsys,
// recursively. When allow is non-empty only files whose base name appears in
// it are read; directories are always descended into. Symlinks are skipped.
// No ordering guarantee is made on the returned contents.
func ReadAll(fsys fs.FS, root string, allow []string) ([][]byte, error) {
	allowed := make(map[string]struct{}, len(allow))
	for _, name := range allow {
		allowed[name] = struct{}{}
	}

	var contents [][]byte
	err := fs.WalkDir(fsys, root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if len(allowed) > 0 {
			if _, ok := allowed[path.Base(file)]; !ok {
				return nil
			}
		}

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		contents = append(contents, data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk file tree: %w", err)
	}

	return contents, nil
}
