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

// Package hashing derives short cache-busting tokens from file contents.
package hashing

import (
	"bytes"

	// Register the sha256, sha384, and sha512 digest algorithms.
	_ "crypto/sha256"
	_ "crypto/sha512"

	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
)

const (
	// DefaultType is the default digest algorithm.
	DefaultType = "sha256"
	// DefaultEncoding is the default binary-to-text encoding of tokens.
	DefaultEncoding = "base62"
	// DefaultMaxLength is the default maximum token length.
	DefaultMaxLength = 8
)

// Config controls how tokens are derived.
type Config struct {
	// Type is the digest algorithm name, eg. sha256, sha384, sha512.
	Type string
	// Encoding is the binary-to-text encoding of the token: hex, base64,
	// or base62.
	Encoding string
	// MaxLength caps the length of the resulting token.
	MaxLength int
}

// DefaultConfig returns the default hashing configuration.
func DefaultConfig() Config {
	return Config{
		Type:      DefaultType,
		Encoding:  DefaultEncoding,
		MaxLength: DefaultMaxLength,
	}
}

func (c Config) withDefaults() Config {
	if c.Type == "" {
		c.Type = DefaultType
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.MaxLength <= 0 {
		c.MaxLength = DefaultMaxLength
	}

	return c
}

// Token derives a cache-busting token from the given file contents. The
// buffers are sorted into a canonical order before hashing, so the token is
// independent of the order the caller enumerated the files in. The token is
// lower-cased so it stays stable on case-insensitive filesystems. An empty
// collection yields no token (empty string, nil error) rather than the
// digest of zero bytes.
func Token(buffers [][]byte, conf Config) (string, error) {
	conf = conf.withDefaults()

	if len(buffers) == 0 {
		return "", nil
	}

	sorted := make([][]byte, len(buffers))
	copy(sorted, buffers)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	})

	algorithm := digest.Algorithm(conf.Type)
	if !algorithm.Available() {
		return "", fmt.Errorf("unsupported digest algorithm %q", conf.Type)
	}

	dgst := algorithm.FromBytes(bytes.Join(sorted, nil))

	sum, err := hex.DecodeString(dgst.Encoded())
	if err != nil {
		return "", fmt.Errorf("failed to decode digest: %w", err)
	}

	var token string
	switch conf.Encoding {
	case "hex":
		token = dgst.Encoded()
	case "base64":
		token = base64.RawURLEncoding.EncodeToString(sum)
	case "base62":
		token = new(big.Int).SetBytes(sum).Text(62)
	default:
		return "", fmt.Errorf("unsupported token encoding %q", conf.Encoding)
	}

	token = strings.ToLower(token)
	if len(token) > conf.MaxLength {
		token = token[:conf.MaxLength]
	}

	return token, nil
}
