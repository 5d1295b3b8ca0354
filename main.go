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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dpeckett/archivefs/tarfs"
	"github.com/dpeckett/telemetry"
	"github.com/dpeckett/telemetry/v1alpha1"
	"github.com/dpeckett/uncompr"
	"github.com/go-ini/ini"
	"github.com/ui5tools/ui5-cachebuster/internal/bootstrap"
	"github.com/ui5tools/ui5-cachebuster/internal/constants"
	"github.com/ui5tools/ui5-cachebuster/internal/hashing"
	"github.com/ui5tools/ui5-cachebuster/internal/module"
	"github.com/ui5tools/ui5-cachebuster/internal/util"
	"github.com/urfave/cli/v2"
)

func main() {
	os.Exit(run())
}

func run() int {
	persistentFlags := []cli.Flag{
		&cli.GenericFlag{
			Name:  "log-level",
			Usage: "Set the log verbosity level",
			Value: util.FromSlogLevel(slog.LevelInfo),
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to an INI file with hashing defaults",
		},
		&cli.StringFlag{
			Name:  "hash-type",
			Usage: "Digest algorithm used to derive tokens",
		},
		&cli.StringFlag{
			Name:  "hash-encoding",
			Usage: "Token encoding (hex, base64, or base62)",
		},
		&cli.IntFlag{
			Name:  "max-length",
			Usage: "Maximum token length",
		},
	}

	initLogger := func(c *cli.Context) error {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: (*slog.Level)(c.Generic("log-level").(*util.LevelFlag)),
		})))

		return nil
	}

	// Collect anonymized usage statistics.
	var telemetryReporter *telemetry.Reporter

	initTelemetry := func(c *cli.Context) error {
		telemetryReporter = telemetry.NewReporter(c.Context, slog.Default(), telemetry.Configuration{
			BaseURL: constants.TelemetryURL,
			Tags:    []string{"ui5-cachebuster"},
		})

		// Some basic system information.
		info := map[string]string{
			"os":      runtime.GOOS,
			"arch":    runtime.GOARCH,
			"num_cpu": fmt.Sprintf("%d", runtime.NumCPU()),
			"version": constants.Version,
		}

		telemetryReporter.ReportEvent(&v1alpha1.TelemetryEvent{
			Kind:   v1alpha1.TelemetryEventKindInfo,
			Name:   "ApplicationStart",
			Values: info,
		})

		return nil
	}

	shutdownTelemetry := func(c *cli.Context) error {
		if telemetryReporter == nil {
			return nil
		}

		telemetryReporter.ReportEvent(&v1alpha1.TelemetryEvent{
			Kind: v1alpha1.TelemetryEventKindInfo,
			Name: "ApplicationStop",
		})

		// Don't want to block the shutdown of the application for too long.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := telemetryReporter.Shutdown(ctx); err != nil {
			slog.Error("Failed to close telemetry reporter", slog.Any("error", err))
		}

		return nil
	}

	app := &cli.App{
		Name:      "ui5-cachebuster",
		Usage:     "Rewrite a UI5 bootstrap document with content-hashed module paths",
		Version:   constants.Version,
		ArgsUsage: "bootstrap_document",
		Flags:     persistentFlags,
		Before:    util.BeforeAll(initLogger, initTelemetry),
		After:     shutdownTelemetry,
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				slog.Error("Bootstrap document path is required")
				return cli.ShowAppHelp(c)
			}
			documentPath := c.Args().First()

			conf, err := hashConfig(c)
			if err != nil {
				return err
			}

			doc, err := bootstrap.Load(documentPath)
			if err != nil {
				return err
			}

			if err := bootstrap.Process(doc, conf); err != nil {
				return err
			}

			return doc.Save()
		},
		Commands: []*cli.Command{
			{
				Name:      "hash",
				Usage:     "Print the token for a module directory or tarball without renaming anything",
				ArgsUsage: "module_path",
				Flags: append([]cli.Flag{
					&cli.StringSliceFlag{
						Name:  "only",
						Usage: "Restrict hashing to files with the given base name (whole-tree semantics)",
					},
				}, persistentFlags...),
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						slog.Error("Module path is required")
						return cli.ShowSubcommandHelp(c)
					}
					modulePath := c.Args().First()

					conf, err := hashConfig(c)
					if err != nil {
						return err
					}

					token, err := hashModulePath(modulePath, c.StringSlice("only"), conf)
					if err != nil {
						return err
					}

					if token == "" {
						return fmt.Errorf("module has no hashable content")
					}

					fmt.Fprintln(c.App.Writer, token)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error", slog.Any("error", err))
		return 1
	}

	return 0
}

// hashConfig assembles the hashing configuration from the optional INI file
// and the command line, with flags taking precedence.
func hashConfig(c *cli.Context) (hashing.Config, error) {
	conf := hashing.DefaultConfig()

	if configPath := c.String("config"); configPath != "" {
		iniFile, err := ini.Load(configPath)
		if err != nil {
			return conf, fmt.Errorf("failed to load config file: %w", err)
		}

		section := iniFile.Section("hash")
		conf.Type = section.Key("type").MustString(conf.Type)
		conf.Encoding = section.Key("encoding").MustString(conf.Encoding)
		conf.MaxLength = section.Key("max_length").MustInt(conf.MaxLength)
	}

	if c.IsSet("hash-type") {
		conf.Type = c.String("hash-type")
	}
	if c.IsSet("hash-encoding") {
		conf.Encoding = c.String("hash-encoding")
	}
	if c.IsSet("max-length") {
		conf.MaxLength = c.Int("max-length")
	}

	return conf, nil
}

// hashModulePath hashes a module on disk. Directories are hashed according
// to their classified kind; a tarball (possibly compressed) is hashed with
// whole-tree semantics.
func hashModulePath(modulePath string, only []string, conf hashing.Config) (string, error) {
	fi, err := os.Stat(modulePath)
	if err != nil {
		return "", fmt.Errorf("failed to open module: %w", err)
	}

	if fi.IsDir() {
		if len(only) > 0 {
			return module.HashFS(os.DirFS(modulePath), only, conf)
		}

		return module.Hash(modulePath, conf)
	}

	tempDir, err := os.MkdirTemp("", "ui5-cachebuster")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	moduleFile, err := os.Open(modulePath)
	if err != nil {
		return "", fmt.Errorf("failed to open tarball: %w", err)
	}
	defer moduleFile.Close()

	// Decompress the tarball if it is compressed.
	dr, err := uncompr.NewReader(moduleFile)
	if err != nil {
		return "", fmt.Errorf("failed to create decompressing reader: %w", err)
	}
	defer dr.Close()

	decompressedFile, err := os.OpenFile(
		filepath.Join(tempDir, filepath.Base(modulePath)+".tar"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary tar file: %w", err)
	}
	defer decompressedFile.Close()

	if _, err := io.Copy(decompressedFile, dr); err != nil {
		return "", fmt.Errorf("failed to decompress tarball: %w", err)
	}

	fsys, err := tarfs.Open(decompressedFile)
	if err != nil {
		return "", fmt.Errorf("failed to open tarball: %w", err)
	}

	return module.HashFS(fsys, only, conf)
}
