// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// otbconv converts OT Bioelettronica .otb+ recording archives into
// calibrated datasets: a YAML channel header plus a CSV data matrix, or an
// EDF container.
package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenPSG/otb"
	"github.com/spf13/cobra"
)

var (
	argOutputDir  string
	argOutputName string
	argFormat     string
	argNoSave     bool
	argVerbose    bool

	rootCmd = &cobra.Command{
		Use:   "otbconv <recording.otb+ | directory> ...",
		Short: "Convert OT Bioelettronica recordings to calibrated datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			level := slog.LevelInfo
			if argVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))

			if argFormat != "csv" && argFormat != "edf" {
				return fmt.Errorf("unknown output format %q (want csv or edf)", argFormat)
			}

			var failed int
			for _, arg := range args {
				info, err := os.Stat(arg)
				if err != nil {
					return err
				}
				if info.IsDir() {
					failed += convertTree(arg)
					continue
				}
				if err := convertOne(arg, argOutputName); err != nil {
					slog.Error("conversion failed", "recording", arg, "error", err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d recording(s) failed to convert", failed)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&argOutputDir, "output-dir", "o", "", "Directory for converted files (defaults to the recording's directory)")
	rootCmd.Flags().StringVarP(&argOutputName, "output-name", "n", "", "Base name for converted files (single recording only; defaults to the recording name)")
	rootCmd.Flags().StringVarP(&argFormat, "format", "f", "csv", "Output format: csv (YAML header + CSV data) or edf")
	rootCmd.Flags().BoolVarP(&argNoSave, "no-save", "", false, "Decode and report without writing converted files")
	rootCmd.Flags().BoolVarP(&argVerbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// convertTree converts every recording archive below root, continuing past
// per-file failures. It returns the number of failed conversions.
func convertTree(root string) int {
	var failed int
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), otb.ArchiveExt) {
			return nil
		}
		if err := convertOne(path, ""); err != nil {
			slog.Error("conversion failed", "recording", path, "error", err)
			failed++
		}
		return nil
	})
	if err != nil {
		slog.Error("scan failed", "directory", root, "error", err)
		failed++
	}
	return failed
}

func convertOne(path, outputName string) error {
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	opts := otb.Options{
		InputDir:   dir,
		InputFile:  file,
		OutputDir:  argOutputDir,
		OutputFile: outputName,
		Save:       !argNoSave && argFormat == "csv",
	}

	rec, err := otb.Convert(opts)
	if err != nil {
		return err
	}

	if argFormat == "edf" && !argNoSave {
		outDir := argOutputDir
		if outDir == "" {
			outDir = dir
		}
		name := outputName
		if name == "" {
			name = strings.TrimSuffix(file, filepath.Ext(file))
		}
		return rec.SaveEDF(outDir, name)
	}
	return nil
}
