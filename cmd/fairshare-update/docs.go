// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var (
	docsOutputDir string
	docsFormat    string
)

var docsCmd = &cobra.Command{
	Use:    "generate-docs",
	Short:  "Generate documentation for this command",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(docsOutputDir, 0750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		absPath, err := filepath.Abs(docsOutputDir)
		if err != nil {
			return fmt.Errorf("resolving output directory: %w", err)
		}

		log.Printf("generating %s documentation in: %s", docsFormat, absPath)
		switch docsFormat {
		case "markdown", "md":
			return doc.GenMarkdownTree(rootCmd, absPath)
		case "man":
			header := &doc.GenManHeader{Title: "FAIRSHARE-UPDATE", Section: "1", Source: "fairshare"}
			return doc.GenManTree(rootCmd, header, absPath)
		case "rest", "rst":
			return doc.GenReSTTree(rootCmd, absPath)
		default:
			return fmt.Errorf("unsupported format: %s (use: markdown, man, or rest)", docsFormat)
		}
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsOutputDir, "output", "o", "../../docs/cli/fairshare-update", "output directory for documentation")
	docsCmd.Flags().StringVarP(&docsFormat, "format", "f", "markdown", "documentation format: markdown, man, rest")
	rootCmd.AddCommand(docsCmd)
}
