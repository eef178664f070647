package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/pkgindex"
)

// Index command flags
var (
	indexFeed   string
	indexFormat string
)

// createIndexCommand creates the index subcommand
func createIndexCommand() *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index [flags] FILE",
		Short: "decode a local feed index",
		Long: `Index decodes a packages.adb or Packages file (optionally gz or
xz compressed) and prints its records.`,
		Args: cobra.ExactArgs(1),
		RunE: executeIndex,
	}
	indexCmd.Flags().StringVar(&indexFeed, "feed", "",
		"Feed name recorded on every package (default: derived from the file name)")
	indexCmd.Flags().StringVar(&indexFormat, "format", "text",
		"Output format: text or json")
	return indexCmd
}

// feedNameFromFile returns "base" for "base-Packages.gz" as written by the
// download command, and "" otherwise.
func feedNameFromFile(file string) string {
	base := filepath.Base(file)
	for _, suffix := range []string{"-" + pkgindex.BinaryIndexName, "-Packages"} {
		if i := strings.Index(base, suffix); i > 0 {
			return base[:i]
		}
	}
	return ""
}

// loadIndexFile decodes one local index file.
func loadIndexFile(file, feed string) ([]ospackage.PackageInfo, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if feed == "" {
		feed = feedNameFromFile(file)
	}
	return pkgindex.ParseFeed(file, data, feed)
}

func executeIndex(cmd *cobra.Command, args []string) error {
	pkgs, err := loadIndexFile(args[0], indexFeed)
	if err != nil {
		return err
	}
	return writeRecords(cmd.OutOrStdout(), pkgs, indexFormat)
}

func writeRecords(out io.Writer, pkgs []ospackage.PackageInfo, format string) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(pkgs, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding records: %w", err)
		}
		_, err = fmt.Fprintln(out, string(b))
		return err

	case "text":
		for _, p := range pkgs {
			line := fmt.Sprintf("%s %s %s", p.Name, p.Version, p.Arch)
			if len(p.Depends) > 0 {
				line += " depends: " + strings.Join(p.Depends, ", ")
			}
			fmt.Fprintln(out, line)
		}
		return nil

	default:
		return fmt.Errorf("invalid --format %q (expected text|json)", format)
	}
}
