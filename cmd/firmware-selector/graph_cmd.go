package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage/deputils"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/pkgindex"
)

// Graph query flags
var (
	graphIndexFiles []string
	depsDirect      bool
)

func addIndexFilesFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&graphIndexFiles, "index", nil,
		"Index files to query (repeatable, loaded in order)")
	_ = cmd.MarkFlagRequired("index")
}

// createDepsCommand creates the deps subcommand
func createDepsCommand() *cobra.Command {
	depsCmd := &cobra.Command{
		Use:   "deps [flags] NAME",
		Short: "list every package NAME depends on, transitively",
		Args:  cobra.ExactArgs(1),
		RunE:  executeDeps,
	}
	addIndexFilesFlag(depsCmd)
	depsCmd.Flags().BoolVar(&depsDirect, "direct", false,
		"Print only the direct dependencies with their version constraints")
	return depsCmd
}

// createRdepsCommand creates the rdeps subcommand
func createRdepsCommand() *cobra.Command {
	rdepsCmd := &cobra.Command{
		Use:   "rdeps [flags] NAME",
		Short: "list the packages depending on NAME",
		Args:  cobra.ExactArgs(1),
		RunE:  executeRdeps,
	}
	addIndexFilesFlag(rdepsCmd)
	return rdepsCmd
}

func loadGraph(files []string) (*pkgindex.Index, error) {
	idx := pkgindex.New()
	for _, file := range files {
		pkgs, err := loadIndexFile(file, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		idx.Add(pkgs...)
	}
	return idx, nil
}

func executeDeps(cmd *cobra.Command, args []string) error {
	idx, err := loadGraph(graphIndexFiles)
	if err != nil {
		return err
	}
	name := args[0]
	if !idx.Has(name) {
		return fmt.Errorf("package %s not found", name)
	}

	out := cmd.OutOrStdout()
	if depsDirect {
		for _, p := range idx.Lookup(name) {
			for _, dep := range p.Constraints {
				fmt.Fprintf(out, "%s\t%s\n", deputils.Format(dep), p.Feed)
			}
		}
		return nil
	}
	for _, dep := range idx.Expand(name) {
		fmt.Fprintln(out, dep)
	}
	return nil
}

func executeRdeps(cmd *cobra.Command, args []string) error {
	idx, err := loadGraph(graphIndexFiles)
	if err != nil {
		return err
	}
	for _, name := range idx.DependentNames(args[0]) {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
