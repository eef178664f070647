package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/firmware-selector/internal/profile"
	"github.com/open-edge-platform/firmware-selector/internal/selection"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// Build list flags
var (
	blDefaults []string
	blVersion  string
	blTarget   string
	blProfile  string
	blSnapshot string
	blToggle   []string
	blAdd      []string
	blRemove   []string
	blRestore  []string
	blSave     string
)

// createBuildListCommand creates the build-list subcommand
func createBuildListCommand() *cobra.Command {
	buildListCmd := &cobra.Command{
		Use:   "build-list [flags]",
		Short: "apply package changes to a device's defaults and print the build list",
		Long: `Build-list starts from the default packages of a device, given
with --defaults or looked up with --version, --target and --profile,
applies a saved snapshot and the requested changes in the order
snapshot, toggle, add, remove, restore, and prints the package list of
the image build. Removed defaults are printed as -name.`,
		Args: cobra.NoArgs,
		RunE: executeBuildList,
	}
	f := buildListCmd.Flags()
	f.StringSliceVar(&blDefaults, "defaults", nil, "Default packages of the device")
	f.StringVar(&blVersion, "version", "", "Firmware version to look the profile up for")
	f.StringVar(&blTarget, "target", "", "Target of the profile")
	f.StringVar(&blProfile, "profile", "", "Device profile id")
	f.StringVar(&blSnapshot, "snapshot", "", "Apply a saved selection (YAML or JSON)")
	f.StringArrayVar(&blToggle, "toggle", nil, "Toggle a package (repeatable)")
	f.StringArrayVar(&blAdd, "add", nil, "Add a package (repeatable)")
	f.StringArrayVar(&blRemove, "remove", nil, "Remove a default package (repeatable)")
	f.StringArrayVar(&blRestore, "restore", nil, "Drop any change of a package (repeatable)")
	f.StringVar(&blSave, "save", "", "Save the resulting selection (.json or YAML)")
	return buildListCmd
}

func lookupDefaults(ctx context.Context) ([]string, error) {
	if len(blDefaults) > 0 {
		return blDefaults, nil
	}
	if blVersion == "" || blTarget == "" || blProfile == "" {
		return nil, fmt.Errorf("either --defaults or --version, --target and --profile are required")
	}
	src := profile.NewHTTPSource(currentConfig().GetConfig().DownloadsURL, newFetcher())
	p, err := src.Profile(ctx, blVersion, blTarget, blProfile)
	if err != nil {
		return nil, err
	}
	return p.DefaultSet(), nil
}

// applyChanges runs the snapshot and the flag changes against m.
func applyChanges(m *selection.Machine) error {
	log := logger.Logger()

	if blSnapshot != "" {
		s, err := selection.LoadSnapshot(blSnapshot)
		if err != nil {
			return err
		}
		if dropped := m.Apply(s); dropped > 0 {
			log.Warnf("%d entries of %s do not fit the defaults and were ignored", dropped, blSnapshot)
		}
	}
	for _, name := range blToggle {
		log.Debugf("toggle %s: %s", name, m.Toggle(name))
	}
	for _, name := range blAdd {
		if m.Add(name) != selection.Added {
			log.Debugf("%s is a default package, nothing to add", name)
		}
	}
	for _, name := range blRemove {
		removePackage(m, name)
	}
	for _, name := range blRestore {
		m.Restore(name)
	}
	return nil
}

func executeBuildList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	defaults, err := lookupDefaults(ctx)
	if err != nil {
		return err
	}
	m := selection.NewMachine(defaults)
	if err := applyChanges(m); err != nil {
		return err
	}

	if blSave != "" {
		if err := selection.SaveSnapshot(blSave, m.Snapshot()); err != nil {
			return err
		}
		logger.Logger().Infof("selection saved to %s", blSave)
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(m.BuildList(), " "))
	return nil
}

// removePackage removes a default or drops a previous add of name. Only a
// name that is neither default nor added is reported.
func removePackage(m *selection.Machine, name string) {
	wasAdded := m.State(name) == selection.Added
	if m.Remove(name) == selection.Removed || wasAdded {
		return
	}
	logger.Logger().Warnf("%s is not a default package and cannot be removed", name)
}
