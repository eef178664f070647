package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/open-edge-platform/firmware-selector/internal/feeds"
	"github.com/open-edge-platform/firmware-selector/internal/profile"
)

// Feed selection flags shared by feeds, load and download
var (
	feedTarget string
	feedKernel string
)

func addFeedFlags(fs *pflag.FlagSet) {
	fs.StringVar(&feedTarget, "target", "",
		"Target, e.g. ramips/mt7621; adds the target feed")
	fs.StringVar(&feedKernel, "kernel", "",
		"Kernel as version-release-vermagic; adds the kmods feed (requires --target)")
}

// createFeedsCommand creates the feeds subcommand
func createFeedsCommand() *cobra.Command {
	feedsCmd := &cobra.Command{
		Use:   "feeds [flags] VERSION ARCH",
		Short: "print the feed URLs of a firmware version",
		Args:  cobra.ExactArgs(2),
		RunE:  executeFeeds,
	}
	addFeedFlags(feedsCmd.Flags())
	return feedsCmd
}

func kernelFromFlag() (*profile.Kernel, error) {
	if feedKernel == "" {
		return nil, nil
	}
	k, err := profile.ParseKernelKey(feedKernel)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func executeFeeds(cmd *cobra.Command, args []string) error {
	kernel, err := kernelFromFlag()
	if err != nil {
		return err
	}
	list := newResolver().Feeds(args[0], args[1], feedTarget, kernel)
	printFeedList(cmd, list)
	return nil
}

func printFeedList(cmd *cobra.Command, list []feeds.Feed) {
	out := cmd.OutOrStdout()
	for _, f := range list {
		fmt.Fprintf(out, "%-10s %s\n", f.Name, f.URL)
	}
}
