package main

import (
	"context"
	"path"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/firmware-selector/internal/feeds"
	"github.com/open-edge-platform/firmware-selector/internal/pkgfetcher"
	"github.com/open-edge-platform/firmware-selector/internal/profile"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

var downloadDest string

// createDownloadCommand creates the download subcommand
func createDownloadCommand() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download [flags] VERSION ARCH",
		Short: "store the raw feed indexes of a device",
		Args:  cobra.ExactArgs(2),
		RunE:  executeDownload,
	}
	addFeedFlags(downloadCmd.Flags())
	downloadCmd.Flags().StringVar(&downloadDest, "dest", "",
		"Destination directory (default: the configured cache directory)")
	return downloadCmd
}

// feedDownloads names every index file "{feed}-{file}" so feeds sharing a
// file name do not collide.
func feedDownloads(list []feeds.Feed) []pkgfetcher.Download {
	out := make([]pkgfetcher.Download, 0, len(list))
	for _, f := range list {
		out = append(out, pkgfetcher.Download{URL: f.URL, Name: f.Name + "-" + path.Base(f.URL)})
	}
	return out
}

func executeDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	helpers := currentConfig()
	fetcher := newFetcher()

	dest := downloadDest
	if dest == "" {
		dir, err := helpers.CreateCacheDir()
		if err != nil {
			return err
		}
		dest = dir
	}

	cache := feeds.NewKernelCache(profile.NewHTTPSource(helpers.GetConfig().DownloadsURL, fetcher))
	list, err := resolveFeeds(ctx, cache, args[0], args[1])
	if err != nil {
		return err
	}

	if err := fetcher.FetchToDir(ctx, feedDownloads(list), dest, helpers.Workers(), cmd.ErrOrStderr()); err != nil {
		return err
	}
	logger.Logger().Infof("stored %d indexes in %s", len(list), dest)
	return nil
}
