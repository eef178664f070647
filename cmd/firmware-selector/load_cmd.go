package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/firmware-selector/internal/feeds"
	"github.com/open-edge-platform/firmware-selector/internal/profile"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// Load command flags
var (
	loadReportDir string
	loadFormat    string
	loadNoBar     bool
)

// createLoadCommand creates the load subcommand
func createLoadCommand() *cobra.Command {
	loadCmd := &cobra.Command{
		Use:   "load [flags] VERSION ARCH",
		Short: "fetch and decode every feed of a device",
		Long: `Load fetches all feeds of a firmware version concurrently and
reports the state of each one. With --target the kernel of the target is
looked up in its profiles.json so the kmods feed is loaded too, unless
--kernel is given. A failing feed never stops the others.`,
		Args: cobra.ExactArgs(2),
		RunE: executeLoad,
	}
	addFeedFlags(loadCmd.Flags())
	loadCmd.Flags().StringVar(&loadReportDir, "report", "",
		"Write the list of fetched URLs into this directory")
	loadCmd.Flags().StringVar(&loadFormat, "format", "text",
		"Output format: text or json")
	loadCmd.Flags().BoolVar(&loadNoBar, "no-progress", false,
		"Disable the progress bar")
	return loadCmd
}

// resolveFeeds returns the feeds of the requested device, looking the kernel
// up through cache when only a target is given.
func resolveFeeds(ctx context.Context, cache *feeds.KernelCache, version, arch string) ([]feeds.Feed, error) {
	kernel, err := kernelFromFlag()
	if err != nil {
		return nil, err
	}
	if kernel == nil && feedTarget != "" && cache != nil {
		kernel, err = cache.Kernel(ctx, version, feedTarget)
		if err != nil {
			// the device is still usable without kernel modules
			logger.Logger().Warnf("kmods feed skipped: %v", err)
		}
	}
	return newResolver().Feeds(version, arch, feedTarget, kernel), nil
}

func executeLoad(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	helpers := currentConfig()
	fetcher := newFetcher()

	cache := feeds.NewKernelCache(profile.NewHTTPSource(helpers.GetConfig().DownloadsURL, fetcher))
	list, err := resolveFeeds(ctx, cache, args[0], args[1])
	if err != nil {
		return err
	}

	loader := feeds.NewLoader(fetcher, helpers.Workers())
	loader.Report = logger.NewStringListReport(args[0] + " " + args[1])
	if !loadNoBar {
		bar := newLoadBar(cmd.ErrOrStderr(), len(list))
		loader.OnSettled = func(d feeds.Descriptor) {
			bar.Describe(d.Name)
			bar.Add(1)
		}
		defer bar.Finish()
	}

	catalog := feeds.NewCatalog()
	gen := catalog.Begin()
	start := time.Now()
	if !catalog.Commit(gen, loader.Load(ctx, list)) {
		return fmt.Errorf("load result of generation %s discarded", gen)
	}
	res := catalog.Current()
	log.Infof("feeds settled in %s", time.Since(start).Round(time.Millisecond))

	if loadReportDir != "" {
		path, err := loader.Report.WriteToDir(loadReportDir)
		if err != nil {
			return fmt.Errorf("writing fetch report: %w", err)
		}
		log.Infof("fetch report written to %s", path)
	}

	return writeLoadResult(cmd.OutOrStdout(), res, loadFormat)
}

func newLoadBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("loading feeds"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func writeLoadResult(out io.Writer, res *feeds.Result, format string) error {
	switch format {
	case "json":
		payload := struct {
			Feeds    []feeds.Descriptor `json:"feeds"`
			Packages int                `json:"packages"`
			Names    int                `json:"names"`
		}{Feeds: res.Feeds, Packages: res.Index.Len(), Names: len(res.Index.Names())}
		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		_, err = fmt.Fprintln(out, string(b))
		return err

	case "text":
		for _, d := range res.Feeds {
			if d.Status == feeds.StatusError {
				fmt.Fprintf(out, "%-10s %-7s %s\n", d.Name, d.Status, d.Error)
				continue
			}
			fmt.Fprintf(out, "%-10s %-7s %d packages\n", d.Name, d.Status, d.Records)
		}
		fmt.Fprintf(out, "total: %d packages, %d names, %d failed feeds\n",
			res.Index.Len(), len(res.Index.Names()), len(res.Failed()))
		return nil

	default:
		return fmt.Errorf("invalid --format %q (expected text|json)", format)
	}
}
