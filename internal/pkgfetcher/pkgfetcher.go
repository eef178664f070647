package pkgfetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
	"github.com/open-edge-platform/firmware-selector/internal/utils/network"
)

// maxIndexSize bounds a single index download.
const maxIndexSize = 256 << 20

// Fetcher downloads feed indexes and profile metadata over HTTP.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewFetcher returns a Fetcher using the shared TLS settings.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		Client:    network.NewSecureHTTPClient(timeout),
		UserAgent: "firmware-selector",
	}
}

// Fetch returns the body of url. Non-200 responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > maxIndexSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", url, maxIndexSize)
	}
	return data, nil
}

// Download names the local file an URL is stored under.
type Download struct {
	URL  string
	Name string
}

// FetchToDir downloads the given files into destDir using a pool of workers.
// It shows a single progress bar on progress (nil disables it) tracking files
// completed vs total. Every download is attempted; failures are joined.
func (f *Fetcher) FetchToDir(ctx context.Context, downloads []Download, destDir string, workers int, progress io.Writer) error {
	log := logger.Logger()

	if workers < 1 {
		workers = 1
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", destDir, err)
	}

	total := len(downloads)
	jobs := make(chan Download, total)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  []error
		barMu sync.Mutex
	)

	var bar *progressbar.ProgressBar
	if progress != nil {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	// start worker goroutines
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				if bar != nil {
					// Describe does not lock the bar
					barMu.Lock()
					bar.Describe(fmt.Sprintf("downloading %s", d.Name))
					barMu.Unlock()
				}

				err := func() error {
					data, err := f.Fetch(ctx, d.URL)
					if err != nil {
						return err
					}
					return os.WriteFile(filepath.Join(destDir, filepath.Base(d.Name)), data, 0644)
				}()

				if err != nil {
					log.Errorf("downloading %s failed: %v", d.URL, err)
					mu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", d.URL, err))
					mu.Unlock()
				}
				if bar != nil {
					barMu.Lock()
					bar.Add(1)
					barMu.Unlock()
				}
			}
		}()
	}

	// enqueue jobs
	for _, d := range downloads {
		jobs <- d
	}
	close(jobs)

	wg.Wait()
	if bar != nil {
		bar.Finish()
	}
	return errors.Join(errs...)
}
