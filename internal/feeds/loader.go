package feeds

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/pkgindex"
	"github.com/open-edge-platform/firmware-selector/internal/profile"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// Status is the load state of a feed.
type Status string

const (
	StatusPending Status = "pending"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// Descriptor tracks one feed of a load.
type Descriptor struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Status  Status    `json:"status"`
	Records int       `json:"records"`
	Updated time.Time `json:"updated"`
	Error   string    `json:"error,omitempty"`
	Err     error     `json:"-"`
}

// Result is the outcome of loading the feeds of one device.
type Result struct {
	Feeds []Descriptor
	Index *pkgindex.Index
}

// Failed returns the descriptors of feeds that did not load.
func (r *Result) Failed() []Descriptor {
	var out []Descriptor
	for _, d := range r.Feeds {
		if d.Status == StatusError {
			out = append(out, d)
		}
	}
	return out
}

// Loader fetches and decodes feeds concurrently.
type Loader struct {
	Fetcher profile.Fetcher
	// Workers bounds concurrent feeds; zero or less means one task per feed.
	Workers int
	// Report, when set, collects every fetched URL.
	Report *logger.StringListReport
	// OnSettled is called once per feed as it finishes. Calls never overlap,
	// so the callback may touch caller state without locking.
	OnSettled func(Descriptor)
}

// NewLoader returns a Loader using fetcher.
func NewLoader(fetcher profile.Fetcher, workers int) *Loader {
	return &Loader{Fetcher: fetcher, Workers: workers}
}

// Load fetches every feed and merges the records in feed order. A failing
// feed is recorded on its descriptor and contributes no records; it never
// stops the others. Load returns once every feed has settled.
func (l *Loader) Load(ctx context.Context, feeds []Feed) *Result {
	log := logger.Logger()

	descriptors := make([]Descriptor, len(feeds))
	records := make([][]ospackage.PackageInfo, len(feeds))
	for i, f := range feeds {
		descriptors[i] = Descriptor{Name: f.Name, URL: f.URL, Status: StatusPending}
	}

	var (
		g        errgroup.Group
		settleMu sync.Mutex
	)
	if l.Workers > 0 {
		g.SetLimit(l.Workers)
	}
	for i := range feeds {
		// each task writes only descriptors[i] and records[i]
		g.Go(func() error {
			d := &descriptors[i]
			pkgs, err := l.loadFeed(ctx, d)
			d.Updated = time.Now()
			if err != nil {
				log.Warnf("feed %s dropped: %v", d.Name, err)
				d.Status = StatusError
				d.Err = err
				d.Error = err.Error()
			} else {
				log.Debugf("feed %s: %d records", d.Name, len(pkgs))
				d.Status = StatusLoaded
				d.Records = len(pkgs)
				records[i] = pkgs
			}
			if l.OnSettled != nil {
				settleMu.Lock()
				l.OnSettled(*d)
				settleMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	idx := pkgindex.New()
	for _, pkgs := range records {
		idx.Add(pkgs...)
	}

	res := &Result{Feeds: descriptors, Index: idx}
	log.Infof("loaded %d records from %d feeds (%d failed)", idx.Len(), len(feeds), len(res.Failed()))
	return res
}

func (l *Loader) loadFeed(ctx context.Context, d *Descriptor) ([]ospackage.PackageInfo, error) {
	if l.Report != nil {
		l.Report.Add(d.URL)
	}
	data, err := l.Fetcher.Fetch(ctx, d.URL)
	if err != nil {
		return nil, err
	}
	return pkgindex.ParseFeed(d.URL, data, d.Name)
}
