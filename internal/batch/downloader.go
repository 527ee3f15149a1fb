// Package batch fans many URL fetches out under the shared gate, persists
// the bodies, and joins on every item before returning.
package batch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hncrawl/hncrawl/internal/fetch"
	"github.com/hncrawl/hncrawl/internal/storage"
)

// Item is one logical unit of a batch: an identifier plus the URL to fetch.
type Item struct {
	ID  string
	URL string
}

// Result pairs an item with its terminal outcome. Path is set only when the
// body was fetched and written; it is relative to the store root.
type Result struct {
	ID          string
	Path        string
	ContentHash string
	Outcome     fetch.Outcome
}

// Aggregate sums a batch's counters.
type Aggregate struct {
	Count     int
	OKCount   int
	TotalTime time.Duration
	TotalSize int
}

// Merge folds another aggregate into this one.
func (a *Aggregate) Merge(other Aggregate) {
	a.Count += other.Count
	a.OKCount += other.OKCount
	a.TotalTime += other.TotalTime
	a.TotalSize += other.TotalSize
}

// Downloader downloads batches through a Fetcher and persists bodies through
// a Store.
type Downloader struct {
	fetcher *fetch.Fetcher
	store   storage.Store
	logger  *zap.Logger
}

// NewDownloader wires a Downloader.
func NewDownloader(fetcher *fetch.Fetcher, store storage.Store, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{fetcher: fetcher, store: store, logger: logger}
}

// DownloadAll fetches every item concurrently and returns once all of them
// have a terminal outcome. The result slice matches the input order; no item
// failure aborts its siblings. Aggregates cover every fetch attempt,
// successful or not.
func (d *Downloader) DownloadAll(
	ctx context.Context,
	items []Item,
	destDir string,
	namePrefix string,
	timeout time.Duration,
) ([]Result, Aggregate) {
	results := make([]Result, len(items))

	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			results[i] = d.downloadOne(ctx, item, destDir, namePrefix, timeout)
			return nil
		})
	}
	// Full join: every slot is terminal before we return.
	_ = g.Wait()

	agg := Aggregate{Count: len(items)}
	for _, res := range results {
		if res.Outcome.OK() {
			agg.OKCount++
		}
		agg.TotalTime += res.Outcome.Elapsed
		agg.TotalSize += res.Outcome.ByteCount
	}
	return results, agg
}

func (d *Downloader) downloadOne(ctx context.Context, item Item, destDir, namePrefix string, timeout time.Duration) Result {
	res := Result{ID: item.ID}
	res.Outcome = d.fetcher.FetchWithTimeout(ctx, item.URL, timeout)
	if !res.Outcome.OK() {
		return res
	}

	name := storage.FileName(namePrefix, item.URL, res.Outcome.ContentType)
	path := filepath.Join(destDir, name)
	if err := d.store.WriteFile(path, res.Outcome.Body); err != nil {
		// Local write failure: the item fails, the batch does not.
		res.Outcome.Status = fetch.StatusIOError
		res.Outcome.Detail = err.Error()
		d.logger.Error("persist body failed",
			zap.String("url", item.URL),
			zap.String("path", path),
			zap.Error(err),
		)
		return res
	}

	res.Path = path
	res.ContentHash = fmt.Sprintf("%x", sha256.Sum256(res.Outcome.Body))
	d.logger.Debug("body saved",
		zap.String("url", item.URL),
		zap.String("path", path),
		zap.Int("bytes", res.Outcome.ByteCount),
		zap.String("sha256", res.ContentHash),
	)
	return res
}
