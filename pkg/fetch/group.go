package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// defaultParallelism bounds a download batch when the caller does not.
const defaultParallelism = 4

// Item is one download in a batch. SHA256 is optional; when set the
// download is verified.
type Item struct {
	URL    string
	Dest   string
	SHA256 string
}

// DownloadAll fetches items concurrently, at most maxParallel at a time.
// The first failure cancels the remaining transfers and is returned.
func (f *Fetcher) DownloadAll(ctx context.Context, items []Item, maxParallel int) error {
	if maxParallel <= 0 {
		maxParallel = defaultParallelism
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for _, item := range items {
		item := item
		g.Go(func() error {
			if item.SHA256 != "" {
				return f.DownloadVerified(gctx, item.URL, item.Dest, item.SHA256)
			}
			return f.Download(gctx, item.URL, item.Dest)
		})
	}

	return g.Wait()
}
