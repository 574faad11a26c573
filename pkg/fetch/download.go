package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
)

// Fetcher downloads release artifacts into the workspace.
type Fetcher struct {
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	client  *http.Client
}

// Options configures a Fetcher. The default client has no overall timeout;
// large artifacts are bounded by the caller's context instead.
type Options struct {
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
	Client  *http.Client
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Logger == nil {
		opts.Logger = telemetry.FromContext(context.Background())
	}
	if opts.Metrics == nil {
		opts.Metrics = &telemetry.Metrics{}
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	return &Fetcher{
		log:     opts.Logger,
		metrics: opts.Metrics,
		client:  opts.Client,
	}
}

// Download fetches url into dest unless dest already exists. The transfer
// goes through a sibling .tmp file and is renamed into place only when
// complete; an interrupted download never leaves a truncated dest.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		f.log.Infof("Already present: %s", filepath.Base(dest))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	f.log.Infof("Downloading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.RecordDownload("failure", 0)
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.metrics.RecordDownload("failure", 0)
		return fmt.Errorf("unexpected status %s for %s", resp.Status, url)
	}

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		os.Remove(tmp)
		f.metrics.RecordDownload("failure", n)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		f.metrics.RecordDownload("failure", n)
		return fmt.Errorf("failed to finish %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", dest, err)
	}

	f.metrics.RecordDownload("success", n)
	f.log.Infof("Downloaded %s (%.1f MB)", filepath.Base(dest), float64(n)/(1024*1024))
	return nil
}

// VerifySHA256 checks that the file at path hashes to wantHex.
func VerifySHA256(path, wantHex string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	got := fmt.Sprintf("%x", hash.Sum(nil))
	if !strings.EqualFold(got, wantHex) {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", path, got, wantHex)
	}
	return nil
}

// DownloadVerified fetches url into dest and verifies its SHA-256. A
// pre-existing dest that already verifies is kept; one that does not is
// discarded and fetched again. A fresh download that still fails
// verification is removed and reported.
func (f *Fetcher) DownloadVerified(ctx context.Context, url, dest, sha256Hex string) error {
	if _, err := os.Stat(dest); err == nil {
		if err := VerifySHA256(dest, sha256Hex); err == nil {
			f.log.Infof("Already present and verified: %s", filepath.Base(dest))
			return nil
		}
		f.log.Warnf("Discarding corrupt %s", filepath.Base(dest))
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove corrupt %s: %w", dest, err)
		}
	}

	if err := f.Download(ctx, url, dest); err != nil {
		return err
	}
	if err := VerifySHA256(dest, sha256Hex); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
