package release

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/fetch"
	"github.com/matter-labs/zksync-os-scripts/pkg/pipeline"
	"github.com/matter-labs/zksync-os-scripts/pkg/toolchain"
)

// ProverParams configures the update-prover flow, which refreshes the
// prover binaries committed to the server repository.
type ProverParams struct {
	// Release selects the protocol release pins, e.g. "v31.0".
	Release string `validate:"required"`

	// Tag is the zksync-os release tag whose assets are fetched.
	Tag string `validate:"required"`

	// ReleasesURL overrides the repository the assets are fetched from.
	ReleasesURL string

	// Assets lists the release assets to fetch. Defaults to the
	// multiblock batch binary.
	Assets []string
}

func (p *ProverParams) setDefaults() {
	if p.ReleasesURL == "" {
		p.ReleasesURL = ZKsyncOSReleasesURL
	}
	if len(p.Assets) == 0 {
		p.Assets = []string{"multiblock_batch.bin"}
	}
}

// UpdateProver downloads the prover assets of a tagged zksync-os release,
// copies them into the server repository, and pins the release's proving
// version in the server sources.
func UpdateProver(params ProverParams) pipeline.Flow {
	return func(ctx context.Context, rc *pipeline.RunContext) error {
		params.setDefaults()
		if err := validateParams(params); err != nil {
			return err
		}
		pins, err := releasePins(toolchain.ComponentZKsyncOS, params.Release)
		if err != nil {
			return err
		}

		p := newProcedure(rc)
		return p.updateProver(ctx, params, pins)
	}
}

func (p *procedure) updateProver(ctx context.Context, params ProverParams, pins toolchain.Pins) error {
	items := make([]fetch.Item, 0, len(params.Assets))
	for _, asset := range params.Assets {
		items = append(items, fetch.Item{
			URL:  fmt.Sprintf("%s/releases/download/%s/%s", params.ReleasesURL, params.Tag, asset),
			Dest: filepath.Join(p.rc.Workspace, asset),
		})
	}

	err := p.rc.Section(ctx, "Download ZKsync OS binary", 20*time.Second, func(ctx context.Context) error {
		return p.fetcher.DownloadAll(ctx, items, 0)
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Copy binary to repository", 5*time.Second, func(context.Context) error {
		for _, asset := range params.Assets {
			src := filepath.Join(p.rc.Workspace, asset)
			if err := fetch.CopyFile(src, filepath.Join(p.rc.RepoDir, asset)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	target := filepath.Join(p.rc.RepoDir, "lib", "types", "src", "protocol", "proving_version.rs")
	return p.rc.Section(ctx, "Update proving version", 5*time.Second, func(context.Context) error {
		p.log.Infof("Pinning proving version %d", pins.ProvingVersion)
		return p.patchIntConst(target, "PROVING_VERSION", strconv.Itoa(pins.ProvingVersion))
	})
}
