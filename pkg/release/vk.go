package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/fetch"
	"github.com/matter-labs/zksync-os-scripts/pkg/pipeline"
	"github.com/matter-labs/zksync-os-scripts/pkg/shell"
	"github.com/matter-labs/zksync-os-scripts/pkg/toolchain"
)

// VKParams configures the update-vk flow, which regenerates the SNARK
// verification key and the verifier contracts in an era-contracts checkout.
type VKParams struct {
	// Release selects the protocol release pins, e.g. "v31.0".
	Release string `validate:"required"`

	// WrapperDir is a local zkos-wrapper checkout.
	WrapperDir string `validate:"required,dir"`

	// Tag is the zksync-os release tag whose prover binary seeds the key.
	Tag string `validate:"required"`

	// ReleasesURL overrides the repository the binary is fetched from.
	ReleasesURL string
}

func (p *VKParams) setDefaults() {
	if p.ReleasesURL == "" {
		p.ReleasesURL = ZKsyncOSReleasesURL
	}
}

// UpdateVK regenerates the SNARK verification key from a tagged prover
// binary and the trusted setup, rebuilds the verifier contracts from it,
// and recomputes the contract test hashes.
func UpdateVK(params VKParams) pipeline.Flow {
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
		return p.updateVK(ctx, params, pins)
	}
}

func (p *procedure) updateVK(ctx context.Context, params VKParams, pins toolchain.Pins) error {
	if err := toolchain.Verify(ctx, p.sh, p.log, pins.Select("cargo")); err != nil {
		return err
	}

	repo := p.rc.RepoDir
	tmp := p.tmpDir()
	setupKey := filepath.Join(tmp, "setup.key")
	batchBin := filepath.Join(tmp, "multiblock_batch.bin")

	err := p.rc.Section(ctx, "Download CRS file", 30*time.Second, func(ctx context.Context) error {
		return p.fetcher.DownloadVerified(ctx, CRSFileURL, setupKey, CRSFileSHA256)
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Download ZKsync OS binary", time.Second, func(ctx context.Context) error {
		url := fmt.Sprintf("%s/releases/download/%s/multiblock_batch.bin", params.ReleasesURL, params.Tag)
		return p.fetcher.Download(ctx, url, batchBin)
	})
	if err != nil {
		return err
	}

	vkFile := filepath.Join(tmp, "snark_vk_expected.json")
	err = p.rc.Section(ctx, "Generate SNARK VK", 430*time.Second, func(ctx context.Context) error {
		// The generator refuses to overwrite; clear any previous run's key.
		if err := os.Remove(vkFile); err != nil && !os.IsNotExist(err) {
			return err
		}
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{
				"cargo", "run", "--bin", "wrapper", "--release", "--",
				"generate-snark-vk",
				"--input-binary", batchBin,
				"--trusted-setup-file", setupKey,
				"--output-dir", tmp,
			},
			Dir: params.WrapperDir,
		})
	})
	if err != nil {
		return err
	}

	verifierGen := filepath.Join(repo, "tools", "verifier-gen")
	err = p.rc.Section(ctx, "Copy VK and generate verifier contracts", 170*time.Second, func(ctx context.Context) error {
		dest := filepath.Join(verifierGen, "data", "ZKsyncOS_plonk_scheduler_key.json")
		if err := fetch.CopyFile(vkFile, dest); err != nil {
			return err
		}

		err := p.sh.Run(ctx, shell.Command{
			Argv: []string{
				"cargo", "run", "--bin", "zksync_verifier_contract_generator",
				"--release", "--", "--variant", "zksync-os",
			},
			Dir: verifierGen,
		})
		if err != nil {
			return err
		}

		verifiers := filepath.Join(repo, "l1-contracts", "contracts", "state-transition", "verifiers")
		for _, contract := range []string{"ZKsyncOSVerifierPlonk.sol", "ZKsyncOSVerifierFflonk.sol"} {
			src := filepath.Join(verifierGen, "data", contract)
			if err := fetch.CopyFile(src, filepath.Join(verifiers, contract)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return p.rc.Section(ctx, "Update test hashes", 120*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{"bash", filepath.Join(repo, "recompute_hashes.sh")},
			Dir:  repo,
		})
	})
}
