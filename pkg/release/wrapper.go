package release

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/fetch"
	"github.com/matter-labs/zksync-os-scripts/pkg/pipeline"
	"github.com/matter-labs/zksync-os-scripts/pkg/shell"
	"github.com/matter-labs/zksync-os-scripts/pkg/toolchain"
)

// WrapperParams configures the update-wrapper flow, which rebuilds the
// wrapper circuits and committed test data of a zkos-wrapper checkout.
type WrapperParams struct {
	// Release selects the protocol release pins, e.g. "v31.0".
	Release string `validate:"required"`

	// AirbenderDir is a local zksync-airbender checkout.
	AirbenderDir string `validate:"required,dir"`
}

// UpdateWrapper rebuilds the wrapper circuit generator, regenerates the
// fibonacci SNARK proof the wrapper tests consume, and reruns the full
// layer test to refresh the committed test data.
func UpdateWrapper(params WrapperParams) pipeline.Flow {
	return func(ctx context.Context, rc *pipeline.RunContext) error {
		if err := validateParams(params); err != nil {
			return err
		}
		pins, err := releasePins(toolchain.ComponentZKsyncOS, params.Release)
		if err != nil {
			return err
		}

		p := newProcedure(rc)
		return p.updateWrapper(ctx, params, pins)
	}
}

func (p *procedure) updateWrapper(ctx context.Context, params WrapperParams, pins toolchain.Pins) error {
	if err := toolchain.Verify(ctx, p.sh, p.log, pins.Select("cargo")); err != nil {
		return err
	}

	repo := p.rc.RepoDir
	tmp := p.tmpDir()

	err := p.rc.Section(ctx, "Building wrapper", 10*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{"cargo", "run", "--release", "--bin", "wrapper_generator"},
			Dir:  repo,
		})
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Generating fibonacci SNARK proof", 285*time.Second, func(ctx context.Context) error {
		err := p.sh.Run(ctx, shell.Command{
			Argv: []string{
				"cargo", "run", "-p", "cli", "--release", "prove",
				"--bin", "examples/hashed_fibonacci/app.bin",
				"--input-file", "examples/hashed_fibonacci/input.txt",
				"--until", "final-proof",
				"--output-dir", tmp,
			},
			Dir: params.AirbenderDir,
		})
		if err != nil {
			return err
		}

		dest := filepath.Join(repo, "wrapper", "testing_data", "risc_proof")
		if info, err := os.Stat(dest); err == nil && info.IsDir() {
			dest = filepath.Join(dest, "final_program_proof.json")
		}
		return fetch.CopyFile(filepath.Join(tmp, "final_program_proof.json"), dest)
	})
	if err != nil {
		return err
	}

	return p.rc.Section(ctx, "Updating test data", 1300*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{"cargo", "test", "--release", "all_layers_full_test", "--", "--nocapture"},
			Dir:  repo,
			Env:  map[string]string{"RUST_MIN_STACK": "67108864"},
		})
	})
}
