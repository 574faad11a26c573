// Package release implements the protocol release procedures as pipeline
// flows: local server state regeneration, prover asset updates, verification
// key rotation, and the era setup-key pipeline. Each flow is a sequence of
// sections driving external tools over a target repository checkout.
package release

import (
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/matter-labs/zksync-os-scripts/pkg/fetch"
	"github.com/matter-labs/zksync-os-scripts/pkg/patch"
	"github.com/matter-labs/zksync-os-scripts/pkg/pipeline"
	"github.com/matter-labs/zksync-os-scripts/pkg/shell"
	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
	"github.com/matter-labs/zksync-os-scripts/pkg/toolchain"
)

// procedure bundles the run-scoped collaborators of one flow invocation.
type procedure struct {
	rc        *pipeline.RunContext
	sh        *shell.Shell
	fetcher   *fetch.Fetcher
	engine    *patch.Engine
	intEngine *patch.Engine
	log       *telemetry.Logger
	metrics   *telemetry.Metrics
}

func newProcedure(rc *pipeline.RunContext) *procedure {
	tel := rc.Telemetry
	return &procedure{
		rc: rc,
		sh: shell.New(shell.Options{
			Logger:  tel.Logger,
			Metrics: tel.Metrics,
			Tracer:  tel.Tracer,
			Verbose: rc.Verbose,
		}),
		fetcher: fetch.New(fetch.Options{
			Logger:  tel.Logger,
			Metrics: tel.Metrics,
		}),
		engine:    patch.NewEngine(patch.NewRustConstLocator()),
		intEngine: patch.NewEngine(patch.NewRustIntConstLocator()),
		log:       tel.Logger,
		metrics:   tel.Metrics,
	}
}

// tmpDir returns the run's scratch directory under the workspace.
func (p *procedure) tmpDir() string {
	return filepath.Join(p.rc.Workspace, "tmp")
}

// releasePins resolves the toolchain pins for one component release.
func releasePins(component, rel string) (toolchain.Pins, error) {
	m, err := toolchain.Load()
	if err != nil {
		return toolchain.Pins{}, err
	}
	return m.Release(component, rel)
}

// validateParams rejects a flow's parameters before any section runs.
func validateParams(params interface{}) error {
	if err := validator.New().Struct(params); err != nil {
		return fmt.Errorf("invalid flow parameters: %w", err)
	}
	return nil
}

// patchConst rewrites one Rust string constant and counts the operation.
func (p *procedure) patchConst(path, name, value string) error {
	err := p.engine.UpdateDeclaration(path, name, value)
	p.metrics.RecordPatch("update_declaration", patchStatus(err))
	return err
}

// patchIntConst rewrites one Rust integer constant and counts the operation.
func (p *procedure) patchIntConst(path, name, value string) error {
	err := p.intEngine.UpdateDeclaration(path, name, value)
	p.metrics.RecordPatch("update_declaration", patchStatus(err))
	return err
}

// upsertHashBlock rewrites or inserts one VK hash block and counts the
// operation.
func (p *procedure) upsertHashBlock(path string, index int, hash, comment string) error {
	err := p.engine.UpsertHashBlock(path, index, hash, comment)
	p.metrics.RecordPatch("upsert_hash_block", patchStatus(err))
	return err
}

func patchStatus(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// weiHex returns the 0x-hex encoding of eth whole ether in wei, the format
// anvil_setBalance takes.
func weiHex(eth int64) string {
	wei := new(big.Int).Mul(big.NewInt(eth), big.NewInt(1_000_000_000_000_000_000))
	return "0x" + wei.Text(16)
}
