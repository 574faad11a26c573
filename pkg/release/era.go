package release

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/pipeline"
	"github.com/matter-labs/zksync-os-scripts/pkg/shell"
	"github.com/matter-labs/zksync-os-scripts/pkg/toolchain"
)

// EraParams configures the flows operating on a zksync-era checkout.
type EraParams struct {
	// Release selects the era release pins, e.g. "v30".
	Release string `validate:"required"`

	// BellmanCudaDir is an existing bellman-cuda checkout built for this
	// machine. When empty the repository is cloned into the workspace and
	// built there.
	BellmanCudaDir string
}

// SetupKeysManifest records where one generation of GPU setup keys lives.
// It is committed to the era repository; provers locate their keys through it.
type SetupKeysManifest struct {
	SHA    string `json:"sha"`
	US     string `json:"us"`
	Europe string `json:"europe"`
	Asia   string `json:"asia"`
}

// EraUpdateVK regenerates the era verification keys and GPU setup data,
// writes the bucket manifest, and replicates the keys to the regional
// storage buckets.
func EraUpdateVK(params EraParams) pipeline.Flow {
	return func(ctx context.Context, rc *pipeline.RunContext) error {
		if err := validateParams(params); err != nil {
			return err
		}
		pins, err := releasePins(toolchain.ComponentEra, params.Release)
		if err != nil {
			return err
		}

		p := newProcedure(rc)
		return p.eraUpdateVK(ctx, params, pins)
	}
}

func (p *procedure) eraUpdateVK(ctx context.Context, params EraParams, pins toolchain.Pins) error {
	if err := toolchain.Verify(ctx, p.sh, p.log, pins); err != nil {
		return err
	}

	repo := p.rc.RepoDir

	var bellmanCuda string
	err := p.rc.Section(ctx, "Prepare bellman-cuda", 300*time.Second, func(ctx context.Context) error {
		dir, err := p.prepareBellmanCuda(ctx, params.BellmanCudaDir)
		bellmanCuda = dir
		return err
	})
	if err != nil {
		return err
	}

	keyGenerator := filepath.Join(repo, "prover", "target", "release", "key_generator")
	err = p.rc.Section(ctx, "Build key_generator binary", 120*time.Second, func(ctx context.Context) error {
		manifest := filepath.Join(repo,
			"prover", "crates", "bin", "vk_setup_data_generator_server_fri", "Cargo.toml")
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{
				"cargo", "build", "--features", "gpu", "--release",
				"--bin", "key_generator",
				"--manifest-path", manifest,
			},
			Dir: repo,
			Env: map[string]string{"BELLMAN_CUDA_DIR": bellmanCuda},
		})
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Generate verification keys", 300*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{keyGenerator, "generate-vk", "--path", "./prover/data/keys"},
			Dir:  repo,
		})
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Generate base layer setup data", 300*time.Second, func(ctx context.Context) error {
		for _, circuit := range setupCircuits(19) {
			err := p.sh.Run(ctx, shell.Command{
				Argv: []string{keyGenerator, "generate-sk-gpu", "basic", "--numeric-circuit", strconv.Itoa(circuit)},
				Dir:  repo,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Generate recursive layer setup data", 300*time.Second, func(ctx context.Context) error {
		for _, circuit := range setupCircuits(22) {
			err := p.sh.Run(ctx, shell.Command{
				Argv: []string{keyGenerator, "generate-sk-gpu", "recursive", "--numeric-circuit", strconv.Itoa(circuit)},
				Dir:  repo,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Generate compressor data", 300*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{keyGenerator, "generate-compressor-data"},
			Dir:  repo,
		})
	})
	if err != nil {
		return err
	}

	shortSHA, err := p.shortSHA(ctx, repo)
	if err != nil {
		return err
	}
	manifest := setupKeysManifest(shortSHA)

	err = p.rc.Section(ctx, "Generate json for paths", 5*time.Second, func(context.Context) error {
		data, err := json.MarshalIndent(manifest, "", "    ")
		if err != nil {
			return fmt.Errorf("failed to encode setup keys manifest: %w", err)
		}
		return os.WriteFile(filepath.Join(repo, "prover", "setup-data-gpu-keys.json"), data, 0o644)
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Upload data to GCP", 300*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{"gsutil", "-m", "rsync", "./prover/data/keys", manifest.US},
			Dir:  repo,
		})
	})
	if err != nil {
		return err
	}

	return p.rc.Section(ctx, "Replicate US -> asia/europe", 300*time.Second, func(ctx context.Context) error {
		for _, region := range []string{manifest.Asia, manifest.Europe} {
			err := p.sh.Run(ctx, shell.Command{
				Argv: []string{"gsutil", "-m", "rsync", "-r", manifest.US, region},
				Dir:  repo,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// EraCheckVK regenerates the reference keys the era verification key
// regression checker compares against.
func EraCheckVK(params EraParams) pipeline.Flow {
	return func(ctx context.Context, rc *pipeline.RunContext) error {
		if err := validateParams(params); err != nil {
			return err
		}
		pins, err := releasePins(toolchain.ComponentEra, params.Release)
		if err != nil {
			return err
		}

		p := newProcedure(rc)
		return p.eraCheckVK(ctx, pins)
	}
}

func (p *procedure) eraCheckVK(ctx context.Context, pins toolchain.Pins) error {
	if err := toolchain.Verify(ctx, p.sh, p.log, pins.Select("cargo")); err != nil {
		return err
	}

	repo := p.rc.RepoDir

	err := p.rc.Section(ctx, "Build vk checker binary", 120*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{"cargo", "build", "-p", "vk_regression_checker", "--release"},
			Dir:  repo,
		})
	})
	if err != nil {
		return err
	}

	return p.rc.Section(ctx, "Run vk checker", 120*time.Second, func(ctx context.Context) error {
		checker := filepath.Join(repo, "target", "release", "vk_regression_checker")
		keysDir := filepath.Join(repo, "crates", "vk_regression_checker", "reference")
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{checker, "generate", "--keys-dir", keysDir, "--jobs", "1"},
			Dir:  repo,
		})
	})
}

// prepareBellmanCuda returns a built bellman-cuda checkout, cloning and
// building one under the workspace when the caller has none.
func (p *procedure) prepareBellmanCuda(ctx context.Context, dir string) (string, error) {
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return "", fmt.Errorf("bellman-cuda dir not found: %s", dir)
		}
		return dir, nil
	}

	dir = filepath.Join(p.rc.Workspace, "bellman-cuda")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err := p.sh.Run(ctx, shell.Command{
			Argv: []string{"git", "clone", BellmanCudaURL, dir},
		})
		if err != nil {
			return "", err
		}
	}

	err := p.sh.Run(ctx, shell.Command{
		Argv: []string{"cmake", "-B", filepath.Join(dir, "build"), "-S", dir, "-DCMAKE_BUILD_TYPE=Release"},
	})
	if err != nil {
		return "", err
	}
	err = p.sh.Run(ctx, shell.Command{
		Argv: []string{"cmake", "--build", filepath.Join(dir, "build")},
	})
	if err != nil {
		return "", err
	}
	return dir, nil
}

// setupCircuits lists the numeric circuit ids of one key family: 1 through
// last plus the 255 scheduler circuit.
func setupCircuits(last int) []int {
	ids := make([]int, 0, last+1)
	for i := 1; i <= last; i++ {
		ids = append(ids, i)
	}
	return append(ids, 255)
}

// setupKeysManifest derives the bucket layout for one commit's setup keys.
func setupKeysManifest(shortSHA string) SetupKeysManifest {
	sha := shortSHA + "-gpu"
	return SetupKeysManifest{
		SHA:    sha,
		US:     fmt.Sprintf("%s/%s/", setupBucketUS, sha),
		Europe: fmt.Sprintf("%s/%s/", setupBucketEurope, sha),
		Asia:   fmt.Sprintf("%s/%s/", setupBucketAsia, sha),
	}
}

// shortSHA resolves the abbreviated commit hash of the checkout at dir.
func (p *procedure) shortSHA(ctx context.Context, dir string) (string, error) {
	out, err := p.sh.Output(ctx, shell.Command{
		Argv:  []string{"git", "rev-parse", "--short", "HEAD"},
		Dir:   dir,
		Quiet: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository commit: %w", err)
	}
	return strings.TrimSpace(out), nil
}
