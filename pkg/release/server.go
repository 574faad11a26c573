package release

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/fetch"
	"github.com/matter-labs/zksync-os-scripts/pkg/pipeline"
	"github.com/matter-labs/zksync-os-scripts/pkg/shell"
	"github.com/matter-labs/zksync-os-scripts/pkg/toolchain"
	"github.com/matter-labs/zksync-os-scripts/pkg/zkstack"
)

// ServerParams configures the update-server flow, which regenerates the
// local chain state committed to the server repository for one protocol
// release.
type ServerParams struct {
	// Release selects the protocol release pins, e.g. "v31.0".
	Release string `validate:"required"`

	// EraContractsDir is a local era-contracts checkout.
	EraContractsDir string `validate:"required,dir"`

	// ZKsyncEraDir is a local zksync-era checkout providing zkstack.
	ZKsyncEraDir string `validate:"required,dir"`

	// Ecosystem names the generated ecosystem; Chains lists its chain ids.
	Ecosystem string
	Chains    []string

	// ConstantsFile, when set, is a Rust source file in the server repo
	// whose contract address and operator key constants are patched from
	// the first chain's deployment.
	ConstantsFile string

	// Tags records which dependency versions produced the verification key.
	Tags ProvenanceTags
}

func (p *ServerParams) setDefaults() {
	if p.Ecosystem == "" {
		p.Ecosystem = "multi_chain"
	}
	if len(p.Chains) == 0 {
		p.Chains = []string{"6565", "6566"}
	}
}

// UpdateServer builds the contracts and zkstack CLI, regenerates genesis
// for the release's execution version, deploys a scripted ecosystem against
// a dev anvil whose final state is dumped into the repo, and records the
// fresh verification key hash in the server sources.
func UpdateServer(params ServerParams) pipeline.Flow {
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
		return p.updateServer(ctx, params, pins)
	}
}

func (p *procedure) updateServer(ctx context.Context, params ServerParams, pins toolchain.Pins) error {
	if err := toolchain.Verify(ctx, p.sh, p.log, pins); err != nil {
		return err
	}

	repo := p.rc.RepoDir
	eraContracts := params.EraContractsDir

	if pins.PrebuildZKstackContracts {
		zkstackContracts := filepath.Join(params.ZKsyncEraDir, "contracts")
		err := p.rc.Section(ctx, "Build contracts in zkstack", 120*time.Second, func(ctx context.Context) error {
			return p.buildContracts(ctx, zkstackContracts)
		})
		if err != nil {
			return err
		}
	}

	err := p.rc.Section(ctx, "Build contracts", 120*time.Second, func(ctx context.Context) error {
		return p.buildContracts(ctx, eraContracts)
	})
	if err != nil {
		return err
	}

	err = p.rc.Section(ctx, "Build zkstack CLI", 100*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{"cargo", "build", "--release", "--bin", "zkstack"},
			Dir:  filepath.Join(params.ZKsyncEraDir, "zkstack_cli"),
		})
	})
	if err != nil {
		return err
	}

	genesisFile := filepath.Join(repo, "local-chains", params.Release, "genesis.json")
	err = p.rc.Section(ctx, "Generate genesis.json", 60*time.Second, func(ctx context.Context) error {
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{
				"cargo", "run", "--",
				"--output-file", genesisFile,
				"--execution-version", strconv.Itoa(pins.ExecutionVersion),
			},
			Dir: filepath.Join(eraContracts, "tools", "zksync-os-genesis-gen"),
		})
	})
	if err != nil {
		return err
	}

	if err := p.initEcosystem(ctx, params, params.Ecosystem, params.Chains); err != nil {
		return err
	}

	verifier := filepath.Join(eraContracts,
		"l1-contracts", "contracts", "state-transition", "verifiers", "ZKsyncOSVerifierPlonk.sol")
	target := filepath.Join(repo, "lib", "types", "src", "protocol", "proving_version.rs")
	err = p.rc.Section(ctx, "Update VK hash", 5*time.Second, func(context.Context) error {
		return p.updateVKHash(target, verifier, pins.ProvingVersion, params.Tags)
	})
	if err != nil {
		return err
	}

	if params.ConstantsFile != "" {
		base := filepath.Join(repo, "local-chains", params.Release, params.Ecosystem)
		suffix := chainSuffix(params.Ecosystem, params.Chains[0])
		err = p.rc.Section(ctx, "Patch server constants", 5*time.Second, func(context.Context) error {
			contractsYaml := filepath.Join(base, "contracts"+suffix+".yaml")
			if err := p.updateContractConstants(params.ConstantsFile, contractsYaml); err != nil {
				return err
			}
			return p.updateOperatorConstants(params.ConstantsFile, filepath.Join(base, "wallets"+suffix+".yaml"))
		})
		if err != nil {
			return err
		}
	}

	l1Contracts := filepath.Join(eraContracts, "l1-contracts")
	return p.rc.Section(ctx, "Regenerate contracts.json", 30*time.Second, func(ctx context.Context) error {
		if err := p.sh.Run(ctx, shell.Command{Argv: []string{"yarn", "install"}, Dir: l1Contracts}); err != nil {
			return err
		}
		return p.sh.Run(ctx, shell.Command{
			Argv: []string{
				"yarn", "write-factory-deps-zksync-os",
				"--output", filepath.Join(repo, "lib", "l1_watcher", "src", "factory_deps", "contracts.json"),
			},
			Dir: l1Contracts,
		})
	})
}

// buildContracts runs the yarn foundry builds of an era-contracts style
// checkout.
func (p *procedure) buildContracts(ctx context.Context, dir string) error {
	if err := p.sh.Run(ctx, shell.Command{Argv: []string{"yarn", "install"}, Dir: dir}); err != nil {
		return err
	}
	for _, sub := range []string{"da-contracts", "l1-contracts"} {
		err := p.sh.Run(ctx, shell.Command{
			Argv: []string{"yarn", "build:foundry"},
			Dir:  filepath.Join(dir, sub),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// initEcosystem creates the named ecosystem and its chains, then deploys
// them against a dev anvil whose final state is dumped into the repo's
// local-chains tree.
func (p *procedure) initEcosystem(ctx context.Context, params ServerParams, name string, chains []string) error {
	repo := p.rc.RepoDir
	zkstackBin := filepath.Join(params.ZKsyncEraDir, "zkstack_cli", "target", "release", "zkstack")
	ecosystemsDir := filepath.Join(p.rc.Workspace, "ecosystems")
	ecosystemDir := filepath.Join(ecosystemsDir, name)
	protocolBase := filepath.Join(repo, "local-chains", params.Release)
	defaultBase := filepath.Join(protocolBase, "default")
	base := filepath.Join(protocolBase, name)

	err := p.rc.Section(ctx, fmt.Sprintf("Initialize %s ecosystem", name), 120*time.Second, func(ctx context.Context) error {
		if err := fetch.CleanDir(ecosystemDir); err != nil {
			return err
		}

		err := p.sh.Run(ctx, shell.Command{
			Argv: []string{
				zkstackBin, "ecosystem", "create",
				"--ecosystem-name", name,
				"--l1-network", "localhost",
				"--chain-name", "tmp-chain",
				"--chain-id", "12345",
				"--prover-mode", "no-proofs",
				"--wallet-creation", "random",
				"--link-to-code", params.ZKsyncEraDir,
				"--l1-batch-commit-data-generator-mode", "rollup",
				"--start-containers", "false",
				"--base-token-address", "0x0000000000000000000000000000000000000001",
				"--base-token-price-nominator", "1",
				"--base-token-price-denominator", "1",
				"--evm-emulator", "false",
			},
			Dir: ecosystemsDir,
		})
		if err != nil {
			return err
		}

		err = p.sh.Run(ctx, shell.Command{
			Argv: []string{
				zkstackBin, "ctm", "set-ctm-contracts",
				"--contracts-src-path", params.EraContractsDir,
				"--default-configs-src-path", defaultBase,
				"--zksync-os",
			},
			Dir: ecosystemDir,
		})
		if err != nil {
			return err
		}

		// The create step seeds a default era chain; only zksync-os chains
		// belong in this ecosystem.
		if err := fetch.CleanDir(filepath.Join(ecosystemDir, "chains")); err != nil {
			return err
		}

		for _, chain := range chains {
			err := p.sh.Run(ctx, shell.Command{
				Argv: []string{
					zkstackBin, "chain", "create",
					"--chain-name", chain,
					"--chain-id", chain,
					"--prover-mode", "no-proofs",
					"--wallet-creation", "random",
					"--l1-batch-commit-data-generator-mode", "rollup",
					"--base-token-address", "0x0000000000000000000000000000000000000001",
					"--base-token-price-nominator", "1",
					"--base-token-price-denominator", "1",
					"--evm-emulator", "false",
					"--set-as-default=true",
					"--zksync-os",
				},
				Dir: ecosystemDir,
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

	l1StateFile := filepath.Join(protocolBase, "l1-state.json")
	return p.rc.Section(ctx, fmt.Sprintf("Generating l1-state.json for %s", name), 250*time.Second, func(ctx context.Context) error {
		anvil, err := p.sh.StartDaemon(ctx, shell.Command{
			Argv: []string{"anvil", "--dump-state", l1StateFile},
		})
		if err != nil {
			return err
		}
		defer anvil.Stop()

		if err := p.deployEcosystem(ctx, params, name, chains, zkstackBin, ecosystemDir, base, defaultBase); err != nil {
			return err
		}

		// Anvil writes the state dump on shutdown.
		if err := anvil.Stop(); err != nil {
			return err
		}
		return p.fetcher.WaitForPath(ctx, l1StateFile, 30*time.Second)
	})
}

func (p *procedure) deployEcosystem(ctx context.Context, params ServerParams, name string, chains []string, zkstackBin, ecosystemDir, base, defaultBase string) error {
	p.log.Info("Funding accounts...")
	if err := p.fundAccounts(ctx, ecosystemDir); err != nil {
		return err
	}

	p.log.Info("Deploying L1 contracts...")
	err := p.sh.Run(ctx, shell.Command{
		Argv: []string{
			zkstackBin, "ecosystem", "init",
			"--deploy-paymaster=false",
			"--deploy-erc20=false",
			"--observability=false",
			"--no-port-reallocation",
			"--deploy-ecosystem",
			"--l1-rpc-url=" + AnvilDefaultURL,
			"--zksync-os",
		},
		Dir: ecosystemDir,
	})
	if err != nil {
		return err
	}

	for _, chain := range chains {
		if err := p.finishChain(ctx, name, chain, zkstackBin, ecosystemDir, base); err != nil {
			return err
		}
	}

	// The default setup reuses the first chain's deployment for now.
	contractsYaml := filepath.Join(ecosystemDir, "chains", chains[0], "configs", "contracts.yaml")
	walletsYaml := filepath.Join(ecosystemDir, "chains", chains[0], "configs", "wallets.yaml")
	return updateChainConfig(filepath.Join(defaultBase, "config.yaml"), contractsYaml, walletsYaml)
}

// finishChain records a deployed chain's addresses and keys into the repo
// and runs the L1 -> L2 deposit round-trip against it.
func (p *procedure) finishChain(ctx context.Context, ecosystem, chain, zkstackBin, ecosystemDir, base string) error {
	contractsYaml := filepath.Join(ecosystemDir, "chains", chain, "configs", "contracts.yaml")
	walletsYaml := filepath.Join(ecosystemDir, "chains", chain, "configs", "wallets.yaml")

	p.log.Debugf("Updating contract addresses for chain %s", chain)
	chainConfig := filepath.Join(base, fmt.Sprintf("chain_%s.yaml", chain))
	if err := updateChainConfig(chainConfig, contractsYaml, walletsYaml); err != nil {
		return err
	}

	suffix := chainSuffix(ecosystem, chain)
	if err := fetch.CopyFile(walletsYaml, filepath.Join(base, "wallets"+suffix+".yaml")); err != nil {
		return err
	}
	if err := fetch.CopyFile(contractsYaml, filepath.Join(base, "contracts"+suffix+".yaml")); err != nil {
		return err
	}

	p.log.Info("Generating L1 -> L2 deposit transaction...")
	contracts, err := zkstack.LoadContracts(contractsYaml)
	if err != nil {
		return err
	}
	bridgehub, err := contracts.BridgehubAddress()
	if err != nil {
		return err
	}
	err = p.sh.Run(ctx, shell.Command{
		Argv: []string{
			"cargo", "run", "--release", "--package", "zksync_os_generate_deposit", "--",
			"--bridgehub", bridgehub,
			"--chain-id", chain,
			"--amount", "100",
		},
		Dir: p.rc.RepoDir,
	})
	if err != nil {
		return err
	}

	if chain == GatewayChainID {
		return p.convertToGateway(ctx, chain, zkstackBin, ecosystemDir)
	}
	return nil
}

func (p *procedure) convertToGateway(ctx context.Context, chain, zkstackBin, ecosystemDir string) error {
	err := p.sh.Run(ctx, shell.Command{
		Argv: []string{
			zkstackBin, "chain", "gateway", "create-tx-filterer",
			"--chain", chain,
			"--l1-rpc-url=" + AnvilDefaultURL,
			"--ignore-prerequisites",
		},
		Dir: ecosystemDir,
	})
	if err != nil {
		return err
	}
	return p.sh.Run(ctx, shell.Command{
		Argv: []string{
			zkstackBin, "chain", "gateway", "convert-to-gateway",
			"--chain", chain,
			"--l1-rpc-url=" + AnvilDefaultURL,
			"--ignore-prerequisites",
			"--no-gateway-overrides",
		},
		Dir: ecosystemDir,
	})
}

// fundAccounts gives every generated wallet 100 ETH and tops up the two
// well-known rich wallets, all through anvil_setBalance.
func (p *procedure) fundAccounts(ctx context.Context, ecosystemDir string) error {
	info, err := os.Stat(ecosystemDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("ecosystem dir not found: %s", ecosystemDir)
	}

	var walletFiles []string
	err = filepath.WalkDir(ecosystemDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == "wallets.yaml" {
			walletFiles = append(walletFiles, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(walletFiles) == 0 {
		return fmt.Errorf("no wallets.yaml found under %s", ecosystemDir)
	}

	seen := make(map[string]struct{})
	for _, wf := range walletFiles {
		addrs, err := zkstack.LoadAddresses(wf)
		if err != nil {
			return err
		}
		if len(addrs) > 0 {
			p.log.Debugf("Found %d addresses in %s", len(addrs), wf)
		}
		for _, addr := range addrs {
			seen[addr] = struct{}{}
		}
	}

	all := make([]string, 0, len(seen))
	for addr := range seen {
		all = append(all, addr)
	}
	sort.Strings(all)

	p.log.Debugf("Funding %d addresses with 100 ETH each...", len(all))
	for _, addr := range all {
		if err := p.setBalance(ctx, addr, weiHex(100)); err != nil {
			return err
		}
	}

	p.log.Debug("Funding two rich wallets with 9000 ETH each...")
	for _, addr := range richWallets {
		if err := p.setBalance(ctx, addr, weiHex(9000)); err != nil {
			return err
		}
	}
	return nil
}

func (p *procedure) setBalance(ctx context.Context, addr, amount string) error {
	return p.sh.Run(ctx, shell.Command{
		Argv:  []string{"cast", "rpc", "anvil_setBalance", addr, amount, "--rpc-url", AnvilDefaultURL},
		Quiet: true,
	})
}

// chainSuffix distinguishes per-chain file copies in multi-chain setups.
func chainSuffix(ecosystem, chain string) string {
	if ecosystem == "multi_chain" {
		return "_" + chain
	}
	return ""
}
