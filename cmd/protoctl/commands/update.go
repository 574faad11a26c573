package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matter-labs/zksync-os-scripts/pkg/release"
)

func newUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Regenerate release artifacts in a target checkout",
	}

	cmd.AddCommand(newUpdateServerCommand())
	cmd.AddCommand(newUpdateProverCommand())
	cmd.AddCommand(newUpdateVKCommand())
	cmd.AddCommand(newUpdateWrapperCommand())

	return cmd
}

func newUpdateServerCommand() *cobra.Command {
	var params release.ServerParams

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Rebuild the local chain state committed to the server repo",
		Long: `Rebuild everything a protocol release commits to the server repository:
contracts, the zkstack CLI, genesis.json, a freshly deployed ecosystem
with its chain configs and dumped L1 state, the verification key hash,
and the factory dependencies registry.

The deployment runs against a throwaway anvil instance; its final state
is dumped into local-chains/<release>/l1-state.json on shutdown.`,
		Example: `  # Regenerate the v31.0 local chains
  protoctl update server --repo ~/src/zksync-os --release v31.0 \
      --era-contracts ~/src/era-contracts --zksync-era ~/src/zksync-era

  # Record tagged dependency versions in the VK provenance comment
  protoctl update server --repo ~/src/zksync-os --release v31.0 \
      --era-contracts ~/src/era-contracts --zksync-era ~/src/zksync-era \
      --zksync-os-tag v0.9.0 --airbender-tag v0.9.0 --wrapper-tag v0.6.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd.Context(), "update-server", release.UpdateServer(params))
		},
	}

	cmd.Flags().StringVar(&params.Release, "release", os.Getenv("PROTOCOL_VERSION"), "protocol release to regenerate (e.g. v31.0)")
	cmd.Flags().StringVar(&params.EraContractsDir, "era-contracts", os.Getenv("ERA_CONTRACTS_PATH"), "era-contracts checkout")
	cmd.Flags().StringVar(&params.ZKsyncEraDir, "zksync-era", os.Getenv("ZKSYNC_ERA_PATH"), "zksync-era checkout")
	cmd.Flags().StringVar(&params.Ecosystem, "ecosystem", "", "ecosystem name to generate (default multi_chain)")
	cmd.Flags().StringSliceVar(&params.Chains, "chain", nil, "chain ids to create (default 6565,6566)")
	cmd.Flags().StringVar(&params.ConstantsFile, "constants-file", "", "server Rust source whose address and key constants are patched")
	cmd.Flags().StringVar(&params.Tags.ZKsyncOS, "zksync-os-tag", os.Getenv("ZKSYNC_OS_TAG"), "zksync-os tag recorded in the VK provenance")
	cmd.Flags().StringVar(&params.Tags.Airbender, "airbender-tag", os.Getenv("ZKSYNC_AIRBENDER_TAG"), "zksync-airbender tag recorded in the VK provenance")
	cmd.Flags().StringVar(&params.Tags.Wrapper, "wrapper-tag", os.Getenv("ZKOS_WRAPPER_TAG"), "zkos-wrapper tag recorded in the VK provenance")

	return cmd
}

func newUpdateProverCommand() *cobra.Command {
	var params release.ProverParams

	cmd := &cobra.Command{
		Use:   "prover",
		Short: "Refresh the prover binaries committed to the server repo",
		Long: `Download the prover assets of a tagged zksync-os release, copy them
into the server repository, and pin the release's proving version in
the server sources.`,
		Example: `  protoctl update prover --repo ~/src/zksync-os --release v31.0 --tag v0.9.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd.Context(), "update-prover", release.UpdateProver(params))
		},
	}

	cmd.Flags().StringVar(&params.Release, "release", os.Getenv("PROTOCOL_VERSION"), "protocol release (e.g. v31.0)")
	cmd.Flags().StringVar(&params.Tag, "tag", os.Getenv("ZKSYNC_OS_TAG"), "zksync-os release tag to download")
	cmd.Flags().StringVar(&params.ReleasesURL, "releases-url", os.Getenv("ZKSYNC_OS_URL"), "override the release download URL")
	cmd.Flags().StringSliceVar(&params.Assets, "asset", nil, "release assets to fetch (default multiblock_batch.bin)")

	return cmd
}

func newUpdateVKCommand() *cobra.Command {
	var params release.VKParams

	cmd := &cobra.Command{
		Use:   "vk",
		Short: "Regenerate the SNARK verification key and verifier contracts",
		Long: `Regenerate the SNARK verification key from a tagged prover binary and
the trusted setup, rebuild the Plonk and Fflonk verifier contracts from
it, and recompute the contract test hashes. The target repository is an
era-contracts checkout.`,
		Example: `  protoctl update vk --repo ~/src/era-contracts --release v31.0 \
      --wrapper ~/src/zkos-wrapper --tag v0.9.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd.Context(), "update-vk", release.UpdateVK(params))
		},
	}

	cmd.Flags().StringVar(&params.Release, "release", os.Getenv("PROTOCOL_VERSION"), "protocol release (e.g. v31.0)")
	cmd.Flags().StringVar(&params.WrapperDir, "wrapper", os.Getenv("ZKOS_WRAPPER_PATH"), "zkos-wrapper checkout")
	cmd.Flags().StringVar(&params.Tag, "tag", os.Getenv("ZKSYNC_OS_TAG"), "zksync-os release tag whose binary seeds the key")
	cmd.Flags().StringVar(&params.ReleasesURL, "releases-url", os.Getenv("ZKSYNC_OS_URL"), "override the release download URL")

	return cmd
}

func newUpdateWrapperCommand() *cobra.Command {
	var params release.WrapperParams

	cmd := &cobra.Command{
		Use:   "wrapper",
		Short: "Rebuild the wrapper circuits and committed test data",
		Long: `Rebuild the wrapper circuit generator, regenerate the fibonacci SNARK
proof the wrapper tests consume, and rerun the full layer test to
refresh the committed test data. The target repository is a
zkos-wrapper checkout.`,
		Example: `  protoctl update wrapper --repo ~/src/zkos-wrapper --release v31.0 \
      --airbender ~/src/zksync-airbender`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd.Context(), "update-wrapper", release.UpdateWrapper(params))
		},
	}

	cmd.Flags().StringVar(&params.Release, "release", os.Getenv("PROTOCOL_VERSION"), "protocol release (e.g. v31.0)")
	cmd.Flags().StringVar(&params.AirbenderDir, "airbender", os.Getenv("ZKSYNC_AIRBENDER_PATH"), "zksync-airbender checkout")

	return cmd
}
