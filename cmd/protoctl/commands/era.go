package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matter-labs/zksync-os-scripts/pkg/release"
)

func newEraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "era",
		Short: "Operate on a zksync-era checkout",
	}

	cmd.AddCommand(newEraUpdateVKCommand())
	cmd.AddCommand(newEraCheckVKCommand())

	return cmd
}

func newEraUpdateVKCommand() *cobra.Command {
	var params release.EraParams

	cmd := &cobra.Command{
		Use:   "update-vk",
		Short: "Regenerate era verification keys and GPU setup data",
		Long: `Regenerate the era prover verification keys and the GPU setup data for
every circuit layer, then publish the setup data to the GCP buckets and
record the bucket layout in setup-data-gpu-keys.json.

Building the key generator needs a bellman-cuda checkout; one is cloned
and built under the workspace unless --bellman-cuda points at an
existing build.`,
		Example: `  protoctl era update-vk --repo ~/src/zksync-era --release v30

  # Reuse a prebuilt bellman-cuda
  protoctl era update-vk --repo ~/src/zksync-era --release v30 \
      --bellman-cuda ~/src/era-bellman-cuda`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd.Context(), "era-update-vk", release.EraUpdateVK(params))
		},
	}

	cmd.Flags().StringVar(&params.Release, "release", envOr("PROTOCOL_VERSION", "v30"), "era protocol release (e.g. v30)")
	cmd.Flags().StringVar(&params.BellmanCudaDir, "bellman-cuda", os.Getenv("BELLMAN_CUDA_DIR"), "prebuilt bellman-cuda checkout")

	return cmd
}

func newEraCheckVKCommand() *cobra.Command {
	var params release.EraParams

	cmd := &cobra.Command{
		Use:   "check-vk",
		Short: "Regenerate the VK regression checker reference keys",
		Long: `Build the vk_regression_checker binary and regenerate its reference
keys in crates/vk_regression_checker/reference. A dirty git diff after
the run means the verification keys drifted from the committed
reference.`,
		Example: `  protoctl era check-vk --repo ~/src/zksync-era --release v30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd.Context(), "era-check-vk", release.EraCheckVK(params))
		},
	}

	cmd.Flags().StringVar(&params.Release, "release", envOr("PROTOCOL_VERSION", "v30"), "era protocol release (e.g. v30)")

	return cmd
}
