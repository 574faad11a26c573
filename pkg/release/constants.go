package release

// Endpoints and fixtures shared by the release flows.
const (
	// ZKsyncOSReleasesURL is the repository whose GitHub releases carry
	// the prover binaries.
	ZKsyncOSReleasesURL = "https://github.com/matter-labs/zksync-os"

	// AnvilDefaultURL is the RPC endpoint of the local dev chain.
	AnvilDefaultURL = "http://localhost:8545"

	// AnvilRichPrivateKey is the first pre-funded anvil account key.
	AnvilRichPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	// GatewayChainID is the chain id reserved for the gateway chain.
	GatewayChainID = "506"

	// CRSFileURL is the trusted setup file SNARK VK generation reads.
	CRSFileURL = "https://storage.googleapis.com/matterlabs-setup-keys-europe/setup-keys/setup_2^24.key"

	// CRSFileSHA256 guards the trusted setup against corrupt downloads.
	CRSFileSHA256 = "101614dd43eb48a8e7724b696355866292d5bf36a39be7a6c97ac86626eb2f22"

	// BellmanCudaURL is cloned into the workspace when no local checkout
	// is given to the era key generation flow.
	BellmanCudaURL = "https://github.com/matter-labs/era-bellman-cuda"
)

// Wallets funded with 9000 ETH before ecosystem deployment.
var richWallets = []string{
	"0xa61464658afeaf65cccaafd3a512b69a83b77618",
	"0x36615cf349d7f6344891b1e7ca7c72883f5dc049",
}

// Regional buckets the era setup keys replicate to.
const (
	setupBucketUS     = "gs://matterlabs-setup-data-us"
	setupBucketEurope = "gs://matterlabs-setup-data-europe"
	setupBucketAsia   = "gs://matterlabs-setup-data-asia"
)
