package zkstack

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/matter-labs/zksync-os-scripts/pkg/patch"
)

// Hex widths for the two scalar kinds these documents carry.
const (
	AddressHexWidth = 40
	KeyHexWidth     = 64
)

// HexScalar is a YAML scalar that may arrive as a string or, when the
// document writer left a short hex value unquoted, as an integer. It is
// normalized to 0x-prefixed hex on access.
type HexScalar struct {
	raw interface{}
}

// UnmarshalYAML keeps the scalar in whatever type the document carried.
func (h *HexScalar) UnmarshalYAML(node *yaml.Node) error {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	h.raw = v
	return nil
}

// IsZero reports whether the scalar was absent from the document.
func (h HexScalar) IsZero() bool {
	return h.raw == nil
}

// Norm returns the value as 0x-prefixed hex, zero-padded to width digits
// when the document carried an integer.
func (h HexScalar) Norm(width int) (string, error) {
	if h.raw == nil {
		return "", fmt.Errorf("value missing from document")
	}
	return patch.NormalizeHex(h.raw, width)
}

// Account is one keyed account in wallets.yaml.
type Account struct {
	Address    HexScalar `yaml:"address"`
	PrivateKey HexScalar `yaml:"private_key"`
}

// NormAddress returns the account address as 0x + 40 hex digits.
func (a Account) NormAddress() (string, error) {
	return a.Address.Norm(AddressHexWidth)
}

// NormPrivateKey returns the account secret key as 0x + 64 hex digits.
func (a Account) NormPrivateKey() (string, error) {
	return a.PrivateKey.Norm(KeyHexWidth)
}

// Wallets is the wallets.yaml document zkstack writes for an ecosystem.
type Wallets struct {
	Deployer        Account `yaml:"deployer"`
	Governor        Account `yaml:"governor"`
	Operator        Account `yaml:"operator"`
	BlobOperator    Account `yaml:"blob_operator"`
	ProveOperator   Account `yaml:"prove_operator"`
	ExecuteOperator Account `yaml:"execute_operator"`
	FeeAccount      Account `yaml:"fee_account"`
}

// LoadWallets reads a wallets.yaml document.
func LoadWallets(path string) (*Wallets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallets: %w", err)
	}

	var w Wallets
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &w, nil
}

// OperatorKeys returns the three l1_sender secret keys, keyed by their
// chain-config field names.
func (w *Wallets) OperatorKeys() (map[string]string, error) {
	accounts := map[string]Account{
		"operator_commit_sk":  w.BlobOperator,
		"operator_prove_sk":   w.ProveOperator,
		"operator_execute_sk": w.ExecuteOperator,
	}

	keys := make(map[string]string, len(accounts))
	for field, acct := range accounts {
		pk, err := acct.NormPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("operator key for %s: %w", field, err)
		}
		keys[field] = pk
	}
	return keys, nil
}

// LoadAddresses returns every account address found in a wallets.yaml,
// normalized, deduplicated, and sorted. Entries that are not accounts or
// carry no address are skipped.
func LoadAddresses(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallets: %w", err)
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	seen := make(map[string]struct{})
	for _, node := range doc {
		var acct Account
		if err := node.Decode(&acct); err != nil || acct.Address.IsZero() {
			continue
		}
		addr, err := acct.NormAddress()
		if err != nil {
			return nil, fmt.Errorf("address in %s: %w", path, err)
		}
		seen[addr] = struct{}{}
	}

	addrs := make([]string, 0, len(seen))
	for addr := range seen {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs, nil
}
