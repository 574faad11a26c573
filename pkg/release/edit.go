package release

import (
	"fmt"
	"os"
	"sort"

	"github.com/matter-labs/zksync-os-scripts/pkg/toolchain"
	"github.com/matter-labs/zksync-os-scripts/pkg/zkstack"
)

// operatorKeyConsts maps the chain-config key fields to the Rust constants
// that mirror them in the server sources.
var operatorKeyConsts = map[string]string{
	"operator_commit_sk":  "OPERATOR_COMMIT_PK",
	"operator_prove_sk":   "OPERATOR_PROVE_PK",
	"operator_execute_sk": "OPERATOR_EXECUTE_PK",
}

// ProvenanceTags names the dependency versions a verification key was
// generated from. They are recorded in the hash block comment next to the
// committed hash.
type ProvenanceTags struct {
	ZKsyncOS  string
	Airbender string
	Wrapper   string
}

// withDefaults fills unset tags with "local", meaning a working copy rather
// than a tagged release produced the key.
func (t ProvenanceTags) withDefaults() ProvenanceTags {
	if t.ZKsyncOS == "" {
		t.ZKsyncOS = "local"
	}
	if t.Airbender == "" {
		t.Airbender = "local"
	}
	if t.Wrapper == "" {
		t.Wrapper = "local"
	}
	return t
}

func (t ProvenanceTags) comment() string {
	return fmt.Sprintf(
		"verification key hash generated from zksync-os %s, zksync-airbender %s and zkos-wrapper %s",
		t.ZKsyncOS, t.Airbender, t.Wrapper,
	)
}

// updateChainConfig rewrites one chain config document with the contract
// addresses and operator keys of a freshly deployed chain. Only the named
// fields change; the rest of the document survives byte for byte.
func updateChainConfig(configPath, contractsPath, walletsPath string) error {
	contracts, err := zkstack.LoadContracts(contractsPath)
	if err != nil {
		return err
	}
	bridgehub, err := contracts.BridgehubAddress()
	if err != nil {
		return fmt.Errorf("%s: %w", contractsPath, err)
	}
	supplier, err := contracts.BytecodeSupplierAddress()
	if err != nil {
		return fmt.Errorf("%s: %w", contractsPath, err)
	}

	wallets, err := zkstack.LoadWallets(walletsPath)
	if err != nil {
		return err
	}
	keys, err := wallets.OperatorKeys()
	if err != nil {
		return fmt.Errorf("%s: %w", walletsPath, err)
	}

	edits := map[string]string{
		"genesis.bridgehub_address":         bridgehub,
		"genesis.bytecode_supplier_address": supplier,
	}
	for field, key := range keys {
		edits["l1_sender."+field] = key
	}
	return zkstack.EditDocument(configPath, edits)
}

// updateContractConstants writes the bridgehub and bytecode supplier
// addresses from a contracts registry into their Rust constants.
func (p *procedure) updateContractConstants(constantsFile, contractsPath string) error {
	contracts, err := zkstack.LoadContracts(contractsPath)
	if err != nil {
		return err
	}
	bridgehub, err := contracts.BridgehubAddress()
	if err != nil {
		return fmt.Errorf("%s: %w", contractsPath, err)
	}
	supplier, err := contracts.BytecodeSupplierAddress()
	if err != nil {
		return fmt.Errorf("%s: %w", contractsPath, err)
	}

	if err := p.patchConst(constantsFile, "BRIDGEHUB_ADDRESS", bridgehub); err != nil {
		return err
	}
	return p.patchConst(constantsFile, "BYTECODE_SUPPLIER_ADDRESS", supplier)
}

// updateOperatorConstants writes the operator secret keys from a wallets
// document into their Rust constants.
func (p *procedure) updateOperatorConstants(constantsFile, walletsPath string) error {
	wallets, err := zkstack.LoadWallets(walletsPath)
	if err != nil {
		return err
	}
	keys, err := wallets.OperatorKeys()
	if err != nil {
		return fmt.Errorf("%s: %w", walletsPath, err)
	}

	fields := make([]string, 0, len(keys))
	for field := range keys {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if err := p.patchConst(constantsFile, operatorKeyConsts[field], keys[field]); err != nil {
			return err
		}
	}
	return nil
}

// updateVKHash extracts the hash from a generated verifier contract and
// upserts the matching V<proving>_VK_HASH block in the server sources.
func (p *procedure) updateVKHash(target, verifierPath string, provingVersion int, tags ProvenanceTags) error {
	data, err := os.ReadFile(verifierPath)
	if err != nil {
		return fmt.Errorf("failed to read verifier contract: %w", err)
	}
	hash, err := toolchain.ExtractVKHash(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", verifierPath, err)
	}

	tags = tags.withDefaults()
	p.log.Infof("Recording VK hash %s for V%d", hash, provingVersion)
	return p.upsertHashBlock(target, provingVersion, hash, tags.comment())
}
