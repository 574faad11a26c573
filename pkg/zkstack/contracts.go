package zkstack

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EcosystemContracts is the subset of deployed L1 contract addresses the
// release flows read.
type EcosystemContracts struct {
	BridgehubProxy       HexScalar `yaml:"bridgehub_proxy_addr"`
	StateTransitionProxy HexScalar `yaml:"state_transition_proxy_addr"`
	BytecodeSupplier     HexScalar `yaml:"l1_bytecodes_supplier_addr"`
	ValidatorTimelock    HexScalar `yaml:"validator_timelock_addr"`
}

// Contracts is the contracts.yaml registry zkstack writes after an
// ecosystem deployment.
type Contracts struct {
	Ecosystem EcosystemContracts `yaml:"ecosystem_contracts"`
}

// LoadContracts reads a contracts.yaml registry.
func LoadContracts(path string) (*Contracts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contracts: %w", err)
	}

	var c Contracts
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &c, nil
}

// BridgehubAddress returns the bridgehub proxy as 0x + 40 hex digits.
func (c *Contracts) BridgehubAddress() (string, error) {
	addr, err := c.Ecosystem.BridgehubProxy.Norm(AddressHexWidth)
	if err != nil {
		return "", fmt.Errorf("bridgehub proxy: %w", err)
	}
	return addr, nil
}

// BytecodeSupplierAddress returns the bytecode supplier as 0x + 40 hex
// digits.
func (c *Contracts) BytecodeSupplierAddress() (string, error) {
	addr, err := c.Ecosystem.BytecodeSupplier.Norm(AddressHexWidth)
	if err != nil {
		return "", fmt.Errorf("bytecode supplier: %w", err)
	}
	return addr, nil
}
