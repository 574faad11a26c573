package zkstack

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDoc(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadWallets(t *testing.T) {
	path := writeDoc(t, "wallets.yaml", `
deployer:
  address: "0x36615cf349d7f6344891b1e7ca7c72883f5dc049"
  private_key: "0xAC0974BEC39A17E36BA4A6B4D238FF944BACB478CBED5EFCAE784D7BF4F2FF80"
governor:
  address: "0xa61464658afeaf65cccaafd3a512b69a83b77618"
  private_key: "0x0000000000000000000000000000000000000000000000000000000000000007"
operator:
  address: 0x1234
  private_key: 0xcafe
blob_operator:
  address: "0x0000000000000000000000000000000000008001"
  private_key: "0x0000000000000000000000000000000000000000000000000000000000000011"
`)

	w, err := LoadWallets(path)
	if err != nil {
		t.Fatalf("LoadWallets failed: %v", err)
	}

	addr, err := w.Deployer.NormAddress()
	if err != nil {
		t.Fatalf("deployer address: %v", err)
	}
	if addr != "0x36615cf349d7f6344891b1e7ca7c72883f5dc049" {
		t.Errorf("deployer address = %q", addr)
	}

	// String keys pass through with their case preserved.
	key, err := w.Deployer.NormPrivateKey()
	if err != nil {
		t.Fatalf("deployer key: %v", err)
	}
	if key != "0xAC0974BEC39A17E36BA4A6B4D238FF944BACB478CBED5EFCAE784D7BF4F2FF80" {
		t.Errorf("deployer key = %q", key)
	}

	// Unquoted short hex parses as an integer and is padded back out.
	addr, err = w.Operator.NormAddress()
	if err != nil {
		t.Fatalf("operator address: %v", err)
	}
	if addr != "0x0000000000000000000000000000000000001234" {
		t.Errorf("operator address = %q", addr)
	}

	key, err = w.Operator.NormPrivateKey()
	if err != nil {
		t.Fatalf("operator key: %v", err)
	}
	if key != "0x000000000000000000000000000000000000000000000000000000000000cafe" {
		t.Errorf("operator key = %q", key)
	}
}

func TestLoadWallets_MissingFile(t *testing.T) {
	if _, err := LoadWallets(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing wallets file accepted")
	}
}

func TestOperatorKeys(t *testing.T) {
	path := writeDoc(t, "wallets.yaml", `
blob_operator:
  address: "0x0000000000000000000000000000000000008001"
  private_key: "0x0000000000000000000000000000000000000000000000000000000000000011"
prove_operator:
  address: "0x0000000000000000000000000000000000008002"
  private_key: "0x0000000000000000000000000000000000000000000000000000000000000022"
execute_operator:
  address: "0x0000000000000000000000000000000000008003"
  private_key: 0x33
`)

	w, err := LoadWallets(path)
	if err != nil {
		t.Fatalf("LoadWallets failed: %v", err)
	}

	keys, err := w.OperatorKeys()
	if err != nil {
		t.Fatalf("OperatorKeys failed: %v", err)
	}

	want := map[string]string{
		"operator_commit_sk":  "0x0000000000000000000000000000000000000000000000000000000000000011",
		"operator_prove_sk":   "0x0000000000000000000000000000000000000000000000000000000000000022",
		"operator_execute_sk": "0x0000000000000000000000000000000000000000000000000000000000000033",
	}
	for field, key := range want {
		if keys[field] != key {
			t.Errorf("%s = %q, want %q", field, keys[field], key)
		}
	}
}

func TestOperatorKeys_MissingKey(t *testing.T) {
	path := writeDoc(t, "wallets.yaml", `
blob_operator:
  private_key: "0x0000000000000000000000000000000000000000000000000000000000000011"
prove_operator:
  address: "0x0000000000000000000000000000000000008002"
`)

	w, err := LoadWallets(path)
	if err != nil {
		t.Fatalf("LoadWallets failed: %v", err)
	}
	if _, err := w.OperatorKeys(); err == nil {
		t.Error("missing prove_operator key accepted")
	}
}

func TestLoadAddresses(t *testing.T) {
	path := writeDoc(t, "wallets.yaml", `
deployer:
  address: "0x36615cf349d7f6344891b1e7ca7c72883f5dc049"
  private_key: "0x01"
governor:
  address: 0x1234
token_multiplier_setter: none
fee_account:
  private_key: "0x02"
duplicate_of_deployer:
  address: "0x36615cf349d7f6344891b1e7ca7c72883f5dc049"
`)

	addrs, err := LoadAddresses(path)
	if err != nil {
		t.Fatalf("LoadAddresses failed: %v", err)
	}

	want := []string{
		"0x0000000000000000000000000000000000001234",
		"0x36615cf349d7f6344891b1e7ca7c72883f5dc049",
	}
	if len(addrs) != len(want) {
		t.Fatalf("got %d addresses %v, want %d", len(addrs), addrs, len(want))
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("addrs[%d] = %q, want %q", i, addrs[i], want[i])
		}
	}
}

func TestHexScalar_MissingValue(t *testing.T) {
	path := writeDoc(t, "wallets.yaml", `
deployer:
  address: "0x36615cf349d7f6344891b1e7ca7c72883f5dc049"
`)

	w, err := LoadWallets(path)
	if err != nil {
		t.Fatalf("LoadWallets failed: %v", err)
	}

	if !w.Deployer.PrivateKey.IsZero() {
		t.Error("absent private key not reported as zero")
	}
	if _, err := w.Deployer.NormPrivateKey(); err == nil {
		t.Error("absent private key normalized without error")
	}
	if !w.Governor.Address.IsZero() {
		t.Error("absent governor not reported as zero")
	}
}

func TestLoadContracts(t *testing.T) {
	path := writeDoc(t, "contracts.yaml", `
ecosystem_contracts:
  bridgehub_proxy_addr: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
  state_transition_proxy_addr: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
  l1_bytecodes_supplier_addr: 0xbeef
  validator_timelock_addr: "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
`)

	c, err := LoadContracts(path)
	if err != nil {
		t.Fatalf("LoadContracts failed: %v", err)
	}

	bridgehub, err := c.BridgehubAddress()
	if err != nil {
		t.Fatalf("bridgehub: %v", err)
	}
	if bridgehub != "0x5FbDB2315678afecb367f032d93F642f64180aa3" {
		t.Errorf("bridgehub = %q", bridgehub)
	}

	supplier, err := c.BytecodeSupplierAddress()
	if err != nil {
		t.Fatalf("bytecode supplier: %v", err)
	}
	if supplier != "0x000000000000000000000000000000000000beef" {
		t.Errorf("bytecode supplier = %q", supplier)
	}
}

func TestLoadContracts_MissingAddress(t *testing.T) {
	path := writeDoc(t, "contracts.yaml", `
ecosystem_contracts:
  state_transition_proxy_addr: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
`)

	c, err := LoadContracts(path)
	if err != nil {
		t.Fatalf("LoadContracts failed: %v", err)
	}
	if _, err := c.BridgehubAddress(); err == nil {
		t.Error("absent bridgehub address normalized without error")
	}
}
