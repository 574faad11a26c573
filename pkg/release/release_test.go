package release

import (
	"testing"
)

func TestWeiHex(t *testing.T) {
	tests := []struct {
		eth  int64
		want string
	}{
		{1, "0xde0b6b3a7640000"},
		{100, "0x56bc75e2d63100000"},
		{9000, "0x1e7e4171bf4d3a00000"},
	}

	for _, tt := range tests {
		if got := weiHex(tt.eth); got != tt.want {
			t.Errorf("weiHex(%d) = %q, want %q", tt.eth, got, tt.want)
		}
	}
}

func TestChainSuffix(t *testing.T) {
	if got := chainSuffix("multi_chain", "6565"); got != "_6565" {
		t.Errorf("multi_chain suffix = %q, want _6565", got)
	}
	if got := chainSuffix("single", "6565"); got != "" {
		t.Errorf("single chain suffix = %q, want empty", got)
	}
}

func TestServerParams_SetDefaults(t *testing.T) {
	params := ServerParams{Release: "v31.0"}
	params.setDefaults()

	if params.Ecosystem != "multi_chain" {
		t.Errorf("ecosystem = %q, want multi_chain", params.Ecosystem)
	}
	if len(params.Chains) != 2 || params.Chains[0] != "6565" || params.Chains[1] != "6566" {
		t.Errorf("chains = %v, want [6565 6566]", params.Chains)
	}

	// Explicit values stay.
	params = ServerParams{Release: "v31.0", Ecosystem: "single", Chains: []string{"506"}}
	params.setDefaults()
	if params.Ecosystem != "single" || len(params.Chains) != 1 {
		t.Errorf("explicit values were overwritten: %+v", params)
	}
}

func TestProverParams_SetDefaults(t *testing.T) {
	params := ProverParams{Release: "v31.0", Tag: "v0.9.0"}
	params.setDefaults()

	if params.ReleasesURL != ZKsyncOSReleasesURL {
		t.Errorf("releases URL = %q", params.ReleasesURL)
	}
	if len(params.Assets) != 1 || params.Assets[0] != "multiblock_batch.bin" {
		t.Errorf("assets = %v", params.Assets)
	}
}

func TestValidateParams(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		params  interface{}
		wantErr bool
	}{
		{"server ok", ServerParams{Release: "v31.0", EraContractsDir: dir, ZKsyncEraDir: dir}, false},
		{"server missing release", ServerParams{EraContractsDir: dir, ZKsyncEraDir: dir}, true},
		{"server missing era-contracts", ServerParams{Release: "v31.0", ZKsyncEraDir: dir}, true},
		{"server era-contracts not a dir", ServerParams{Release: "v31.0", EraContractsDir: "/nonexistent", ZKsyncEraDir: dir}, true},
		{"prover ok", ProverParams{Release: "v31.0", Tag: "v0.9.0"}, false},
		{"prover missing tag", ProverParams{Release: "v31.0"}, true},
		{"vk ok", VKParams{Release: "v31.0", WrapperDir: dir, Tag: "v0.9.0"}, false},
		{"vk missing wrapper dir", VKParams{Release: "v31.0", Tag: "v0.9.0"}, true},
		{"wrapper ok", WrapperParams{Release: "v31.0", AirbenderDir: dir}, false},
		{"wrapper missing airbender", WrapperParams{Release: "v31.0"}, true},
		{"era ok", EraParams{Release: "v30"}, false},
		{"era missing release", EraParams{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateParams(tt.params)
			if tt.wantErr && err == nil {
				t.Error("invalid params were accepted")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("valid params rejected: %v", err)
			}
		})
	}
}
