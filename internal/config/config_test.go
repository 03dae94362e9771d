package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Abdullah1738/alt-capacity/offchain/tables"
)

func TestParseProbeDefaults(t *testing.T) {
	unsetenv(t, "SOLANA_RPC_URL", "ALT_LOGLEVEL")

	var cfg ProbeConfig
	require.NoError(t, Parse("probe", &cfg, nil))
	require.Equal(t, "both", cfg.Mode)
	require.Equal(t, "wire", cfg.Model)
	require.Equal(t, 1232, cfg.Ceiling)
	require.Equal(t, 256, cfg.PoolSize)
	require.Zero(t, cfg.MaxCount)
	require.Equal(t, uint64(1), cfg.Lamports)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 60*time.Second, cfg.Timeout)
	require.Equal(t, "tables.json", cfg.TableFile)
}

// unsetenv removes keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestParseProbeFlags(t *testing.T) {
	var cfg ProbeConfig
	err := Parse("probe", &cfg, []string{
		"--mode", "table-indexed", "--model", "cost", "--ceiling", "900",
		"--max-count", "50", "--header-bytes", "100", "--legacy",
	})
	require.NoError(t, err)
	require.Equal(t, "table-indexed", cfg.Mode)
	require.Equal(t, "cost", cfg.Model)
	require.Equal(t, 900, cfg.Ceiling)
	require.Equal(t, 50, cfg.MaxCount)
	require.Equal(t, 100, cfg.HeaderBytes)
	require.True(t, cfg.Legacy)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  any
		argv []string
	}{
		{"bad choice", &ProbeConfig{}, []string{"--model", "guess"}},
		{"negative ceiling", &ProbeConfig{}, []string{"--ceiling", "-1"}},
		{"positional", &ProbeConfig{}, []string{"extra"}},
		{"unknown flag", &InspectTableConfig{}, []string{"--nope"}},
		{"zero count", &FeesConfig{}, []string{"--count", "0"}},
		{"batch too large", &ExtendTableConfig{}, []string{"--synthetic", "5", "--batch", "31"}},
		{"nothing to extend", &ExtendTableConfig{}, nil},
		{"send with payer", &FeesConfig{}, []string{"--send", "--payer", "11111111111111111111111111111111"}},
		{"zero airdrop", &AirdropConfig{}, []string{"--lamports", "0"}},
		{"missing signature", &InspectTxConfig{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Parse("test", tt.cfg, tt.argv)
			require.Error(t, err)
			require.False(t, IsHelp(err))
		})
	}
}

func TestParseAirdropDefaults(t *testing.T) {
	unsetenv(t, "SOLANA_RPC_URL", "ALT_LOGLEVEL", "ALT_KEYPAIR")

	var cfg AirdropConfig
	require.NoError(t, Parse("airdrop", &cfg, []string{"--rpc-url", "http://127.0.0.1:8899"}))
	require.Equal(t, uint64(1_000_000_000), cfg.Lamports)
	require.Equal(t, "http://127.0.0.1:8899", cfg.RPCURL)
	require.False(t, cfg.NoWait)
}

func TestParseHelp(t *testing.T) {
	err := Parse("probe", &ProbeConfig{}, []string{"--help"})
	require.True(t, IsHelp(err))
	require.Contains(t, err.Error(), "--max-count")
}

func TestEnvironment(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", "http://127.0.0.1:8899")
	t.Setenv("ALT_KEYPAIR", "/tmp/id.json")
	t.Setenv("ALT_LOGLEVEL", "debug")

	var cfg ExtendTableConfig
	require.NoError(t, Parse("extend-table", &cfg, []string{"--address", " A ", "--address", "B"}))
	require.Equal(t, "http://127.0.0.1:8899", cfg.RPCURL)
	require.Equal(t, "/tmp/id.json", cfg.KeypairFlags.Path())
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []string{"A", "B"}, cfg.Addresses)
	require.Equal(t, 20, cfg.Batch)
}

func TestTableFlagsResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.json")
	reg := tables.Registry{}
	require.NoError(t, reg.Upsert(tables.Table{
		Name:    "devnet",
		RPCURL:  "https://api.devnet.solana.com",
		Address: "AddressLookupTab1e1111111111111111111111111",
	}))
	require.NoError(t, reg.Save(path))

	flagsIn := TableFlags{TableName: "devnet", TableFile: path}
	var rpc RPCFlags
	require.NoError(t, flagsIn.Resolve(&rpc))
	require.Equal(t, "https://api.devnet.solana.com", rpc.RPCURL)

	addr, ok, err := flagsIn.Address(true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "AddressLookupTab1e1111111111111111111111111", addr.Base58())

	// Explicit values win over the registry.
	explicit := TableFlags{Table: "11111111111111111111111111111111", TableName: "devnet", TableFile: path}
	rpc = RPCFlags{RPCURL: "http://localhost:8899"}
	require.NoError(t, explicit.Resolve(&rpc))
	require.Equal(t, "11111111111111111111111111111111", explicit.Table)
	require.Equal(t, "http://localhost:8899", rpc.RPCURL)

	missing := TableFlags{TableName: "mainnet", TableFile: path}
	require.ErrorIs(t, missing.Resolve(nil), tables.ErrNotFound)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestTableFlagsAddress(t *testing.T) {
	_, ok, err := TableFlags{}.Address(false)
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = TableFlags{}.Address(true)
	require.Error(t, err)

	_, _, err = TableFlags{Table: "not-base58-0OIl"}.Address(true)
	require.Error(t, err)
}
