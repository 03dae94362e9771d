package config

import (
	"strings"

	"github.com/pkg/errors"
)

// ProbeConfig is the probe subcommand. Without a table it probes a synthetic
// pool offline; with one it probes that table's addresses.
type ProbeConfig struct {
	LogFlags
	RPCFlags
	TableFlags

	Mode     string `long:"mode" default:"both" choice:"both" choice:"inline" choice:"table-indexed" description:"Addressing mode to probe"`
	Model    string `long:"model" default:"wire" choice:"wire" choice:"cost" description:"Size transactions by compiling them (wire) or with the closed-form cost model (cost)"`
	Ceiling  int    `long:"ceiling" default:"1232" description:"Byte ceiling a transaction must fit in"`
	MaxCount int    `long:"max-count" description:"Largest operation count to try (default: pool size)"`
	PoolSize int    `long:"pool-size" default:"256" description:"Synthetic pool size when no table is given"`
	Seed     string `long:"seed" default:"alt-capacity" description:"Seed for synthetic addresses"`
	Source   string `long:"source" description:"Transfer source and fee payer (base58, default: a synthetic address)"`
	Lamports uint64 `long:"lamports" default:"1" description:"Lamports per transfer"`
	Legacy   bool   `long:"legacy" description:"Size inline transfers as a legacy message instead of v0"`

	HeaderBytes           int `long:"header-bytes" description:"Cost model: mode-independent bytes"`
	InlineOperationBytes  int `long:"inline-op-bytes" description:"Cost model: bytes per inline transfer"`
	IndexedOperationBytes int `long:"indexed-op-bytes" description:"Cost model: bytes per table-indexed transfer"`
	TableReferenceBytes   int `long:"table-ref-bytes" description:"Cost model: one-time bytes for referencing the table"`
}

func (c *ProbeConfig) validate() error {
	if c.Ceiling < 0 {
		return errors.Errorf("--ceiling must be >= 0, got %d", c.Ceiling)
	}
	if c.MaxCount < 0 {
		return errors.Errorf("--max-count must be >= 0, got %d", c.MaxCount)
	}
	if c.PoolSize < 0 {
		return errors.Errorf("--pool-size must be >= 0, got %d", c.PoolSize)
	}
	for _, v := range []int{c.HeaderBytes, c.InlineOperationBytes, c.IndexedOperationBytes, c.TableReferenceBytes} {
		if v < 0 {
			return errors.New("cost model byte counts must be >= 0")
		}
	}
	return nil
}

// FeesConfig quotes one batch of transfers with and without the table.
type FeesConfig struct {
	LogFlags
	RPCFlags
	TableFlags

	Payer       string `long:"payer" description:"Fee payer and transfer source (base58, default: the --keypair public key)"`
	Count       int    `long:"count" default:"20" description:"Number of transfers (to the first table entries)"`
	Lamports    uint64 `long:"lamports" default:"1000" description:"Lamports per transfer"`
	CULimit     uint32 `long:"cu-limit" description:"Compute unit limit to price a priority fee with"`
	CUPrice     uint64 `long:"cu-price" description:"Priority fee in micro-lamports per compute unit"`
	AutoCUPrice bool   `long:"auto-cu-price" description:"Use the median recent prioritization fee for the table when --cu-price is unset"`
	Send        bool   `long:"send" description:"Sign the table-assisted transaction with --keypair and submit it (new recipients need a rent-exempt --lamports)"`
	KeypairFlags
	TxFlags
}

func (c *FeesConfig) validate() error {
	if c.Count <= 0 {
		return errors.Errorf("--count must be > 0, got %d", c.Count)
	}
	if c.Send && strings.TrimSpace(c.Payer) != "" {
		return errors.New("--send signs with --keypair; drop --payer")
	}
	return nil
}

// TxFlags controls submission of signed transactions.
type TxFlags struct {
	DryRun        bool `long:"dry-run" description:"Print the base64 transaction instead of sending it"`
	SkipPreflight bool `long:"skip-preflight" description:"Skip preflight simulation"`
	NoWait        bool `long:"no-wait" description:"Do not wait for confirmation"`
}

// AirdropConfig funds the keypair on a faucet-enabled cluster.
type AirdropConfig struct {
	LogFlags
	RPCFlags
	KeypairFlags

	To       string `long:"to" description:"Recipient (base58, default: the keypair)"`
	Lamports uint64 `long:"lamports" default:"1000000000" description:"Lamports to request"`
	NoWait   bool   `long:"no-wait" description:"Do not wait for confirmation"`
}

func (c *AirdropConfig) validate() error {
	if c.Lamports == 0 {
		return errors.New("--lamports must be > 0")
	}
	return nil
}

type CreateTableConfig struct {
	LogFlags
	RPCFlags
	KeypairFlags
	TxFlags

	SaveAs    string `long:"save-as" description:"Record the new table under this name in the registry"`
	TableFile string `long:"table-file" default:"tables.json" description:"Lookup table registry file"`
	Cluster   string `long:"cluster" description:"Cluster label stored with --save-as"`
}

type ExtendTableConfig struct {
	LogFlags
	RPCFlags
	KeypairFlags
	TableFlags
	TxFlags

	Addresses []string `long:"address" description:"Address to append (repeatable)"`
	Synthetic int      `long:"synthetic" description:"Append this many synthetic addresses"`
	Seed      string   `long:"seed" default:"alt-capacity" description:"Seed for synthetic addresses"`
	Batch     int      `long:"batch" default:"20" description:"Addresses per extend transaction"`
}

func (c *ExtendTableConfig) validate() error {
	if c.Batch <= 0 || c.Batch > MaxExtendBatch {
		return errors.Errorf("--batch must be in [1, %d], got %d", MaxExtendBatch, c.Batch)
	}
	if c.Synthetic < 0 {
		return errors.Errorf("--synthetic must be >= 0, got %d", c.Synthetic)
	}
	if len(c.Addresses) == 0 && c.Synthetic == 0 {
		return errors.New("--address or --synthetic is required")
	}
	for i, a := range c.Addresses {
		c.Addresses[i] = strings.TrimSpace(a)
	}
	return nil
}

// AuthorityConfig serves freeze-table and deactivate-table.
type AuthorityConfig struct {
	LogFlags
	RPCFlags
	KeypairFlags
	TableFlags
	TxFlags
}

type CloseTableConfig struct {
	LogFlags
	RPCFlags
	KeypairFlags
	TableFlags
	TxFlags

	Recipient string `long:"recipient" description:"Receives the reclaimed rent (base58, default: the keypair)"`
}

type InspectTableConfig struct {
	LogFlags
	RPCFlags
	TableFlags

	ShowAddresses bool `long:"addresses" description:"List every table entry"`
}

// InspectTxConfig reports the landed size of a transaction.
type InspectTxConfig struct {
	LogFlags
	RPCFlags

	Signature string `long:"signature" required:"true" description:"Transaction signature (base58)"`
}
