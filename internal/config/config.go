// Package config holds the command line options of alt-capacity. Every
// subcommand has its own option struct, parsed with go-flags; shared groups
// are embedded.
package config

import (
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/Abdullah1738/alt-capacity/offchain/solana"
	"github.com/Abdullah1738/alt-capacity/offchain/tables"
)

const (
	defaultTableFile = "tables.json"

	// MaxExtendBatch is the most addresses one extend instruction can carry in
	// a legacy transaction: 250 bytes of fixed overhead plus 32 per address
	// must stay within 1232.
	MaxExtendBatch = 30
)

// LogFlags configures internal/logger.
type LogFlags struct {
	LogLevel string `long:"loglevel" env:"ALT_LOGLEVEL" default:"info" description:"Logging level (trace, debug, info, warn, error, critical, off)"`
	LogFile  string `long:"logfile" description:"Also write logs to this file (rotated at 10MB)"`
}

// RPCFlags locates the JSON-RPC endpoint.
type RPCFlags struct {
	RPCURL  string        `long:"rpc-url" env:"SOLANA_RPC_URL" description:"Solana JSON-RPC endpoint"`
	Timeout time.Duration `long:"timeout" default:"60s" description:"Deadline for the whole command"`
}

// KeypairFlags selects the signing keypair.
type KeypairFlags struct {
	Keypair string `long:"keypair" env:"ALT_KEYPAIR" description:"Authority and fee payer keypair (Solana CLI JSON format, default ~/.config/solana/id.json)"`
}

// Path returns the keypair path, falling back to the Solana CLI default.
func (k KeypairFlags) Path() string {
	if p := strings.TrimSpace(k.Keypair); p != "" {
		return p
	}
	return solana.DefaultKeypairPath()
}

// TableFlags names a lookup table directly or through the registry file.
type TableFlags struct {
	Table     string `long:"table" description:"Lookup table address (base58)"`
	TableName string `long:"table-name" description:"Lookup table name in the registry file (fills --table and --rpc-url)"`
	TableFile string `long:"table-file" default:"tables.json" description:"Lookup table registry file"`
}

// Resolve fills Table, and rpc.RPCURL when unset, from the registry entry
// named by TableName.
func (t *TableFlags) Resolve(rpc *RPCFlags) error {
	name := strings.TrimSpace(t.TableName)
	if name == "" {
		return nil
	}
	file := strings.TrimSpace(t.TableFile)
	if file == "" {
		file = defaultTableFile
	}

	reg, err := tables.Load(file)
	if err != nil {
		return errors.Wrapf(err, "load table registry %q", file)
	}
	entry, err := reg.FindByName(name)
	if err != nil {
		return errors.Wrapf(err, "find table %q in %q", name, file)
	}
	if strings.TrimSpace(t.Table) == "" {
		t.Table = entry.Address
	}
	if rpc != nil && strings.TrimSpace(rpc.RPCURL) == "" {
		rpc.RPCURL = entry.RPCURL
	}
	return nil
}

// Address parses Table; required reports whether an empty value is an error.
func (t TableFlags) Address(required bool) (solana.Pubkey, bool, error) {
	raw := strings.TrimSpace(t.Table)
	if raw == "" {
		if required {
			return solana.Pubkey{}, false, errors.New("--table or --table-name is required")
		}
		return solana.Pubkey{}, false, nil
	}
	pk, err := solana.ParsePubkey(raw)
	if err != nil {
		return solana.Pubkey{}, false, errors.Wrap(err, "parse --table")
	}
	return pk, true, nil
}

// Parse parses argv into cfg for subcommand name. Positional arguments are
// rejected. A help request returns a *flags.Error of type flags.ErrHelp whose
// message is the usage text.
func Parse(name string, cfg any, argv []string) error {
	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "alt-capacity " + name
	rest, err := parser.ParseArgs(argv)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	if v, ok := cfg.(interface{ validate() error }); ok {
		return v.validate()
	}
	return nil
}

// IsHelp reports whether err is a help request from Parse.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}
