package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Abdullah1738/alt-capacity/internal/config"
	"github.com/Abdullah1738/alt-capacity/internal/logger"
)

func main() {
	err := run(os.Args[1:], os.Stdout)
	logger.BackendLog.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout io.Writer) error {
	if len(argv) == 0 || argv[0] == "-h" || argv[0] == "--help" || argv[0] == "help" {
		usage(stdout)
		return nil
	}

	switch argv[0] {
	case "probe":
		return cmdProbe(argv[1:], stdout)
	case "fees":
		return cmdFees(argv[1:], stdout)
	case "create-table":
		return cmdCreateTable(argv[1:], stdout)
	case "extend-table":
		return cmdExtendTable(argv[1:], stdout)
	case "freeze-table":
		return cmdFreezeTable(argv[1:], stdout)
	case "deactivate-table":
		return cmdDeactivateTable(argv[1:], stdout)
	case "close-table":
		return cmdCloseTable(argv[1:], stdout)
	case "inspect-table":
		return cmdInspectTable(argv[1:], stdout)
	case "inspect-tx":
		return cmdInspectTx(argv[1:], stdout)
	case "airdrop":
		return cmdAirdrop(argv[1:], stdout)
	default:
		return fmt.Errorf("unknown command: %s", argv[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "alt-capacity: address lookup table capacity probe")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  alt-capacity probe            [--table <base58> | --table-name <name>] [--mode both|inline|table-indexed] [--model wire|cost] [--ceiling <bytes>] [--max-count <n>] [--pool-size <n>] [--legacy]")
	fmt.Fprintln(w, "  alt-capacity fees             --table <base58> | --table-name <name> [--count <n>] [--payer <base58>] [--cu-limit <u32>] [--cu-price <microLamports> | --auto-cu-price] [--send [--dry-run]]")
	fmt.Fprintln(w, "  alt-capacity create-table     [--keypair <path>] [--save-as <name>] [--cluster <label>] [--dry-run]")
	fmt.Fprintln(w, "  alt-capacity extend-table     --table <base58> | --table-name <name> (--address <base58>... | --synthetic <n>) [--batch <n>] [--dry-run]")
	fmt.Fprintln(w, "  alt-capacity freeze-table     --table <base58> | --table-name <name> [--dry-run]")
	fmt.Fprintln(w, "  alt-capacity deactivate-table --table <base58> | --table-name <name> [--dry-run]")
	fmt.Fprintln(w, "  alt-capacity close-table      --table <base58> | --table-name <name> [--recipient <base58>] [--dry-run]")
	fmt.Fprintln(w, "  alt-capacity inspect-table    --table <base58> | --table-name <name> [--addresses]")
	fmt.Fprintln(w, "  alt-capacity inspect-tx       --signature <base58>")
	fmt.Fprintln(w, "  alt-capacity airdrop          [--to <base58>] [--lamports <n>] [--no-wait]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'alt-capacity <command> --help' for the options of a command.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  SOLANA_RPC_URL  JSON-RPC endpoint (--rpc-url)")
	fmt.Fprintln(w, "  ALT_KEYPAIR     signing keypair (--keypair)")
	fmt.Fprintln(w, "  ALT_LOGLEVEL    log level (--loglevel)")
}

var logOnce sync.Once

// parseArgs parses a subcommand's options and applies its log flags. It
// returns false, with a nil error, when help was requested and printed.
func parseArgs(name string, cfg any, lf *config.LogFlags, argv []string, stdout io.Writer) (bool, error) {
	if err := config.Parse(name, cfg, argv); err != nil {
		if config.IsHelp(err) {
			fmt.Fprintln(stdout, err.Error())
			return false, nil
		}
		return false, err
	}

	level, ok := logger.LevelFromString(lf.LogLevel)
	if !ok {
		return false, fmt.Errorf("invalid --loglevel %q", lf.LogLevel)
	}
	var initErr error
	logOnce.Do(func() {
		initErr = logger.InitLog(lf.LogLevel, lf.LogFile)
	})
	if initErr != nil {
		return false, initErr
	}
	logger.SetLogLevels(level)
	return true, nil
}
