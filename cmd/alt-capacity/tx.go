package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/Abdullah1738/alt-capacity/internal/config"
	"github.com/Abdullah1738/alt-capacity/offchain/solana"
	"github.com/Abdullah1738/alt-capacity/offchain/solanarpc"
)

func cmdAirdrop(argv []string, stdout io.Writer) error {
	var cfg config.AirdropConfig
	if ok, err := parseArgs("airdrop", &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}
	to, err := airdropRecipient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	rpc := solanarpc.New(cfg.RPCURL, nil)

	log.Infof("requesting %d lamports for %s from %s", cfg.Lamports, to, rpc.URL())
	sig, err := rpc.RequestAirdrop(ctx, to, cfg.Lamports)
	if err != nil {
		return errors.Wrap(err, "request airdrop")
	}
	fmt.Fprintln(stdout, sig)
	if cfg.NoWait {
		return nil
	}
	if _, err := rpc.WaitForConfirmation(ctx, sig, 0); err != nil {
		return errors.Wrap(err, "confirm airdrop")
	}
	bal, err := rpc.BalanceLamports(ctx, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "balance: %d lamports\n", bal)
	return nil
}

func airdropRecipient(cfg config.AirdropConfig) (solana.Pubkey, error) {
	if raw := strings.TrimSpace(cfg.To); raw != "" {
		pk, err := solana.ParsePubkey(raw)
		if err != nil {
			return solana.Pubkey{}, errors.Wrap(err, "parse --to")
		}
		return pk, nil
	}
	_, pub, err := solana.LoadKeypair(cfg.KeypairFlags.Path())
	if err != nil {
		return solana.Pubkey{}, errors.Wrap(err, "load keypair (or pass --to)")
	}
	return pub, nil
}

// cmdInspectTx fetches a landed transaction and reports how much of the packet
// it used and what it loaded through lookup tables.
func cmdInspectTx(argv []string, stdout io.Writer) error {
	var cfg config.InspectTxConfig
	if ok, err := parseArgs("inspect-tx", &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	raw, err := solanarpc.New(cfg.RPCURL, nil).TransactionBytesBase64(ctx, cfg.Signature)
	if err != nil {
		return err
	}
	tx, err := solana.ParseTransaction(raw)
	if err != nil {
		return errors.Wrapf(err, "parse transaction %s", cfg.Signature)
	}
	writeTransaction(stdout, len(raw), tx)
	return nil
}

func writeTransaction(w io.Writer, size int, tx solana.ParsedTransaction) {
	m := tx.Message
	fmt.Fprintf(w, "version: %s\n", m.Version)
	fmt.Fprintf(w, "size: %d/%d bytes\n", size, solana.MaxTransactionSize)
	fmt.Fprintf(w, "signatures: %d\n", len(tx.Signatures))
	fmt.Fprintf(w, "instructions: %d\n", len(m.Instructions))
	fmt.Fprintf(w, "account_keys: %d (%d static, %d loaded)\n", m.NumAccountKeys(), len(m.StaticKeys), m.NumAccountKeys()-len(m.StaticKeys))
	for _, l := range m.Lookups {
		fmt.Fprintf(w, "  lookup %s writable=%d readonly=%d\n", l.AccountKey, len(l.WritableIndexes), len(l.ReadonlyIndexes))
	}
}
