package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/Abdullah1738/alt-capacity/capacity"
	"github.com/Abdullah1738/alt-capacity/internal/config"
	"github.com/Abdullah1738/alt-capacity/offchain/solana"
	"github.com/Abdullah1738/alt-capacity/offchain/solanafees"
	"github.com/Abdullah1738/alt-capacity/offchain/solanarpc"
)

func cmdFees(argv []string, stdout io.Writer) error {
	var cfg config.FeesConfig
	if ok, err := parseArgs("fees", &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}
	if err := cfg.TableFlags.Resolve(&cfg.RPCFlags); err != nil {
		return err
	}
	tableAddr, _, err := cfg.TableFlags.Address(true)
	if err != nil {
		return err
	}
	payer, err := feePayer(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	rpc := solanarpc.New(cfg.RPCURL, nil)

	table, err := fetchTable(ctx, rpc, tableAddr)
	if err != nil {
		return err
	}
	if cfg.Count > table.Len() {
		return errors.Errorf("--count %d exceeds the %d table entries", cfg.Count, table.Len())
	}
	bh, err := rpc.LatestBlockhash(ctx)
	if err != nil {
		return err
	}

	cuPrice := cfg.CUPrice
	if cuPrice == 0 && cfg.AutoCUPrice {
		recent, err := rpc.RecentPrioritizationFees(ctx, []solana.Pubkey{tableAddr})
		if err != nil {
			return err
		}
		samples := make([]uint64, len(recent))
		for i, f := range recent {
			samples[i] = f.PrioritizationFee
		}
		cuPrice = solanafees.MedianMicroLamports(samples)
		log.Infof("median recent prioritization fee over %d slots: %d microLamports/CU", len(samples), cuPrice)
	}

	// The compute budget goes into both messages, so the node's quote carries
	// the priority fee on each side.
	var prelude []solana.Instruction
	if cfg.CULimit != 0 {
		prelude = append(prelude, solana.ComputeBudgetSetComputeUnitLimit(cfg.CULimit))
	}
	if cuPrice != 0 {
		prelude = append(prelude, solana.ComputeBudgetSetComputeUnitPrice(cuPrice))
	}

	ops := capacity.TransferOperations(payer, capacity.AddressPool(table.Addresses()), cfg.Count, cfg.Lamports)
	sizer := capacity.WireSizer{FeePayer: payer, RecentBlockhash: bh, Legacy: true, Prelude: prelude}
	baseline, err := sizer.Compile(ops, capacity.Inline, nil)
	if err != nil {
		return errors.Wrap(err, "compile baseline")
	}
	assisted, err := sizer.Compile(ops, capacity.TableIndexed, table)
	if err != nil {
		return errors.Wrap(err, "compile table-assisted")
	}
	for _, m := range []solana.Message{baseline, assisted} {
		if m.TransactionSize() > solana.MaxTransactionSize {
			log.Warnf("%s message is %d bytes, over the %d byte packet limit", m.Version, m.TransactionSize(), solana.MaxTransactionSize)
		}
	}

	cmp, err := solanafees.CompareMessageFees(ctx, rpc, baseline, assisted)
	if err != nil {
		return err
	}
	log.Debugf("fee comparison: %s", cmp)
	fmt.Fprintf(stdout, "transfers: %d\n", cfg.Count)
	if len(prelude) != 0 {
		fmt.Fprintf(stdout, "compute budget: limit=%d price=%d microLamports/CU\n", cfg.CULimit, cuPrice)
	}
	fmt.Fprintf(stdout, "baseline (%s): %d lamports, %d bytes\n", baseline.Version, cmp.BaselineLamports, cmp.BaselineBytes)
	fmt.Fprintf(stdout, "assisted (%s): %d lamports, %d bytes\n", assisted.Version, cmp.AssistedLamports, cmp.AssistedBytes)
	fmt.Fprintf(stdout, "saved: %d lamports, %d bytes\n", cmp.SavedLamports(), cmp.SavedBytes())

	if !cfg.Send {
		return nil
	}
	if assisted.TransactionSize() > solana.MaxTransactionSize {
		return errors.Errorf("assisted transaction is %d bytes; lower --count", assisted.TransactionSize())
	}
	s, err := newTxSender(cfg.RPCFlags, cfg.KeypairFlags, cfg.TxFlags, stdout)
	if err != nil {
		return err
	}
	if err := s.ensureBalance(ctx, cfg.Lamports*uint64(len(ops))+cmp.AssistedLamports); err != nil {
		return err
	}
	_, err = s.sendV0(ctx, "fees", sizer.Instructions(ops), []solana.LookupTable{table.Solana()})
	return err
}

// feePayer is --payer when set, otherwise the keypair's public key.
func feePayer(cfg config.FeesConfig) (solana.Pubkey, error) {
	if raw := strings.TrimSpace(cfg.Payer); raw != "" {
		pk, err := solana.ParsePubkey(raw)
		if err != nil {
			return solana.Pubkey{}, errors.Wrap(err, "parse --payer")
		}
		return pk, nil
	}
	_, pub, err := solana.LoadKeypair(cfg.KeypairFlags.Path())
	if err != nil {
		return solana.Pubkey{}, errors.Wrap(err, "load keypair (or pass --payer)")
	}
	return pub, nil
}
