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
	"github.com/Abdullah1738/alt-capacity/offchain/solanarpc"
)

func cmdProbe(argv []string, stdout io.Writer) error {
	var cfg config.ProbeConfig
	if ok, err := parseArgs("probe", &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}
	if err := cfg.TableFlags.Resolve(&cfg.RPCFlags); err != nil {
		return err
	}
	tableAddr, onChain, err := cfg.TableFlags.Address(false)
	if err != nil {
		return err
	}

	source, err := probeSource(cfg.Source, cfg.Seed)
	if err != nil {
		return err
	}

	var (
		pool  capacity.AddressPool
		table *capacity.LookupTable
	)
	if onChain {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		table, err = fetchTable(ctx, solanarpc.New(cfg.RPCURL, nil), tableAddr)
		if err != nil {
			return err
		}
		pool = capacity.AddressPool(table.Addresses())
	} else {
		pool = capacity.SyntheticPool(cfg.Seed, cfg.PoolSize)
		// Inline probes never read the table.
		if cfg.Mode != "inline" {
			addr := capacity.SyntheticPool(cfg.Seed+"/table", 1)[0]
			table, err = capacity.NewLookupTable(addr, source, pool)
			if err != nil {
				return errors.Wrap(err, "build synthetic table")
			}
		}
	}

	maxCount := cfg.MaxCount
	if maxCount == 0 {
		maxCount = len(pool)
	}

	p := &capacity.Prober{
		Sizer:    probeSizer(cfg, source),
		Source:   source,
		Lamports: cfg.Lamports,
		Table:    table,
	}
	if table != nil {
		log.Infof("probing %d destinations (table %s, %d entries), ceiling %d bytes", maxCount, table.Address, table.Len(), cfg.Ceiling)
	} else {
		log.Infof("probing %d destinations inline, ceiling %d bytes", maxCount, cfg.Ceiling)
	}

	if cfg.Mode == "both" {
		cmp, err := p.CompareModes(pool, cfg.Ceiling, maxCount)
		if err != nil {
			return err
		}
		writeComparison(stdout, cmp)
		return nil
	}

	mode, err := capacity.ParseAddressingMode(cfg.Mode)
	if err != nil {
		return err
	}
	res, err := p.Probe(pool, mode, cfg.Ceiling, maxCount)
	if err != nil {
		return err
	}
	writeProbeResult(stdout, res)
	return nil
}

// probeSource parses raw, or derives a stable synthetic source from seed.
func probeSource(raw, seed string) (solana.Pubkey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return capacity.SyntheticPool(seed+"/source", 1)[0], nil
	}
	pk, err := solana.ParsePubkey(raw)
	if err != nil {
		return solana.Pubkey{}, errors.Wrap(err, "parse --source")
	}
	return pk, nil
}

func probeSizer(cfg config.ProbeConfig, source solana.Pubkey) capacity.Sizer {
	if cfg.Model == "cost" {
		m := capacity.SystemTransferCostModel
		if cfg.HeaderBytes != 0 {
			m.HeaderBytes = cfg.HeaderBytes
		}
		if cfg.InlineOperationBytes != 0 {
			m.InlineOperationBytes = cfg.InlineOperationBytes
		}
		if cfg.IndexedOperationBytes != 0 {
			m.IndexedOperationBytes = cfg.IndexedOperationBytes
		}
		if cfg.TableReferenceBytes != 0 {
			m.TableReferenceBytes = cfg.TableReferenceBytes
		}
		return m
	}
	return capacity.WireSizer{FeePayer: source, Legacy: cfg.Legacy}
}

func fetchTable(ctx context.Context, rpc *solanarpc.Client, addr solana.Pubkey) (*capacity.LookupTable, error) {
	state, err := rpc.AddressLookupTable(ctx, addr)
	if err != nil {
		return nil, err
	}
	table, err := capacity.TableFromState(addr, state)
	if err != nil {
		return nil, err
	}
	log.Debugf("table %s: %d addresses, frozen=%t, active=%t", addr, table.Len(), state.IsFrozen(), state.IsActive())
	return table, nil
}

func writeProbeResult(w io.Writer, r capacity.ProbeResult) {
	fmt.Fprintf(w, "%-14s max_operations=%d last_fit_bytes=%d attempts=%d\n", r.Mode, r.MaxOperations, r.LastFitBytes, r.Attempts)
	if r.LimitingError != nil {
		fmt.Fprintf(w, "%-14s limit: %v\n", "", r.LimitingError)
	}
}

func writeComparison(w io.Writer, c capacity.ComparisonResult) {
	writeProbeResult(w, c.Baseline)
	writeProbeResult(w, c.Assisted)
	fmt.Fprintf(w, "delta: %+d operations (%s)\n", c.Delta, c.DeltaPercentString())
}
