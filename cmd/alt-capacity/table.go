package main

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/Abdullah1738/alt-capacity/capacity"
	"github.com/Abdullah1738/alt-capacity/internal/config"
	"github.com/Abdullah1738/alt-capacity/offchain/solana"
	"github.com/Abdullah1738/alt-capacity/offchain/solanafees"
	"github.com/Abdullah1738/alt-capacity/offchain/solanarpc"
	"github.com/Abdullah1738/alt-capacity/offchain/tables"
)

// lamportsPerSignature is the base fee charged per transaction signature.
const lamportsPerSignature = 5000

// txSender signs with one keypair, acting as both fee payer and table
// authority, and submits legacy or v0 transactions.
type txSender struct {
	rpc   *solanarpc.Client
	priv  ed25519.PrivateKey
	payer solana.Pubkey
	opts  config.TxFlags
	out   io.Writer
}

func newTxSender(rpcFlags config.RPCFlags, kp config.KeypairFlags, opts config.TxFlags, out io.Writer) (*txSender, error) {
	priv, pub, err := solana.LoadKeypair(kp.Path())
	if err != nil {
		return nil, errors.Wrap(err, "load keypair")
	}
	return &txSender{
		rpc:   solanarpc.New(rpcFlags.RPCURL, nil),
		priv:  priv,
		payer: pub,
		opts:  opts,
		out:   out,
	}, nil
}

func (s *txSender) signers() map[solana.Pubkey]ed25519.PrivateKey {
	return map[solana.Pubkey]ed25519.PrivateKey{s.payer: s.priv}
}

// signatureFees is the base fee of txs single-signature transactions.
func signatureFees(txs int) (uint64, error) {
	est, err := solanafees.Estimate(lamportsPerSignature, uint64(txs), 0, 0)
	if err != nil {
		return 0, err
	}
	log.Debugf("signature fees for %d transactions: %s", txs, est)
	return est.TotalLamports, nil
}

// ensureBalance fails when the payer holds fewer than need lamports. Dry runs
// skip the check.
func (s *txSender) ensureBalance(ctx context.Context, need uint64) error {
	if s.opts.DryRun {
		return nil
	}
	bal, err := s.rpc.BalanceLamports(ctx, s.payer)
	if err != nil {
		return errors.Wrap(err, "payer balance")
	}
	log.Debugf("payer %s: balance %d lamports, %d needed", s.payer, bal, need)
	if bal < need {
		return errors.Errorf("payer %s has %d lamports, %d needed (fund it with 'alt-capacity airdrop' on devnet)", s.payer, bal, need)
	}
	return nil
}

// send signs ixs into a legacy transaction and submits it.
func (s *txSender) send(ctx context.Context, label string, ixs []solana.Instruction) (string, error) {
	return s.submit(ctx, label, func(bh [32]byte) ([]byte, error) {
		return solana.BuildAndSignLegacyTransaction(bh, s.payer, s.signers(), ixs)
	})
}

// sendV0 signs ixs into a v0 transaction that loads accounts through tables.
func (s *txSender) sendV0(ctx context.Context, label string, ixs []solana.Instruction, tables []solana.LookupTable) (string, error) {
	return s.submit(ctx, label, func(bh [32]byte) ([]byte, error) {
		return solana.BuildAndSignV0Transaction(bh, s.payer, s.signers(), ixs, tables)
	})
}

// submit builds the transaction against a fresh blockhash and sends it. In
// dry-run mode it prints the base64 transaction and returns an empty
// signature.
func (s *txSender) submit(ctx context.Context, label string, build func(blockhash [32]byte) ([]byte, error)) (string, error) {
	bh, err := s.rpc.LatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	tx, err := build(bh)
	if err != nil {
		return "", errors.Wrapf(err, "%s: build transaction", label)
	}
	if len(tx) > solana.MaxTransactionSize {
		return "", errors.Errorf("%s: transaction is %d bytes, over the %d byte limit", label, len(tx), solana.MaxTransactionSize)
	}
	if parsed, err := solana.ParseTransaction(tx); err == nil {
		log.Debugf("%s: %s, %d bytes, %d account keys, %d instructions", label, parsed.Message.Version, len(tx), parsed.Message.NumAccountKeys(), len(parsed.Message.Instructions))
	}

	if s.opts.DryRun {
		fmt.Fprintln(s.out, base64.StdEncoding.EncodeToString(tx))
		return "", nil
	}
	sig, err := s.rpc.SendTransaction(ctx, tx, s.opts.SkipPreflight)
	if err != nil {
		return "", errors.Wrapf(err, "%s: send", label)
	}
	log.Infof("%s: sent %s", label, sig)
	if !s.opts.NoWait {
		st, err := s.rpc.WaitForConfirmation(ctx, sig, 0)
		if err != nil {
			return sig, errors.Wrapf(err, "%s: confirm", label)
		}
		log.Infof("%s: %s in slot %d", label, st.ConfirmationStatus, st.Slot)
	}
	fmt.Fprintln(s.out, sig)
	return sig, nil
}

func cmdCreateTable(argv []string, stdout io.Writer) error {
	var cfg config.CreateTableConfig
	if ok, err := parseArgs("create-table", &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}
	s, err := newTxSender(cfg.RPCFlags, cfg.KeypairFlags, cfg.TxFlags, stdout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	slot, err := s.rpc.Slot(ctx)
	if err != nil {
		return err
	}
	ix, table, err := solana.CreateLookupTable(s.payer, s.payer, slot)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "table: %s\n", table)
	need, err := signatureFees(1)
	if err != nil {
		return err
	}
	if err := s.ensureBalance(ctx, need); err != nil {
		return err
	}
	if _, err := s.send(ctx, "create-table", []solana.Instruction{ix}); err != nil {
		return err
	}

	name := strings.TrimSpace(cfg.SaveAs)
	if name == "" || cfg.DryRun {
		return nil
	}
	reg, err := tables.LoadOrEmpty(cfg.TableFile)
	if err != nil {
		return errors.Wrapf(err, "load table registry %q", cfg.TableFile)
	}
	if err := reg.Upsert(tables.Table{
		Name:      name,
		Cluster:   cfg.Cluster,
		RPCURL:    cfg.RPCURL,
		Address:   table.Base58(),
		Authority: s.payer.Base58(),
	}); err != nil {
		return err
	}
	if err := reg.Save(cfg.TableFile); err != nil {
		return errors.Wrapf(err, "save table registry %q", cfg.TableFile)
	}
	log.Infof("recorded table %s as %q in %s", table, name, cfg.TableFile)
	return nil
}

func cmdExtendTable(argv []string, stdout io.Writer) error {
	var cfg config.ExtendTableConfig
	if ok, err := parseArgs("extend-table", &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}
	if err := cfg.TableFlags.Resolve(&cfg.RPCFlags); err != nil {
		return err
	}
	tableAddr, _, err := cfg.TableFlags.Address(true)
	if err != nil {
		return err
	}
	addrs, err := extendAddresses(cfg)
	if err != nil {
		return err
	}
	s, err := newTxSender(cfg.RPCFlags, cfg.KeypairFlags, cfg.TxFlags, stdout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	// Apply the extension to the current table first so authority, freeze and
	// capacity problems surface before anything is sent.
	table, err := fetchTable(ctx, s.rpc, tableAddr)
	if err != nil {
		return err
	}
	before := table.Len()
	if err := table.Extend(s.payer, addrs...); err != nil {
		return err
	}

	// Rent for the grown table account is not counted.
	need, err := signatureFees((len(addrs) + cfg.Batch - 1) / cfg.Batch)
	if err != nil {
		return err
	}
	if err := s.ensureBalance(ctx, need); err != nil {
		return err
	}
	for start := 0; start < len(addrs); start += cfg.Batch {
		end := start + cfg.Batch
		if end > len(addrs) {
			end = len(addrs)
		}
		ix, err := solana.ExtendLookupTable(tableAddr, s.payer, s.payer, addrs[start:end])
		if err != nil {
			return err
		}
		label := fmt.Sprintf("extend-table [%d,%d)", before+start, before+end)
		if _, err := s.send(ctx, label, []solana.Instruction{ix}); err != nil {
			return err
		}
	}
	log.Infof("table %s: %d -> %d entries", tableAddr, before, table.Len())
	return nil
}

func extendAddresses(cfg config.ExtendTableConfig) ([]solana.Pubkey, error) {
	out := make([]solana.Pubkey, 0, len(cfg.Addresses)+cfg.Synthetic)
	for _, raw := range cfg.Addresses {
		pk, err := solana.ParsePubkey(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parse --address %q", raw)
		}
		out = append(out, pk)
	}
	return append(out, capacity.SyntheticPool(cfg.Seed, cfg.Synthetic)...), nil
}

func cmdFreezeTable(argv []string, stdout io.Writer) error {
	return authorityCommand("freeze-table", argv, stdout, solana.FreezeLookupTable)
}

func cmdDeactivateTable(argv []string, stdout io.Writer) error {
	return authorityCommand("deactivate-table", argv, stdout, solana.DeactivateLookupTable)
}

func authorityCommand(name string, argv []string, stdout io.Writer, build func(table, authority solana.Pubkey) solana.Instruction) error {
	var cfg config.AuthorityConfig
	if ok, err := parseArgs(name, &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}
	if err := cfg.TableFlags.Resolve(&cfg.RPCFlags); err != nil {
		return err
	}
	tableAddr, _, err := cfg.TableFlags.Address(true)
	if err != nil {
		return err
	}
	s, err := newTxSender(cfg.RPCFlags, cfg.KeypairFlags, cfg.TxFlags, stdout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	_, err = s.send(ctx, name, []solana.Instruction{build(tableAddr, s.payer)})
	return err
}

func cmdCloseTable(argv []string, stdout io.Writer) error {
	var cfg config.CloseTableConfig
	if ok, err := parseArgs("close-table", &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}
	if err := cfg.TableFlags.Resolve(&cfg.RPCFlags); err != nil {
		return err
	}
	tableAddr, _, err := cfg.TableFlags.Address(true)
	if err != nil {
		return err
	}
	s, err := newTxSender(cfg.RPCFlags, cfg.KeypairFlags, cfg.TxFlags, stdout)
	if err != nil {
		return err
	}
	recipient := s.payer
	if raw := strings.TrimSpace(cfg.Recipient); raw != "" {
		if recipient, err = solana.ParsePubkey(raw); err != nil {
			return errors.Wrap(err, "parse --recipient")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	_, err = s.send(ctx, "close-table", []solana.Instruction{solana.CloseLookupTable(tableAddr, s.payer, recipient)})
	return err
}

func cmdInspectTable(argv []string, stdout io.Writer) error {
	var cfg config.InspectTableConfig
	if ok, err := parseArgs("inspect-table", &cfg, &cfg.LogFlags, argv, stdout); !ok {
		return err
	}
	if err := cfg.TableFlags.Resolve(&cfg.RPCFlags); err != nil {
		return err
	}
	tableAddr, _, err := cfg.TableFlags.Address(true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	state, err := solanarpc.New(cfg.RPCURL, nil).AddressLookupTable(ctx, tableAddr)
	if err != nil {
		return err
	}
	writeTableState(stdout, tableAddr, state, cfg.ShowAddresses)
	return nil
}

func writeTableState(w io.Writer, addr solana.Pubkey, state solana.AddressLookupTableState, showAddresses bool) {
	fmt.Fprintf(w, "table: %s\n", addr)
	if state.Authority != nil {
		fmt.Fprintf(w, "authority: %s\n", state.Authority)
	} else {
		fmt.Fprintln(w, "authority: none (frozen)")
	}
	if state.IsActive() {
		fmt.Fprintln(w, "status: active")
	} else {
		fmt.Fprintf(w, "status: deactivated at slot %d\n", state.DeactivationSlot)
	}
	fmt.Fprintf(w, "last_extended_slot: %d (start index %d)\n", state.LastExtendedSlot, state.LastExtendedSlotStartIndex)
	fmt.Fprintf(w, "addresses: %d/%d\n", len(state.Addresses), solana.LookupTableMaxAddresses)
	if showAddresses {
		for i, pk := range state.Addresses {
			fmt.Fprintf(w, "  [%3d] %s\n", i, pk)
		}
	}
}
