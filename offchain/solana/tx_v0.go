package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sort"
)

// v0 message prefix: 0x80 | version.
const versionPrefixMask = 0x80

var ErrLookupTableTooLarge = errors.New("lookup table has too many addresses")

type LookupTable struct {
	AccountKey Pubkey
	Addresses  []Pubkey
}

// AddressTableLookup is the per-table section of a v0 message: which entries of
// AccountKey are loaded writable and which readonly.
type AddressTableLookup struct {
	AccountKey      Pubkey
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

func BuildAndSignV0Transaction(
	recentBlockhash [32]byte,
	feePayer Pubkey,
	signers map[Pubkey]ed25519.PrivateKey,
	instructions []Instruction,
	lookupTables []LookupTable,
) ([]byte, error) {
	msg, err := CompileV0Message(recentBlockhash, feePayer, instructions, lookupTables)
	if err != nil {
		return nil, err
	}
	return msg.Sign(signers)
}

type lookupRef struct {
	Table int
	Index uint8
}

// CompileV0Message compiles a version 0 message. Any non-signer account that is
// not an invoked program and appears in one of lookupTables is loaded through
// the table (first table wins) instead of being listed as a static key. Tables
// from which nothing is loaded are omitted from the message.
func CompileV0Message(
	recentBlockhash [32]byte,
	feePayer Pubkey,
	instructions []Instruction,
	lookupTables []LookupTable,
) (Message, error) {
	accounts := newAccountSet(feePayer, instructions)

	programIDs := make(map[Pubkey]struct{}, len(instructions))
	for _, ix := range instructions {
		programIDs[ix.ProgramID] = struct{}{}
	}

	// Map pubkey -> (table, index).
	tableIndex := make(map[Pubkey]lookupRef, 256)
	for ti, lt := range lookupTables {
		if len(lt.Addresses) > LookupTableMaxAddresses {
			return Message{}, fmt.Errorf("%w: %s has %d", ErrLookupTableTooLarge, lt.AccountKey.Base58(), len(lt.Addresses))
		}
		for i, pk := range lt.Addresses {
			if _, ok := tableIndex[pk]; ok {
				continue
			}
			tableIndex[pk] = lookupRef{Table: ti, Index: uint8(i)}
		}
	}

	// Select loadable (non-signer, non-program) keys that are present in a lookup table.
	selected := make(map[Pubkey]lookupRef, 64)
	for pk, ai := range accounts.infos {
		if ai.IsSigner {
			continue
		}
		if _, ok := programIDs[pk]; ok {
			continue
		}
		if ref, ok := tableIndex[pk]; ok {
			selected[pk] = ref
		}
	}

	staticKeys, h := accounts.order(selected)

	lookups := make([]AddressTableLookup, len(lookupTables))
	for i, lt := range lookupTables {
		lookups[i].AccountKey = lt.AccountKey
	}
	for pk, ref := range selected {
		if accounts.infos[pk].IsWritable {
			lookups[ref.Table].WritableIndexes = append(lookups[ref.Table].WritableIndexes, ref.Index)
		} else {
			lookups[ref.Table].ReadonlyIndexes = append(lookups[ref.Table].ReadonlyIndexes, ref.Index)
		}
	}

	// Loaded keys are indexed after the static keys: all writable loads across
	// tables first, then all readonly loads.
	used := make([]AddressTableLookup, 0, len(lookups))
	var loadedWritable, loadedReadonly []Pubkey
	for ti, sel := range lookups {
		sel.WritableIndexes = sortUniqueUint8(sel.WritableIndexes)
		sel.ReadonlyIndexes = sortUniqueUint8(sel.ReadonlyIndexes)
		if len(sel.WritableIndexes) == 0 && len(sel.ReadonlyIndexes) == 0 {
			continue
		}
		used = append(used, sel)
		for _, ix := range sel.WritableIndexes {
			loadedWritable = append(loadedWritable, lookupTables[ti].Addresses[ix])
		}
		for _, ix := range sel.ReadonlyIndexes {
			loadedReadonly = append(loadedReadonly, lookupTables[ti].Addresses[ix])
		}
	}

	total := len(staticKeys) + len(loadedWritable) + len(loadedReadonly)
	if total > MaxAccountKeys {
		return Message{}, fmt.Errorf("%w: %d static + %d loaded", ErrTooManyAccounts, len(staticKeys), total-len(staticKeys))
	}

	indexOf := make(map[Pubkey]uint8, total)
	for i, pk := range staticKeys {
		indexOf[pk] = uint8(i)
	}
	j := len(staticKeys)
	for _, pk := range append(loadedWritable, loadedReadonly...) {
		indexOf[pk] = uint8(j)
		j++
	}

	out := make([]byte, 0, 512)
	out = append(out, versionPrefixMask|byte(MessageVersionV0))
	out = append(out, h.NumRequiredSignatures, h.NumReadonlySignedAccounts, h.NumReadonlyUnsignedAccounts)
	out = append(out, encodeShortVecLen(len(staticKeys))...)
	for _, pk := range staticKeys {
		out = append(out, pk[:]...)
	}
	out = append(out, recentBlockhash[:]...)

	out, err := appendInstructions(out, instructions, indexOf)
	if err != nil {
		return Message{}, err
	}

	out = append(out, encodeShortVecLen(len(used))...)
	for _, sel := range used {
		out = append(out, sel.AccountKey[:]...)
		out = append(out, encodeShortVecLen(len(sel.WritableIndexes))...)
		out = append(out, sel.WritableIndexes...)
		out = append(out, encodeShortVecLen(len(sel.ReadonlyIndexes))...)
		out = append(out, sel.ReadonlyIndexes...)
	}

	return Message{
		Version:    MessageVersionV0,
		Header:     h,
		StaticKeys: staticKeys,
		Lookups:    used,
		Bytes:      out,
	}, nil
}

func sortUniqueUint8(in []uint8) []uint8 {
	if len(in) == 0 {
		return nil
	}
	out := append([]uint8{}, in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i := 0; i < len(out); i++ {
		if i > 0 && out[i] == out[i-1] {
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}
