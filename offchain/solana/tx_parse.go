package solana

import (
	"errors"
	"fmt"
)

type ParsedInstruction struct {
	ProgramID Pubkey
	Accounts  []uint8
	Data      []byte
}

type ParsedMessage struct {
	Version         MessageVersion
	Header          MessageHeader
	StaticKeys      []Pubkey
	RecentBlockhash [32]byte
	Instructions    []ParsedInstruction
	Lookups         []AddressTableLookup
}

// NumAccountKeys counts static keys plus every key loaded through a lookup.
func (m ParsedMessage) NumAccountKeys() int {
	n := len(m.StaticKeys)
	for _, l := range m.Lookups {
		n += len(l.WritableIndexes) + len(l.ReadonlyIndexes)
	}
	return n
}

type ParsedTransaction struct {
	Signatures [][SignatureLength]byte
	Message    ParsedMessage
}

// ParseTransaction decodes a legacy or v0 wire transaction.
func ParseTransaction(tx []byte) (ParsedTransaction, error) {
	var out ParsedTransaction
	if len(tx) == 0 {
		return out, errors.New("empty tx")
	}

	sigCount, off, err := decodeShortVecLenAt(tx, 0)
	if err != nil {
		return out, fmt.Errorf("decode signature count: %w", err)
	}
	if off+sigCount*SignatureLength > len(tx) {
		return out, errors.New("invalid signature section")
	}
	out.Signatures = make([][SignatureLength]byte, sigCount)
	for i := range out.Signatures {
		copy(out.Signatures[i][:], tx[off:off+SignatureLength])
		off += SignatureLength
	}

	msg, err := ParseMessage(tx[off:])
	if err != nil {
		return out, err
	}
	if int(msg.Header.NumRequiredSignatures) != sigCount {
		return out, fmt.Errorf("signature count %d does not match header %d", sigCount, msg.Header.NumRequiredSignatures)
	}
	out.Message = msg
	return out, nil
}

// ParseMessage decodes serialized message bytes (no signature section).
func ParseMessage(msg []byte) (ParsedMessage, error) {
	var out ParsedMessage
	if len(msg) == 0 {
		return out, errors.New("empty message")
	}

	off := 0
	out.Version = MessageVersionLegacy
	if msg[0]&versionPrefixMask != 0 {
		version := msg[0] &^ versionPrefixMask
		if version != byte(MessageVersionV0) {
			return out, fmt.Errorf("unsupported message version %d", version)
		}
		out.Version = MessageVersionV0
		off++
	}

	if off+3 > len(msg) {
		return out, errors.New("message header truncated")
	}
	out.Header = MessageHeader{
		NumRequiredSignatures:       msg[off],
		NumReadonlySignedAccounts:   msg[off+1],
		NumReadonlyUnsignedAccounts: msg[off+2],
	}
	off += 3

	nKeys, off, err := decodeShortVecLenAt(msg, off)
	if err != nil {
		return out, fmt.Errorf("decode account keys count: %w", err)
	}
	if off+nKeys*PubkeyLength > len(msg) {
		return out, errors.New("account keys truncated")
	}
	out.StaticKeys = make([]Pubkey, 0, nKeys)
	for i := 0; i < nKeys; i++ {
		var pk Pubkey
		copy(pk[:], msg[off:off+PubkeyLength])
		out.StaticKeys = append(out.StaticKeys, pk)
		off += PubkeyLength
	}

	if off+32 > len(msg) {
		return out, errors.New("recent blockhash truncated")
	}
	copy(out.RecentBlockhash[:], msg[off:off+32])
	off += 32

	nIxs, off, err := decodeShortVecLenAt(msg, off)
	if err != nil {
		return out, fmt.Errorf("decode instruction count: %w", err)
	}
	out.Instructions = make([]ParsedInstruction, 0, nIxs)
	for i := 0; i < nIxs; i++ {
		if off >= len(msg) {
			return out, errors.New("instruction truncated")
		}
		pidIndex := int(msg[off])
		off++
		if pidIndex >= len(out.StaticKeys) {
			return out, errors.New("invalid program id index")
		}

		var accounts, data []byte
		accounts, off, err = readShortVecBytes(msg, off)
		if err != nil {
			return out, fmt.Errorf("instruction %d accounts: %w", i, err)
		}
		data, off, err = readShortVecBytes(msg, off)
		if err != nil {
			return out, fmt.Errorf("instruction %d data: %w", i, err)
		}

		out.Instructions = append(out.Instructions, ParsedInstruction{
			ProgramID: out.StaticKeys[pidIndex],
			Accounts:  accounts,
			Data:      data,
		})
	}

	if out.Version == MessageVersionV0 {
		nLookups, next, err := decodeShortVecLenAt(msg, off)
		if err != nil {
			return out, fmt.Errorf("decode lookup count: %w", err)
		}
		off = next
		for i := 0; i < nLookups; i++ {
			var l AddressTableLookup
			if off+PubkeyLength > len(msg) {
				return out, errors.New("lookup table key truncated")
			}
			copy(l.AccountKey[:], msg[off:off+PubkeyLength])
			off += PubkeyLength
			if l.WritableIndexes, off, err = readShortVecBytes(msg, off); err != nil {
				return out, fmt.Errorf("lookup %d writable indexes: %w", i, err)
			}
			if l.ReadonlyIndexes, off, err = readShortVecBytes(msg, off); err != nil {
				return out, fmt.Errorf("lookup %d readonly indexes: %w", i, err)
			}
			out.Lookups = append(out.Lookups, l)
		}
	}

	if off != len(msg) {
		return out, fmt.Errorf("%d trailing bytes after message", len(msg)-off)
	}
	return out, nil
}

func readShortVecBytes(b []byte, off int) ([]byte, int, error) {
	n, off, err := decodeShortVecLenAt(b, off)
	if err != nil {
		return nil, off, err
	}
	if off+n > len(b) {
		return nil, off, errors.New("truncated")
	}
	out := make([]byte, n)
	copy(out, b[off:off+n])
	return out, off + n, nil
}
