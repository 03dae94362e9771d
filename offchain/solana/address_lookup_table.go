package solana

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var AddressLookupTableProgramID = MustParsePubkey("AddressLookupTab1e1111111111111111111111111")

const (
	// LookupTableMaxAddresses is the per-table entry ceiling; indexes are one byte.
	LookupTableMaxAddresses = 256

	// LookupTableMetaSize is the fixed header in front of the address list.
	LookupTableMetaSize = 56

	lookupTableDiscriminator = 1
)

const (
	altInstructionCreate uint32 = iota
	altInstructionFreeze
	altInstructionExtend
	altInstructionDeactivate
	altInstructionClose
)

var (
	ErrInvalidAddressLookupTable = errors.New("invalid address lookup table")
	ErrNoAddresses               = errors.New("no addresses to extend with")
)

// AddressLookupTableState is the decoded content of a lookup table account.
type AddressLookupTableState struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex uint8
	// Authority is nil once the table is frozen.
	Authority *Pubkey
	Addresses []Pubkey
}

// IsActive reports whether deactivation has not been requested.
func (s AddressLookupTableState) IsActive() bool {
	return s.DeactivationSlot == math.MaxUint64
}

func (s AddressLookupTableState) IsFrozen() bool {
	return s.Authority == nil
}

// ParseAddressLookupTableState parses an Address Lookup Table account's raw data.
//
// Format:
//
//	u32  discriminator (1)
//	u64  deactivation_slot (u64::MAX while active)
//	u64  last_extended_slot
//	u8   last_extended_slot_start_index
//	u8   has_authority (0|1)
//	[32] authority pubkey (present even when has_authority=0)
//	[2]  padding (0)
//	[32]* addresses (rest of the account data)
func ParseAddressLookupTableState(data []byte) (AddressLookupTableState, error) {
	var out AddressLookupTableState
	if len(data) < LookupTableMetaSize {
		return out, ErrInvalidAddressLookupTable
	}
	if binary.LittleEndian.Uint32(data[0:4]) != lookupTableDiscriminator {
		return out, ErrInvalidAddressLookupTable
	}
	if (len(data)-LookupTableMetaSize)%PubkeyLength != 0 {
		return out, ErrInvalidAddressLookupTable
	}

	out.DeactivationSlot = binary.LittleEndian.Uint64(data[4:12])
	out.LastExtendedSlot = binary.LittleEndian.Uint64(data[12:20])
	out.LastExtendedSlotStartIndex = data[20]
	switch data[21] {
	case 0:
	case 1:
		var auth Pubkey
		copy(auth[:], data[22:54])
		out.Authority = &auth
	default:
		return out, ErrInvalidAddressLookupTable
	}

	n := (len(data) - LookupTableMetaSize) / PubkeyLength
	if n > LookupTableMaxAddresses {
		return out, fmt.Errorf("%w: %d addresses", ErrInvalidAddressLookupTable, n)
	}
	out.Addresses = make([]Pubkey, 0, n)
	off := LookupTableMetaSize
	for i := 0; i < n; i++ {
		var pk Pubkey
		copy(pk[:], data[off:off+PubkeyLength])
		out.Addresses = append(out.Addresses, pk)
		off += PubkeyLength
	}
	return out, nil
}

// DeriveLookupTableAddress returns the table address the program assigns to
// authority for a create instruction carrying recentSlot.
func DeriveLookupTableAddress(authority Pubkey, recentSlot uint64) (Pubkey, uint8, error) {
	var slot [8]byte
	binary.LittleEndian.PutUint64(slot[:], recentSlot)
	return FindProgramAddress([][]byte{authority[:], slot[:]}, AddressLookupTableProgramID)
}

// CreateLookupTable builds the create instruction and returns the derived table
// address. recentSlot must be a slot the ledger still considers recent.
func CreateLookupTable(authority, payer Pubkey, recentSlot uint64) (Instruction, Pubkey, error) {
	table, bump, err := DeriveLookupTableAddress(authority, recentSlot)
	if err != nil {
		return Instruction{}, Pubkey{}, fmt.Errorf("derive lookup table address: %w", err)
	}

	data := make([]byte, 0, 4+8+1)
	data = binary.LittleEndian.AppendUint32(data, altInstructionCreate)
	data = binary.LittleEndian.AppendUint64(data, recentSlot)
	data = append(data, bump)

	return Instruction{
		ProgramID: AddressLookupTableProgramID,
		Accounts: []AccountMeta{
			{Pubkey: table, IsWritable: true},
			{Pubkey: authority, IsSigner: true},
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: SystemProgramID},
		},
		Data: data,
	}, table, nil
}

// ExtendLookupTable appends addresses to table. payer funds the extra rent.
func ExtendLookupTable(table, authority, payer Pubkey, addresses []Pubkey) (Instruction, error) {
	if len(addresses) == 0 {
		return Instruction{}, ErrNoAddresses
	}
	if len(addresses) > LookupTableMaxAddresses {
		return Instruction{}, fmt.Errorf("%w: %d", ErrLookupTableTooLarge, len(addresses))
	}

	data := make([]byte, 0, 4+8+len(addresses)*PubkeyLength)
	data = binary.LittleEndian.AppendUint32(data, altInstructionExtend)
	data = binary.LittleEndian.AppendUint64(data, uint64(len(addresses)))
	for _, pk := range addresses {
		data = append(data, pk[:]...)
	}

	return Instruction{
		ProgramID: AddressLookupTableProgramID,
		Accounts: []AccountMeta{
			{Pubkey: table, IsWritable: true},
			{Pubkey: authority, IsSigner: true},
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: SystemProgramID},
		},
		Data: data,
	}, nil
}

// FreezeLookupTable drops the authority permanently; the table can no longer
// be extended or closed.
func FreezeLookupTable(table, authority Pubkey) Instruction {
	return authorityInstruction(altInstructionFreeze, table, authority)
}

// DeactivateLookupTable starts the cool-down after which the table can be closed.
func DeactivateLookupTable(table, authority Pubkey) Instruction {
	return authorityInstruction(altInstructionDeactivate, table, authority)
}

// CloseLookupTable destroys a deactivated table and sends its rent to recipient.
func CloseLookupTable(table, authority, recipient Pubkey) Instruction {
	ix := authorityInstruction(altInstructionClose, table, authority)
	ix.Accounts = append(ix.Accounts, AccountMeta{Pubkey: recipient, IsWritable: true})
	return ix
}

func authorityInstruction(kind uint32, table, authority Pubkey) Instruction {
	data := binary.LittleEndian.AppendUint32(nil, kind)
	return Instruction{
		ProgramID: AddressLookupTableProgramID,
		Accounts: []AccountMeta{
			{Pubkey: table, IsWritable: true},
			{Pubkey: authority, IsSigner: true},
		},
		Data: data,
	}
}
