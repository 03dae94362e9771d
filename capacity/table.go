package capacity

import (
	"fmt"

	"github.com/Abdullah1738/alt-capacity/offchain/solana"
)

// LookupTable is an in-memory view of an address lookup table: entries keep
// the position they were appended at, and nothing but whole-table closure
// removes them.
type LookupTable struct {
	Address   solana.Pubkey
	authority *solana.Pubkey
	entries   []solana.Pubkey
	index     map[solana.Pubkey]uint8
}

// NewLookupTable creates a table owned by authority holding addresses in order.
func NewLookupTable(address, authority solana.Pubkey, addresses []solana.Pubkey) (*LookupTable, error) {
	auth := authority
	t := &LookupTable{
		Address:   address,
		authority: &auth,
		index:     make(map[solana.Pubkey]uint8, len(addresses)),
	}
	if err := t.Extend(authority, addresses...); err != nil {
		return nil, err
	}
	return t, nil
}

// TableFromState wraps a table fetched from the ledger.
func TableFromState(address solana.Pubkey, state solana.AddressLookupTableState) (*LookupTable, error) {
	if len(state.Addresses) > solana.LookupTableMaxAddresses {
		return nil, fmt.Errorf("%w: %d addresses", ErrTableFull, len(state.Addresses))
	}
	t := &LookupTable{
		Address: address,
		entries: make([]solana.Pubkey, 0, len(state.Addresses)),
		index:   make(map[solana.Pubkey]uint8, len(state.Addresses)),
	}
	if state.Authority != nil {
		auth := *state.Authority
		t.authority = &auth
	}
	for _, pk := range state.Addresses {
		t.appendEntry(pk)
	}
	return t, nil
}

// Authority returns the table authority, or false once frozen.
func (t *LookupTable) Authority() (solana.Pubkey, bool) {
	if t.authority == nil {
		return solana.Pubkey{}, false
	}
	return *t.authority, true
}

func (t *LookupTable) Len() int {
	return len(t.entries)
}

// Addresses returns a copy of the entries in index order.
func (t *LookupTable) Addresses() []solana.Pubkey {
	return append([]solana.Pubkey(nil), t.entries...)
}

// IndexOf reports the position of pk. Duplicated entries resolve to the first.
func (t *LookupTable) IndexOf(pk solana.Pubkey) (uint8, bool) {
	i, ok := t.index[pk]
	return i, ok
}

func (t *LookupTable) Contains(pk solana.Pubkey) bool {
	_, ok := t.index[pk]
	return ok
}

// Extend appends addresses. It is all-or-nothing: a batch that would push the
// table past 256 entries leaves it unchanged.
func (t *LookupTable) Extend(authority solana.Pubkey, addresses ...solana.Pubkey) error {
	if err := t.checkAuthority(authority); err != nil {
		return err
	}
	if len(t.entries)+len(addresses) > solana.LookupTableMaxAddresses {
		return fmt.Errorf("%w: %d + %d > %d", ErrTableFull, len(t.entries), len(addresses), solana.LookupTableMaxAddresses)
	}
	for _, pk := range addresses {
		t.appendEntry(pk)
	}
	return nil
}

// Freeze drops the authority; the table becomes immutable.
func (t *LookupTable) Freeze(authority solana.Pubkey) error {
	if err := t.checkAuthority(authority); err != nil {
		return err
	}
	t.authority = nil
	return nil
}

// Solana converts the table to the form the message compiler consumes.
func (t *LookupTable) Solana() solana.LookupTable {
	return solana.LookupTable{AccountKey: t.Address, Addresses: t.Addresses()}
}

func (t *LookupTable) checkAuthority(authority solana.Pubkey) error {
	if t.authority == nil {
		return ErrTableFrozen
	}
	if *t.authority != authority {
		return fmt.Errorf("%w: %s", ErrNotAuthority, authority)
	}
	return nil
}

func (t *LookupTable) appendEntry(pk solana.Pubkey) {
	if _, ok := t.index[pk]; !ok {
		t.index[pk] = uint8(len(t.entries))
	}
	t.entries = append(t.entries, pk)
}
