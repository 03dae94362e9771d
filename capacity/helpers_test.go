package capacity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Abdullah1738/alt-capacity/offchain/solana"
)

var (
	testPayer = solana.MustParsePubkey("7nYBpkEPkDD6m1JKBGwvftG7bHjJErJPjTH3VbKpump")
	testTable = solana.MustParsePubkey("AddressLookupTab1e1111111111111111111111111")
)

func newTestTable(t *testing.T, addrs []solana.Pubkey) *LookupTable {
	t.Helper()
	table, err := NewLookupTable(testTable, testPayer, addrs)
	require.NoError(t, err)
	return table
}

// countingSizer records how often the wrapped sizer is consulted.
type countingSizer struct {
	Sizer
	calls int
}

func (c *countingSizer) Size(ops []Operation, mode AddressingMode, table *LookupTable) (int, error) {
	c.calls++
	return c.Sizer.Size(ops, mode, table)
}
