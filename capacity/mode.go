package capacity

import (
	"fmt"
	"strings"

	"github.com/Abdullah1738/alt-capacity/offchain/solana"
)

// AddressingMode selects how destinations are referenced in a message.
type AddressingMode int

const (
	// Inline lists every destination as a full 32-byte static key.
	Inline AddressingMode = iota
	// TableIndexed loads every destination through a one-byte index into a
	// lookup table, at the one-time cost of referencing the table.
	TableIndexed
)

func (m AddressingMode) String() string {
	switch m {
	case Inline:
		return "inline"
	case TableIndexed:
		return "table-indexed"
	default:
		return fmt.Sprintf("AddressingMode(%d)", int(m))
	}
}

func ParseAddressingMode(s string) (AddressingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inline", "baseline":
		return Inline, nil
	case "table-indexed", "table", "indexed", "alt":
		return TableIndexed, nil
	default:
		return 0, fmt.Errorf("unknown addressing mode %q", s)
	}
}

// strategy is the only place the two modes differ: which inputs are valid,
// which tables the compiler may load from, and the closed-form cost.
type strategy interface {
	validate(ops []Operation, table *LookupTable) error
	lookupTables(table *LookupTable) []solana.LookupTable
	estimate(c CostModel, n int) int
}

func (m AddressingMode) strategy() (strategy, error) {
	switch m {
	case Inline:
		return inlineStrategy{}, nil
	case TableIndexed:
		return indexedStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown addressing mode %d", int(m))
	}
}

type inlineStrategy struct{}

func (inlineStrategy) validate([]Operation, *LookupTable) error { return nil }

func (inlineStrategy) lookupTables(*LookupTable) []solana.LookupTable { return nil }

func (inlineStrategy) estimate(c CostModel, n int) int {
	return c.HeaderBytes + n*c.InlineOperationBytes
}

type indexedStrategy struct{}

func (indexedStrategy) validate(ops []Operation, table *LookupTable) error {
	if table == nil {
		return ErrTableRequired
	}
	for _, op := range ops {
		if !table.Contains(op.Destination) {
			return fmt.Errorf("%w: %s", ErrNotInTable, op.Destination)
		}
	}
	return nil
}

func (indexedStrategy) lookupTables(table *LookupTable) []solana.LookupTable {
	return []solana.LookupTable{table.Solana()}
}

func (indexedStrategy) estimate(c CostModel, n int) int {
	return c.HeaderBytes + c.TableReferenceBytes + n*c.IndexedOperationBytes
}
