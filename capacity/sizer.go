package capacity

import (
	"github.com/Abdullah1738/alt-capacity/offchain/solana"
)

// Sizer returns the serialized transaction size, in bytes, of a message
// carrying ops under mode. Implementations are pure and safe for concurrent
// use; failures are *EncodingError.
type Sizer interface {
	Size(ops []Operation, mode AddressingMode, table *LookupTable) (int, error)
}

// WireSizer compiles the real message and measures it, signatures included.
// Inline compiles a v0 message with no lookups, or a legacy message when
// Legacy is set; TableIndexed always compiles v0.
type WireSizer struct {
	// FeePayer defaults to the first operation's source.
	FeePayer        solana.Pubkey
	RecentBlockhash [32]byte
	Legacy          bool

	// Prelude is compiled ahead of the operations in every message, e.g. the
	// compute budget instructions.
	Prelude []solana.Instruction
}

func (s WireSizer) Size(ops []Operation, mode AddressingMode, table *LookupTable) (int, error) {
	msg, err := s.Compile(ops, mode, table)
	if err != nil {
		return 0, err
	}
	return msg.TransactionSize(), nil
}

// Compile returns the message Size measures.
func (s WireSizer) Compile(ops []Operation, mode AddressingMode, table *LookupTable) (solana.Message, error) {
	st, err := mode.strategy()
	if err != nil {
		return solana.Message{}, &EncodingError{Count: len(ops), Err: err}
	}
	if err := st.validate(ops, table); err != nil {
		return solana.Message{}, &EncodingError{Count: len(ops), Err: err}
	}

	payer := s.FeePayer
	if payer.IsZero() && len(ops) > 0 {
		payer = ops[0].Source
	}
	ixs := s.Instructions(ops)

	var msg solana.Message
	if s.Legacy && mode == Inline {
		msg, err = solana.CompileLegacyMessage(s.RecentBlockhash, payer, ixs)
	} else {
		msg, err = solana.CompileV0Message(s.RecentBlockhash, payer, ixs, st.lookupTables(table))
	}
	if err != nil {
		return solana.Message{}, &EncodingError{Count: len(ops), Err: err}
	}
	return msg, nil
}

// Instructions is the instruction list Compile encodes: Prelude, then one
// instruction per operation.
func (s WireSizer) Instructions(ops []Operation) []solana.Instruction {
	ixs := make([]solana.Instruction, 0, len(s.Prelude)+len(ops))
	ixs = append(ixs, s.Prelude...)
	for _, op := range ops {
		ixs = append(ixs, op.Instruction())
	}
	return ixs
}

// CostModel is the closed-form size estimate: a mode-independent header, a
// per-operation cost that depends on how the destination is referenced, and a
// one-time cost for referencing the table.
type CostModel struct {
	HeaderBytes           int
	InlineOperationBytes  int
	IndexedOperationBytes int
	TableReferenceBytes   int
}

// SystemTransferCostModel matches WireSizer for v0 system transfers from a
// single payer while every shortvec length fits in one byte (< 128 entries).
//
// HeaderBytes is calculated as:
//
//   - 1 byte signature count + 64 byte signature
//   - 1 byte version prefix + 3 byte header
//   - 1 byte key count + 2*32 bytes fee payer and system program
//   - 32 bytes recent blockhash
//   - 1 byte instruction count + 1 byte lookup count
//
// Each transfer instruction is 17 bytes: program index, account count, two
// account indexes, data length and 12 bytes of data. Inline adds the 32-byte
// destination key; indexed adds its one-byte table index. TableReferenceBytes
// is the table key plus the writable and readonly index counts.
var SystemTransferCostModel = CostModel{
	HeaderBytes:           168,
	InlineOperationBytes:  17 + solana.PubkeyLength,
	IndexedOperationBytes: 17 + 1,
	TableReferenceBytes:   solana.PubkeyLength + 2,
}

func (c CostModel) Size(ops []Operation, mode AddressingMode, table *LookupTable) (int, error) {
	st, err := mode.strategy()
	if err != nil {
		return 0, &EncodingError{Count: len(ops), Err: err}
	}
	if err := st.validate(ops, table); err != nil {
		return 0, &EncodingError{Count: len(ops), Err: err}
	}
	return st.estimate(c, len(ops)), nil
}
