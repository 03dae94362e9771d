package capacity

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/Abdullah1738/alt-capacity/offchain/solana"
)

// Operation is one transfer from Source to Destination. Lamports is encoded as
// a fixed-width u64 and never changes the serialized size.
type Operation struct {
	Source      solana.Pubkey
	Destination solana.Pubkey
	Lamports    uint64
}

func (op Operation) Instruction() solana.Instruction {
	return solana.SystemTransfer(op.Source, op.Destination, op.Lamports)
}

// AddressPool is the ordered list of candidate destinations.
type AddressPool []solana.Pubkey

// TransferOperations builds transfers from source to the first n pool entries.
func TransferOperations(source solana.Pubkey, pool AddressPool, n int, lamports uint64) []Operation {
	if n > len(pool) {
		n = len(pool)
	}
	ops := make([]Operation, n)
	for i := 0; i < n; i++ {
		ops[i] = Operation{Source: source, Destination: pool[i], Lamports: lamports}
	}
	return ops
}

// SyntheticPool derives n distinct, deterministic addresses from seed. The
// addresses have no keys behind them; they are only for sizing.
func SyntheticPool(seed string, n int) AddressPool {
	pool := make(AddressPool, n)
	var idx [8]byte
	for i := range pool {
		binary.LittleEndian.PutUint64(idx[:], uint64(i))
		h := sha256.New()
		h.Write([]byte(seed))
		h.Write(idx[:])
		copy(pool[i][:], h.Sum(nil))
	}
	return pool
}
