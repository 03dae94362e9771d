package solana

import (
	"encoding/binary"
	"testing"
)

func TestSystemTransfer_Layout(t *testing.T) {
	var from, to Pubkey
	from[0] = 1
	to[0] = 2

	ix := SystemTransfer(from, to, 1_000_000)
	if ix.ProgramID != SystemProgramID {
		t.Fatalf("ProgramID mismatch")
	}
	if len(ix.Accounts) != 2 {
		t.Fatalf("accounts=%d, want 2", len(ix.Accounts))
	}
	if ix.Accounts[0] != (AccountMeta{Pubkey: from, IsSigner: true, IsWritable: true}) {
		t.Fatalf("from meta=%+v", ix.Accounts[0])
	}
	if ix.Accounts[1] != (AccountMeta{Pubkey: to, IsSigner: false, IsWritable: true}) {
		t.Fatalf("to meta=%+v", ix.Accounts[1])
	}
	if len(ix.Data) != SystemTransferDataLength {
		t.Fatalf("data len=%d, want %d", len(ix.Data), SystemTransferDataLength)
	}
	if got := binary.LittleEndian.Uint32(ix.Data[0:4]); got != 2 {
		t.Fatalf("discriminator=%d, want 2", got)
	}
	if got := binary.LittleEndian.Uint64(ix.Data[4:12]); got != 1_000_000 {
		t.Fatalf("lamports=%d", got)
	}
}

func TestSystemTransfer_AmountDoesNotChangeLength(t *testing.T) {
	var from, to Pubkey
	for _, amount := range []uint64{0, 1, 1 << 40, ^uint64(0)} {
		if n := len(SystemTransfer(from, to, amount).Data); n != SystemTransferDataLength {
			t.Fatalf("amount=%d: data len=%d", amount, n)
		}
	}
}

func TestComputeBudgetInstructions(t *testing.T) {
	limit := ComputeBudgetSetComputeUnitLimit(200_000)
	if limit.ProgramID != ComputeBudgetProgramID || len(limit.Data) != 5 || limit.Data[0] != 2 {
		t.Fatalf("limit ix=%+v", limit)
	}
	if got := binary.LittleEndian.Uint32(limit.Data[1:]); got != 200_000 {
		t.Fatalf("limit=%d", got)
	}

	price := ComputeBudgetSetComputeUnitPrice(1234)
	if price.ProgramID != ComputeBudgetProgramID || len(price.Data) != 9 || price.Data[0] != 3 {
		t.Fatalf("price ix=%+v", price)
	}
	if got := binary.LittleEndian.Uint64(price.Data[1:]); got != 1234 {
		t.Fatalf("price=%d", got)
	}
}
