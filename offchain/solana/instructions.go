package solana

import (
	"encoding/binary"
)

var (
	SystemProgramID        = MustParsePubkey("11111111111111111111111111111111")
	ComputeBudgetProgramID = MustParsePubkey("ComputeBudget111111111111111111111111111111")
)

const (
	systemInstructionTransfer = 2

	// SystemTransferDataLength is the u32 discriminator plus the u64 amount.
	SystemTransferDataLength = 4 + 8
)

// SystemTransfer moves lamports from one system account to another. The data
// is fixed width, so the amount never changes the encoded length.
func SystemTransfer(from, to Pubkey, lamports uint64) Instruction {
	var data [SystemTransferDataLength]byte
	binary.LittleEndian.PutUint32(data[0:4], systemInstructionTransfer)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsSigner: false, IsWritable: true},
		},
		Data: data[:],
	}
}

func ComputeBudgetSetComputeUnitLimit(limit uint32) Instruction {
	var data [5]byte
	data[0] = 2
	binary.LittleEndian.PutUint32(data[1:], limit)
	return Instruction{
		ProgramID: ComputeBudgetProgramID,
		Accounts:  nil,
		Data:      data[:],
	}
}

func ComputeBudgetSetComputeUnitPrice(microLamports uint64) Instruction {
	var data [9]byte
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return Instruction{
		ProgramID: ComputeBudgetProgramID,
		Accounts:  nil,
		Data:      data[:],
	}
}
