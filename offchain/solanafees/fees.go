package solanafees

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sort"
)

var ErrOverflow = errors.New("overflow")

type TxFeeEstimate struct {
	LamportsPerSignature uint64 `json:"lamports_per_signature"`
	Signatures           uint64 `json:"signatures"`
	BaseFeeLamports      uint64 `json:"base_fee_lamports"`

	ComputeUnitLimit    uint32 `json:"compute_unit_limit"`
	MicroLamportsPerCU  uint64 `json:"micro_lamports_per_cu"`
	PriorityFeeLamports uint64 `json:"priority_fee_lamports"`

	TotalLamports uint64 `json:"total_lamports"`
}

func PriorityFeeLamports(computeUnitLimit uint32, microLamportsPerCU uint64) (uint64, error) {
	if computeUnitLimit == 0 || microLamportsPerCU == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(uint64(computeUnitLimit), microLamportsPerCU)
	if hi != 0 {
		return 0, ErrOverflow
	}
	const denom = uint64(1_000_000)
	return (lo + denom - 1) / denom, nil
}

func BaseFeeLamports(lamportsPerSignature uint64, signatures uint64) (uint64, error) {
	hi, lo := bits.Mul64(lamportsPerSignature, signatures)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// Estimate prices a transaction offline from a known per-signature fee and an
// optional compute budget.
func Estimate(lamportsPerSignature, signatures uint64, computeUnitLimit uint32, microLamportsPerCU uint64) (TxFeeEstimate, error) {
	base, err := BaseFeeLamports(lamportsPerSignature, signatures)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	priority, err := PriorityFeeLamports(computeUnitLimit, microLamportsPerCU)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	total, carry := bits.Add64(base, priority, 0)
	if carry != 0 {
		return TxFeeEstimate{}, ErrOverflow
	}
	return TxFeeEstimate{
		LamportsPerSignature: lamportsPerSignature,
		Signatures:           signatures,
		BaseFeeLamports:      base,
		ComputeUnitLimit:     computeUnitLimit,
		MicroLamportsPerCU:   microLamportsPerCU,
		PriorityFeeLamports:  priority,
		TotalLamports:        total,
	}, nil
}

func (e TxFeeEstimate) String() string {
	return fmt.Sprintf("total=%d lamports (base=%d, priority=%d @ %d microLamports/CU, limit=%d)",
		e.TotalLamports,
		e.BaseFeeLamports,
		e.PriorityFeeLamports,
		e.MicroLamportsPerCU,
		e.ComputeUnitLimit,
	)
}

// MedianMicroLamports is the median of the non-zero recent prioritization
// fees, or 0 when every sample is zero.
func MedianMicroLamports(samples []uint64) uint64 {
	nonZero := make([]uint64, 0, len(samples))
	for _, v := range samples {
		if v != 0 {
			nonZero = append(nonZero, v)
		}
	}
	if len(nonZero) == 0 {
		return 0
	}
	sort.Slice(nonZero, func(i, j int) bool { return nonZero[i] < nonZero[j] })
	return nonZero[len(nonZero)/2]
}

// FeeQuoter prices a serialized message. *solanarpc.Client implements it.
type FeeQuoter interface {
	FeeForMessage(ctx context.Context, message []byte) (uint64, error)
}

type FeeComparison struct {
	BaselineLamports uint64 `json:"baseline_lamports"`
	AssistedLamports uint64 `json:"assisted_lamports"`
	BaselineBytes    int    `json:"baseline_bytes"`
	AssistedBytes    int    `json:"assisted_bytes"`
}

// SavedLamports is baseline minus assisted; negative when the table costs more.
func (f FeeComparison) SavedLamports() int64 {
	return int64(f.BaselineLamports) - int64(f.AssistedLamports)
}

func (f FeeComparison) SavedBytes() int {
	return f.BaselineBytes - f.AssistedBytes
}

func (f FeeComparison) String() string {
	return fmt.Sprintf("baseline=%d lamports (%d bytes), assisted=%d lamports (%d bytes), saved=%d lamports, %d bytes",
		f.BaselineLamports, f.BaselineBytes,
		f.AssistedLamports, f.AssistedBytes,
		f.SavedLamports(), f.SavedBytes(),
	)
}

// Message is what CompareMessageFees needs from a compiled message.
type Message interface {
	Serialized() []byte
	TransactionSize() int
}

// CompareMessageFees quotes the same operations compiled without and with a
// lookup table.
func CompareMessageFees(ctx context.Context, q FeeQuoter, baseline, assisted Message) (FeeComparison, error) {
	if q == nil {
		return FeeComparison{}, errors.New("nil fee quoter")
	}
	b, err := q.FeeForMessage(ctx, baseline.Serialized())
	if err != nil {
		return FeeComparison{}, fmt.Errorf("quote baseline: %w", err)
	}
	a, err := q.FeeForMessage(ctx, assisted.Serialized())
	if err != nil {
		return FeeComparison{}, fmt.Errorf("quote assisted: %w", err)
	}
	return FeeComparison{
		BaselineLamports: b,
		AssistedLamports: a,
		BaselineBytes:    baseline.TransactionSize(),
		AssistedBytes:    assisted.TransactionSize(),
	}, nil
}
