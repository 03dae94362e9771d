package solanafees

import (
	"context"
	"errors"
	"testing"
)

func TestPriorityFeeLamports(t *testing.T) {
	t.Parallel()

	got, err := PriorityFeeLamports(200_000, 1_000_000)
	if err != nil {
		t.Fatalf("PriorityFeeLamports: %v", err)
	}
	if got != 200_000 {
		t.Fatalf("got=%d want=200000", got)
	}

	got, err = PriorityFeeLamports(1, 1)
	if err != nil {
		t.Fatalf("PriorityFeeLamports: %v", err)
	}
	if got != 1 {
		t.Fatalf("got=%d want=1", got)
	}

	if _, err := PriorityFeeLamports(^uint32(0), ^uint64(0)); err == nil {
		t.Fatalf("expected overflow")
	}
}

func TestEstimate(t *testing.T) {
	t.Parallel()

	est, err := Estimate(5000, 1, 200_000, 1_000_000)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if est.BaseFeeLamports != 5000 {
		t.Fatalf("base fee mismatch: got=%d want=5000", est.BaseFeeLamports)
	}
	if est.PriorityFeeLamports != 200_000 {
		t.Fatalf("priority fee mismatch: got=%d want=200000", est.PriorityFeeLamports)
	}
	if est.TotalLamports != 205_000 {
		t.Fatalf("total fee mismatch: got=%d want=205000", est.TotalLamports)
	}

	if _, err := Estimate(^uint64(0), 2, 0, 0); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestMedianMicroLamports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []uint64
		want uint64
	}{
		{nil, 0},
		{[]uint64{0, 0}, 0},
		{[]uint64{0, 500, 0}, 500},
		{[]uint64{300, 100, 200}, 200},
		{[]uint64{400, 100, 0, 300, 200}, 300},
	}
	for _, tt := range tests {
		if got := MedianMicroLamports(tt.in); got != tt.want {
			t.Fatalf("MedianMicroLamports(%v)=%d, want %d", tt.in, got, tt.want)
		}
	}
}

type fakeMessage struct {
	bytes []byte
	size  int
}

func (m fakeMessage) Serialized() []byte   { return m.bytes }
func (m fakeMessage) TransactionSize() int { return m.size }

type fakeQuoter map[string]uint64

func (q fakeQuoter) FeeForMessage(_ context.Context, message []byte) (uint64, error) {
	fee, ok := q[string(message)]
	if !ok {
		return 0, errors.New("blockhash not found")
	}
	return fee, nil
}

func TestCompareMessageFees(t *testing.T) {
	t.Parallel()

	q := fakeQuoter{"legacy": 5000, "v0": 5000}
	cmp, err := CompareMessageFees(context.Background(), q,
		fakeMessage{bytes: []byte("legacy"), size: 1197},
		fakeMessage{bytes: []byte("v0"), size: 580},
	)
	if err != nil {
		t.Fatalf("CompareMessageFees: %v", err)
	}
	if cmp.SavedLamports() != 0 || cmp.SavedBytes() != 617 {
		t.Fatalf("cmp=%+v", cmp)
	}
	want := "baseline=5000 lamports (1197 bytes), assisted=5000 lamports (580 bytes), saved=0 lamports, 617 bytes"
	if cmp.String() != want {
		t.Fatalf("String()=%q", cmp.String())
	}

	q["v0"] = 6000
	cmp, err = CompareMessageFees(context.Background(), q, fakeMessage{bytes: []byte("legacy")}, fakeMessage{bytes: []byte("v0")})
	if err != nil {
		t.Fatalf("CompareMessageFees: %v", err)
	}
	if cmp.SavedLamports() != -1000 {
		t.Fatalf("saved=%d", cmp.SavedLamports())
	}
}

func TestCompareMessageFeesQuoteError(t *testing.T) {
	t.Parallel()

	_, err := CompareMessageFees(context.Background(), fakeQuoter{}, fakeMessage{bytes: []byte("x")}, fakeMessage{bytes: []byte("y")})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, err := CompareMessageFees(context.Background(), nil, fakeMessage{}, fakeMessage{}); err == nil {
		t.Fatalf("expected nil quoter error")
	}
}
